package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/noah-isme/univ-archive/internal/models"
)

var (
	errorColor   = lipgloss.Color("#DC2626")
	successColor = lipgloss.Color("#16A34A")
	mutedColor   = lipgloss.Color("#6B7280")
)

// View renders cards and panels for one output stream.
type View struct {
	r       *lipgloss.Renderer
	title   lipgloss.Style
	muted   lipgloss.Style
	bold    lipgloss.Style
	errBox  lipgloss.Style
	success lipgloss.Style
}

// NewView detects the color profile of w.
func NewView(w io.Writer) *View {
	r := lipgloss.NewRenderer(w)
	return &View{
		r:     r,
		title: r.NewStyle().Bold(true).MarginBottom(1),
		muted: r.NewStyle().Foreground(mutedColor),
		bold:  r.NewStyle().Bold(true),
		errBox: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Foreground(errorColor).
			Padding(0, 1),
		success: r.NewStyle().Foreground(successColor).Bold(true),
	}
}

// Card renders one card.
func (v *View) Card(c Card) string {
	box := v.r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Theme.Accent).
		Padding(0, 1)
	heading := v.r.NewStyle().Foreground(c.Theme.Accent).Bold(true).Render(c.Theme.Icon + " " + c.Title)

	lines := []string{heading}
	if c.Subtitle != "" {
		lines = append(lines, v.r.NewStyle().Foreground(c.Theme.Muted).Render(c.Subtitle))
	}
	lines = append(lines, c.Details...)
	if c.Next != "" {
		lines = append(lines, v.muted.Render("→ "+c.Next))
	}
	return box.Render(strings.Join(lines, "\n"))
}

// Cards renders a titled list of cards in order, or empty when there are none.
func (v *View) Cards(title string, cards []Card, empty string) string {
	var sb strings.Builder
	if title != "" {
		sb.WriteString(v.title.Render(title))
		sb.WriteString("\n")
	}
	if len(cards) == 0 {
		sb.WriteString(v.muted.Render(empty))
		sb.WriteString("\n")
		return sb.String()
	}
	for _, c := range cards {
		sb.WriteString(v.Card(c))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Error renders the inline error panel. hint is printed under the message when set.
func (v *View) Error(err error, hint string) string {
	body := "Erreur : " + err.Error()
	if hint != "" {
		body += "\n" + hint
	}
	return v.errBox.Render(body) + "\n"
}

// Success renders a confirmation line.
func (v *View) Success(msg string) string {
	return v.success.Render("✓ "+msg) + "\n"
}

// FileTable renders the admin file listing.
func (v *View) FileTable(files []models.File) string {
	if len(files) == 0 {
		return v.muted.Render("Aucun fichier") + "\n"
	}
	headers := []string{"ID", "Nom", "Semestre", "Type", "Matière", "Année", "Taille", "Ajouté le"}
	rows := make([][]string, 0, len(files))
	for _, f := range files {
		rows = append(rows, []string{
			f.ID, f.OriginalName, f.Semester, f.Type, f.Subject, f.Year,
			FormatFileSize(f.FileSize), FormatDate(f.UploadedAt),
		})
	}
	return v.table(headers, rows)
}

// Stats renders the admin statistics dashboard.
func (v *View) Stats(s models.Stats) string {
	var sb strings.Builder
	sb.WriteString(v.title.Render("Statistiques de l'archive"))
	sb.WriteString("\n")
	totals := [][]string{
		{"Fichiers", strconv.FormatInt(s.TotalFiles, 10)},
		{"Taille totale", FormatFileSize(s.TotalSize)},
		{"Semestres", strconv.FormatInt(s.TotalSemesters, 10)},
		{"Types", strconv.FormatInt(s.TotalTypes, 10)},
		{"Matières", strconv.FormatInt(s.TotalSubjects, 10)},
		{"Années", strconv.FormatInt(s.TotalYears, 10)},
	}
	sb.WriteString(v.table([]string{"Indicateur", "Valeur"}, totals))
	for _, group := range []struct {
		title   string
		buckets []models.StatBucket
	}{
		{"Par semestre", s.BySemester},
		{"Par type", s.ByType},
		{"Par stockage", s.ByProvider},
	} {
		if len(group.buckets) == 0 {
			continue
		}
		rows := make([][]string, 0, len(group.buckets))
		for _, b := range group.buckets {
			rows = append(rows, []string{b.Name, strconv.FormatInt(b.Count, 10), FormatFileSize(b.Size)})
		}
		sb.WriteString("\n")
		sb.WriteString(v.bold.Render(group.title))
		sb.WriteString("\n")
		sb.WriteString(v.table([]string{"Nom", "Fichiers", "Taille"}, rows))
	}
	if !s.GeneratedAt.IsZero() {
		sb.WriteString(v.muted.Render(fmt.Sprintf("Généré le %s", s.GeneratedAt.Local().Format(DateLayout+" 15:04"))))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (v *View) table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	header := v.bold.Padding(0, 1)
	cell := v.r.NewStyle().Padding(0, 1)
	sep := v.muted.Render("│")

	var sb strings.Builder
	writeRow := func(style lipgloss.Style, values []string) {
		for i, value := range values {
			if i >= len(widths) {
				break
			}
			sb.WriteString(style.Width(widths[i] + 2).Render(value))
			if i < len(values)-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}
	writeRow(header, headers)
	total := len(widths) - 1
	for _, w := range widths {
		total += w + 2
	}
	sb.WriteString(v.muted.Render(strings.Repeat("─", total)))
	sb.WriteString("\n")
	for _, row := range rows {
		writeRow(cell, row)
	}
	return sb.String()
}
