package render

import (
	"fmt"
	"strings"

	"github.com/noah-isme/univ-archive/internal/models"
)

// DefaultProgram is the CLI name printed in next-level commands.
const DefaultProgram = "archive-cli"

// Card is the presentation of one archive record.
type Card struct {
	ID       string
	Title    string
	Subtitle string
	Details  []string
	Next     string
	Theme    Theme
}

// Cards builds presentation cards for each level of the archive. It only knows
// the CLI name it links to.
type Cards struct {
	Program string
}

// NewCards returns card builders linking to program.
func NewCards(program string) Cards {
	if program == "" {
		program = DefaultProgram
	}
	return Cards{Program: program}
}

func (b Cards) command(args ...string) string {
	quoted := make([]string, 0, len(args)+1)
	quoted = append(quoted, b.Program)
	for _, arg := range args {
		if arg == "" || strings.ContainsAny(arg, " \t'\"") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
		}
		quoted = append(quoted, arg)
	}
	return strings.Join(quoted, " ")
}

// Semesters returns one card per semester, themed by position.
func (b Cards) Semesters(items []models.Semester) []Card {
	cards := make([]Card, 0, len(items))
	for i, s := range items {
		cards = append(cards, Card{
			ID:       s.ID,
			Title:    pick(s.DisplayName, s.Name),
			Subtitle: "Parcourir les types de documents",
			Next:     b.command("types", s.ID),
			Theme:    ThemeForIndex(i),
		})
	}
	return cards
}

// Types returns one card per document type of semesterID, themed by position.
func (b Cards) Types(semesterID string, items []models.DocumentType) []Card {
	cards := make([]Card, 0, len(items))
	for i, t := range items {
		title := t.DisplayName
		if title == "" {
			title, _ = models.DocumentTypeLabel(t.Name)
		}
		cards = append(cards, Card{
			ID:       t.ID,
			Title:    pick(title, t.Name),
			Subtitle: "Voir les matières",
			Next:     b.command("subjects", semesterID, t.ID),
			Theme:    ThemeForIndex(i),
		})
	}
	return cards
}

// Subjects returns one card per subject, themed by the subject name.
func (b Cards) Subjects(semesterID, typeID string, items []models.Subject) []Card {
	cards := make([]Card, 0, len(items))
	for _, s := range items {
		cards = append(cards, Card{
			ID:       s.ID,
			Title:    s.Name,
			Subtitle: "Voir les années disponibles",
			Next:     b.command("years", semesterID, typeID, s.ID),
			Theme:    ThemeForName(s.Name),
		})
	}
	return cards
}

// Years returns one card per academic year, themed by position.
func (b Cards) Years(items []models.Year) []Card {
	cards := make([]Card, 0, len(items))
	for i, y := range items {
		cards = append(cards, Card{
			ID:       y.ID,
			Title:    y.Year,
			Subtitle: "Voir les documents",
			Next:     b.command("files", y.ID),
			Theme:    ThemeForIndex(i),
		})
	}
	return cards
}

// Files returns one card per document, themed by the file name.
func (b Cards) Files(items []models.File) []Card {
	cards := make([]Card, 0, len(items))
	for _, f := range items {
		cards = append(cards, Card{
			ID:       f.ID,
			Title:    f.OriginalName,
			Subtitle: fmt.Sprintf("%s · %s", FormatFileSize(f.FileSize), FormatDate(f.UploadedAt)),
			Details:  fileDetails(f),
			Next:     b.command("view", f.ID) + "  |  " + b.command("download", f.ID),
			Theme:    ThemeForName(f.OriginalName),
		})
	}
	return cards
}

func fileDetails(f models.File) []string {
	var parts []string
	if f.Subject != "" {
		parts = append(parts, f.Subject)
	}
	if f.Year != "" {
		parts = append(parts, f.Year)
	}
	if len(parts) == 0 {
		return nil
	}
	return []string{strings.Join(parts, " · ")}
}

func pick(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
