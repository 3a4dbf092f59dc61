package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/univ-archive/internal/models"
)

func TestFormatFileSize(t *testing.T) {
	cases := map[int64]string{
		0:                 "0 Bytes",
		-5:                "0 Bytes",
		512:               "512 Bytes",
		1024:              "1 KB",
		1536:              "1.5 KB",
		1572864:           "1.5 MB",
		1048576:           "1 MB",
		5242880:           "5 MB",
		1234567:           "1.18 MB",
		1073741824:        "1 GB",
		5 * 1099511627776: "5120 GB",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatFileSize(in), in)
	}
}

func TestFormatDate(t *testing.T) {
	d := time.Date(2024, time.March, 7, 12, 0, 0, 0, time.Local)
	assert.Equal(t, "07/03/2024", FormatDate(d))
	assert.Equal(t, "-", FormatDate(time.Time{}))
}

func TestHashIsDeterministic(t *testing.T) {
	assert.Equal(t, int64(0), Hash(""))
	assert.Equal(t, Hash("Analyse"), Hash("Analyse"))
	assert.Equal(t, ThemeForName("Algèbre linéaire"), ThemeForName("Algèbre linéaire"))
	assert.NotEqual(t, Hash("Analyse"), Hash("analyse"))

	// h = 30*h + code, so "ab" = 30*97 + 98.
	assert.Equal(t, int64(30*97+98), Hash("ab"))
	// astral runes count as two UTF-16 units
	assert.Equal(t, int64(30*0xD83D+0xDCD8), Hash("📘"))

	long := strings.Repeat("Programmation orientée objet ", 40)
	h := Hash(long)
	assert.GreaterOrEqual(t, h, int64(0))
	assert.Equal(t, h, Hash(long))
}

func TestThemeForIndexWraps(t *testing.T) {
	assert.Equal(t, Palette[0], ThemeForIndex(0))
	assert.Equal(t, Palette[1], ThemeForIndex(len(Palette)+1))
	assert.Equal(t, Palette[2], ThemeForIndex(-2))
}

func TestCardsPreserveOrder(t *testing.T) {
	b := NewCards("")
	semesters := []models.Semester{
		{ID: "s3", DisplayName: "Semestre 3"},
		{ID: "s1", DisplayName: "Semestre 1"},
		{ID: "s2", Name: "s2"},
	}
	cards := b.Semesters(semesters)
	require.Len(t, cards, 3)
	for i, c := range cards {
		assert.Equal(t, semesters[i].ID, c.ID)
		assert.Equal(t, ThemeForIndex(i), c.Theme)
	}
	assert.Equal(t, "s2", cards[2].Title)
	assert.Equal(t, "archive-cli types s3", cards[0].Next)

	files := []models.File{{ID: "f2", OriginalName: "b.pdf"}, {ID: "f1", OriginalName: "a.pdf"}, {ID: "f2b", OriginalName: "b.pdf"}}
	fileCards := b.Files(files)
	require.Len(t, fileCards, 3)
	assert.Equal(t, []string{"f2", "f1", "f2b"}, []string{fileCards[0].ID, fileCards[1].ID, fileCards[2].ID})
	assert.Equal(t, fileCards[0].Theme, fileCards[2].Theme)

	assert.Empty(t, b.Years(nil))
}

func TestCardsLinkToNextLevel(t *testing.T) {
	b := NewCards("arc")
	types := b.Types("s1", []models.DocumentType{{ID: "t1", Name: "td"}})
	require.Len(t, types, 1)
	assert.Equal(t, "Travaux Dirigés", types[0].Title)
	assert.Equal(t, "arc subjects s1 t1", types[0].Next)

	subjects := b.Subjects("s1", "t1", []models.Subject{{ID: "m1", Name: "Analyse numérique"}})
	assert.Equal(t, "arc years s1 t1 m1", subjects[0].Next)
	assert.Equal(t, ThemeForName("Analyse numérique"), subjects[0].Theme)

	years := b.Years([]models.Year{{ID: "y 1", Year: "2024"}})
	assert.Equal(t, "arc files 'y 1'", years[0].Next)

	files := b.Files([]models.File{{ID: "f1", OriginalName: "serie.pdf", FileSize: 1024, Subject: "Analyse", Year: "2024"}})
	assert.Equal(t, "arc view f1  |  arc download f1", files[0].Next)
	assert.Contains(t, files[0].Subtitle, "1 KB")
	assert.Equal(t, []string{"Analyse · 2024"}, files[0].Details)
}

func TestViewRendersCardsInOrder(t *testing.T) {
	v := NewView(&bytes.Buffer{})
	cards := NewCards("").Semesters([]models.Semester{
		{ID: "s1", DisplayName: "Semestre 1"},
		{ID: "s2", DisplayName: "Semestre 2"},
	})
	out := v.Cards("Semestres", cards, "Aucun semestre")
	first := strings.Index(out, "Semestre 1")
	second := strings.Index(out, "Semestre 2")
	require.NotEqual(t, -1, first)
	assert.Greater(t, second, first)
	assert.Contains(t, out, "archive-cli types s2")

	assert.Contains(t, v.Cards("Semestres", nil, "Aucun semestre"), "Aucun semestre")
}

func TestViewPanels(t *testing.T) {
	v := NewView(&bytes.Buffer{})
	out := v.Error(errors.New("Service temporairement indisponible"), "Réessayez avec --retry")
	assert.Contains(t, out, "Service temporairement indisponible")
	assert.Contains(t, out, "Réessayez avec --retry")

	table := v.FileTable([]models.File{{ID: "f1", OriginalName: "serie.pdf", FileSize: 2048, Semester: "s1"}})
	assert.Contains(t, table, "serie.pdf")
	assert.Contains(t, table, "2 KB")
	assert.Contains(t, v.FileTable(nil), "Aucun fichier")

	stats := v.Stats(models.Stats{
		ArchiveTotals: models.ArchiveTotals{TotalFiles: 3, TotalSize: 1572864},
		BySemester:    []models.StatBucket{{Name: "s1", Count: 3, Size: 1572864}},
	})
	assert.Contains(t, stats, "1.5 MB")
	assert.Contains(t, stats, "Par semestre")
	assert.NotContains(t, stats, "Par type")
}
