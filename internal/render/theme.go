// Package render turns archive records into terminal cards and panels.
package render

import (
	"unicode/utf16"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the visual identity of one card.
type Theme struct {
	Name   string
	Accent lipgloss.Color
	Muted  lipgloss.Color
	Icon   string
}

// Palette is the fixed set of card themes.
var Palette = []Theme{
	{Name: "blue", Accent: lipgloss.Color("#2563EB"), Muted: lipgloss.Color("#93C5FD"), Icon: "◆"},
	{Name: "green", Accent: lipgloss.Color("#16A34A"), Muted: lipgloss.Color("#86EFAC"), Icon: "●"},
	{Name: "purple", Accent: lipgloss.Color("#9333EA"), Muted: lipgloss.Color("#D8B4FE"), Icon: "▲"},
	{Name: "orange", Accent: lipgloss.Color("#EA580C"), Muted: lipgloss.Color("#FDBA74"), Icon: "■"},
	{Name: "pink", Accent: lipgloss.Color("#DB2777"), Muted: lipgloss.Color("#F9A8D4"), Icon: "★"},
	{Name: "teal", Accent: lipgloss.Color("#0D9488"), Muted: lipgloss.Color("#5EEAD4"), Icon: "◉"},
}

// Hash is the string hash used for theme selection. It folds UTF-16 code units
// into a wrapping 32-bit accumulator and returns its absolute value.
func Hash(s string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 - h + int32(unit)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// ThemeForName picks a palette entry from the hash of name.
func ThemeForName(name string) Theme {
	return Palette[Hash(name)%int64(len(Palette))]
}

// ThemeForIndex picks a palette entry by position.
func ThemeForIndex(i int) Theme {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}
