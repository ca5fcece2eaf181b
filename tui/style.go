package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

var (
	Title   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("228")) // Bright yellow
	Status  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	Message = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("252"))
	Hint    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))            // Green
	Stuck   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")) // Bright red

	boardFrame = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(0, 1)

	emptyCell = lipgloss.NewStyle().Background(lipgloss.Color("237"))
)

// tileColors maps tile values to 256-color backgrounds; larger tiles reuse the last entry
var tileColors = []struct {
	value int
	bg    string
	fg    string
}{
	{2, "230", "235"},
	{4, "223", "235"},
	{8, "215", "255"},
	{16, "209", "255"},
	{32, "203", "255"},
	{64, "196", "255"},
	{128, "227", "235"},
	{256, "221", "235"},
	{512, "220", "235"},
	{1024, "214", "235"},
	{2048, "208", "255"},
	{4096, "93", "255"},
}

func tileStyle(v int) lipgloss.Style {
	if v == 0 {
		return emptyCell
	}
	c := tileColors[len(tileColors)-1]
	for _, tc := range tileColors {
		if v <= tc.value {
			c = tc
			break
		}
	}
	return lipgloss.NewStyle().
		Bold(true).
		Background(lipgloss.Color(c.bg)).
		Foreground(lipgloss.Color(c.fg))
}

// renderTile draws a single cell of the given inner width
func renderTile(v, width int) string {
	label := ""
	if v != 0 {
		label = strconv.Itoa(v)
	}
	return tileStyle(v).
		Width(width).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(label)
}
