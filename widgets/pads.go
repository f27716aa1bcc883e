package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Pad box geometry (border included)
const (
	PadWidth  = 9
	PadHeight = 3
	PadGap    = 1
)

// PadStyle is how one pad box is drawn
type PadStyle struct {
	Border     lipgloss.Color
	Foreground lipgloss.Color
	Background lipgloss.Color // empty = terminal default
	Bold       bool
}

// RenderPadBox draws a bordered pad with its label centered
func RenderPadBox(label string, ps PadStyle) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ps.Border).
		Foreground(ps.Foreground).
		Bold(ps.Bold).
		Width(PadWidth - 2).
		Align(lipgloss.Center)
	if ps.Background != "" {
		style = style.Background(ps.Background)
	}
	return style.Render(label)
}

// RenderPadRows lays boxes out in rows of columns, PadGap apart
func RenderPadRows(boxes []string, columns int) string {
	gap := strings.Repeat(" ", PadGap)
	var rows []string
	for start := 0; start < len(boxes); start += columns {
		end := min(start+columns, len(boxes))
		var parts []string
		for i := start; i < end; i++ {
			if i > start {
				parts = append(parts, gap)
			}
			parts = append(parts, boxes[i])
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, parts...))
	}
	return strings.Join(rows, "\n")
}

// PadOrigin returns the top-left cell of pad i within RenderPadRows output
func PadOrigin(i, columns int) (x, y int) {
	row, col := i/columns, i%columns
	return col * (PadWidth + PadGap), row * PadHeight
}

// RenderPad renders a single colored pad
func RenderPad(color [3]uint8) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(rgbToHex(color)))
	return style.Render("■")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color [3]uint8, name, desc string) string {
	return fmt.Sprintf("  %s %s - %s", RenderPad(color), name, desc)
}

func rgbToHex(c [3]uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2])
}
