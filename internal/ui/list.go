package ui

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/abelbrown/animalbase/internal/entity"
	"github.com/abelbrown/animalbase/internal/projection"
	"github.com/charmbracelet/lipgloss"
)

// Column widths in runes.
const (
	markWidth = 2
	typeWidth = 10
	ageWidth  = 4
	minText   = 8
)

// RenderList renders the projected entities as aligned rows, scrolled so
// the cursor stays visible.
func RenderList(entities []entity.Entity, cursor, width, height int, s projection.Settings) string {
	if len(entities) == 0 {
		return HelpStyle.Render("No animals to display.")
	}

	nameW, descW := textWidths(width)

	var b strings.Builder
	b.WriteString(renderColumnHeader(nameW, descW, s))
	b.WriteString("\n")

	availableHeight := height - 1
	if availableHeight < 1 {
		availableHeight = 1
	}

	offset := calcScrollOffset(cursor, availableHeight)
	for i := offset; i < len(entities) && i < offset+availableHeight; i++ {
		b.WriteString(renderRow(entities[i], i == cursor, nameW, descW))
		b.WriteString("\n")
	}

	return b.String()
}

// calcScrollOffset returns the first visible index for the given cursor.
func calcScrollOffset(cursor, availableHeight int) int {
	if cursor >= availableHeight {
		return cursor - availableHeight + 1
	}
	return 0
}

// textWidths splits the width left after the fixed columns between name
// and description.
func textWidths(width int) (int, int) {
	fixed := 2*markWidth + typeWidth + ageWidth + 6
	free := width - fixed
	if free < 2*minText {
		free = 2 * minText
	}
	nameW := free / 2
	return nameW, free - nameW
}

func renderColumnHeader(nameW, descW int, s projection.Settings) string {
	label := func(f projection.Field, text string, w int) string {
		if f == s.SortBy {
			arrow := "▲"
			if s.Direction == projection.Descending {
				arrow = "▼"
			}
			return SortedColumnHeader.Render(pad(text+" "+arrow, w))
		}
		return ColumnHeader.Render(pad(text, w))
	}

	return strings.Repeat(" ", 2*markWidth+2) +
		label(projection.FieldName, "Name", nameW) +
		label(projection.FieldDescription, "Description", descW) +
		label(projection.FieldCategory, "Type", typeWidth) +
		label(projection.FieldAge, "Age", ageWidth)
}

// renderRow renders a single entity row.
func renderRow(e entity.Entity, selected bool, nameW, descW int) string {
	star := "☆"
	if e.Starred {
		star = StarMark.Render("★")
	}
	winner := " "
	if e.Winner {
		winner = WinnerMark.Render("♛")
	}
	marks := pad(star, markWidth) + pad(winner, markWidth)

	text := pad(truncate(e.Name, nameW), nameW) + "  " +
		pad(truncate(e.Description, descW), descW) + "  " +
		pad(truncate(e.Category, typeWidth), typeWidth) + "  " +
		fmt.Sprintf("%*s", ageWidth, strconv.Itoa(e.Age))

	var style lipgloss.Style
	switch {
	case selected:
		style = SelectedItem
	case e.Winner:
		style = WinnerItem
	default:
		style = NormalItem
	}
	return " " + marks + style.Render(text)
}

// truncate shortens s to maxLen runes, adding "…" if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string([]rune(s)[:maxLen])
	}
	return string([]rune(s)[:maxLen-1]) + "…"
}

// pad right-pads s with spaces to w cells.
func pad(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}
