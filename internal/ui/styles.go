package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorGold      = lipgloss.Color("220") // Winner
	colorStar      = lipgloss.Color("214") // Star
)

// HeaderStyle for the title line.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorHighlight).
	Padding(0, 1)

// ColumnHeader style for the column labels above the list.
var ColumnHeader = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorSecondary).
	Padding(0, 1)

// SortedColumnHeader marks the column the list is sorted by.
var SortedColumnHeader = ColumnHeader.
	Foreground(colorHighlight).
	Underline(true)

// SelectedItem style for the currently highlighted row.
var SelectedItem = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255")).
	Background(colorPrimary).
	Padding(0, 1)

// NormalItem style for unselected rows.
var NormalItem = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Padding(0, 1)

// WinnerItem style for rows of winners.
var WinnerItem = lipgloss.NewStyle().
	Foreground(colorGold).
	Padding(0, 1)

// StarMark style for the star column.
var StarMark = lipgloss.NewStyle().
	Foreground(colorStar)

// WinnerMark style for the winner column.
var WinnerMark = lipgloss.NewStyle().
	Foreground(colorGold).
	Bold(true)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// NoticeStyle for non-fatal notices such as skipped records.
var NoticeStyle = lipgloss.NewStyle().
	Foreground(colorStar).
	Padding(0, 1)

// HelpStyle for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(colorMuted).
	Padding(1, 2)

// PromptBox frames a conflict decision.
var PromptBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorGold).
	Padding(0, 1)

// PromptTitle style for the prompt heading.
var PromptTitle = lipgloss.NewStyle().
	Bold(true).
	Foreground(colorGold)
