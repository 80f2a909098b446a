package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/longkey1/chatconsole/internal/console"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	onlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	youStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	robotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	noticeStyles = map[console.Level]lipgloss.Style{
		console.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#AFAFAF")),
		console.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		console.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	inputBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)
)
