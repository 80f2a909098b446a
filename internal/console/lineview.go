package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	youStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	robotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// LineView writes the transcript as plain lines, for pipes and the watch
// command. Streamed tokens are written as they arrive.
type LineView struct {
	mu      sync.Mutex
	out     io.Writer
	notices io.Writer
	active  string // id of the message on the current line
	printed int    // bytes of the active message already written
}

// NewLineView writes messages to out and notices to notices.
func NewLineView(out, notices io.Writer) *LineView {
	return &LineView{out: out, notices: notices}
}

func (v *LineView) MessageAdded(m Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.startLocked(m)
}

func (v *LineView) MessageUpdated(m Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if m.ID != v.active || len(m.Text) < v.printed {
		v.startLocked(m)
		return
	}
	fmt.Fprint(v.out, m.Text[v.printed:])
	v.printed = len(m.Text)
}

// Notify implements Notifier.
func (v *LineView) Notify(n Notice) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLineLocked()
	style := infoStyle
	switch n.Level {
	case LevelSuccess:
		style = successStyle
	case LevelError:
		style = errorStyle
	}
	text := n.Title
	if n.Message != "" {
		text += ": " + n.Message
	}
	fmt.Fprintln(v.notices, style.Render(text))
}

// Close terminates the current line.
func (v *LineView) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.endLineLocked()
	return nil
}

func (v *LineView) startLocked(m Message) {
	v.endLineLocked()
	fmt.Fprint(v.out, prefix(m), m.Text)
	v.active = m.ID
	v.printed = len(m.Text)
}

func (v *LineView) endLineLocked() {
	if v.active != "" {
		fmt.Fprintln(v.out)
		v.active = ""
		v.printed = 0
	}
}

func prefix(m Message) string {
	var b strings.Builder
	if m.Direction == Outgoing {
		b.WriteString(youStyle.Render("you"))
	} else {
		b.WriteString(robotStyle.Render("robot"))
	}
	if m.Label != "" {
		b.WriteString(" " + labelStyle.Render("["+m.Label+"]"))
	}
	b.WriteString("> ")
	return b.String()
}
