// Package tui is the interactive terminal front end of the console.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/longkey1/chatconsole/internal/console"
)

const noticeTTL = 4 * time.Second

type noticeExpiredMsg int

type hydratedMsg struct{ err error }

// Options configures the model.
type Options struct {
	Title string // shown in the header, usually the server URL
	// Hydrate loads the backend history on start.
	Hydrate bool
}

// Model is the bubbletea model of the console.
type Model struct {
	ctx    context.Context
	client *console.Client
	opts   Options

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	order []string
	byID  map[string]console.Message

	notice    *console.Notice
	noticeSeq int
	busy      bool
	connected bool
	retry     string
	ready     bool
	width     int
}

// New creates the model. ctx bounds every backend call the model starts.
func New(ctx context.Context, client *console.Client, opts Options) Model {
	in := textinput.New()
	in.Placeholder = "Type a query and press enter"
	in.Prompt = "> "
	in.CharLimit = 2000
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		client:   client,
		opts:     opts,
		input:    in,
		spinner:  sp,
		viewport: viewport.New(80, 20),
		byID:     map[string]console.Message{},
	}
	for _, msg := range client.Transcript() {
		m.upsert(msg)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.opts.Hydrate {
		cmds = append(cmds, m.hydrate())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-6, 3)
		m.input.Width = max(msg.Width-8, 10)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.client.CancelAll()
			return m, tea.Quit
		case "esc":
			if n := m.client.CancelAll(); n > 0 {
				m.setNotice(console.Notice{Level: console.LevelInfo, Title: "Cancelled", Message: fmt.Sprintf("%d request(s)", n)})
				cmds = append(cmds, m.expire())
			}
			return m, tea.Batch(cmds...)
		case "enter":
			text := m.input.Value()
			m.input.Reset()
			return m, m.submit(text)
		case "ctrl+w":
			return m, m.control(console.ControlWake)
		case "ctrl+s":
			return m, m.control(console.ControlSleep)
		case "ctrl+x":
			return m, m.control(console.ControlInterrupt)
		case "ctrl+r":
			return m, m.control(console.ControlAskAgain)
		case "ctrl+f":
			return m, m.feedback()
		case "pgup", "pgdown", "up", "down":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case messageMsg:
		m.upsert(msg.msg)
		m.refresh()

	case noticeMsg:
		m.setNotice(console.Notice(msg))
		cmds = append(cmds, m.expire())

	case noticeExpiredMsg:
		if int(msg) == m.noticeSeq {
			m.notice = nil
		}

	case busyMsg:
		m.busy = bool(msg)

	case streamMsg:
		m.connected = bool(msg)
		if m.connected {
			m.retry = ""
		}

	case retryMsg:
		m.retry = fmt.Sprintf("poll retry in %s", msg.delay.Round(time.Millisecond))

	case hydratedMsg:
		for _, msg := range m.client.Transcript() {
			m.upsert(msg)
		}
		m.refresh()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header(),
		m.viewport.View(),
		m.statusLine(),
		inputBorder.Width(max(m.width-2, 10)).Render(m.input.View()),
	)
}

func (m Model) header() string {
	title := "chatconsole"
	if m.opts.Title != "" {
		title += " " + m.opts.Title
	}
	state := offlineStyle.Render("● polling")
	if m.connected {
		state = onlineStyle.Render("● live")
	}
	return headerStyle.Render(title) + " " + state
}

func (m Model) statusLine() string {
	var parts []string
	if m.busy {
		parts = append(parts, m.spinner.View()+" sending")
	}
	if m.notice != nil {
		text := m.notice.Title
		if m.notice.Message != "" {
			text += ": " + m.notice.Message
		}
		parts = append(parts, noticeStyles[m.notice.Level].Render(text))
	} else if m.retry != "" {
		parts = append(parts, offlineStyle.Render(m.retry))
	}
	if len(parts) == 0 {
		return helpStyle.Render("enter send · ^w wake · ^s sleep · ^x interrupt · ^r ask again · ^f not useful · esc cancel · ^c quit")
	}
	return strings.Join(parts, "  ")
}

func (m *Model) upsert(msg console.Message) {
	if _, ok := m.byID[msg.ID]; !ok {
		m.order = append(m.order, msg.ID)
	}
	m.byID[msg.ID] = msg
}

func (m *Model) refresh() {
	var b strings.Builder
	for i, id := range m.order {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(renderMessage(m.byID[id]))
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func renderMessage(msg console.Message) string {
	var head string
	if msg.Direction == console.Outgoing {
		head = youStyle.Render("you")
	} else {
		head = robotStyle.Render("robot")
	}
	if msg.Label != "" {
		head += " " + labelStyle.Render("["+msg.Label+"]")
	}
	if msg.FeedbackSent {
		head += " " + doneStyle.Render("(feedback sent)")
	}
	return head + "\n" + strings.TrimRight(msg.Display(), "\n")
}

func (m *Model) setNotice(n console.Notice) {
	m.noticeSeq++
	m.notice = &n
}

func (m Model) expire() tea.Cmd {
	seq := m.noticeSeq
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg(seq) })
}

// Backend calls run as commands; their outcome reaches the model through the
// client's view and notifier.

func (m Model) submit(text string) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		_ = client.SubmitChatText(ctx, text)
		return nil
	}
}

func (m Model) control(kind console.ControlKind) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		_ = client.ControlAction(ctx, kind)
		return nil
	}
}

func (m Model) feedback() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		last, ok := client.LastIncoming()
		if !ok {
			return noticeMsg(console.Notice{Level: console.LevelInfo, Title: "Feedback", Message: "no robot message yet"})
		}
		_ = client.SubmitFeedback(ctx, last.ID, false)
		return nil
	}
}

func (m Model) hydrate() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		_, err := client.Hydrate(ctx)
		return hydratedMsg{err: err}
	}
}
