package tui

import (
	"context"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/longkey1/chatconsole/internal/console"
)

type stubAPI struct {
	mu       sync.Mutex
	chats    []string
	controls []console.ControlKind
	feedback []string
}

func (s *stubAPI) SubmitChat(_ context.Context, query, _ string) (console.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, query)
	return console.Ack{Message: "success"}, nil
}

func (s *stubAPI) Control(_ context.Context, kind console.ControlKind) (console.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controls = append(s.controls, kind)
	return console.Ack{Message: "success"}, nil
}

func (s *stubAPI) Feedback(_ context.Context, id string, _ bool) (console.Ack, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = append(s.feedback, id)
	return console.Ack{Message: "success"}, nil
}

func (s *stubAPI) PollUpdates(context.Context, string) ([]console.Event, error) { return nil, nil }
func (s *stubAPI) History(context.Context) ([]console.Event, error)            { return nil, nil }

func newTestModel(t *testing.T, opts ...console.Option) (Model, *stubAPI, *console.Client) {
	t.Helper()
	api := &stubAPI{}
	client := console.NewClient(api, opts...)
	m := New(context.Background(), client, Options{Title: "http://robot.local"})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(Model), api, client
}

// run executes cmd and any commands it batches, returning non-nil messages.
func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func TestEnterSubmitsQuery(t *testing.T) {
	m, api, client := newTestModel(t)
	m.input.SetValue("what time is it")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Equal(t, "", m.input.Value())

	run(cmd)
	assert.Equal(t, []string{"what time is it"}, api.chats)
	assert.Len(t, client.Transcript(), 1)
}

func TestControlKeys(t *testing.T) {
	m, api, _ := newTestModel(t)
	keys := []tea.KeyType{tea.KeyCtrlW, tea.KeyCtrlS, tea.KeyCtrlX, tea.KeyCtrlR}
	for _, k := range keys {
		_, cmd := m.Update(tea.KeyMsg{Type: k})
		run(cmd)
	}
	assert.Equal(t, []console.ControlKind{
		console.ControlWake,
		console.ControlSleep,
		console.ControlInterrupt,
		console.ControlAskAgain,
	}, api.controls)
}

func TestFeedbackKeyTargetsLastRobotMessage(t *testing.T) {
	m, api, client := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	msgs := run(cmd)
	require.Len(t, msgs, 1)
	assert.IsType(t, noticeMsg{}, msgs[0])

	client.OnStreamEvent(console.Event{Action: console.ActionNewMessage, ID: "r1", Text: "answer"})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlF})
	run(cmd)
	assert.Equal(t, []string{"r1"}, api.feedback)
}

func TestMessagesRenderInOrder(t *testing.T) {
	m, _, _ := newTestModel(t)

	for _, msg := range []tea.Msg{
		messageMsg{msg: console.Message{ID: "u", Direction: console.Outgoing, Text: "hi"}, added: true},
		messageMsg{msg: console.Message{ID: "r", Direction: console.Incoming, Text: "hel", Label: "chat"}, added: true},
		messageMsg{msg: console.Message{ID: "r", Direction: console.Incoming, Text: "hello", Label: "chat"}},
	} {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}

	assert.Equal(t, []string{"u", "r"}, m.order)
	assert.Equal(t, "hello", m.byID["r"].Text)
	view := m.View()
	assert.Contains(t, view, "hi")
	assert.Contains(t, view, "hello")
	assert.Contains(t, view, "[chat]")
}

func TestNoticeExpires(t *testing.T) {
	m, _, _ := newTestModel(t)

	updated, _ := m.Update(noticeMsg(console.Notice{Level: console.LevelError, Title: "Command failed", Message: "server error"}))
	m = updated.(Model)
	require.NotNil(t, m.notice)
	assert.Contains(t, m.View(), "Command failed: server error")

	updated, _ = m.Update(noticeMsg(console.Notice{Level: console.LevelSuccess, Title: "Wake up"}))
	m = updated.(Model)

	// the first notice's timer must not clear the second
	updated, _ = m.Update(noticeExpiredMsg(1))
	m = updated.(Model)
	require.NotNil(t, m.notice)
	assert.Equal(t, "Wake up", m.notice.Title)

	updated, _ = m.Update(noticeExpiredMsg(2))
	m = updated.(Model)
	assert.Nil(t, m.notice)
}

func TestStreamAndBusyState(t *testing.T) {
	m, _, _ := newTestModel(t)
	assert.Contains(t, m.View(), "polling")

	updated, _ := m.Update(streamMsg(true))
	m = updated.(Model)
	assert.Contains(t, m.View(), "live")

	updated, _ = m.Update(busyMsg(true))
	m = updated.(Model)
	assert.True(t, m.busy)
	assert.Contains(t, m.View(), "sending")
}

func TestCtrlCQuits(t *testing.T) {
	m, _, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBridgeWithoutProgram(t *testing.T) {
	b := &Bridge{}
	assert.NotPanics(t, func() {
		b.MessageAdded(console.Message{ID: "x"})
		b.Notify(console.Notice{Title: "x"})
		b.SubmitState(true)
		b.StreamState(false)
	})
}
