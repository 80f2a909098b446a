package tui

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/longkey1/chatconsole/internal/console"
)

type messageMsg struct {
	msg   console.Message
	added bool
}

type noticeMsg console.Notice

type busyMsg bool

type streamMsg bool

type retryMsg struct {
	delay time.Duration
	err   error
}

// Bridge forwards console callbacks into the running program. Callbacks
// arriving before Attach are dropped.
type Bridge struct {
	mu sync.RWMutex
	p  *tea.Program
}

var (
	_ console.View     = (*Bridge)(nil)
	_ console.Notifier = (*Bridge)(nil)
)

// Attach starts delivering to p.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	b.p = p
	b.mu.Unlock()
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.RLock()
	p := b.p
	b.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

func (b *Bridge) MessageAdded(m console.Message)   { b.send(messageMsg{msg: m, added: true}) }
func (b *Bridge) MessageUpdated(m console.Message) { b.send(messageMsg{msg: m}) }
func (b *Bridge) Notify(n console.Notice)          { b.send(noticeMsg(n)) }

// SubmitState reports the submit gate.
func (b *Bridge) SubmitState(busy bool) { b.send(busyMsg(busy)) }

// StreamState reports the push channel.
func (b *Bridge) StreamState(connected bool) { b.send(streamMsg(connected)) }

// RetryState reports a failed fallback poll.
func (b *Bridge) RetryState(delay time.Duration, err error) { b.send(retryMsg{delay: delay, err: err}) }
