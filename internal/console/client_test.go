package console

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu        sync.Mutex
	chats     []string
	controls  []ControlKind
	feedbacks []string
	cursors   []string

	chatErr      error
	chatAck      Ack
	block        chan struct{} // when set SubmitChat waits on it
	feedbackErr  error
	feedbackHold chan struct{} // when set Feedback waits on it
	polls        []pollResult
	history      []Event
	historyEr    error
}

type pollResult struct {
	events []Event
	err    error
}

func (f *fakeAPI) SubmitChat(ctx context.Context, query, messageID string) (Ack, error) {
	f.mu.Lock()
	f.chats = append(f.chats, query)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return Ack{}, ctx.Err()
		}
	}
	return f.chatAck, f.chatErr
}

func (f *fakeAPI) Control(_ context.Context, kind ControlKind) (Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, kind)
	return Ack{Message: "success"}, nil
}

func (f *fakeAPI) Feedback(ctx context.Context, messageID string, _ bool) (Ack, error) {
	f.mu.Lock()
	f.feedbacks = append(f.feedbacks, messageID)
	hold, err := f.feedbackHold, f.feedbackErr
	f.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return Ack{}, ctx.Err()
		}
	}
	if err != nil {
		return Ack{}, err
	}
	return Ack{Message: "success"}, nil
}

func (f *fakeAPI) feedbackCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.feedbacks...)
}

func (f *fakeAPI) PollUpdates(ctx context.Context, cursor string) ([]Event, error) {
	f.mu.Lock()
	f.cursors = append(f.cursors, cursor)
	if len(f.polls) == 0 {
		f.mu.Unlock()
		<-ctx.Done()
		return nil, ctx.Err()
	}
	r := f.polls[0]
	f.polls = f.polls[1:]
	f.mu.Unlock()
	return r.events, r.err
}

func (f *fakeAPI) History(context.Context) ([]Event, error) {
	return f.history, f.historyEr
}

type recordingView struct {
	mu      sync.Mutex
	added   []Message
	updated []Message
}

func (v *recordingView) MessageAdded(m Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.added = append(v.added, m)
}

func (v *recordingView) MessageUpdated(m Message) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updated = append(v.updated, m)
}

type noticeLog struct {
	mu      sync.Mutex
	notices []Notice
}

func (n *noticeLog) Notify(notice Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *noticeLog) last(t *testing.T) Notice {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.notices)
	return n.notices[len(n.notices)-1]
}

type upperRenderer struct{}

func (upperRenderer) Render(text string) (string, error) { return strings.ToUpper(text), nil }

func intp(i int) *int { return &i }

func TestSubmitBlankTextMakesNoCall(t *testing.T) {
	api := &fakeAPI{}
	notices := &noticeLog{}
	var gateChanges []bool
	c := NewClient(api, WithNotifier(notices), WithSubmitObserver(func(b bool) { gateChanges = append(gateChanges, b) }))

	for _, text := range []string{"", "   ", "\n\t"} {
		err := c.SubmitChatText(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
	assert.Empty(t, api.chats)
	assert.Empty(t, c.Transcript())
	assert.Empty(t, gateChanges)
	assert.False(t, c.Busy())
	n := notices.last(t)
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Invalid command", n.Title)
}

func TestSubmitAddsOutgoingMessage(t *testing.T) {
	api := &fakeAPI{chatAck: Ack{Message: "success"}}
	notices := &noticeLog{}
	view := &recordingView{}
	c := NewClient(api, WithNotifier(notices), WithView(view))

	require.NoError(t, c.SubmitChatText(context.Background(), "hello"))

	msgs := c.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, Outgoing, msgs[0].Direction)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.True(t, strings.HasPrefix(msgs[0].ID, "chat"))
	assert.Len(t, view.added, 1)
	assert.Equal(t, []string{"hello"}, api.chats)
	assert.Equal(t, LevelSuccess, notices.last(t).Level)
}

func TestSubmitEmptyReplyShowsNoNotice(t *testing.T) {
	api := &fakeAPI{chatAck: Ack{Empty: true}}
	notices := &noticeLog{}
	c := NewClient(api, WithNotifier(notices))

	require.NoError(t, c.SubmitChatText(context.Background(), "hello"))
	assert.Empty(t, notices.notices)
}

func TestSubmitFailureReleasesGate(t *testing.T) {
	api := &fakeAPI{chatErr: &testServerError{msg: "robot offline"}}
	notices := &noticeLog{}
	var mu sync.Mutex
	var changes []bool
	c := NewClient(api, WithNotifier(notices), WithSubmitObserver(func(b bool) {
		mu.Lock()
		changes = append(changes, b)
		mu.Unlock()
	}))

	err := c.SubmitChatText(context.Background(), "hello")
	require.Error(t, err)
	assert.False(t, c.Busy())
	assert.Equal(t, []bool{true, false}, changes)

	n := notices.last(t)
	assert.Equal(t, LevelError, n.Level)
	assert.Equal(t, "Command failed", n.Title)
	assert.Equal(t, "robot offline", n.Message)
}

func TestSubmitWhileBusyIsRejected(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	c := NewClient(api)

	done := make(chan error, 1)
	go func() { done <- c.SubmitChatText(context.Background(), "first") }()
	require.Eventually(t, c.Busy, time.Second, 5*time.Millisecond)

	err := c.SubmitChatText(context.Background(), "second")
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(api.block)
	require.NoError(t, <-done)
	assert.False(t, c.Busy())
	assert.Equal(t, []string{"first"}, api.chats)
}

func TestCancelAllAbortsSubmission(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	c := NewClient(api)

	done := make(chan error, 1)
	go func() { done <- c.SubmitChatText(context.Background(), "slow") }()
	require.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, c.CancelAll())
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, c.Busy())
	assert.Equal(t, 0, c.InFlight())
}

func TestControlAction(t *testing.T) {
	api := &fakeAPI{}
	notices := &noticeLog{}
	c := NewClient(api, WithNotifier(notices))

	require.NoError(t, c.ControlAction(context.Background(), ControlWake))
	assert.Equal(t, []ControlKind{ControlWake}, api.controls)
	assert.Equal(t, Notice{Level: LevelSuccess, Title: "Wake up", Message: "success"}, notices.last(t))

	assert.Error(t, c.ControlAction(context.Background(), ControlKind("dance")))
	assert.Len(t, api.controls, 1)
}

func TestStreamUnseenIDCreatesOneEntry(t *testing.T) {
	view := &recordingView{}
	c := NewClient(&fakeAPI{}, WithView(view), WithRenderer(upperRenderer{}))

	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "m1", Text: "hel", Type: intp(1), Plugin: "chat"})
	c.OnStreamEvent(Event{Action: ActionRobotWrite, ID: "m1", Text: "lo"})

	msgs := c.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "HELLO", msgs[0].Markup)
	assert.Equal(t, "chat", msgs[0].Label)
	assert.Equal(t, Incoming, msgs[0].Direction)
	require.Len(t, view.added, 1)
	require.Len(t, view.updated, 1)
	assert.Equal(t, "HELLO", view.updated[0].Display())
}

func TestStreamIgnoresNonConversationalFrames(t *testing.T) {
	c := NewClient(&fakeAPI{})
	c.OnStreamEvent(Event{Action: ActionRobotSpeak, ID: "m1", Text: "x"})
	c.OnStreamEvent(Event{Action: ActionRobotSleep, ID: "m2"})
	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "", Text: "no id"})
	assert.Empty(t, c.Transcript())
}

func TestStreamUserSpeakIsOutgoing(t *testing.T) {
	c := NewClient(&fakeAPI{})
	c.OnStreamEvent(Event{Action: ActionUserSpeak, ID: "u1", Text: "hi", Type: intp(0)})
	msg, ok := c.Message("u1")
	require.True(t, ok)
	assert.Equal(t, Outgoing, msg.Direction)
}

func TestStreamAndPollShareIdentity(t *testing.T) {
	api := &fakeAPI{polls: []pollResult{{events: []Event{
		{ID: "m1", Text: "hello", Type: intp(1)},
		{ID: "m2", Text: "again", Type: intp(1)},
	}}}}
	c := NewClient(api)

	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "m1", Text: "hello"})
	n, err := c.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	msgs := c.Transcript()
	require.Len(t, msgs, 2)
	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "m2", msgs[1].ID)
}

func TestPollThenStreamKeepsOneEntry(t *testing.T) {
	api := &fakeAPI{polls: []pollResult{{events: []Event{{ID: "m1", Text: "hello", Type: intp(1)}}}}}
	view := &recordingView{}
	c := NewClient(api, WithView(view), WithRenderer(upperRenderer{}))

	_, err := c.PollOnce(context.Background())
	require.NoError(t, err)
	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "m1", Text: "hello"})

	msgs := c.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "HELLO", msgs[0].Markup)
	require.Len(t, view.updated, 1)

	c.OnStreamEvent(Event{Action: ActionRobotWrite, ID: "m1", Text: " there"})
	msg, _ := c.Message("m1")
	assert.Equal(t, "hello there", msg.Text)
	assert.Len(t, c.Transcript(), 1)
}

func TestPollThenPartialStreamRestartsText(t *testing.T) {
	api := &fakeAPI{polls: []pollResult{{events: []Event{{ID: "m1", Text: "hello", Type: intp(1)}}}}}
	c := NewClient(api)

	_, err := c.PollOnce(context.Background())
	require.NoError(t, err)
	c.OnStreamEvent(Event{Action: ActionRobotWrite, ID: "m1", Text: "hel"})
	c.OnStreamEvent(Event{Action: ActionRobotWrite, ID: "m1", Text: "lo"})

	msgs := c.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestHydrateThenStreamKeepsOneEntry(t *testing.T) {
	api := &fakeAPI{history: []Event{{ID: "h1", Text: "from history", Type: intp(1)}}}
	c := NewClient(api)

	_, err := c.Hydrate(context.Background())
	require.NoError(t, err)
	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "h1", Text: "from history"})

	msgs := c.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, "from history", msgs[0].Text)
}

func TestResumedTranscriptThenStreamKeepsOneEntry(t *testing.T) {
	c := NewClient(&fakeAPI{}, WithTranscript([]Message{
		{ID: "r1", Direction: Incoming, Text: "saved answer"},
	}, "r1"))

	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "r1", Text: "saved answer"})

	msgs := c.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, "saved answer", msgs[0].Text)
}

func TestSubmittedQueryEchoedByStream(t *testing.T) {
	c := NewClient(&fakeAPI{})
	require.NoError(t, c.SubmitChatText(context.Background(), "what time is it"))
	id := c.Transcript()[0].ID

	c.OnStreamEvent(Event{Action: ActionUserSpeak, ID: id, Text: "what time is it", Type: intp(0)})

	msgs := c.Transcript()
	require.Len(t, msgs, 1)
	assert.Equal(t, "what time is it", msgs[0].Text)
}

func TestPollCursorAdvances(t *testing.T) {
	api := &fakeAPI{polls: []pollResult{
		{events: []Event{{ID: "a"}, {ID: "b"}}},
		{events: nil},
		{events: []Event{{ID: "c"}}},
	}}
	c := NewClient(api)

	for i := 0; i < 3; i++ {
		_, err := c.PollOnce(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"", "b", "b"}, api.cursors)
	assert.Equal(t, "c", c.Cursor())
}

func TestPollFallbackBackoff(t *testing.T) {
	boom := errors.New("boom")
	api := &fakeAPI{polls: []pollResult{
		{err: boom},
		{err: boom},
		{err: boom},
		{events: []Event{{ID: "a"}}},
		{err: boom},
	}}
	var mu sync.Mutex
	var delays []time.Duration
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := NewClient(api,
		WithPollDelays(time.Millisecond, 3*time.Millisecond),
		WithRetryObserver(func(d time.Duration, err error) {
			mu.Lock()
			delays = append(delays, d)
			mu.Unlock()
		}),
	)

	done := make(chan error, 1)
	go func() { done <- c.PollFallback(ctx) }()

	// the sixth poll blocks until cancellation
	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.cursors) == 6
	}, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []time.Duration{
		2 * time.Millisecond,
		3 * time.Millisecond,
		3 * time.Millisecond,
		2 * time.Millisecond,
	}, delays)
	assert.Equal(t, "a", c.Cursor())
}

func TestPollBackoffSequence(t *testing.T) {
	b := newPollBackoff(100*time.Millisecond, time.Second)
	var got []time.Duration
	for i := 0; i < 6; i++ {
		got = append(got, b.Failure())
	}
	assert.Equal(t, []time.Duration{
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
		time.Second,
	}, got)

	b.Success()
	assert.Equal(t, 200*time.Millisecond, b.Failure())
	assert.Equal(t, 400*time.Millisecond, b.Failure())
}

func TestPollBackoffDefaults(t *testing.T) {
	b := newPollBackoff(DefaultPollBaseDelay, DefaultPollMaxDelay)
	assert.Equal(t, time.Second, b.Failure())
	assert.Equal(t, 2*time.Second, b.Failure())
}

func TestHydrate(t *testing.T) {
	api := &fakeAPI{history: []Event{
		{ID: "a", Text: "hi", Type: intp(0)},
		{ID: "b", Text: "hello", Type: intp(1), Plugin: "weather"},
		{ID: "a", Text: "dup", Type: intp(0)},
	}}
	c := NewClient(api, WithTranscript([]Message{{ID: "a", Direction: Outgoing, Text: "hi"}}, ""))

	n, err := c.Hydrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, c.Transcript(), 2)

	last, ok := c.LastIncoming()
	require.True(t, ok)
	assert.Equal(t, "weather", last.Label)
}

func TestHydrateFailureNotifies(t *testing.T) {
	notices := &noticeLog{}
	c := NewClient(&fakeAPI{historyEr: errors.New("down")}, WithNotifier(notices))
	_, err := c.Hydrate(context.Background())
	require.Error(t, err)
	assert.Equal(t, "server error", notices.last(t).Message)
}

func TestFeedbackOnce(t *testing.T) {
	api := &fakeAPI{}
	view := &recordingView{}
	c := NewClient(api, WithView(view))
	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "m1", Text: "answer"})

	require.NoError(t, c.SubmitFeedback(context.Background(), "m1", false))
	msg, _ := c.Message("m1")
	assert.True(t, msg.FeedbackSent)
	require.Len(t, view.updated, 1)

	err := c.SubmitFeedback(context.Background(), "m1", true)
	assert.ErrorIs(t, err, ErrFeedbackSent)
	assert.Equal(t, []string{"m1"}, api.feedbacks)
}

func TestFeedbackWhilePendingIsRejected(t *testing.T) {
	api := &fakeAPI{feedbackHold: make(chan struct{})}
	c := NewClient(api)
	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "m1", Text: "answer"})

	done := make(chan error, 1)
	go func() { done <- c.SubmitFeedback(context.Background(), "m1", false) }()
	require.Eventually(t, func() bool { return c.InFlight() == 1 }, time.Second, time.Millisecond)

	err := c.SubmitFeedback(context.Background(), "m1", false)
	assert.ErrorIs(t, err, ErrFeedbackPending)

	close(api.feedbackHold)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"m1"}, api.feedbackCalls())
	msg, _ := c.Message("m1")
	assert.True(t, msg.FeedbackSent)
}

func TestFeedbackFailureAllowsRetry(t *testing.T) {
	api := &fakeAPI{feedbackErr: errors.New("down")}
	c := NewClient(api)
	c.OnStreamEvent(Event{Action: ActionNewMessage, ID: "m1", Text: "answer"})

	require.Error(t, c.SubmitFeedback(context.Background(), "m1", false))
	msg, _ := c.Message("m1")
	assert.False(t, msg.FeedbackSent)

	api.mu.Lock()
	api.feedbackErr = nil
	api.mu.Unlock()
	require.NoError(t, c.SubmitFeedback(context.Background(), "m1", false))
	assert.Equal(t, []string{"m1", "m1"}, api.feedbackCalls())
}

func TestWithTranscriptResumes(t *testing.T) {
	c := NewClient(&fakeAPI{}, WithTranscript([]Message{
		{ID: "a", Text: "one"},
		{ID: "a", Text: "dup"},
		{ID: "b", Text: "two"},
	}, "b"))
	assert.Len(t, c.Transcript(), 2)
	assert.Equal(t, "b", c.Cursor())
}

type testServerError struct{ msg string }

func (e *testServerError) Error() string         { return "api: " + e.msg }
func (e *testServerError) ServerMessage() string { return e.msg }

func TestCancelByMessageID(t *testing.T) {
	api := &fakeAPI{block: make(chan struct{})}
	c := NewClient(api)

	done := make(chan error, 1)
	go func() { done <- c.SubmitChatText(context.Background(), "slow") }()
	require.Eventually(t, func() bool { return len(c.Requests()) == 1 }, time.Second, 5*time.Millisecond)

	id := c.Requests()[0]
	msg, ok := c.Message(id)
	require.True(t, ok)
	assert.Equal(t, "slow", msg.Text)

	assert.True(t, c.Cancel(id))
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.False(t, c.Cancel(id))
	assert.Empty(t, c.Requests())
}
