package console

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var (
	// ErrEmptyQuery is returned when the submitted text is blank.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrSubmitInFlight is returned while a previous submission awaits its response.
	ErrSubmitInFlight = errors.New("a query is already being sent")
	// ErrFeedbackSent is returned when a message already received feedback.
	ErrFeedbackSent = errors.New("feedback already sent for this message")
	// ErrFeedbackPending is returned while feedback for the same message is being sent.
	ErrFeedbackPending = errors.New("feedback for this message is being sent")
)

// Client is the client-side console session. It owns the transcript, the
// poll cursor and every in-flight request.
type Client struct {
	api      API
	renderer Renderer
	view     View
	notifier Notifier
	gate     *Gate
	backoff  *pollBackoff

	onGate     func(busy bool)
	onRetry    func(delay time.Duration, err error)
	pollBase   time.Duration
	pollMax    time.Duration
	seed       []Message
	seedCursor string

	mu         sync.Mutex
	transcript *Transcript
	cursor     string
	inflight   map[string]context.CancelFunc
	// streamed holds the ids whose text is being accumulated from stream
	// frames. Entries created by polls, history or a resumed transcript are
	// replaced by the first frame instead of appended to.
	streamed map[string]bool
	feedback map[string]bool // feedback requests in flight
}

// Option configures a Client.
type Option func(*Client)

// WithRenderer sets the renderer used for message markup.
func WithRenderer(r Renderer) Option {
	return func(c *Client) { c.renderer = r }
}

// WithView sets the view that reflects transcript changes.
func WithView(v View) Option {
	return func(c *Client) { c.view = v }
}

// WithNotifier sets where notices go.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithSubmitObserver is called whenever the submit control is locked or unlocked.
func WithSubmitObserver(fn func(busy bool)) Option {
	return func(c *Client) { c.onGate = fn }
}

// WithPollDelays sets the base and the ceiling of the poll retry delay.
func WithPollDelays(base, max time.Duration) Option {
	return func(c *Client) {
		c.pollBase = base
		c.pollMax = max
	}
}

// WithRetryObserver is called before the poll loop sleeps after a failure.
func WithRetryObserver(fn func(delay time.Duration, err error)) Option {
	return func(c *Client) { c.onRetry = fn }
}

// WithTranscript resumes from a previously saved transcript and cursor.
func WithTranscript(msgs []Message, cursor string) Option {
	return func(c *Client) {
		c.seed = msgs
		c.seedCursor = cursor
	}
}

// NewClient creates a console session talking to api.
func NewClient(api API, opts ...Option) *Client {
	c := &Client{
		api:      api,
		view:     discard{},
		notifier: discard{},
		pollBase: DefaultPollBaseDelay,
		pollMax:  DefaultPollMaxDelay,
		inflight: map[string]context.CancelFunc{},
		streamed: map[string]bool{},
		feedback: map[string]bool{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.gate = NewGate(c.onGate)
	c.backoff = newPollBackoff(c.pollBase, c.pollMax)
	c.transcript = NewTranscript(c.seed...)
	c.cursor = c.seedCursor
	c.seed = nil
	return c
}

// Transcript returns a copy of the current transcript.
func (c *Client) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}

// Message returns the entry for id.
func (c *Client) Message(id string) (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Get(id)
}

// LastIncoming returns the most recent robot message.
func (c *Client) LastIncoming() (Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.LastIncoming()
}

// Cursor returns the id of the last message received through polling.
func (c *Client) Cursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Busy reports whether a chat submission is in flight.
func (c *Client) Busy() bool {
	return c.gate.Busy()
}

// InFlight returns the number of backend calls currently running.
func (c *Client) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

// CancelAll aborts every in-flight request and returns how many were aborted.
func (c *Client) CancelAll() int {
	c.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(c.inflight))
	for _, cancel := range c.inflight {
		cancels = append(cancels, cancel)
	}
	c.mu.Unlock()
	for _, cancel := range cancels {
		cancel()
	}
	return len(cancels)
}

// Requests returns the ids of the backend calls currently running.
// A chat submission is registered under its message id.
func (c *Client) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.inflight))
	for id := range c.inflight {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cancel aborts the in-flight request registered under id.
func (c *Client) Cancel(id string) bool {
	c.mu.Lock()
	cancel, ok := c.inflight[id]
	c.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// track registers a cancelable context for one backend call. An empty id
// gets a generated one.
func (c *Client) track(ctx context.Context, id string) (context.Context, func()) {
	if id == "" {
		id = uuid.NewString()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.inflight[id] = cancel
	c.mu.Unlock()
	return ctx, func() {
		c.mu.Lock()
		delete(c.inflight, id)
		c.mu.Unlock()
		cancel()
	}
}

// SubmitChatText sends text to the robot. Blank text never reaches the
// network. The submit control stays locked until the response arrives.
func (c *Client) SubmitChatText(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		c.notifier.Notify(Notice{Level: LevelError, Title: "Invalid command", Message: "Please enter a valid command"})
		return ErrEmptyQuery
	}
	release, ok := c.gate.Acquire()
	if !ok {
		c.notifier.Notify(Notice{Level: LevelInfo, Title: "Busy", Message: "Waiting for the previous command"})
		return ErrSubmitInFlight
	}
	defer release()

	id := "chat" + uuid.NewString()
	c.add(Message{ID: id, Direction: Outgoing, Text: text})

	ctx, done := c.track(ctx, id)
	defer done()

	log.Debug().Str("component", "console").Str("uuid", id).Msg("submitting query")
	ack, err := c.api.SubmitChat(ctx, text, id)
	if err != nil {
		log.Warn().Err(err).Str("component", "console").Str("uuid", id).Msg("query submission failed")
		c.notifier.Notify(Notice{Level: LevelError, Title: "Command failed", Message: noticeText(err)})
		return err
	}
	if !ack.Empty {
		c.notifier.Notify(Notice{Level: LevelSuccess, Title: "Command sent", Message: ack.Message})
	}
	return nil
}

// ControlAction triggers a robot control action and reports the outcome.
func (c *Client) ControlAction(ctx context.Context, kind ControlKind) error {
	if !kind.Valid() {
		return errors.Errorf("unknown control action: %s", kind)
	}
	ctx, done := c.track(ctx, "")
	defer done()

	ack, err := c.api.Control(ctx, kind)
	if err != nil {
		log.Warn().Err(err).Str("component", "console").Str("action", string(kind)).Msg("control action failed")
		c.notifier.Notify(Notice{Level: LevelError, Title: kind.Title() + " failed", Message: noticeText(err)})
		return err
	}
	c.notifier.Notify(Notice{Level: LevelSuccess, Title: kind.Title(), Message: ack.Message})
	return nil
}

// SubmitFeedback reports whether an answer was useful. A message accepts
// feedback once.
func (c *Client) SubmitFeedback(ctx context.Context, messageID string, useful bool) error {
	c.mu.Lock()
	var refused error
	if m, ok := c.transcript.Lookup(messageID); ok && m.FeedbackSent {
		refused = ErrFeedbackSent
	} else if c.feedback[messageID] {
		refused = ErrFeedbackPending
	} else {
		c.feedback[messageID] = true
	}
	c.mu.Unlock()
	if refused != nil {
		c.notifier.Notify(Notice{Level: LevelInfo, Title: "Feedback", Message: refused.Error()})
		return refused
	}

	ctx, done := c.track(ctx, "")
	defer done()

	ack, err := c.api.Feedback(ctx, messageID, useful)
	if err != nil {
		c.mu.Lock()
		delete(c.feedback, messageID)
		c.mu.Unlock()
		c.notifier.Notify(Notice{Level: LevelError, Title: "Feedback failed", Message: noticeText(err)})
		return err
	}

	c.mu.Lock()
	delete(c.feedback, messageID)
	m, ok := c.transcript.Lookup(messageID)
	var updated Message
	if ok {
		m.FeedbackSent = true
		updated = *m
	}
	c.mu.Unlock()
	if ok {
		c.view.MessageUpdated(updated)
	}
	c.notifier.Notify(Notice{Level: LevelSuccess, Title: "Feedback sent", Message: ack.Message})
	return nil
}

// OnStreamEvent folds a pushed frame into the transcript. The first frame of
// an id creates the entry, or replaces the text of an entry that arrived by
// other means; later frames append their text. The entry is re-rendered
// from the whole text every time.
func (c *Client) OnStreamEvent(ev Event) {
	if !ev.Action.Conversational() || ev.ID == "" {
		return
	}

	c.mu.Lock()
	m, existed := c.transcript.Lookup(ev.ID)
	switch {
	case !existed:
		c.transcript.Insert(c.newMessage(ev))
		m, _ = c.transcript.Lookup(ev.ID)
	case c.streamed[ev.ID]:
		m.Text += ev.Text
	default:
		m.Text = ev.Text
	}
	c.streamed[ev.ID] = true
	if existed {
		m.Markup = c.render(m.Text)
		m.UpdatedAt = time.Now()
	}
	snapshot := *m
	c.mu.Unlock()

	if existed {
		c.view.MessageUpdated(snapshot)
	} else {
		c.view.MessageAdded(snapshot)
	}
}

// Hydrate merges the backend's full history into the transcript.
func (c *Client) Hydrate(ctx context.Context) (int, error) {
	ctx, done := c.track(ctx, "")
	defer done()

	events, err := c.api.History(ctx)
	if err != nil {
		c.notifier.Notify(Notice{Level: LevelError, Title: "History failed", Message: noticeText(err)})
		return 0, err
	}
	return c.merge(events), nil
}

// PollOnce performs a single fallback poll and merges what it returns.
func (c *Client) PollOnce(ctx context.Context) (int, error) {
	ctx, done := c.track(ctx, "")
	defer done()

	events, err := c.api.PollUpdates(ctx, c.Cursor())
	if err != nil {
		return 0, err
	}
	return c.merge(events), nil
}

// PollFallback polls until ctx is done. A success re-polls immediately and
// resets the retry delay; a failure doubles it up to the configured ceiling.
func (c *Client) PollFallback(ctx context.Context) error {
	logger := log.With().Str("component", "poll").Logger()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := c.PollOnce(ctx)
		if err == nil {
			c.backoff.Success()
			if n > 0 {
				logger.Debug().Int("messages", n).Str("cursor", c.Cursor()).Msg("new messages")
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		delay := c.backoff.Failure()
		logger.Warn().Err(err).Dur("delay", delay).Msg("poll failed, sleeping")
		if c.onRetry != nil {
			c.onRetry(delay, err)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// merge inserts unseen entries and advances the cursor to the last id of the batch.
func (c *Client) merge(events []Event) int {
	if len(events) == 0 {
		return 0
	}
	var added []Message
	c.mu.Lock()
	for _, ev := range events {
		if ev.ID == "" {
			continue
		}
		if _, ok := c.transcript.Lookup(ev.ID); ok {
			continue
		}
		m := c.newMessage(ev)
		c.transcript.Insert(m)
		added = append(added, m)
	}
	if last := events[len(events)-1].ID; last != "" {
		c.cursor = last
	}
	c.mu.Unlock()

	for _, m := range added {
		c.view.MessageAdded(m)
	}
	return len(added)
}

func (c *Client) add(m Message) {
	now := time.Now()
	m.CreatedAt, m.UpdatedAt = now, now
	c.mu.Lock()
	inserted := c.transcript.Insert(m)
	c.mu.Unlock()
	if inserted {
		c.view.MessageAdded(m)
	}
}

// newMessage must be called with c.mu held.
func (c *Client) newMessage(ev Event) Message {
	now := time.Now()
	return Message{
		ID:        ev.ID,
		Direction: ev.Direction(),
		Text:      ev.Text,
		Label:     ev.Plugin,
		Markup:    c.render(ev.Text),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (c *Client) render(text string) string {
	if c.renderer == nil || text == "" {
		return ""
	}
	out, err := c.renderer.Render(text)
	if err != nil {
		log.Debug().Err(err).Str("component", "console").Msg("render failed, showing raw text")
		return ""
	}
	return out
}
