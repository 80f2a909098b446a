// Package stream consumes the robot's WebSocket event stream.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/longkey1/chatconsole/internal/console"
)

const (
	DefaultPath              = "/websocket"
	DefaultReconnectBase     = 500 * time.Millisecond
	DefaultReconnectMaxDelay = 30 * time.Second
)

// Handler receives decoded frames.
type Handler func(ev console.Event)

// Options configures a Stream.
type Options struct {
	URL               string // ws:// or wss:// endpoint
	Token             string // sent as the validation cookie
	Dialer            *websocket.Dialer
	ReconnectBase     time.Duration
	ReconnectMaxDelay time.Duration
	// OnState is told about every connect and disconnect.
	OnState func(connected bool)
}

// Stream is a reconnecting reader of the push channel.
type Stream struct {
	opts   Options
	logger zerolog.Logger
}

// New creates a stream from opts.
func New(opts Options) *Stream {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.ReconnectBase <= 0 {
		opts.ReconnectBase = DefaultReconnectBase
	}
	if opts.ReconnectMaxDelay <= 0 {
		opts.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
	return &Stream{
		opts:   opts,
		logger: log.With().Str("component", "stream").Str("url", opts.URL).Logger(),
	}
}

// URLFor derives the stream endpoint from the HTTP server URL.
func URLFor(serverURL, path string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return "", errors.Wrapf(err, "invalid server URL %q", serverURL)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.Errorf("invalid server URL %q: unsupported scheme", serverURL)
	}
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = ""
	return u.String(), nil
}

// Run reads the stream until ctx is done, reconnecting with capped
// exponential backoff. It only returns ctx's error.
func (s *Stream) Run(ctx context.Context, h Handler) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.ReconnectBase
	b.MaxInterval = s.opts.ReconnectMaxDelay
	b.MaxElapsedTime = 0
	b.Reset()

	for {
		connected, err := s.RunOnce(ctx, h)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			b.Reset()
		}
		delay := b.NextBackOff()
		s.logger.Warn().Err(err).Dur("delay", delay).Msg("stream disconnected, reconnecting")
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunOnce holds a single connection until it breaks or ctx is done. It
// reports whether the connection was ever established.
func (s *Stream) RunOnce(ctx context.Context, h Handler) (bool, error) {
	header := http.Header{}
	if s.opts.Token != "" {
		header.Add("Cookie", (&http.Cookie{Name: "validation", Value: s.opts.Token}).String())
	}
	conn, resp, err := s.opts.Dialer.DialContext(ctx, s.opts.URL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, errors.Wrap(err, "dial")
	}
	s.logger.Info().Msg("stream connected")
	s.setState(true)
	defer s.setState(false)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			_ = conn.Close()
		case <-stop:
			_ = conn.Close()
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return true, ctx.Err()
			}
			return true, errors.Wrap(err, "read")
		}
		ev, ok := s.decode(data)
		if !ok {
			continue
		}
		h(ev)
	}
}

func (s *Stream) decode(data []byte) (console.Event, bool) {
	var ev console.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(data)).Msg("dropping malformed frame")
		return console.Event{}, false
	}
	s.logger.Debug().Str("action", string(ev.Action)).Str("uuid", ev.ID).Msg("frame")
	return ev, true
}

func (s *Stream) setState(connected bool) {
	if s.opts.OnState != nil {
		s.opts.OnState(connected)
	}
}
