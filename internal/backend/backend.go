// Package backend is the HTTP client for the robot's web API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/longkey1/chatconsole/internal/console"
)

const (
	DefaultAPIPath   = "/chat-robot/api"
	DefaultDHAPIPath = "/sdl-robot/api"

	// ValidationCookie is the cookie the server reads the session token from.
	ValidationCookie = "validation"

	maxBodySize = 8 << 20
)

// Config defines the configuration interface for the backend client.
type Config interface {
	GetServerURL() string
	GetAPIPath() string
	GetDHAPIPath() string
	GetToken() string
	GetRequestTimeout() time.Duration
	GetSubmitViaAPI() bool
}

// Client talks to the robot's HTTP endpoints. Every request carries the
// validation token as the validate parameter and the validation cookie.
type Client struct {
	baseURL   *url.URL
	apiPath   string
	dhPath    string
	token     string
	timeout   time.Duration
	submitAPI bool
	http      *http.Client
}

var _ console.API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient creates a client from config.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	raw := strings.TrimSpace(cfg.GetServerURL())
	if raw == "" {
		return nil, errors.New("server URL is not configured")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid server URL %q", raw)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("invalid server URL %q: scheme must be http or https", raw)
	}
	base.Path = strings.TrimSuffix(base.Path, "/")

	c := &Client{
		baseURL:   base,
		apiPath:   normalizePath(cfg.GetAPIPath(), DefaultAPIPath),
		dhPath:    normalizePath(cfg.GetDHAPIPath(), DefaultDHAPIPath),
		token:     cfg.GetToken(),
		timeout:   cfg.GetRequestTimeout(),
		submitAPI: cfg.GetSubmitViaAPI(),
		http:      &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetToken replaces the validation token, e.g. after Login.
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetSubmitViaAPI selects the JSON send-query endpoint for SubmitChat.
func (c *Client) SetSubmitViaAPI(enabled bool) {
	c.submitAPI = enabled
}

// envelope is the common reply shape: {code, message, data|log|history}.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
	Log     string          `json:"log,omitempty"`
	History json.RawMessage `json:"history,omitempty"`
}

func (e *envelope) ack() console.Ack {
	if e == nil {
		return console.Ack{Empty: true}
	}
	return console.Ack{Message: e.Message, Data: dataText(e.Data)}
}

type request struct {
	method string
	path   string
	query  url.Values
	form   url.Values
	json   any
	// long disables the per-request timeout (long polling).
	long bool
}

// do sends req and decodes the first JSON object of the reply. A nil
// envelope with a nil error means the server answered with an empty body.
func (c *Client) do(ctx context.Context, req request) (*envelope, error) {
	op := req.method + " " + req.path

	if c.timeout > 0 && !req.long {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	q := url.Values{}
	for k, vs := range req.query {
		q[k] = vs
	}
	if c.token != "" {
		q.Set("validate", c.token)
	}
	u.RawQuery = q.Encode()

	var body io.Reader
	var contentType string
	switch {
	case req.form != nil:
		form := url.Values{}
		for k, vs := range req.form {
			form[k] = vs
		}
		if c.token != "" {
			form.Set("validate", c.token)
		}
		body = strings.NewReader(form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.json != nil:
		b, err := json.Marshal(req.json)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: encoding request", op)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s: building request", op)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.AddCookie(&http.Cookie{Name: ValidationCookie, Value: c.token})
	}

	log.Debug().Str("component", "backend").Str("op", op).Msg("request")
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, errors.WithStack(&TransportError{Op: op, Err: err})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.WithStack(&TransportError{Op: op, StatusCode: resp.StatusCode, Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		te := &TransportError{Op: op, StatusCode: resp.StatusCode}
		var env envelope
		if json.NewDecoder(bytes.NewReader(raw)).Decode(&env) == nil {
			te.Message = env.Message
		}
		return nil, errors.WithStack(te)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	// The chat endpoint may flush several objects into one body; the first
	// one carries the outcome.
	var env envelope
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return nil, errors.WithStack(&TransportError{Op: op, StatusCode: resp.StatusCode, Err: errors.Wrap(err, "decoding reply")})
	}
	if env.Code != 0 {
		return nil, errors.WithStack(&APIError{Op: op, Code: env.Code, Message: env.Message})
	}
	return &env, nil
}

// SubmitChat posts a text query. The reply may be empty.
func (c *Client) SubmitChat(ctx context.Context, query, messageID string) (console.Ack, error) {
	if c.submitAPI {
		return c.SendQuery(ctx, query, messageID)
	}
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/chat",
		form: url.Values{
			"type":  {"text"},
			"query": {query},
			"uuid":  {messageID},
		},
	})
	if err != nil {
		return console.Ack{}, err
	}
	return env.ack(), nil
}

type sendQueryBody struct {
	Query string `json:"query"`
	UUID  string `json:"uuid"`
}

// SendQuery submits a query through the JSON chat API.
func (c *Client) SendQuery(ctx context.Context, query, messageID string) (console.Ack, error) {
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.apiPath + "/chat/send-query",
		json:   sendQueryBody{Query: query, UUID: messageID},
	})
	if err != nil {
		return console.Ack{}, err
	}
	return env.ack(), nil
}

// Control triggers a robot control action.
func (c *Client) Control(ctx context.Context, kind console.ControlKind) (console.Ack, error) {
	if !kind.Valid() {
		return console.Ack{}, errors.Errorf("unknown control action: %s", kind)
	}
	path := c.apiPath + "/ctl/" + string(kind)
	if kind.IsLogToggle() {
		path = c.apiPath + "/detect/" + string(kind)
	}
	env, err := c.do(ctx, request{method: http.MethodPost, path: path, form: url.Values{}})
	if err != nil {
		return console.Ack{}, err
	}
	return env.ack(), nil
}

type feedbackBody struct {
	DataID string `json:"data_id"`
	Useful bool   `json:"useful"`
}

// Feedback reports whether the answer with messageID was useful.
func (c *Client) Feedback(ctx context.Context, messageID string, useful bool) (console.Ack, error) {
	if messageID == "" {
		return console.Ack{}, errors.New("message id is empty")
	}
	env, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   c.apiPath + "/tuning/feedback",
		json:   feedbackBody{DataID: messageID, Useful: useful},
	})
	if err != nil {
		return console.Ack{}, err
	}
	return env.ack(), nil
}

// ReadLog returns the last lines of the robot's log.
func (c *Client) ReadLog(ctx context.Context, lines int) (string, error) {
	q := url.Values{}
	if lines > 0 {
		q.Set("lines", strconv.Itoa(lines))
	}
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/getlog", query: q})
	if err != nil {
		return "", err
	}
	if env == nil {
		return "", nil
	}
	return env.Log, nil
}

// PollUpdates long-polls for messages after cursor. An empty cursor asks for
// everything the server still holds.
func (c *Client) PollUpdates(ctx context.Context, cursor string) ([]console.Event, error) {
	form := url.Values{}
	if cursor != "" {
		form.Set("cursor", cursor)
	}
	env, err := c.do(ctx, request{method: http.MethodPost, path: "/chat/updates", form: form, long: true})
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, nil
	}
	events, err := decodeHistory(env.History)
	if err != nil {
		return nil, errors.WithStack(&TransportError{Op: "POST /chat/updates", Err: err})
	}
	return events, nil
}

// History returns the complete conversation history.
func (c *Client) History(ctx context.Context) ([]console.Event, error) {
	env, err := c.do(ctx, request{method: http.MethodGet, path: "/history"})
	if err != nil {
		return nil, err
	}
	if env == nil {
		return nil, nil
	}
	events, err := decodeHistory(env.History)
	if err != nil {
		return nil, errors.WithStack(&TransportError{Op: "GET /history", Err: err})
	}
	return events, nil
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a validation token and starts using it.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	path := c.apiPath + "/ext/login"
	op := http.MethodPost + " " + path
	b, err := json.Marshal(loginBody{Username: username, Password: password})
	if err != nil {
		return "", errors.Wrap(err, "encoding credentials")
	}
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(b))
	if err != nil {
		return "", errors.Wrap(err, "building login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.WithStack(&TransportError{Op: op, Err: err})
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.WithStack(&TransportError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))})
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == ValidationCookie && ck.Value != "" {
			c.token = ck.Value
			return ck.Value, nil
		}
	}
	return "", errors.Errorf("%s: no %s cookie in reply", op, ValidationCookie)
}

func normalizePath(p, def string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		p = def
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.TrimSuffix(p, "/")
}
