package backend

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/pkg/errors"

	"github.com/longkey1/chatconsole/internal/console"
)

// DHOp is a digital-human streaming session operation.
type DHOp string

const (
	DHSessionList   DHOp = "session-list"
	DHSessionStatus DHOp = "session-status"
	DHPlayInfo      DHOp = "play-info"
	DHSessionCreate DHOp = "session-create"
	DHSessionOpen   DHOp = "session-open"
	DHSessionClose  DHOp = "session-close"
	DHCreateCmd     DHOp = "create-cmd"
)

var dhMethods = map[DHOp]string{
	DHSessionList:   http.MethodGet,
	DHSessionStatus: http.MethodGet,
	DHPlayInfo:      http.MethodGet,
	DHSessionCreate: http.MethodPost,
	DHSessionOpen:   http.MethodPost,
	DHSessionClose:  http.MethodPost,
	DHCreateCmd:     http.MethodPost,
}

// Method returns the HTTP method the operation uses.
func (op DHOp) Method() string {
	return dhMethods[op]
}

// DHOps lists every known operation.
func DHOps() []DHOp {
	ops := make([]DHOp, 0, len(dhMethods))
	for op := range dhMethods {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

// ParseDHOp validates an operation name.
func ParseDHOp(name string) (DHOp, error) {
	op := DHOp(name)
	if _, ok := dhMethods[op]; !ok {
		return "", fmt.Errorf("unknown digital-human operation: %s", name)
	}
	return op, nil
}

// DigitalHuman runs a session lifecycle operation. Ack.Data holds the
// server's data payload as text.
func (c *Client) DigitalHuman(ctx context.Context, op DHOp) (console.Ack, error) {
	method, ok := dhMethods[op]
	if !ok {
		return console.Ack{}, errors.Errorf("unknown digital-human operation: %s", op)
	}
	req := request{method: method, path: c.dhPath + "/dh/" + string(op)}
	if method == http.MethodPost {
		req.form = map[string][]string{}
	}
	env, err := c.do(ctx, req)
	if err != nil {
		return console.Ack{}, err
	}
	return env.ack(), nil
}
