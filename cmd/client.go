package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/longkey1/chatconsole/internal/backend"
	"github.com/longkey1/chatconsole/internal/config"
	"github.com/longkey1/chatconsole/internal/console"
	"github.com/longkey1/chatconsole/internal/render"
	"github.com/longkey1/chatconsole/internal/stream"
)

// loadBackend loads the configuration and builds the HTTP client
func loadBackend() (*config.Config, *backend.Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	api, err := backend.NewClient(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("creating backend client: %w", err)
	}
	return cfg, api, nil
}

// newRenderer picks the markup renderer. Output that is not a terminal gets
// plain text.
func newRenderer(cfg *config.Config, width int) (render.Renderer, error) {
	kind := cfg.Renderer
	if kind == "terminal" && !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		kind = "plain"
	}
	r, err := render.New(kind, cfg.RenderStyle, width)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	return r, nil
}

// newStream builds the event stream reader for cfg
func newStream(cfg *config.Config, onState func(bool)) (*stream.Stream, error) {
	u, err := stream.URLFor(cfg.GetServerURL(), cfg.GetStreamPath())
	if err != nil {
		return nil, fmt.Errorf("building stream URL: %w", err)
	}
	return stream.New(stream.Options{
		URL:               u,
		Token:             cfg.GetToken(),
		ReconnectBase:     cfg.GetReconnectBaseDelay(),
		ReconnectMaxDelay: cfg.GetReconnectMaxDelay(),
		OnState:           onState,
	}), nil
}

// oneShot builds a console client whose notices are printed on stderr
func oneShot(api console.API, view *console.LineView) *console.Client {
	return console.NewClient(api, console.WithView(view), console.WithNotifier(view))
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
