package channels

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"github.com/tinyland-inc/ethicall/pkg/bus"
	"github.com/tinyland-inc/ethicall/pkg/logger"
)

const maxEventBodyBytes = 1 << 20

// SlackEventsChannel receives events over the HTTP Events API. Requests are
// verified with the app's signing secret.
type SlackEventsChannel struct {
	*BaseChannel
	signingSecret string
	addr          string
	path          string
	server        *http.Server
}

func NewSlackEventsChannel(
	signingSecret, host string,
	port int,
	path string,
	eventBus *bus.EventBus,
	allowList []string,
) *SlackEventsChannel {
	if path == "" {
		path = "/slack/events"
	}
	return &SlackEventsChannel{
		BaseChannel:   NewBaseChannel("slack_events", eventBus, allowList),
		signingSecret: signingSecret,
		addr:          net.JoinHostPort(host, fmt.Sprint(port)),
		path:          path,
	}
}

// Handler serves the events endpoint and /health.
func (c *SlackEventsChannel) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(c.path, http.HandlerFunc(c.serveEvents))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

func (c *SlackEventsChannel) Start(context.Context) error {
	ln, err := net.Listen("tcp", c.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.addr, err)
	}
	c.server = &http.Server{
		Handler:           c.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := c.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF(c.Name(), "Events server error", map[string]any{"error": err.Error()})
		}
	}()

	c.SetRunning(true)
	logger.InfoCF(c.Name(), "Events API receiver started", map[string]any{"addr": ln.Addr().String(), "path": c.path})
	return nil
}

func (c *SlackEventsChannel) Stop(ctx context.Context) error {
	c.SetRunning(false)
	if c.server == nil {
		return nil
	}
	return c.server.Shutdown(ctx)
}

func (c *SlackEventsChannel) serveEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBodyBytes))
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sv, err := slack.NewSecretsVerifier(r.Header, c.signingSecret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if _, err := sv.Write(body); err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if err := sv.Ensure(); err != nil {
		logger.WarnCF(c.Name(), "Rejected request with bad signature", map[string]any{"error": err.Error()})
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	env, err := decodeEnvelope(body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	switch env.Type {
	case slackevents.URLVerification:
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(env.Challenge))
		return
	case slackevents.CallbackEvent:
	default:
		w.WriteHeader(http.StatusOK)
		return
	}

	// Slack redelivers when an ack is slow; the first delivery is the only
	// one handled.
	if r.Header.Get("X-Slack-Retry-Num") != "" {
		w.WriteHeader(http.StatusOK)
		return
	}

	ev, err := DecodeCallbackEvent(body)
	if err != nil {
		logger.WarnCF(c.Name(), "Dropping undecodable event", map[string]any{
			"event_id": env.EventID,
			"error":    err.Error(),
		})
		w.WriteHeader(http.StatusOK)
		return
	}
	if err := c.HandleEvent(r.Context(), ev); err != nil {
		logger.ErrorCF(c.Name(), "Failed to publish event", map[string]any{"error": err.Error()})
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}
