package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/slack-go/slack/slackevents"

	"github.com/tinyland-inc/ethicall/pkg/bus"
	"github.com/tinyland-inc/ethicall/pkg/logger"
)

// Channel receives Slack events and publishes them on the bus.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	IsRunning() bool
	IsAllowed(senderID string) bool
}

type BaseChannel struct {
	bus       *bus.EventBus
	running   atomic.Bool
	name      string
	allowList []string
}

func NewBaseChannel(name string, eventBus *bus.EventBus, allowList []string) *BaseChannel {
	return &BaseChannel{
		bus:       eventBus,
		name:      name,
		allowList: allowList,
	}
}

func (c *BaseChannel) Name() string {
	return c.name
}

func (c *BaseChannel) IsRunning() bool {
	return c.running.Load()
}

func (c *BaseChannel) SetRunning(running bool) {
	c.running.Store(running)
}

// IsAllowed reports whether senderID may reach the handlers. An empty allow
// list admits everyone; entries may carry a leading "@".
func (c *BaseChannel) IsAllowed(senderID string) bool {
	if len(c.allowList) == 0 {
		return true
	}
	return slices.ContainsFunc(c.allowList, func(allowed string) bool {
		return strings.TrimPrefix(allowed, "@") == senderID
	})
}

// HandleEvent tags ev with a correlation id and publishes it unless its
// sender is filtered out.
func (c *BaseChannel) HandleEvent(ctx context.Context, ev bus.Event) error {
	sender := ev.User
	if ev.Thread != nil && sender == "" {
		sender = ev.Thread.UserID
	}
	// Events without a human sender (edits, deletions) are not filtered.
	if sender != "" && !c.IsAllowed(sender) {
		logger.DebugCF(c.name, "Sender not in allow list", map[string]any{"user": sender, "type": ev.Type})
		return nil
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	logger.DebugCF(c.name, "Event received", map[string]any{
		"event_id": ev.ID,
		"type":     ev.Type,
		"subtype":  ev.Subtype,
		"channel":  ev.Channel,
	})
	return c.bus.PublishInbound(ctx, ev)
}

// envelope is the outer Events API payload shared by Socket Mode and HTTP
// delivery.
type envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge,omitempty"`
	EventID   string          `json:"event_id,omitempty"`
	Event     json.RawMessage `json:"event,omitempty"`
}

func decodeEnvelope(payload []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	return env, nil
}

// DecodeCallbackEvent extracts the inner event from an event_callback
// envelope.
func DecodeCallbackEvent(payload []byte) (bus.Event, error) {
	env, err := decodeEnvelope(payload)
	if err != nil {
		return bus.Event{}, err
	}
	if env.Type != slackevents.CallbackEvent {
		return bus.Event{}, fmt.Errorf("unexpected envelope type %q", env.Type)
	}
	if len(env.Event) == 0 {
		return bus.Event{}, fmt.Errorf("envelope %s has no event", env.EventID)
	}
	var ev bus.Event
	if err := json.Unmarshal(env.Event, &ev); err != nil {
		return bus.Event{}, fmt.Errorf("decoding event: %w", err)
	}
	if ev.Type == "" {
		return bus.Event{}, fmt.Errorf("envelope %s: event has no type", env.EventID)
	}
	return ev, nil
}
