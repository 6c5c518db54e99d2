package slackbot

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"

	"github.com/tinyland-inc/ethicall/pkg/bus"
	"github.com/tinyland-inc/ethicall/pkg/logger"
)

// HandlerFunc handles one event. A returned error is logged by the router
// and never propagates further.
type HandlerFunc func(ctx context.Context, ev bus.Event) error

// Binding pairs a predicate with the handler it guards.
type Binding struct {
	Name   string
	Match  Predicate
	Handle HandlerFunc
}

// Router evaluates bindings in registration order and runs every handler
// whose predicate matches. There is no short-circuiting: a catch-all
// registered last still fires next to narrower bindings.
type Router struct {
	bindings  []Binding
	botUserID string
	botID     string
}

func NewRouter() *Router {
	return &Router{}
}

// Register appends bindings to the dispatch table.
func (r *Router) Register(bindings ...Binding) {
	r.bindings = append(r.bindings, bindings...)
}

// IgnoreSelf drops events authored by the bot itself, so its own replies do
// not re-enter the dispatch table.
func (r *Router) IgnoreSelf(botUserID, botID string) {
	r.botUserID = botUserID
	r.botID = botID
}

func (r *Router) isSelf(ev bus.Event) bool {
	if r.botID != "" && ev.BotID == r.botID {
		return true
	}
	return r.botUserID != "" && ev.User == r.botUserID
}

// Dispatch runs every matching handler and returns the names of the
// bindings that fired.
func (r *Router) Dispatch(ctx context.Context, ev bus.Event) []string {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if r.isSelf(ev) {
		logger.DebugCF("router", "Ignoring own event", map[string]any{
			"event_id": ev.ID,
			"type":     ev.Type,
		})
		return nil
	}

	var fired []string
	for _, b := range r.bindings {
		if !b.Match(ev) {
			continue
		}
		fired = append(fired, b.Name)
		if err := r.safeHandle(ctx, b, ev); err != nil {
			logger.ErrorCF("router", "Handler failed", map[string]any{
				"event_id": ev.ID,
				"handler":  b.Name,
				"type":     ev.Type,
				"channel":  ev.Channel,
				"ts":       ev.TS,
				"error":    err.Error(),
			})
		}
	}

	if len(fired) == 0 {
		logger.DebugCF("router", "No handler matched", map[string]any{
			"event_id": ev.ID,
			"type":     ev.Type,
		})
	}
	return fired
}

func (r *Router) safeHandle(ctx context.Context, b Binding, ev bus.Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in %s: %v\n%s", b.Name, p, debug.Stack())
		}
	}()
	return b.Handle(ctx, ev)
}

// Run consumes events from the bus one at a time until ctx is cancelled or
// the bus is closed.
func (r *Router) Run(ctx context.Context, events *bus.EventBus) {
	for {
		ev, ok := events.ConsumeInbound(ctx)
		if !ok {
			return
		}
		r.Dispatch(ctx, ev)
	}
}
