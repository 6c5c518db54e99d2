package slackbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tinyland-inc/ethicall/pkg/bus"
	"github.com/tinyland-inc/ethicall/pkg/completion"
	"github.com/tinyland-inc/ethicall/pkg/config"
	"github.com/tinyland-inc/ethicall/pkg/logger"
	"github.com/tinyland-inc/ethicall/pkg/providers/protocoltypes"
)

var errNoAssistantThread = errors.New("event carries no assistant_thread")

// Completer produces a reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, conversation []completion.Message, opts ...completion.Option) (string, error)
}

type Handlers struct {
	platform  Platform
	completer Completer
	contexts  ContextStore
	assistant config.AssistantConfig
	botUserID string
}

func NewHandlers(
	platform Platform,
	completer Completer,
	contexts ContextStore,
	assistant config.AssistantConfig,
	botUserID string,
) *Handlers {
	if contexts == nil {
		contexts = NewMemoryContextStore()
	}
	return &Handlers{
		platform:  platform,
		completer: completer,
		contexts:  contexts,
		assistant: assistant,
		botUserID: botUserID,
	}
}

// Bindings returns the dispatch table in registration order. The mention
// catch-all comes last and matches every message event.
func (h *Handlers) Bindings() []Binding {
	return []Binding{
		{Name: "thread_started", Match: IsThreadStartedEvent, Handle: h.OnThreadStarted},
		{Name: "thread_context_changed", Match: IsThreadContextChangedEvent, Handle: h.OnThreadContextChanged},
		{Name: "user_message", Match: IsUserAuthoredDirectMessage, Handle: h.OnUserMessage},
		{Name: "ack_only", Match: IsDirectMessageInAssistantThread, Handle: h.OnAckOnly},
		{Name: "mention", Match: IsMessageEvent, Handle: h.OnMention},
	}
}

// OnThreadStarted greets the user, offers suggested prompts and remembers
// the context the thread was opened from.
func (h *Handlers) OnThreadStarted(ctx context.Context, ev bus.Event) error {
	t := ev.Thread
	if t == nil {
		return errNoAssistantThread
	}

	var errs []error
	if h.assistant.Greeting != "" {
		if err := h.platform.PostMessage(ctx, t.ChannelID, t.ThreadTS, h.assistant.Greeting); err != nil {
			errs = append(errs, err)
		}
	}
	if len(h.assistant.SuggestedPrompts) > 0 {
		err := h.platform.SetSuggestedPrompts(ctx, t.ChannelID, t.ThreadTS, h.assistant.PromptsTitle, h.assistant.SuggestedPrompts)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if !t.Context.IsZero() {
		if err := h.contexts.Save(ctx, t.ChannelID, t.ThreadTS, t.Context); err != nil {
			errs = append(errs, fmt.Errorf("saving thread context: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (h *Handlers) OnThreadContextChanged(ctx context.Context, ev bus.Event) error {
	t := ev.Thread
	if t == nil {
		return errNoAssistantThread
	}
	if err := h.contexts.Save(ctx, t.ChannelID, t.ThreadTS, t.Context); err != nil {
		return fmt.Errorf("saving thread context: %w", err)
	}
	logger.DebugCF("assistant", "Thread context updated", map[string]any{
		"event_id":        ev.ID,
		"channel":         t.ChannelID,
		"thread_ts":       t.ThreadTS,
		"context_channel": t.Context.ChannelID,
	})
	return nil
}

// OnUserMessage answers a user's direct message from the thread's history.
func (h *Handlers) OnUserMessage(ctx context.Context, ev bus.Event) error {
	channel, threadTS := ev.Channel, ev.ReplyThreadTS()

	if h.assistant.ThinkingStatus != "" {
		if err := h.platform.SetStatus(ctx, channel, threadTS, h.assistant.ThinkingStatus); err != nil {
			logger.WarnCF("assistant", "Failed to set thread status", map[string]any{
				"event_id": ev.ID,
				"error":    err.Error(),
			})
		}
	}

	history, err := h.platform.ThreadMessages(ctx, channel, threadTS)
	if err != nil {
		return fmt.Errorf("reading thread %s/%s: %w", channel, threadTS, err)
	}

	conversation := h.toConversation(history)
	if len(conversation) == 0 && strings.TrimSpace(ev.Text) != "" {
		conversation = []completion.Message{{Role: protocoltypes.RoleUser, Content: ev.Text}}
	}

	reply, err := h.completer.Complete(ctx, conversation)
	if err != nil {
		if h.assistant.ErrorReply != "" {
			if postErr := h.platform.PostMessage(ctx, channel, threadTS, h.assistant.ErrorReply); postErr != nil {
				return errors.Join(err, postErr)
			}
		}
		return err
	}

	if err := h.platform.PostMessage(ctx, channel, threadTS, reply); err != nil {
		return err
	}
	logger.InfoCF("assistant", "Reply posted", map[string]any{
		"event_id":  ev.ID,
		"channel":   channel,
		"thread_ts": threadTS,
		"history":   len(conversation),
	})
	return nil
}

// toConversation keeps thread order. The bot's own posts, and any other
// bot's, become assistant turns; everything else is a user turn.
func (h *Handlers) toConversation(history []ThreadMessage) []completion.Message {
	conv := make([]completion.Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := protocoltypes.RoleUser
		if m.BotID != "" || (h.botUserID != "" && m.User == h.botUserID) {
			role = protocoltypes.RoleAssistant
		}
		conv = append(conv, completion.Message{Role: role, Content: m.Text})
	}
	return conv
}

// OnAckOnly consumes assistant thread messages that no other handler needs
// to answer.
func (h *Handlers) OnAckOnly(context.Context, bus.Event) error {
	return nil
}

// OnMention replies to every message event with a greeting addressed to its
// author, in the thread rooted at that message.
func (h *Handlers) OnMention(ctx context.Context, ev bus.Event) error {
	text := fmt.Sprintf("Hi <@%s>, how can I help you?", ev.User)
	if err := h.platform.PostMessage(ctx, ev.Channel, ev.TS, text); err != nil {
		return fmt.Errorf("posting greeting: %w", err)
	}
	return nil
}
