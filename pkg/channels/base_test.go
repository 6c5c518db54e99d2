package channels

import (
	"testing"

	"github.com/tinyland-inc/ethicall/pkg/bus"
)

func TestBaseChannel_IsAllowed(t *testing.T) {
	open := NewBaseChannel("test", bus.NewEventBus(), nil)
	if !open.IsAllowed("U1") {
		t.Error("empty allow list should admit everyone")
	}

	restricted := NewBaseChannel("test", bus.NewEventBus(), []string{"U1", "@U2"})
	for sender, want := range map[string]bool{"U1": true, "U2": true, "U3": false} {
		if got := restricted.IsAllowed(sender); got != want {
			t.Errorf("IsAllowed(%q) = %v, want %v", sender, got, want)
		}
	}
}

func TestBaseChannel_HandleEventFiltersAndTags(t *testing.T) {
	b := bus.NewEventBus()
	c := NewBaseChannel("test", b, []string{"U1"})

	if err := c.HandleEvent(t.Context(), bus.Event{Type: "message", User: "U9"}); err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}
	if err := c.HandleEvent(t.Context(), bus.Event{Type: "message", User: "U1", TS: "1"}); err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}
	if err := c.HandleEvent(t.Context(), bus.Event{
		Type:   "assistant_thread_started",
		Thread: &bus.AssistantThread{UserID: "U9"},
	}); err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}

	ev, ok := b.ConsumeInbound(t.Context())
	if !ok {
		t.Fatal("expected one published event")
	}
	if ev.TS != "1" || ev.ID == "" {
		t.Errorf("published event = %+v, want ts 1 with an id", ev)
	}
	b.Close()
	if _, ok := b.ConsumeInbound(t.Context()); ok {
		t.Error("filtered events were published")
	}
}

func TestDecodeCallbackEvent_Message(t *testing.T) {
	payload := []byte(`{
  "type": "event_callback",
  "event_id": "Ev1",
  "event": {
    "type": "message",
    "channel": "D1",
    "channel_type": "im",
    "user": "U1",
    "text": "hello",
    "ts": "100.1",
    "thread_ts": "100.0"
  }
}`)
	ev, err := DecodeCallbackEvent(payload)
	if err != nil {
		t.Fatalf("DecodeCallbackEvent() error: %v", err)
	}
	want := bus.Event{
		Type: "message", Channel: "D1", ChannelType: "im", User: "U1",
		Text: "hello", TS: "100.1", ThreadTS: "100.0",
	}
	if ev != want {
		t.Errorf("event = %+v, want %+v", ev, want)
	}
}

func TestDecodeCallbackEvent_AssistantThread(t *testing.T) {
	payload := []byte(`{
  "type": "event_callback",
  "event": {
    "type": "assistant_thread_started",
    "assistant_thread": {
      "user_id": "U1",
      "context": {"channel_id": "C9", "team_id": "T1", "enterprise_id": "E1"},
      "channel_id": "D1",
      "thread_ts": "200.0"
    },
    "event_ts": "200.1"
  }
}`)
	ev, err := DecodeCallbackEvent(payload)
	if err != nil {
		t.Fatalf("DecodeCallbackEvent() error: %v", err)
	}
	if ev.Thread == nil {
		t.Fatal("Thread is nil")
	}
	if ev.Thread.ChannelID != "D1" || ev.Thread.ThreadTS != "200.0" || ev.Thread.Context.ChannelID != "C9" {
		t.Errorf("Thread = %+v", ev.Thread)
	}
}

func TestDecodeCallbackEvent_Errors(t *testing.T) {
	for name, payload := range map[string]string{
		"not json":      `{`,
		"wrong type":    `{"type":"url_verification","challenge":"x"}`,
		"no event":      `{"type":"event_callback"}`,
		"untyped event": `{"type":"event_callback","event":{"channel":"C1"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeCallbackEvent([]byte(payload)); err == nil {
				t.Error("DecodeCallbackEvent() expected error")
			}
		})
	}
}
