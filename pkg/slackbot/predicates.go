package slackbot

import "github.com/tinyland-inc/ethicall/pkg/bus"

const (
	EventAssistantThreadStarted        = "assistant_thread_started"
	EventAssistantThreadContextChanged = "assistant_thread_context_changed"
	EventMessage                       = "message"

	ChannelTypeIM    = "im"
	SubtypeFileShare = "file_share"
)

// Predicate reports whether a binding applies to an event. Predicates are
// pure.
type Predicate func(ev bus.Event) bool

func IsThreadStartedEvent(ev bus.Event) bool {
	return ev.Type == EventAssistantThreadStarted
}

func IsThreadContextChangedEvent(ev bus.Event) bool {
	return ev.Type == EventAssistantThreadContextChanged
}

func IsMessageEvent(ev bus.Event) bool {
	return ev.Type == EventMessage
}

func IsDirectMessageInAssistantThread(ev bus.Event) bool {
	return ev.Type == EventMessage && ev.ChannelType == ChannelTypeIM
}

// IsUserAuthoredDirectMessage excludes bot posts, edits, deletions and every
// other system subtype; only plain messages and file shares pass.
func IsUserAuthoredDirectMessage(ev bus.Event) bool {
	if !IsDirectMessageInAssistantThread(ev) {
		return false
	}
	return ev.Subtype == "" || ev.Subtype == SubtypeFileShare
}
