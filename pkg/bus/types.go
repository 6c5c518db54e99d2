package bus

// Event is one decoded Slack event. Fields absent from the payload are left
// empty; Subtype and ChannelType in particular are optional.
type Event struct {
	ID          string           `json:"-"` // correlation id assigned on receipt
	Type        string           `json:"type"`
	Subtype     string           `json:"subtype,omitempty"`
	Channel     string           `json:"channel,omitempty"`
	ChannelType string           `json:"channel_type,omitempty"`
	User        string           `json:"user,omitempty"`
	BotID       string           `json:"bot_id,omitempty"`
	Text        string           `json:"text,omitempty"`
	TS          string           `json:"ts,omitempty"`
	ThreadTS    string           `json:"thread_ts,omitempty"`
	Thread      *AssistantThread `json:"assistant_thread,omitempty"`
}

// ReplyThreadTS is the thread a reply to this event belongs in: the parent
// thread when the event is itself a reply, otherwise the event's own ts.
func (e Event) ReplyThreadTS() string {
	if e.ThreadTS != "" {
		return e.ThreadTS
	}
	return e.TS
}

// AssistantThread is carried by assistant thread lifecycle events.
type AssistantThread struct {
	UserID    string        `json:"user_id"`
	ChannelID string        `json:"channel_id"`
	ThreadTS  string        `json:"thread_ts"`
	Context   ThreadContext `json:"context"`
}

// ThreadContext describes where the user was when they opened the
// assistant thread.
type ThreadContext struct {
	ChannelID    string `json:"channel_id,omitempty"`
	TeamID       string `json:"team_id,omitempty"`
	EnterpriseID string `json:"enterprise_id,omitempty"`
}

func (c ThreadContext) IsZero() bool {
	return c == ThreadContext{}
}
