package completion

import (
	"encoding/json"
	"fmt"

	"github.com/tinyland-inc/ethicall/pkg/providers/protocoltypes"
)

type Message = protocoltypes.Message

func validRole(role string) bool {
	switch role {
	case protocoltypes.RoleSystem, protocoltypes.RoleUser, protocoltypes.RoleAssistant:
		return true
	}
	return false
}

// ParseConversation converts a loosely typed value into a conversation.
// Accepted shapes are []Message, []map[string]string, []map[string]any,
// []any of such maps, and JSON text (string, []byte or json.RawMessage)
// holding an array of {"role", "content"} objects. Anything else, a single
// object in particular, yields an *InvalidConversationError.
func ParseConversation(v any) ([]Message, error) {
	switch conv := v.(type) {
	case nil:
		return nil, invalidf("conversation is nil")
	case []Message:
		return conv, validate(conv)
	case []map[string]string:
		out := make([]Message, 0, len(conv))
		for i, m := range conv {
			msg, err := fromStringMap(i, m)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
		return out, nil
	case []map[string]any:
		out := make([]Message, 0, len(conv))
		for i, m := range conv {
			msg, err := fromAnyMap(i, m)
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
		return out, nil
	case []any:
		out := make([]Message, 0, len(conv))
		for i, item := range conv {
			var (
				msg Message
				err error
			)
			switch m := item.(type) {
			case Message:
				msg = m
				if !validRole(m.Role) {
					err = invalidf("message %d: unknown role %q", i, m.Role)
				}
			case map[string]string:
				msg, err = fromStringMap(i, m)
			case map[string]any:
				msg, err = fromAnyMap(i, m)
			default:
				err = invalidf("message %d: expected a role/content mapping, got %T", i, item)
			}
			if err != nil {
				return nil, err
			}
			out = append(out, msg)
		}
		return out, nil
	case json.RawMessage:
		return parseJSON(conv)
	case []byte:
		return parseJSON(conv)
	case string:
		return parseJSON([]byte(conv))
	default:
		return nil, invalidf("conversation must be a list of messages, got %T", v)
	}
}

func parseJSON(data []byte) ([]Message, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, invalidf("decoding JSON: %v", err)
	}
	if _, ok := raw.([]any); !ok {
		return nil, invalidf("conversation must be a JSON array, got %s", jsonKind(raw))
	}
	return ParseConversation(raw)
}

func jsonKind(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func fromStringMap(i int, m map[string]string) (Message, error) {
	role, ok := m["role"]
	if !ok {
		return Message{}, invalidf("message %d: missing role", i)
	}
	content, ok := m["content"]
	if !ok {
		return Message{}, invalidf("message %d: missing content", i)
	}
	if !validRole(role) {
		return Message{}, invalidf("message %d: unknown role %q", i, role)
	}
	return Message{Role: role, Content: content}, nil
}

func fromAnyMap(i int, m map[string]any) (Message, error) {
	role, ok := m["role"].(string)
	if !ok {
		return Message{}, invalidf("message %d: role must be a string", i)
	}
	content, ok := m["content"].(string)
	if !ok {
		return Message{}, invalidf("message %d: content must be a string", i)
	}
	if !validRole(role) {
		return Message{}, invalidf("message %d: unknown role %q", i, role)
	}
	return Message{Role: role, Content: content}, nil
}

func validate(conv []Message) error {
	if conv == nil {
		return invalidf("conversation is nil")
	}
	for i, m := range conv {
		if !validRole(m.Role) {
			return invalidf("message %d: unknown role %q", i, m.Role)
		}
	}
	return nil
}
