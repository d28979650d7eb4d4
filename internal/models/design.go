package models

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Design is the current design context. The coordinator forwards it to the
// router verbatim and only ever reads the conversation identifier out of
// it; the shape is owned by the backend.
type Design struct {
	Raw json.RawMessage
}

// NewDesign wraps a raw design document.
func NewDesign(raw []byte) *Design {
	if len(raw) == 0 {
		return nil
	}
	return &Design{Raw: json.RawMessage(raw)}
}

// ConversationID returns the conversation identifier embedded in the
// design, or "" when the design carries none.
func (d *Design) ConversationID() string {
	if d == nil || len(d.Raw) == 0 {
		return ""
	}
	return gjson.GetBytes(d.Raw, "conversationId").String()
}

// WithConversationID returns a copy of the design with the conversation
// identifier set, so follow-up exchanges resume the same conversation.
func (d *Design) WithConversationID(id string) *Design {
	var doc map[string]json.RawMessage
	if d != nil && len(d.Raw) > 0 {
		if err := json.Unmarshal(d.Raw, &doc); err != nil {
			doc = nil
		}
	}
	if doc == nil {
		doc = map[string]json.RawMessage{}
	}
	quoted, err := json.Marshal(id)
	if err != nil {
		return d
	}
	doc["conversationId"] = quoted
	raw, err := json.Marshal(doc)
	if err != nil {
		return d
	}
	return &Design{Raw: raw}
}

// MarshalJSON forwards the raw document unchanged.
func (d *Design) MarshalJSON() ([]byte, error) {
	if d == nil || len(d.Raw) == 0 {
		return []byte("null"), nil
	}
	return d.Raw, nil
}

// UnmarshalJSON stores the raw document unchanged.
func (d *Design) UnmarshalJSON(data []byte) error {
	d.Raw = append(d.Raw[:0], data...)
	return nil
}
