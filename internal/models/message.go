package models

import "encoding/json"

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Citation is a source reference attached to a response, typically a
// regulation number or guidance document section.
type Citation struct {
	Source  string `json:"source,omitempty"`
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// ToolCall records a tool invocation performed by a backend agent.
type ToolCall struct {
	Agent  string          `json:"agent,omitempty"`
	Tool   string          `json:"tool"`
	Input  json.RawMessage `json:"input,omitempty"`
	Output json.RawMessage `json:"output,omitempty"`
}

// Message represents one entry in the conversation transcript.
// Messages are built by the caller and never mutated by the coordinator.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Citations []Citation `json:"citations,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
	Agents    []string   `json:"agents,omitempty"`
	Agent     string     `json:"agent,omitempty"`
}

// LastUserMessage returns the content of the last user-role message,
// which is not necessarily the last element overall.
func LastUserMessage(messages []Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}
