package models

import "encoding/json"

// AgentReply is one agent's entry in a non-streaming router response.
type AgentReply struct {
	Agent    string `json:"agent"`
	Response string `json:"response"`
}

// RouterResponse is the body shape the router sends when it does not
// stream: one JSON document covering the whole consultation.
type RouterResponse struct {
	Success             bool         `json:"success"`
	Responses           []AgentReply `json:"responses"`
	SuggestedNextAgents []string     `json:"suggestedNextAgents,omitempty"`
	ConsultedAgents     []string     `json:"consultedAgents,omitempty"`
	Error               string       `json:"error,omitempty"`
}

// Metadata is everything an exchange accumulated besides the response text.
type Metadata struct {
	Citations           []Citation
	ToolCalls           []ToolCall
	ActiveAgents        []string
	ConsultedAgents     []string
	SuggestedNextAgents []string
	// StructuredData is the most recently received structured payload.
	// Earlier payloads are overwritten, not merged.
	StructuredData json.RawMessage
	ElapsedSeconds int
}

// Result is the outcome of one successful exchange with the router.
type Result struct {
	FullResponse string
	Metadata     Metadata
}
