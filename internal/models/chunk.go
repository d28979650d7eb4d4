package models

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ChunkType identifies the kind of stream chunk sent by the router.
type ChunkType string

// Chunk types emitted by the agent router. Exactly one type is set per
// chunk; fields irrelevant to that type are absent on the wire.
const (
	ChunkToken             ChunkType = "token"
	ChunkCitation          ChunkType = "citation"
	ChunkToolCall          ChunkType = "tool_call"
	ChunkAgentUpdate       ChunkType = "agent_update"
	ChunkPlan              ChunkType = "plan"
	ChunkEstimatedTime     ChunkType = "estimated_time"
	ChunkQuestionAnalysis  ChunkType = "question_analysis"
	ChunkAgentStart        ChunkType = "agent_start"
	ChunkAgentThinking     ChunkType = "agent_thinking"
	ChunkAgentProgress     ChunkType = "agent_progress"
	ChunkAgentResponse     ChunkType = "agent_response"
	ChunkAgentComplete     ChunkType = "agent_complete"
	ChunkAgentError        ChunkType = "agent_error"
	ChunkAgentSkipped      ChunkType = "agent_skipped"
	ChunkAllAgentsComplete ChunkType = "all_agents_complete"
	ChunkAgentChallenge    ChunkType = "agent_challenge"
	ChunkAgentRevised      ChunkType = "agent_revised"
	ChunkAgentDefended     ChunkType = "agent_defended"
	ChunkAgentConsensus    ChunkType = "agent_consensus"
	ChunkValidationWarning ChunkType = "validation_warning"
	ChunkError             ChunkType = "error"
	ChunkDone              ChunkType = "done"
)

// Chunk is one discrete unit of the response stream. The concrete type
// carries only the fields relevant to its tag.
type Chunk interface {
	ChunkType() ChunkType
}

// TokenChunk carries an incremental piece of response text.
type TokenChunk struct {
	Content string `json:"content"`
}

// CitationChunk carries one source reference.
type CitationChunk struct {
	Citation Citation `json:"citation"`
}

// ToolCallChunk reports a tool invocation by a backend agent.
type ToolCallChunk struct {
	ToolCall ToolCall `json:"toolCall"`
}

// AgentUpdateChunk replaces the set of active agents wholesale.
type AgentUpdateChunk struct {
	Agents []string `json:"agents"`
}

// PlanChunk announces which agents will run and the question complexity.
type PlanChunk struct {
	Agents     []string `json:"agents"`
	Complexity string   `json:"complexity,omitempty"`
}

// EstimatedTimeChunk carries the router's time estimate for the run.
type EstimatedTimeChunk struct {
	Seconds int `json:"seconds"`
}

// QuestionAnalysisChunk carries the router's analysis of the question.
// The payload is backend-defined and passed through uninterpreted.
type QuestionAnalysisChunk struct {
	Analysis json.RawMessage `json:"analysis"`
}

// AgentStartChunk marks an agent beginning its turn.
type AgentStartChunk struct {
	Agent string `json:"agent"`
	Index int    `json:"agentIndex"`
	Total int    `json:"totalAgents"`
}

// AgentThinkingChunk reports an agent's intermediate reasoning step.
type AgentThinkingChunk struct {
	Agent      string `json:"agent"`
	Message    string `json:"message"`
	Step       int    `json:"step,omitempty"`
	TotalSteps int    `json:"totalSteps,omitempty"`
}

// AgentProgressChunk reports a coarse agent status change.
type AgentProgressChunk struct {
	Agent  string `json:"agent"`
	Status string `json:"status"`
}

// AgentResponseChunk carries one agent's fully assembled response text
// and, optionally, a structured design payload.
type AgentResponseChunk struct {
	Agent          string          `json:"agent"`
	Response       string          `json:"response"`
	StructuredData json.RawMessage `json:"structuredData,omitempty"`
}

// AgentCompleteChunk marks an agent finishing its turn.
type AgentCompleteChunk struct {
	Agent     string `json:"agent"`
	NextAgent string `json:"nextAgent,omitempty"`
}

// AgentErrorChunk reports a single agent failing mid-run. Non-fatal.
type AgentErrorChunk struct {
	Agent string `json:"agent"`
	Error string `json:"error"`
}

// AgentSkippedChunk reports an agent being skipped. Non-fatal.
type AgentSkippedChunk struct {
	Agent  string `json:"agent"`
	Reason string `json:"reason,omitempty"`
}

// AllAgentsCompleteChunk carries the per-agent outputs once every agent
// has finished.
type AllAgentsCompleteChunk struct {
	Outputs map[string]string `json:"outputs,omitempty"`
}

// AgentChallengeChunk reports one agent challenging another's answer
// during the inter-agent debate.
type AgentChallengeChunk struct {
	Challenger string `json:"challenger"`
	Target     string `json:"target"`
	Challenge  string `json:"challenge"`
}

// AgentRevisedChunk reports an agent revising its answer after a challenge.
type AgentRevisedChunk struct {
	Agent    string `json:"agent"`
	Revision string `json:"revision"`
}

// AgentDefendedChunk reports an agent standing by its answer.
type AgentDefendedChunk struct {
	Agent   string `json:"agent"`
	Defense string `json:"defense"`
}

// AgentConsensusChunk reports the agents reaching agreement.
type AgentConsensusChunk struct {
	Agents    []string `json:"agents,omitempty"`
	Consensus string   `json:"consensus"`
}

// ValidationWarningChunk flags a regulation concern in the current design.
type ValidationWarningChunk struct {
	Regulation string `json:"regulation,omitempty"`
	Message    string `json:"message"`
}

// ErrorChunk is a fatal router-level error. It aborts the stream.
type ErrorChunk struct {
	Error string `json:"error"`
}

// DoneChunk marks the logical end of the stream. It is informational;
// the transport-level end of stream is authoritative.
type DoneChunk struct{}

func (TokenChunk) ChunkType() ChunkType             { return ChunkToken }
func (CitationChunk) ChunkType() ChunkType          { return ChunkCitation }
func (ToolCallChunk) ChunkType() ChunkType          { return ChunkToolCall }
func (AgentUpdateChunk) ChunkType() ChunkType       { return ChunkAgentUpdate }
func (PlanChunk) ChunkType() ChunkType              { return ChunkPlan }
func (EstimatedTimeChunk) ChunkType() ChunkType     { return ChunkEstimatedTime }
func (QuestionAnalysisChunk) ChunkType() ChunkType  { return ChunkQuestionAnalysis }
func (AgentStartChunk) ChunkType() ChunkType        { return ChunkAgentStart }
func (AgentThinkingChunk) ChunkType() ChunkType     { return ChunkAgentThinking }
func (AgentProgressChunk) ChunkType() ChunkType     { return ChunkAgentProgress }
func (AgentResponseChunk) ChunkType() ChunkType     { return ChunkAgentResponse }
func (AgentCompleteChunk) ChunkType() ChunkType     { return ChunkAgentComplete }
func (AgentErrorChunk) ChunkType() ChunkType        { return ChunkAgentError }
func (AgentSkippedChunk) ChunkType() ChunkType      { return ChunkAgentSkipped }
func (AllAgentsCompleteChunk) ChunkType() ChunkType { return ChunkAllAgentsComplete }
func (AgentChallengeChunk) ChunkType() ChunkType    { return ChunkAgentChallenge }
func (AgentRevisedChunk) ChunkType() ChunkType      { return ChunkAgentRevised }
func (AgentDefendedChunk) ChunkType() ChunkType     { return ChunkAgentDefended }
func (AgentConsensusChunk) ChunkType() ChunkType    { return ChunkAgentConsensus }
func (ValidationWarningChunk) ChunkType() ChunkType { return ChunkValidationWarning }
func (ErrorChunk) ChunkType() ChunkType             { return ChunkError }
func (DoneChunk) ChunkType() ChunkType              { return ChunkDone }

// ParseChunk decodes one wire chunk into its concrete type.
// An unknown or missing type tag is a parse error; callers log and skip
// rather than abort the stream.
func ParseChunk(data []byte) (Chunk, error) {
	tag := gjson.GetBytes(data, "type")
	if !tag.Exists() {
		return nil, fmt.Errorf("chunk has no type tag")
	}

	var (
		chunk Chunk
		err   error
	)

	unmarshal := func(v Chunk) Chunk {
		// v is a pointer to the concrete struct; the error is captured
		// so the switch below stays readable
		if uerr := json.Unmarshal(data, v); uerr != nil {
			err = fmt.Errorf("decode %s chunk: %w", tag.String(), uerr)
		}
		return v
	}

	switch ChunkType(tag.String()) {
	case ChunkToken:
		chunk = unmarshal(&TokenChunk{})
	case ChunkCitation:
		chunk = unmarshal(&CitationChunk{})
	case ChunkToolCall:
		chunk = unmarshal(&ToolCallChunk{})
	case ChunkAgentUpdate:
		chunk = unmarshal(&AgentUpdateChunk{})
	case ChunkPlan:
		chunk = unmarshal(&PlanChunk{})
	case ChunkEstimatedTime:
		chunk = unmarshal(&EstimatedTimeChunk{})
	case ChunkQuestionAnalysis:
		chunk = unmarshal(&QuestionAnalysisChunk{})
	case ChunkAgentStart:
		chunk = unmarshal(&AgentStartChunk{})
	case ChunkAgentThinking:
		chunk = unmarshal(&AgentThinkingChunk{})
	case ChunkAgentProgress:
		chunk = unmarshal(&AgentProgressChunk{})
	case ChunkAgentResponse:
		chunk = unmarshal(&AgentResponseChunk{})
	case ChunkAgentComplete:
		chunk = unmarshal(&AgentCompleteChunk{})
	case ChunkAgentError:
		chunk = unmarshal(&AgentErrorChunk{})
	case ChunkAgentSkipped:
		chunk = unmarshal(&AgentSkippedChunk{})
	case ChunkAllAgentsComplete:
		chunk = unmarshal(&AllAgentsCompleteChunk{})
	case ChunkAgentChallenge:
		chunk = unmarshal(&AgentChallengeChunk{})
	case ChunkAgentRevised:
		chunk = unmarshal(&AgentRevisedChunk{})
	case ChunkAgentDefended:
		chunk = unmarshal(&AgentDefendedChunk{})
	case ChunkAgentConsensus:
		chunk = unmarshal(&AgentConsensusChunk{})
	case ChunkValidationWarning:
		chunk = unmarshal(&ValidationWarningChunk{})
	case ChunkError:
		chunk = unmarshal(&ErrorChunk{})
	case ChunkDone:
		chunk = &DoneChunk{}
	default:
		return nil, fmt.Errorf("unknown chunk type %q", tag.String())
	}

	if err != nil {
		return nil, err
	}
	return chunk, nil
}
