package api

import (
	"encoding/json"

	"github.com/elec-mate/elecmate/internal/models"
)

// Hooks receives UI notifications while an exchange streams. Every method
// may be called zero or more times depending on which chunk types the
// router emits; none is guaranteed to fire for a given call.
//
// Implementations embed NopHooks so a new notification type is a
// compile-visible change rather than a silently missing map key.
type Hooks interface {
	// OnToken receives incremental response text: one token for true SSE,
	// one word for the non-streaming replay, or one fully assembled agent
	// response.
	OnToken(text string)

	// OnComplete fires exactly once, after all chunks are processed.
	OnComplete(fullText string, meta *models.Metadata)

	// OnError receives human-readable failure messages. Fatal failures
	// notify OnError and then surface as the error return of the call;
	// per-agent failures notify OnError and keep streaming.
	OnError(message string)

	OnCitation(citation models.Citation)
	OnToolCall(call models.ToolCall)
	OnAgentUpdate(agents []string)
	OnPlan(agents []string, complexity string)
	OnEstimatedTime(seconds int)
	OnQuestionAnalysis(analysis json.RawMessage)
	OnAgentStart(agent string, index, total int)
	OnAgentThinking(agent, message string, step, totalSteps int)
	OnAgentProgress(agent, status string)
	OnAgentResponse(agent, text string, structuredData json.RawMessage)
	OnAgentComplete(agent, nextAgent string)
	OnAllAgentsComplete(outputs map[string]string)
	OnAgentChallenge(challenger, target, challenge string)
	OnAgentRevised(agent, revision string)
	OnAgentDefended(agent, defense string)
	OnAgentConsensus(agents []string, consensus string)
	OnValidationWarning(regulation, message string)

	// OnElapsedTimeUpdate ticks once a second for the lifetime of the call.
	OnElapsedTimeUpdate(seconds int)

	// OnSlowWarning fires at the escalating still-working deadlines.
	OnSlowWarning(elapsedSeconds int, message string)
}

// NopHooks is a Hooks implementation that ignores every notification.
// Embed it and override the callbacks you care about.
type NopHooks struct{}

func (NopHooks) OnToken(string)                                      {}
func (NopHooks) OnComplete(string, *models.Metadata)                 {}
func (NopHooks) OnError(string)                                      {}
func (NopHooks) OnCitation(models.Citation)                          {}
func (NopHooks) OnToolCall(models.ToolCall)                          {}
func (NopHooks) OnAgentUpdate([]string)                              {}
func (NopHooks) OnPlan([]string, string)                             {}
func (NopHooks) OnEstimatedTime(int)                                 {}
func (NopHooks) OnQuestionAnalysis(json.RawMessage)                  {}
func (NopHooks) OnAgentStart(string, int, int)                       {}
func (NopHooks) OnAgentThinking(string, string, int, int)            {}
func (NopHooks) OnAgentProgress(string, string)                      {}
func (NopHooks) OnAgentResponse(string, string, json.RawMessage)     {}
func (NopHooks) OnAgentComplete(string, string)                      {}
func (NopHooks) OnAllAgentsComplete(map[string]string)               {}
func (NopHooks) OnAgentChallenge(string, string, string)             {}
func (NopHooks) OnAgentRevised(string, string)                       {}
func (NopHooks) OnAgentDefended(string, string)                      {}
func (NopHooks) OnAgentConsensus([]string, string)                   {}
func (NopHooks) OnValidationWarning(string, string)                  {}
func (NopHooks) OnElapsedTimeUpdate(int)                             {}
func (NopHooks) OnSlowWarning(int, string)                           {}

var _ Hooks = NopHooks{}
