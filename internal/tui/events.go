package tui

import (
	"encoding/json"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elec-mate/elecmate/internal/api"
	"github.com/elec-mate/elecmate/internal/models"
)

// Stream event messages. The coordinator's hooks fire on the streaming
// goroutine; channelHooks forwards each notification onto a channel the
// program drains, so all state changes happen on the update loop.
type (
	tokenMsg string

	planMsg struct {
		agents     []string
		complexity string
	}

	agentStartMsg struct {
		agent string
		index int
		total int
	}

	agentThinkingMsg struct {
		agent   string
		message string
	}

	agentCompleteMsg struct {
		agent string
	}

	citationMsg models.Citation

	validationWarnMsg struct {
		regulation string
		message    string
	}

	slowWarnMsg struct {
		elapsedSeconds int
		message        string
	}

	// debateMsg carries cross-examination events between agents
	debateMsg struct {
		text string
	}

	elapsedMsg int

	estimatedTimeMsg int

	completeMsg struct {
		fullText string
		meta     *models.Metadata
	}

	// streamDoneMsg is returned by the send command when the exchange
	// goroutine finishes. err is nil on success.
	streamDoneMsg struct {
		err error
	}
)

// channelHooks adapts the coordinator hook interface to bubbletea messages.
type channelHooks struct {
	api.NopHooks
	ch chan tea.Msg
}

func (h *channelHooks) OnToken(text string) {
	h.ch <- tokenMsg(text)
}

func (h *channelHooks) OnPlan(agents []string, complexity string) {
	h.ch <- planMsg{agents: agents, complexity: complexity}
}

func (h *channelHooks) OnAgentStart(agent string, index, total int) {
	h.ch <- agentStartMsg{agent: agent, index: index, total: total}
}

func (h *channelHooks) OnAgentThinking(agent, message string, step, totalSteps int) {
	h.ch <- agentThinkingMsg{agent: agent, message: message}
}

func (h *channelHooks) OnAgentComplete(agent, nextAgent string) {
	h.ch <- agentCompleteMsg{agent: agent}
}

func (h *channelHooks) OnAgentUpdate(agents []string) {
	h.ch <- planMsg{agents: agents}
}

func (h *channelHooks) OnCitation(citation models.Citation) {
	h.ch <- citationMsg(citation)
}

func (h *channelHooks) OnAgentChallenge(challenger, target, challenge string) {
	h.ch <- debateMsg{text: challenger + " challenges " + target}
}

func (h *channelHooks) OnAgentRevised(agent, revision string) {
	h.ch <- debateMsg{text: agent + " revised their answer"}
}

func (h *channelHooks) OnAgentDefended(agent, defense string) {
	h.ch <- debateMsg{text: agent + " stands by their answer"}
}

func (h *channelHooks) OnAgentConsensus(agents []string, consensus string) {
	h.ch <- debateMsg{text: "agents reached consensus"}
}

func (h *channelHooks) OnValidationWarning(regulation, message string) {
	h.ch <- validationWarnMsg{regulation: regulation, message: message}
}

func (h *channelHooks) OnSlowWarning(elapsedSeconds int, message string) {
	h.ch <- slowWarnMsg{elapsedSeconds: elapsedSeconds, message: message}
}

func (h *channelHooks) OnElapsedTimeUpdate(seconds int) {
	h.ch <- elapsedMsg(seconds)
}

func (h *channelHooks) OnEstimatedTime(seconds int) {
	h.ch <- estimatedTimeMsg(seconds)
}

func (h *channelHooks) OnComplete(fullText string, meta *models.Metadata) {
	h.ch <- completeMsg{fullText: fullText, meta: meta}
}

func (h *channelHooks) OnAgentResponse(agent, text string, structuredData json.RawMessage) {
	// Response text already arrives through OnToken
}

// waitForEvent returns a command that delivers the next stream event.
func waitForEvent(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
