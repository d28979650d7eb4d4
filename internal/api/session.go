package api

import (
	"sync"

	"github.com/tidwall/gjson"

	"github.com/elec-mate/elecmate/internal/models"
)

// DesignSession maintains one conversation with the agent router: the
// transcript, the design context, and the agent selection. Each Send runs
// one exchange with its own accumulator, so two sessions streaming at the
// same time share nothing.
type DesignSession struct {
	client *Client

	mu         sync.RWMutex // Protects everything below
	messages   []models.Message
	design     *models.Design
	agents     []string
	target     string
	streaming  bool
	lastResult *models.Result
}

// Send appends the prompt to the transcript, streams one exchange through
// hooks, and records the assistant's reply.
func (s *DesignSession) Send(prompt string, hooks Hooks) (*models.Result, error) {
	s.mu.Lock()
	s.messages = append(s.messages, models.Message{
		Role:    models.RoleUser,
		Content: prompt,
	})
	messages := append([]models.Message(nil), s.messages...)
	design := s.design
	opts := &StreamOptions{
		SelectedAgents: append([]string(nil), s.agents...),
		TargetAgent:    s.target,
	}
	s.streaming = true
	s.mu.Unlock()

	result, err := s.client.StreamMessage(messages, design, opts, hooks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
	if err != nil {
		return nil, err
	}

	s.lastResult = result
	s.messages = append(s.messages, models.Message{
		Role:      models.RoleAssistant,
		Content:   result.FullResponse,
		Citations: result.Metadata.Citations,
		ToolCalls: result.Metadata.ToolCalls,
		Agents:    result.Metadata.ConsultedAgents,
	})
	s.adoptConversationIDLocked(result)

	return result, nil
}

// adoptConversationIDLocked picks the conversation identifier out of the
// structured payload so follow-up exchanges resume server-side context.
// MUST be called with s.mu held.
func (s *DesignSession) adoptConversationIDLocked(result *models.Result) {
	if len(result.Metadata.StructuredData) == 0 {
		return
	}
	id := gjson.GetBytes(result.Metadata.StructuredData, "conversationId").String()
	if id == "" || id == s.design.ConversationID() {
		return
	}
	s.design = s.design.WithConversationID(id)
}

// IsStreaming reports whether an exchange is currently in flight.
func (s *DesignSession) IsStreaming() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streaming
}

// Messages returns a copy of the transcript.
func (s *DesignSession) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Message(nil), s.messages...)
}

// SetMessages replaces the transcript (for resuming a stored conversation).
func (s *DesignSession) SetMessages(messages []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append([]models.Message(nil), messages...)
}

// Design returns the current design context.
func (s *DesignSession) Design() *models.Design {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.design
}

// SetDesign replaces the design context.
func (s *DesignSession) SetDesign(design *models.Design) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.design = design
}

// ConversationID returns the conversation identifier, if any.
func (s *DesignSession) ConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.design.ConversationID()
}

// Agents returns the current agent selection.
func (s *DesignSession) Agents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.agents...)
}

// SetAgents replaces the agent selection.
func (s *DesignSession) SetAgents(agents []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = append([]string(nil), agents...)
}

// SetTargetAgent routes subsequent questions at a single agent.
// Pass "" to return to router-selected agents.
func (s *DesignSession) SetTargetAgent(agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = agent
}

// LastResult returns the most recent successful exchange result.
func (s *DesignSession) LastResult() *models.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}
