package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elec-mate/elecmate/internal/api"
	"github.com/elec-mate/elecmate/internal/history"
	"github.com/elec-mate/elecmate/internal/models"
	"github.com/elec-mate/elecmate/internal/render"
)

// eventBuffer sizes the stream event channel. Token chunks arrive in
// bursts; the update loop drains continuously so this only smooths spikes.
const eventBuffer = 256

// ConsultationSession is the session surface the TUI drives.
type ConsultationSession interface {
	Send(prompt string, hooks api.Hooks) (*models.Result, error)
	Agents() []string
	SetAgents(agents []string)
	ConversationID() string
	Design() *models.Design
}

// HistoryStoreInterface is the history surface the TUI persists through.
type HistoryStoreInterface interface {
	AddMessage(id string, msg history.Message) error
	UpdateRouterState(id, routerConversationID string, design json.RawMessage) error
	UpdateTitle(id, title string) error
}

// agentState tracks one agent's rung on the progress ladder
type agentState struct {
	name     string
	status   string // "pending", "running", "done"
	thinking string
}

// chatMessage represents a message in the chat
type chatMessage struct {
	role      string // "user" or "assistant"
	content   string
	agents    []string
	citations []models.Citation
}

// Model represents the chat TUI state
type Model struct {
	session ConsultationSession

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// Transcript state
	messages  []chatMessage
	streaming string // text accumulated for the in-flight exchange
	loading   bool
	ready     bool
	err       error

	// Consultation progress
	ladder        []agentState
	complexity    string
	citations     []models.Citation
	warnings      []string
	debate        string
	slowWarning   string
	elapsed       int
	estimatedTime int

	// Stream plumbing. A single drainer command reads events; every
	// delivered event re-issues it, so once started there is exactly one
	// receiver on the channel for the model's lifetime. A second receiver
	// would race tokens out of arrival order.
	events   chan tea.Msg
	draining bool

	// Agent selection overlay
	selectingAgents bool
	agentCursor     int
	agentChecked    map[string]bool

	// History persistence
	conversation *history.Conversation
	historyStore HistoryStoreInterface

	// Dimensions
	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(session ConsultationSession) Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your installation..."
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	return Model{
		session:  session,
		textarea: ta,
		spinner:  s,
		messages: []chatMessage{},
		events:   make(chan tea.Msg, eventBuffer),
	}
}

// NewChatModelWithConversation creates a chat model that persists every
// exchange into the given stored consultation.
func NewChatModelWithConversation(session ConsultationSession, conv *history.Conversation, store HistoryStoreInterface) Model {
	m := NewChatModel(session)
	m.conversation = conv
	m.historyStore = store

	if conv != nil {
		for _, msg := range conv.Messages {
			m.messages = append(m.messages, chatMessage{
				role:      msg.Role,
				content:   msg.Content,
				agents:    msg.Agents,
				citations: msg.Citations,
			})
		}
	}
	return m
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if m.selectingAgents {
		return m.updateAgentSelection(msg)
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 4
		inputHeight := 6
		statusHeight := 1
		padding := 2

		vpHeight := m.height - headerHeight - inputHeight - statusHeight - padding
		if vpHeight < 5 {
			vpHeight = 5
		}

		contentWidth := m.width - 4

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.textarea.SetWidth(contentWidth - 4)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
			m.textarea.SetWidth(contentWidth - 4)
		}
		m.updateViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			if !m.loading {
				return m, tea.Quit
			}
			// The exchange keeps its own hard deadline; esc during
			// streaming just reminds the user it is still running

		case "ctrl+y":
			if text := m.lastAnswer(); text != "" {
				_ = clipboard.WriteAll(text)
			}

		case "enter":
			if !m.loading && strings.TrimSpace(m.textarea.Value()) != "" {
				input := strings.TrimSpace(m.textarea.Value())
				if input == "exit" || input == "quit" || input == "/exit" || input == "/quit" {
					return m, tea.Quit
				}

				if input == "/agents" {
					m.textarea.Reset()
					return m.openAgentSelector(), nil
				}

				m.messages = append(m.messages, chatMessage{
					role:    "user",
					content: input,
				})
				m.updateViewport()
				m.viewport.GotoBottom()

				m.loading = true
				m.err = nil
				m.streaming = ""
				m.ladder = nil
				m.complexity = ""
				m.citations = nil
				m.warnings = nil
				m.debate = ""
				m.slowWarning = ""
				m.elapsed = 0
				m.estimatedTime = 0
				m.textarea.Reset()

				m.persistUserMessage(input)

				sendCmds := []tea.Cmd{m.startStream(input), m.spinner.Tick}
				if !m.draining {
					m.draining = true
					sendCmds = append(sendCmds, waitForEvent(m.events))
				}
				return m, tea.Batch(sendCmds...)
			}
		}

	case tokenMsg:
		m.streaming += string(msg)
		m.updateViewport()
		m.viewport.GotoBottom()
		cmds = append(cmds, waitForEvent(m.events))

	case planMsg:
		ladder := make([]agentState, 0, len(msg.agents))
		for _, name := range msg.agents {
			status := "pending"
			// Preserve progress for agents already on the ladder
			for _, prev := range m.ladder {
				if prev.name == name {
					status = prev.status
					break
				}
			}
			ladder = append(ladder, agentState{name: name, status: status})
		}
		m.ladder = ladder
		if msg.complexity != "" {
			m.complexity = msg.complexity
		}
		cmds = append(cmds, waitForEvent(m.events))

	case agentStartMsg:
		m.setAgentStatus(msg.agent, "running")
		cmds = append(cmds, waitForEvent(m.events))

	case agentThinkingMsg:
		m.setAgentThinking(msg.agent, msg.message)
		cmds = append(cmds, waitForEvent(m.events))

	case agentCompleteMsg:
		m.setAgentStatus(msg.agent, "done")
		cmds = append(cmds, waitForEvent(m.events))

	case citationMsg:
		m.citations = append(m.citations, models.Citation(msg))
		cmds = append(cmds, waitForEvent(m.events))

	case validationWarnMsg:
		warning := msg.message
		if msg.regulation != "" {
			warning = fmt.Sprintf("%s (%s)", msg.message, msg.regulation)
		}
		m.warnings = append(m.warnings, warning)
		cmds = append(cmds, waitForEvent(m.events))

	case debateMsg:
		m.debate = msg.text
		cmds = append(cmds, waitForEvent(m.events))

	case slowWarnMsg:
		m.slowWarning = msg.message
		cmds = append(cmds, waitForEvent(m.events))

	case elapsedMsg:
		m.elapsed = int(msg)
		cmds = append(cmds, waitForEvent(m.events))

	case estimatedTimeMsg:
		m.estimatedTime = int(msg)
		cmds = append(cmds, waitForEvent(m.events))

	case completeMsg:
		m.loading = false
		m.streaming = ""
		m.slowWarning = ""
		if msg.meta == nil {
			msg.meta = &models.Metadata{}
		}
		m.messages = append(m.messages, chatMessage{
			role:      "assistant",
			content:   msg.fullText,
			agents:    msg.meta.ConsultedAgents,
			citations: msg.meta.Citations,
		})
		m.persistAssistantMessage(msg)
		m.updateViewport()
		m.viewport.GotoBottom()
		// Keep draining; the send command still returns streamDoneMsg
		cmds = append(cmds, waitForEvent(m.events))

	case streamDoneMsg:
		if msg.err != nil {
			m.loading = false
			m.streaming = ""
			m.slowWarning = ""
			m.err = msg.err
			m.updateViewport()
		}

	case spinner.TickMsg:
		if m.loading {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Only pass KeyMsg to the textarea to prevent escape sequence leaks
	if !m.loading {
		if _, ok := msg.(tea.KeyMsg); ok {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// startStream runs one exchange on its own goroutine. Progress arrives
// through the event channel; the returned message reports the final error.
func (m Model) startStream(prompt string) tea.Cmd {
	session := m.session
	hooks := &channelHooks{ch: m.events}
	return func() tea.Msg {
		_, err := session.Send(prompt, hooks)
		return streamDoneMsg{err: err}
	}
}

func (m *Model) setAgentStatus(agent, status string) {
	for i := range m.ladder {
		if m.ladder[i].name == agent {
			m.ladder[i].status = status
			if status == "done" {
				m.ladder[i].thinking = ""
			}
			return
		}
	}
	// Agent was not announced in a plan; add it so progress still shows
	m.ladder = append(m.ladder, agentState{name: agent, status: status})
}

func (m *Model) setAgentThinking(agent, message string) {
	for i := range m.ladder {
		if m.ladder[i].name == agent {
			m.ladder[i].thinking = message
			return
		}
	}
}

// persistUserMessage saves the prompt to the stored consultation.
func (m *Model) persistUserMessage(content string) {
	if m.historyStore == nil || m.conversation == nil {
		return
	}
	_ = m.historyStore.AddMessage(m.conversation.ID, history.Message{
		Role:    "user",
		Content: content,
	})
}

// persistAssistantMessage saves the reply and the router state.
func (m *Model) persistAssistantMessage(msg completeMsg) {
	if m.historyStore == nil || m.conversation == nil {
		return
	}
	_ = m.historyStore.AddMessage(m.conversation.ID, history.Message{
		Role:      "assistant",
		Content:   msg.fullText,
		Agents:    msg.meta.ConsultedAgents,
		Citations: msg.meta.Citations,
	})
	if id := m.session.ConversationID(); id != "" {
		var design json.RawMessage
		if d := m.session.Design(); d != nil {
			design = d.Raw
		}
		_ = m.historyStore.UpdateRouterState(m.conversation.ID, id, design)
	}
}

// lastAnswer returns the most recent assistant message, or "".
func (m Model) lastAnswer() string {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].role == "assistant" {
			return m.messages[i].content
		}
	}
	return ""
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	if m.selectingAgents {
		return m.renderAgentSelector()
	}

	var sections []string
	contentWidth := m.width - 4

	// Header
	headerParts := []string{
		titleStyle.Render("⚡ Elec-Mate"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.agentSummary()),
	}
	headerContent := lipgloss.JoinHorizontal(lipgloss.Center, headerParts...)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	// Messages area
	var messagesContent string
	if len(m.messages) == 0 && !m.loading {
		messagesContent = m.renderWelcome()
	} else {
		messagesContent = m.viewport.View()
	}
	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(messagesContent))

	// Input area
	var inputContent string
	if m.loading {
		inputContent = m.renderProgress()
	} else {
		inputContent = lipgloss.JoinVertical(
			lipgloss.Left,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	// Status bar
	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.err != nil {
		sections = append(sections, FormatError(m.err))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// agentSummary describes the current agent selection for the header.
func (m Model) agentSummary() string {
	agents := m.session.Agents()
	if len(agents) == 0 {
		return models.DefaultAgent.Title
	}
	titles := make([]string, len(agents))
	for i, name := range agents {
		titles[i] = models.AgentFromName(name).Title
	}
	return strings.Join(titles, ", ")
}

// renderWelcome renders the welcome screen when no messages exist
func (m Model) renderWelcome() string {
	width := m.viewport.Width - 4
	height := m.viewport.Height

	icon := welcomeIconStyle.Width(width).Render("⚡")
	title := welcomeTitleStyle.Width(width).Render("Elec-Mate Design Consultation")
	subtitle := lipgloss.NewStyle().Foreground(colorTextDim).Width(width).Align(lipgloss.Center).
		Render("Describe the installation or ask a design question below.\nType /agents to choose which agents to consult.")

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		"",
		icon,
		"",
		title,
		"",
		subtitle,
		"",
	)

	contentHeight := lipgloss.Height(content)
	topPadding := (height - contentHeight) / 2
	if topPadding < 0 {
		topPadding = 0
	}

	return strings.Repeat("\n", topPadding) + content
}

// renderProgress renders the agent ladder and timers shown while streaming.
func (m Model) renderProgress() string {
	var lines []string

	head := m.spinner.View() + loadingStyle.Render(" Consulting the agents")
	if m.complexity != "" {
		head += hintStyle.Render("  (" + m.complexity + ")")
	}
	lines = append(lines, head)

	for i, agent := range m.ladder {
		title := models.AgentFromName(agent.name).Title
		var line string
		switch agent.status {
		case "running":
			style := agentRunningStyle.Foreground(agentColor(i))
			line = style.Render("◐ " + title)
			if agent.thinking != "" {
				line += thinkingStyle.Render("  " + agent.thinking)
			}
		case "done":
			line = agentDoneStyle.Render("● " + title)
		default:
			line = agentPendingStyle.Render("○ " + title)
		}
		lines = append(lines, "  "+line)
	}

	if m.debate != "" {
		lines = append(lines, thinkingStyle.Render("  ⚖ "+m.debate))
	}

	timer := fmt.Sprintf("%ds elapsed", m.elapsed)
	if m.estimatedTime > 0 {
		timer += fmt.Sprintf(" / ~%ds estimated", m.estimatedTime)
	}
	lines = append(lines, elapsedStyle.Render(timer))

	if m.slowWarning != "" {
		lines = append(lines, warningStyle.Render("⏳ "+m.slowWarning))
	}

	return progressPanelStyle.Render(strings.Join(lines, "\n"))
}

// renderStatusBar renders the bottom status bar with shortcuts
func (m Model) renderStatusBar(width int) string {
	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"/agents", "Agents"},
		{"Ctrl+Y", "Copy"},
		{"Esc", "Quit"},
		{"↑↓", "Scroll"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, lipgloss.JoinHorizontal(
			lipgloss.Center,
			statusKeyStyle.Render(s.key),
			statusDescStyle.Render(" "+s.desc),
		))
	}

	bar := lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(items, "  │  "))
	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(bar)
}

// updateViewport refreshes the viewport content with styled messages
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6

	for i, msg := range m.messages {
		if i > 0 {
			content.WriteString("\n")
		}
		m.writeMessage(&content, msg, bubbleWidth, true)
	}

	// The in-flight exchange renders raw; glamour runs once on completion
	if m.streaming != "" {
		if len(m.messages) > 0 {
			content.WriteString("\n")
		}
		label := assistantLabelStyle.Render("⚡ " + m.agentSummary())
		bubble := assistantBubbleStyle.Width(bubbleWidth).Render(m.streaming)
		content.WriteString(label + "\n" + bubble + "\n")

		for _, warning := range m.warnings {
			content.WriteString(warningStyle.Render("⚠ "+warning) + "\n")
		}
	}

	m.viewport.SetContent(content.String())
}

// writeMessage renders one transcript entry into the builder.
func (m *Model) writeMessage(content *strings.Builder, msg chatMessage, bubbleWidth int, markdown bool) {
	if msg.role == "user" {
		label := userLabelStyle.Render("⬤ You")
		bubble := userBubbleStyle.Width(bubbleWidth).Render(msg.content)
		content.WriteString(label + "\n" + bubble + "\n")
		return
	}

	who := "Agents"
	if len(msg.agents) > 0 {
		titles := make([]string, len(msg.agents))
		for i, name := range msg.agents {
			titles[i] = models.AgentFromName(name).Title
		}
		who = strings.Join(titles, ", ")
	}
	label := assistantLabelStyle.Render("⚡ " + who)

	body := msg.content
	if markdown {
		rendered, err := render.MarkdownWithWidth(msg.content, bubbleWidth-4)
		if err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}

	bubble := assistantBubbleStyle.Width(bubbleWidth).Render(body)
	content.WriteString(label + "\n" + bubble + "\n")

	if len(msg.citations) > 0 {
		var refs []string
		for _, cit := range msg.citations {
			ref := cit.Title
			if ref == "" {
				ref = cit.Source
			}
			refs = append(refs, ref)
		}
		content.WriteString(citationStyle.Render("  Sources: "+strings.Join(refs, "; ")) + "\n")
	}
}

// RunChat starts the chat TUI
func RunChat(session ConsultationSession) error {
	p := tea.NewProgram(
		NewChatModel(session),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}

// RunChatWithConversation starts the chat TUI with history persistence
func RunChatWithConversation(session ConsultationSession, conv *history.Conversation, store HistoryStoreInterface) error {
	p := tea.NewProgram(
		NewChatModelWithConversation(session, conv, store),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
