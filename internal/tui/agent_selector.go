package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elec-mate/elecmate/internal/models"
)

// openAgentSelector switches the model into the agent selection overlay,
// seeded with the session's current selection.
func (m Model) openAgentSelector() Model {
	m.selectingAgents = true
	m.agentCursor = 0
	m.agentChecked = make(map[string]bool)
	for _, name := range m.session.Agents() {
		m.agentChecked[name] = true
	}
	return m
}

// updateAgentSelection handles key input while the overlay is open.
func (m Model) updateAgentSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	agents := models.AllAgents()

	switch keyMsg.String() {
	case "ctrl+c":
		return m, tea.Quit

	case "esc":
		m.selectingAgents = false
		return m, nil

	case "up", "k":
		if m.agentCursor > 0 {
			m.agentCursor--
		}

	case "down", "j":
		if m.agentCursor < len(agents)-1 {
			m.agentCursor++
		}

	case " ":
		name := agents[m.agentCursor].Name
		m.agentChecked[name] = !m.agentChecked[name]

	case "enter":
		var selected []string
		for _, agent := range agents {
			if m.agentChecked[agent.Name] {
				selected = append(selected, agent.Name)
			}
		}
		// An empty selection falls back to the default agent downstream
		m.session.SetAgents(selected)
		m.selectingAgents = false
		return m, nil
	}

	return m, nil
}

// renderAgentSelector renders the agent selection overlay.
func (m Model) renderAgentSelector() string {
	var sb strings.Builder

	sb.WriteString(selectorTitleStyle.Render("Select agents to consult"))
	sb.WriteString("\n\n")

	for i, agent := range models.AllAgents() {
		cursor := "  "
		if i == m.agentCursor {
			cursor = selectorCursorStyle.Render("❯ ")
		}

		check := "[ ]"
		if m.agentChecked[agent.Name] {
			check = selectorSelectedStyle.Render("[x]")
		}

		title := selectorItemStyle.Render(agent.Title)
		if i == m.agentCursor {
			title = selectorItemStyle.Foreground(agentColor(i)).Bold(true).Render(agent.Title)
		}

		sb.WriteString(cursor + check + title)
		sb.WriteString("\n")
		sb.WriteString(selectorValueStyle.Render("      " + agent.Description))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(hintStyle.Render("space toggle  •  enter confirm  •  esc cancel"))

	panel := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(1, 2).
		Render(sb.String())

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
	}
	return panel
}
