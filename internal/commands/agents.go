package commands

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/models"
)

// agentsCmd lists the available design agents
var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List the available design agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		nameStyle := lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
		descStyle := lipgloss.NewStyle().Foreground(colorTextDim)

		fmt.Println("Available agents:")
		fmt.Println()
		for _, agent := range models.AllAgents() {
			marker := " "
			if agent.Name == models.DefaultAgent.Name {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, nameStyle.Render(fmt.Sprintf("%-12s", agent.Name)), agent.Title)
			fmt.Printf("   %s\n", descStyle.Render(agent.Description))
		}
		fmt.Println()
		fmt.Println(descStyle.Render("* consulted by default. Select with -a, e.g. -a designer,compliance"))
		return nil
	},
}
