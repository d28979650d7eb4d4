package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/browser"
)

// dependenciesCmd reports which browsers session extraction can read
var dependenciesCmd = &cobra.Command{
	Use:   "dependencies",
	Short: "Check browser availability for session extraction",
	RunE: func(cmd *cobra.Command, args []string) error {
		available := browser.ListAvailableBrowsers()

		if len(available) == 0 {
			fmt.Println("No browser cookie stores found.")
			fmt.Println("Install one of: chrome, chromium, firefox, edge, opera")
			return nil
		}

		fmt.Println("Browsers with readable cookie stores:")
		for _, name := range available {
			fmt.Printf("  ✓ %s\n", name)
		}
		return nil
	},
}
