package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/config"
)

// importSessionCmd imports a session file exported from another machine
var importSessionCmd = &cobra.Command{
	Use:   "import-session <file>",
	Short: "Import a session file",
	Long: `Import an Elec-Mate session from a JSON file.

Accepts both the session format this CLI writes and the cookie export
format produced by browser extensions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.ImportSession(args[0]); err != nil {
			return fmt.Errorf("failed to import session: %w", err)
		}

		path, _ := config.GetSessionPath()
		fmt.Printf("✓ Session imported to %s\n", path)
		return nil
	},
}
