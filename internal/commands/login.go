package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/browser"
	"github.com/elec-mate/elecmate/internal/config"
	"github.com/elec-mate/elecmate/internal/models"
)

// loginCmd picks up the web session from an installed browser
var loginCmd = &cobra.Command{
	Use:   "login [browser]",
	Short: "Pick up your Elec-Mate session from a browser",
	Long: fmt.Sprintf(`Extract the Elec-Mate session from a browser you are logged into
and save it for the CLI.

Log in at %s first, then run:

  elecmate login            Try every installed browser
  elecmate login firefox    Use a specific browser

Supported browsers: chrome, chromium, firefox, edge, opera`, models.EndpointApp),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "auto"
		if len(args) > 0 {
			target = args[0]
		}
		return runLogin(target)
	},
}

func runLogin(target string) error {
	browserType, err := browser.ParseBrowser(target)
	if err != nil {
		return err
	}

	prog := newProgress("Looking for your Elec-Mate session")
	prog.start()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := browser.ExtractSession(ctx, browserType)
	if err != nil {
		prog.stopWithError()
		return err
	}

	if err := config.SaveSession(result.Session); err != nil {
		prog.stopWithError()
		return fmt.Errorf("failed to save session: %w", err)
	}

	prog.stopWithSuccess(fmt.Sprintf("Session saved from %s", result.BrowserName))
	return nil
}
