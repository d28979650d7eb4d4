// Package commands provides CLI commands for elecmate.
package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/browser"
	"github.com/elec-mate/elecmate/internal/config"
)

var (
	// Global flags
	agentsFlag  []string
	designFlag  string
	targetFlag  string
	browserFlag string
	verboseFlag bool
	outputFlag  string
	fileFlag    string
	rawFlag     bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "elecmate [question]",
	Short: "CLI for the Elec-Mate design agents",
	Long: `elecmate is a command-line interface for the Elec-Mate electrical design
platform. It streams consultations from the agent router and renders
them in your terminal.

Examples:
  elecmate chat                           Start an interactive consultation
  elecmate "EV charger on a TT supply?"   Ask a single question
  elecmate -a designer,compliance "..."   Consult specific agents
  elecmate -d domestic-tt "..."           Use a design template as context
  cat brief.md | elecmate                 Read the question from stdin
  elecmate "..." -o answer.md             Save the answer to a file`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("elecmate %s (built %s)\n", Version, BuildTime)
			return nil
		}

		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), rawFlag)
		}

		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), rawFlag)
		}

		if len(args) > 0 {
			return runQuery(args[0], rawFlag)
		}

		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(setupLogging)

	rootCmd.PersistentFlags().StringSliceVarP(&agentsFlag, "agents", "a", nil,
		"Agents to consult (designer, calculator, compliance, estimator)")
	rootCmd.PersistentFlags().StringVarP(&designFlag, "design", "d", "",
		"Design context: a template name or a path to a JSON design file")
	rootCmd.PersistentFlags().StringVarP(&targetFlag, "target", "t", "",
		"Route the question at a single agent, bypassing the router's plan")
	rootCmd.PersistentFlags().StringVar(&browserFlag, "browser", "",
		"Pick up the web session from a browser when no session file exists (auto, chrome, firefox, edge, chromium, opera)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the answer to a file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the question from a file")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the raw answer without decoration")
	rootCmd.Flags().Bool("version", false, "Show version and exit")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(agentsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(importSessionCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dependenciesCmd)
}

// setupLogging configures the global logger. Logs go to stderr so they
// never mix with rendered answers on stdout.
func setupLogging() {
	level := zerolog.WarnLevel
	if verboseFlag {
		level = zerolog.DebugLevel
	} else if cfg, err := config.LoadConfig(); err == nil && cfg.Verbose {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// getAgents returns the agent selection from the flag or config.
// Empty means the router decides.
func getAgents() []string {
	if len(agentsFlag) > 0 {
		return agentsFlag
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil
	}
	return cfg.DefaultAgents
}

// getBrowserLogin returns the browser to extract a session from, if any
func getBrowserLogin() (browser.SupportedBrowser, bool) {
	if browserFlag == "" {
		return "", false
	}

	browserType, err := browser.ParseBrowser(browserFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid browser value '%s', ignoring\n", browserFlag)
		return "", false
	}

	return browserType, true
}
