package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/config"
	"github.com/elec-mate/elecmate/internal/render"
)

// configCmd manages user configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change configuration",
	Long: `Show or change elecmate configuration.

  elecmate config                        Show current settings
  elecmate config set endpoint <url>     Use a self-hosted router
  elecmate config set agents designer,compliance
  elecmate config set verbose true
  elecmate config set clipboard true
  elecmate config set theme catppuccin
  elecmate config set markdown-style light`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return showConfig()
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setConfig(args[0], args[1])
	},
}

var configThemesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List available themes",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("TUI themes:")
		for _, theme := range render.AvailableTUIThemes() {
			fmt.Printf("  %s\n", theme.Name)
		}
		fmt.Println()
		fmt.Println("Markdown styles:")
		for _, theme := range render.AvailableThemes() {
			fmt.Printf("  %-10s %s\n", theme.Name, theme.Description)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configThemesCmd)
}

func showConfig() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	path, _ := config.GetConfigPath()

	fmt.Printf("Config file:   %s\n", path)
	fmt.Printf("endpoint:      %s\n", cfg.Endpoint)
	agents := strings.Join(cfg.DefaultAgents, ",")
	if agents == "" {
		agents = "(router default)"
	}
	fmt.Printf("agents:        %s\n", agents)
	fmt.Printf("verbose:       %t\n", cfg.Verbose)
	fmt.Printf("clipboard:     %t\n", cfg.CopyToClipboard)
	fmt.Printf("theme:         %s\n", cfg.TUITheme)
	fmt.Printf("markdown-style: %s\n", cfg.Markdown.Style)
	return nil
}

func setConfig(key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	switch key {
	case "endpoint":
		cfg.Endpoint = value

	case "agents":
		if value == "" || value == "default" {
			cfg.DefaultAgents = nil
		} else {
			cfg.DefaultAgents = strings.Split(value, ",")
		}

	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		cfg.Verbose = b

	case "clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("clipboard must be true or false")
		}
		cfg.CopyToClipboard = b

	case "theme":
		if _, ok := render.GetTUIThemeByName(value); !ok {
			return fmt.Errorf("unknown theme %q (available: %s)", value,
				strings.Join(render.TUIThemeNames(), ", "))
		}
		cfg.TUITheme = value

	case "markdown-style":
		if !render.IsBuiltinStyle(value) {
			return fmt.Errorf("unknown style %q (available: %s)", value,
				strings.Join(render.ThemeNames(), ", "))
		}
		cfg.Markdown.Style = value

	default:
		return fmt.Errorf("unknown key %q (endpoint, agents, verbose, clipboard, theme, markdown-style)", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return err
	}
	fmt.Printf("✓ %s = %s\n", key, value)
	return nil
}
