package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/history"
	"github.com/elec-mate/elecmate/internal/render"
)

var (
	exportFormatFlag   string
	includeDesignFlag  bool
	includeSourcesFlag bool
	searchContentFlag  bool
)

// historyCmd manages saved consultations
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage saved consultations",
	Long: `Manage saved consultations.

Conversations can be referenced by ` + history.ListAliases() + `.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listHistory()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <ref>",
	Short: "Show a saved consultation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return showHistory(args[0])
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <ref> [file]",
	Short: "Export a consultation as markdown or JSON",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := ""
		if len(args) > 1 {
			out = args[1]
		}
		return exportHistory(args[0], out)
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <ref>",
	Short: "Delete a saved consultation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deleteHistory(args[0])
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search saved consultations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return searchHistory(args[0])
	},
}

var historyFavoriteCmd = &cobra.Command{
	Use:     "favorite <ref>",
	Aliases: []string{"fav"},
	Short:   "Toggle a consultation as favorite",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return favoriteHistory(args[0])
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all saved consultations",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.DefaultStore()
		if err != nil {
			return err
		}
		if err := store.ClearAll(); err != nil {
			return err
		}
		fmt.Println("✓ History cleared")
		return nil
	},
}

func init() {
	historyExportCmd.Flags().StringVar(&exportFormatFlag, "format", "markdown", "Export format (markdown, json)")
	historyExportCmd.Flags().BoolVar(&includeDesignFlag, "design", false, "Include the design context in the export")
	historyExportCmd.Flags().BoolVar(&includeSourcesFlag, "sources", true, "Include citations in the export")
	historySearchCmd.Flags().BoolVar(&searchContentFlag, "content", false, "Search message content, not just titles")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func listHistory() error {
	store, err := history.DefaultStore()
	if err != nil {
		return err
	}

	convs, err := store.ListConversations()
	if err != nil {
		return err
	}
	if len(convs) == 0 {
		fmt.Println("No saved consultations. Start one with 'elecmate chat'.")
		return nil
	}

	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)
	favStyle := lipgloss.NewStyle().Foreground(colorWarning)

	for i, conv := range convs {
		fav := " "
		if isFav, _ := store.IsFavorite(conv.ID); isFav {
			fav = favStyle.Render("★")
		}
		fmt.Printf("%2d %s %-50s %s\n", i+1, fav,
			truncateTitle(conv.Title, 50),
			dimStyle.Render(history.FormatRelativeTime(conv.UpdatedAt)))
	}
	return nil
}

func showHistory(ref string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return err
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(ref)
	if err != nil {
		return err
	}

	md, err := store.ExportToMarkdown(conv.ID)
	if err != nil {
		return err
	}

	rendered, err := render.Markdown(md, render.LoadOptionsFromConfigWithWidth(getTerminalWidth()-4))
	if err != nil {
		fmt.Println(md)
		return nil
	}
	fmt.Println(strings.TrimRight(rendered, "\n"))
	return nil
}

func exportHistory(ref, outPath string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return err
	}

	id, err := history.NewResolver(store).Resolve(ref)
	if err != nil {
		return err
	}

	opts := history.ExportOptions{
		IncludeCitations: includeSourcesFlag,
		IncludeDesign:    includeDesignFlag,
	}

	var data []byte
	switch exportFormatFlag {
	case "markdown", "md":
		opts.Format = history.ExportFormatMarkdown
		md, err := store.ExportToMarkdownWithOptions(id, opts)
		if err != nil {
			return err
		}
		data = []byte(md)
	case "json":
		opts.Format = history.ExportFormatJSON
		data, err = store.ExportToJSONWithOptions(id, opts)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (markdown, json)", exportFormatFlag)
	}

	if outPath == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("✓ Exported to %s\n", outPath)
	return nil
}

func deleteHistory(ref string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return err
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(ref)
	if err != nil {
		return err
	}

	if err := store.DeleteConversation(conv.ID); err != nil {
		return err
	}
	fmt.Printf("✓ Deleted %q\n", conv.Title)
	return nil
}

func searchHistory(query string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return err
	}

	results, err := store.SearchConversations(query, searchContentFlag)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}

	dimStyle := lipgloss.NewStyle().Foreground(colorTextDim)
	for _, result := range results {
		fmt.Printf("%s %s\n", truncateTitle(result.Conversation.Title, 50),
			dimStyle.Render(history.FormatRelativeTime(result.Conversation.UpdatedAt)))
		if result.MatchSnippet != "" {
			fmt.Printf("   %s\n", dimStyle.Render(result.MatchSnippet))
		}
	}
	return nil
}

func favoriteHistory(ref string) error {
	store, err := history.DefaultStore()
	if err != nil {
		return err
	}

	conv, err := history.NewResolver(store).ResolveWithInfo(ref)
	if err != nil {
		return err
	}

	isFav, err := store.ToggleFavorite(conv.ID)
	if err != nil {
		return err
	}
	if isFav {
		fmt.Printf("★ %q marked as favorite\n", conv.Title)
	} else {
		fmt.Printf("✓ %q unmarked\n", conv.Title)
	}
	return nil
}

// truncateTitle shortens a title for list display
func truncateTitle(title string, max int) string {
	if len(title) <= max {
		return title
	}
	return title[:max-3] + "..."
}
