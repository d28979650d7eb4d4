package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elec-mate/elecmate/internal/api"
	"github.com/elec-mate/elecmate/internal/config"
	"github.com/elec-mate/elecmate/internal/history"
	"github.com/elec-mate/elecmate/internal/models"
	"github.com/elec-mate/elecmate/internal/render"
	"github.com/elec-mate/elecmate/internal/tui"
)

var resumeFlag string

// chatCmd starts the interactive consultation TUI
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive consultation",
	Long: `Start an interactive consultation with the design agents.

Conversations are saved locally and can be resumed:
  elecmate chat                  Start a new consultation
  elecmate chat -r @last         Resume the most recent one
  elecmate chat -r "garage"      Resume by title match`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat()
	},
}

func init() {
	chatCmd.Flags().StringVarP(&resumeFlag, "resume", "r", "", "Resume a saved consultation (@last, index, id, or title)")
}

func runChat() error {
	cfg, _ := config.LoadConfig()
	if cfg.TUITheme != "" {
		// Ignore unknown names so a stale config never blocks the TUI
		_ = render.SetTUITheme(cfg.TUITheme)
		tui.UpdateTheme()
	}

	design, err := config.ResolveDesign(designFlag)
	if err != nil {
		return err
	}

	clientOpts := []api.ClientOption{
		api.WithEndpoint(cfg.Endpoint),
		api.WithAgents(getAgents()),
	}
	if browserType, enabled := getBrowserLogin(); enabled {
		clientOpts = append(clientOpts, api.WithBrowserLogin(browserType))
	}

	client, err := api.NewClient(clientOpts...)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	if err := client.Init(); err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	store, err := history.DefaultStore()
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	session := client.StartSession(design)
	if targetFlag != "" {
		session.SetTargetAgent(targetFlag)
	}

	var conv *history.Conversation
	if resumeFlag != "" {
		conv, err = resumeConversation(store, session, resumeFlag)
		if err != nil {
			return err
		}
	} else {
		conv, err = store.CreateConversation(session.Agents())
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
	}

	return tui.RunChatWithConversation(session, conv, store)
}

// resumeConversation loads a saved consultation into the session.
func resumeConversation(store *history.Store, session *api.DesignSession, ref string) (*history.Conversation, error) {
	resolver := history.NewResolver(store)
	conv, err := resolver.ResolveWithInfo(ref)
	if err != nil {
		return nil, err
	}

	messages := make([]models.Message, 0, len(conv.Messages))
	for _, msg := range conv.Messages {
		messages = append(messages, models.Message{
			Role:      msg.Role,
			Content:   msg.Content,
			Agents:    msg.Agents,
			Citations: msg.Citations,
		})
	}
	session.SetMessages(messages)

	if len(conv.Agents) > 0 {
		session.SetAgents(conv.Agents)
	}

	// Restore the server-side context so follow-ups continue the thread
	if conv.Design != nil {
		design := models.NewDesign(conv.Design)
		if conv.RouterConversationID != "" {
			design = design.WithConversationID(conv.RouterConversationID)
		}
		session.SetDesign(design)
	} else if conv.RouterConversationID != "" {
		session.SetDesign(models.NewDesign([]byte(`{}`)).WithConversationID(conv.RouterConversationID))
	}

	return conv, nil
}
