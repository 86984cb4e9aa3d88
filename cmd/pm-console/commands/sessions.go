package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/ruthwikreddy07/pm-console/internal/index"
	"github.com/ruthwikreddy07/pm-console/internal/transcript"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
	"github.com/spf13/cobra"
)

// NewSessionsCommand creates the sessions command
func NewSessionsCommand() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List sessions, or show one session's transcript",
		Long: `List your conversation sessions grouped by recency.
With a session id, prints that session's transcript instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			user, err := e.requireUser()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return showTranscript(e, user, args[0])
			}
			return listSessions(e, user)
		},
	}

	sessionsCmd.AddCommand(NewSessionsDeleteCommand())
	return sessionsCmd
}

// NewSessionsDeleteCommand creates the sessions delete command
func NewSessionsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session and its remote transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			user, err := e.requireUser()
			if err != nil {
				return err
			}

			ctrl := e.newController(user)
			for _, eff := range ctrl.DeleteSession(args[0]) {
				ctrl.Apply(eff(context.Background()))
			}
			fmt.Printf("Deleted %s\n", args[0])
			return nil
		},
	}
}

func listSessions(e *env, user string) error {
	idx := index.NewStore(e.cfg.StateDir)
	sessions := idx.List(user)
	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}

	groups := index.GroupByRecency(sessions, time.Now())
	for _, group := range groups {
		fmt.Println(group.Label)
		fmt.Println("=========")
		for _, session := range group.Sessions {
			fmt.Printf("  %s  %s\n", session.CreatedAt.Format("2006-01-02 15:04"), session.ID)
		}
		fmt.Println()
	}
	return nil
}

func showTranscript(e *env, user, sessionID string) error {
	idx := index.NewStore(e.cfg.StateDir)
	if !knownSession(idx.List(user), sessionID) {
		return fmt.Errorf("session %q not found; run 'pm-console sessions' to list yours", sessionID)
	}

	cache := transcript.NewCache(e.client)
	messages, err := cache.Hydrate(context.Background(), sessionID)
	if err != nil {
		return fmt.Errorf("failed to fetch transcript: %w", err)
	}

	if len(messages) == 0 {
		fmt.Println("No messages in this session")
		return nil
	}
	for _, msg := range messages {
		fmt.Printf("[%s]\n%s\n\n", roleLabel(msg.Role), msg.Content)
	}
	return nil
}

func knownSession(sessions []models.Session, sessionID string) bool {
	for _, session := range sessions {
		if session.ID == sessionID {
			return true
		}
	}
	return false
}

func roleLabel(role models.Role) string {
	switch role {
	case models.RoleUser:
		return "You"
	case models.RoleSystem:
		return "System"
	default:
		return "AI Agent"
	}
}
