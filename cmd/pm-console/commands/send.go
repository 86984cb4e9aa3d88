package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruthwikreddy07/pm-console/internal/controller"
	"github.com/ruthwikreddy07/pm-console/internal/index"
	"github.com/ruthwikreddy07/pm-console/pkg/models"
	"github.com/spf13/cobra"
)

// NewSendCommand creates the send command
func NewSendCommand() *cobra.Command {
	var sessionID string

	sendCmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send one message to the agent and print its reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			user, err := e.requireUser()
			if err != nil {
				return err
			}

			ctx := context.Background()
			ctrl := e.newController(user)
			if err := focusSession(ctx, ctrl, sessionID); err != nil {
				return err
			}

			eff := ctrl.SendMessage(strings.Join(args, " "))
			if eff == nil {
				return fmt.Errorf("message is empty")
			}
			ev := eff(ctx)
			ctrl.Apply(ev)
			if res, ok := ev.(controller.ExchangeResult); ok && res.Err != nil {
				return fmt.Errorf("send failed: %w", res.Err)
			}

			st := ctrl.Snapshot()
			fmt.Println(lastReply(st.Transcript))
			if st.Approval == models.ApprovalPending {
				fmt.Println("\nThe agent is waiting for approval. Run 'pm-console approve' or 'pm-console reject'.")
			}
			return nil
		},
	}

	sendCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id to send on (default: most recent)")
	return sendCmd
}

// NewApproveCommand creates the approve command
func NewApproveCommand() *cobra.Command {
	var sessionID string

	approveCmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve the agent's pending action",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			user, err := e.requireUser()
			if err != nil {
				return err
			}

			sid, err := resolveSessionID(e, user, sessionID)
			if err != nil {
				return err
			}
			exchange, err := e.client.Approve(context.Background(), sid)
			if err != nil {
				return fmt.Errorf("approve failed: %w", err)
			}
			fmt.Println(exchange.Reply)
			return nil
		},
	}

	approveCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (default: most recent)")
	return approveCmd
}

// NewRejectCommand creates the reject command
func NewRejectCommand() *cobra.Command {
	var sessionID string
	var reason string

	rejectCmd := &cobra.Command{
		Use:   "reject",
		Short: "Reject the agent's pending action",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			user, err := e.requireUser()
			if err != nil {
				return err
			}

			sid, err := resolveSessionID(e, user, sessionID)
			if err != nil {
				return err
			}
			if reason == "" {
				reason = "Rejected by user."
			}
			exchange, err := e.client.Reject(context.Background(), sid, reason)
			if err != nil {
				return fmt.Errorf("reject failed: %w", err)
			}
			fmt.Println(exchange.Reply)
			return nil
		},
	}

	rejectCmd.Flags().StringVarP(&sessionID, "session", "s", "", "session id (default: most recent)")
	rejectCmd.Flags().StringVarP(&reason, "reason", "r", "", "reason passed back to the agent")
	return rejectCmd
}

// resolveSessionID validates the requested session id against the user's
// index, or falls back to the most recent session when none was given.
func resolveSessionID(e *env, user, sessionID string) (string, error) {
	sessions := index.NewStore(e.cfg.StateDir).List(user)
	if sessionID == "" {
		if len(sessions) == 0 {
			return "", fmt.Errorf("no sessions found; run 'pm-console send' to start one")
		}
		return sessions[0].ID, nil
	}
	if !knownSession(sessions, sessionID) {
		return "", fmt.Errorf("session %q not found; run 'pm-console sessions' to list yours", sessionID)
	}
	return sessionID, nil
}

// focusSession points the controller at the requested session, the most
// recent one, or a fresh session when the index is empty.
func focusSession(ctx context.Context, ctrl *controller.Controller, sessionID string) error {
	eff := ctrl.Bootstrap()
	if sessionID == "" {
		if eff != nil {
			ctrl.Apply(eff(ctx))
		}
		return nil
	}
	for _, session := range ctrl.Snapshot().Sessions {
		if session.ID == sessionID {
			ctrl.Apply(ctrl.SelectSession(session)(ctx))
			return nil
		}
	}
	return fmt.Errorf("session %q not found; run 'pm-console sessions' to list yours", sessionID)
}

func lastReply(transcript []models.Message) string {
	for i := len(transcript) - 1; i >= 0; i-- {
		if transcript[i].Role != models.RoleUser {
			return transcript[i].Content
		}
	}
	return ""
}
