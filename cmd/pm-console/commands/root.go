package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ruthwikreddy07/pm-console/internal/auth"
	"github.com/ruthwikreddy07/pm-console/internal/config"
	"github.com/ruthwikreddy07/pm-console/internal/controller"
	"github.com/ruthwikreddy07/pm-console/internal/gateway"
	"github.com/ruthwikreddy07/pm-console/internal/index"
	"github.com/ruthwikreddy07/pm-console/internal/transcript"
	"github.com/ruthwikreddy07/pm-console/internal/tui"
	"github.com/spf13/cobra"
)

var debugMode bool

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pm-console",
		Short: "Chat with the project-management agent",
		Long:  `pm-console is a terminal console for conversing with the project-management AI agent, reviewing its proposed plans, and managing your conversation sessions.`,
		RunE:  runConsole,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Write debug logs to the state directory")
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewRegisterCommand())
	rootCmd.AddCommand(NewLogoutCommand())
	rootCmd.AddCommand(NewSessionsCommand())
	rootCmd.AddCommand(NewSendCommand())
	rootCmd.AddCommand(NewApproveCommand())
	rootCmd.AddCommand(NewRejectCommand())
	rootCmd.AddCommand(NewTeamCommand())
	rootCmd.AddCommand(NewRisksCommand())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env bundles everything a command needs to talk to the backend.
type env struct {
	cfg    config.Config
	creds  *auth.Store
	client *gateway.Client
	logger *log.Logger
}

func newEnv() *env {
	cfg := config.Load()
	creds := auth.NewStore(cfg.StateDir)
	client := gateway.NewClient(cfg.APIBaseURL,
		gateway.WithTimeout(cfg.RequestTimeout),
		gateway.WithTokenSource(creds),
	)

	logger := log.New(io.Discard)
	if debugMode {
		if f, err := os.OpenFile(filepath.Join(cfg.StateDir, "pm-console.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600); err == nil {
			logger = log.NewWithOptions(f, log.Options{
				Level:           log.DebugLevel,
				ReportTimestamp: true,
			})
		}
	}

	return &env{cfg: cfg, creds: creds, client: client, logger: logger}
}

// requireUser resolves the logged-in username or explains how to get one.
func (e *env) requireUser() (string, error) {
	user, err := e.creds.Username()
	if err != nil {
		return "", fmt.Errorf("not logged in; run 'pm-console login' first")
	}
	if e.creds.Expired(time.Now()) {
		return "", fmt.Errorf("stored credential for %s has expired; run 'pm-console login' again", user)
	}
	return user, nil
}

func (e *env) newController(user string) *controller.Controller {
	idx := index.NewStore(e.cfg.StateDir)
	cache := transcript.NewCache(e.client)
	ctrl := controller.New(user, idx, cache, e.client, e.logger)
	if debugMode {
		e.logger.Debug("controller ready", "user", user)
		ctrl.Subscribe(func(st controller.State) {
			e.logger.Debug("state",
				"active", st.ActiveID,
				"loading", st.Loading,
				"approval", st.Approval.String(),
				"messages", len(st.Transcript))
		})
	}
	return ctrl
}

func runConsole(cmd *cobra.Command, args []string) error {
	e := newEnv()
	user, err := e.requireUser()
	if err != nil {
		return err
	}

	ctrl := e.newController(user)
	return tui.Show(context.Background(), ctrl, e.client)
}
