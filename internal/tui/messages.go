package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ruthwikreddy07/pm-console/internal/controller"
)

// Message types for async operations
type (
	// EventMsg carries a completed gateway call back to the controller.
	EventMsg struct {
		Event controller.Event
	}

	// RisksLoadedMsg contains the refreshed project risk list
	RisksLoadedMsg struct {
		Risks []string
		Error error
	}

	// TickMsg is sent periodically for spinner animation
	TickMsg time.Time
)

// RiskSource is the one backend call the risk sidebar needs.
type RiskSource interface {
	Risks(ctx context.Context) ([]string, error)
}

// effectCmd runs one controller effect off the UI goroutine.
func effectCmd(ctx context.Context, eff controller.Effect) tea.Cmd {
	if eff == nil {
		return nil
	}
	return func() tea.Msg {
		return EventMsg{Event: eff(ctx)}
	}
}

// effectsCmd runs a batch of effects, one goroutine each.
func effectsCmd(ctx context.Context, effs []controller.Effect) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(effs))
	for _, eff := range effs {
		if cmd := effectCmd(ctx, eff); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	if len(cmds) == 0 {
		return nil
	}
	return tea.Batch(cmds...)
}

// loadRisksCmd refreshes the risk sidebar asynchronously
func loadRisksCmd(ctx context.Context, source RiskSource) tea.Cmd {
	return func() tea.Msg {
		risks, err := source.Risks(ctx)
		return RisksLoadedMsg{Risks: risks, Error: err}
	}
}

// tickCmd creates a ticker for spinner animation
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
