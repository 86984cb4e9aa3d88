package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewRisksCommand creates the risks command
func NewRisksCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "risks",
		Short: "List open project risks",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			if _, err := e.requireUser(); err != nil {
				return err
			}

			risks, err := e.client.Risks(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch risks: %w", err)
			}
			if len(risks) == 0 {
				fmt.Println("No open risks")
				return nil
			}
			for i, risk := range risks {
				fmt.Printf("%d. %s\n", i+1, risk)
			}
			return nil
		},
	}
}
