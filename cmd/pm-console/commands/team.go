package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/ruthwikreddy07/pm-console/internal/gateway"
	"github.com/spf13/cobra"
)

// NewTeamCommand creates the team command
func NewTeamCommand() *cobra.Command {
	teamCmd := &cobra.Command{
		Use:   "team",
		Short: "List the project team",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			if _, err := e.requireUser(); err != nil {
				return err
			}

			employees, err := e.client.Employees(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch team: %w", err)
			}
			if len(employees) == 0 {
				fmt.Println("No team members found")
				return nil
			}
			for _, emp := range employees {
				fmt.Printf("%-20s %-24s $%.0f/h\n", emp.Name, emp.Role, emp.Rate)
				if len(emp.Skills) > 0 {
					fmt.Printf("  skills: %s\n", strings.Join(emp.Skills, ", "))
				}
				if emp.Email != "" {
					fmt.Printf("  email:  %s\n", emp.Email)
				}
			}
			return nil
		},
	}

	teamCmd.AddCommand(NewTeamAddCommand())
	return teamCmd
}

// NewTeamAddCommand creates the team add command
func NewTeamAddCommand() *cobra.Command {
	var emp gateway.Employee
	var skills string

	addCmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a team member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			if _, err := e.requireUser(); err != nil {
				return err
			}

			emp.Name = args[0]
			if skills != "" {
				for _, s := range strings.Split(skills, ",") {
					emp.Skills = append(emp.Skills, strings.TrimSpace(s))
				}
			}
			if err := e.client.AddEmployee(context.Background(), emp); err != nil {
				return fmt.Errorf("failed to add %s: %w", emp.Name, err)
			}
			fmt.Printf("Added %s\n", emp.Name)
			return nil
		},
	}

	addCmd.Flags().StringVar(&emp.Role, "role", "", "job title")
	addCmd.Flags().StringVar(&emp.Email, "email", "", "contact email")
	addCmd.Flags().Float64Var(&emp.Rate, "rate", 0, "hourly rate in dollars")
	addCmd.Flags().StringVar(&skills, "skills", "", "comma-separated skills")
	return addCmd
}
