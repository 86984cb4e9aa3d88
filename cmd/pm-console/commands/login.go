package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ruthwikreddy07/pm-console/internal/gateway"
	"github.com/spf13/cobra"
)

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	var username, password string

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()

			var err error
			if username, err = promptIfEmpty(username, "Username: "); err != nil {
				return err
			}
			if password, err = promptIfEmpty(password, "Password: "); err != nil {
				return err
			}

			token, err := e.client.Login(context.Background(), username, password)
			if err != nil {
				var statusErr *gateway.StatusError
				if errors.As(err, &statusErr) && statusErr.StatusCode == 401 {
					return fmt.Errorf("invalid credentials")
				}
				return fmt.Errorf("login failed: %w", err)
			}

			if err := e.creds.Save(username, token.AccessToken); err != nil {
				return fmt.Errorf("failed to store credential: %w", err)
			}

			fmt.Printf("Logged in as %s\n", username)
			return nil
		},
	}

	loginCmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return loginCmd
}

// NewRegisterCommand creates the register command
func NewRegisterCommand() *cobra.Command {
	var username, password string

	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()

			var err error
			if username, err = promptIfEmpty(username, "Username: "); err != nil {
				return err
			}
			if password, err = promptIfEmpty(password, "Password: "); err != nil {
				return err
			}

			if err := e.client.Register(context.Background(), username, password); err != nil {
				var statusErr *gateway.StatusError
				if errors.As(err, &statusErr) && statusErr.StatusCode == 400 {
					return fmt.Errorf("username %q already exists", username)
				}
				return fmt.Errorf("registration failed: %w", err)
			}

			fmt.Println("Account created. Log in with 'pm-console login'.")
			return nil
		},
	}

	registerCmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	registerCmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return registerCmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			e := newEnv()
			if err := e.creds.Clear(); err != nil {
				return fmt.Errorf("failed to clear credential: %w", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func promptIfEmpty(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("value cannot be empty")
	}
	return line, nil
}
