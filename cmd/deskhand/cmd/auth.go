package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/deskhand/client"
)

var registerName string

var registerCmd = &cobra.Command{
	Use:   "register <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.Close()

		password, err := promptSecret("Password: ")
		if err != nil {
			return err
		}

		resp, err := s.client.Register(cmd.Context(), client.RegisterRequest{
			Email:    args[0],
			Password: password,
			Name:     registerName,
		})
		if err != nil {
			return describeFailure(err)
		}
		fmt.Printf("Registered %s. Run 'deskhand login %s' to start a session.\n", resp.User.Email, resp.User.Email)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the session credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.Close()

		password, err := promptSecret("Password: ")
		if err != nil {
			return err
		}

		user, err := s.session.Login(cmd.Context(), args[0], password)
		if err != nil {
			return describeFailure(err)
		}
		fmt.Printf("Logged in as %s.\n", user.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session and discard the stored credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSDK()
		if err != nil {
			return err
		}
		defer s.Close()

		// The CLI starts anonymous on every invocation, so go through
		// the transport directly and clear the durable store.
		if err := s.client.Logout(cmd.Context()); err != nil && !errors.Is(err, client.ErrAuthRequired) {
			return describeFailure(err)
		}
		if err := s.creds.Clear(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}

// describeFailure turns the client error taxonomy into CLI-friendly
// messages, surfacing field errors one per line.
func describeFailure(err error) error {
	var apiErr *client.Error
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		msg := apiErr.Message
		for field, detail := range apiErr.Fields {
			msg += fmt.Sprintf("\n  %s: %s", field, detail)
		}
		return errors.New(msg)
	}
	switch {
	case errors.Is(err, client.ErrAuthRequired):
		return errors.New("not logged in or session expired; run 'deskhand login'")
	case errors.Is(err, client.ErrTransport):
		return fmt.Errorf("cannot reach the deskhand API: %w", err)
	default:
		return err
	}
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "display name for the new account")
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
