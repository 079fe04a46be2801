package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmcleod/deskhand/client"
	credbolt "github.com/jmcleod/deskhand/credstore/bbolt"
	"github.com/jmcleod/deskhand/config"
	"github.com/jmcleod/deskhand/session"
	"github.com/jmcleod/deskhand/store"
)

var rootCmd = &cobra.Command{
	Use:   "deskhand",
	Short: "Deskhand keeps your tasks in sync with the deskhand API",
	Long: `A command-line client for the deskhand productivity backend.
Log in once; the credential is stored locally and attached to every call
until you log out or the server revokes it.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var (
	apiURL   string
	credFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "base URL of the deskhand API (default from DESKHAND_API_URL)")
	rootCmd.PersistentFlags().StringVar(&credFile, "cred-file", "", "credential database path (default from DESKHAND_CREDENTIAL_FILE)")
}

// sdk bundles the client core wired against the durable credential
// store, so each CLI invocation picks up the session left by the last.
type sdk struct {
	cfg     *config.Config
	creds   *credbolt.Store
	client  *client.Client
	session *session.Manager
	tasks   *store.Store
}

func newSDK() (*sdk, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if credFile != "" {
		cfg.CredentialPath = credFile
	}
	slog.SetDefault(cfg.NewLogger())

	if err := os.MkdirAll(filepath.Dir(cfg.CredentialPath), 0o700); err != nil {
		return nil, fmt.Errorf("creating credential directory: %w", err)
	}
	creds, err := credbolt.NewStoreFromFile(cfg.CredentialPath, nil)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	var manager *session.Manager
	c := client.New(cfg.APIBaseURL, creds, client.WithAuthFailureHandler(func() {
		manager.HandleAuthFailure()
	}))
	manager = session.New(creds, c)

	return &sdk{
		cfg:     cfg,
		creds:   creds,
		client:  c,
		session: manager,
		tasks:   store.New(c),
	}, nil
}

func (s *sdk) Close() error {
	return s.creds.Close()
}

// promptSecret reads one line from stdin with a prompt on stderr, so the
// secret can also be piped in.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
