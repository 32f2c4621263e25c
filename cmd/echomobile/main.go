// Command echomobile fetches reports from the Echo Mobile platform and
// converts them into local JSON/CSV records, de-identifying where the
// report contains phone numbers.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avf-pipeline/echomobile-go/client"
	"github.com/avf-pipeline/echomobile-go/internal/config"
)

var (
	serviceURL string
	username   string
	password   string
	account    string
	verbose    bool
)

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "echomobile",
		Short: "Fetch and de-identify Echo Mobile reports",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.InitLogger()
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				log.Debug().Msg("verbose logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", "", "Echo Mobile API root (default from ECHOMOBILE_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&username, "username", "", "Echo Mobile username (default from ECHOMOBILE_USERNAME)")
	rootCmd.PersistentFlags().StringVar(&password, "password", "", "Echo Mobile password (default from ECHOMOBILE_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&account, "account", "", "Linked account to switch to after login (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug output")

	rootCmd.AddCommand(newSurveyReportCmd())
	rootCmd.AddCommand(newExportSurveysCmd())
	rootCmd.AddCommand(newInboxReportCmd())
	rootCmd.AddCommand(newMessagesReportCmd())

	return rootCmd
}

// withSession loads configuration, logs a session in, optionally switches
// account, runs fn, and always best-effort-deletes the background tasks
// the session created — a mid-flow failure must not leak server-side
// tasks.
func withSession(ctx context.Context, fn func(ctx context.Context, s *client.Session) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// The --verbose flag wins over ECHOMOBILE_LOG_LEVEL.
	if !verbose {
		cfg.Init()
	}

	baseURL := cfg.BaseURL
	if serviceURL != "" {
		baseURL = serviceURL
	}
	user := username
	if user == "" {
		user = cfg.Username
	}
	pw := password
	if pw == "" {
		pw = cfg.Password
	}
	if user == "" || pw == "" {
		return fmt.Errorf("credentials are required (--username/--password or ECHOMOBILE_USERNAME/ECHOMOBILE_PASSWORD)")
	}

	s := client.New(baseURL,
		client.WithPollInterval(cfg.PollInterval),
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	)
	defer func() {
		// Cleanup runs on a fresh context so it still happens after fn's
		// context is cancelled.
		if err := s.DeleteSessionBackgroundTasks(context.Background()); err != nil {
			log.Warn().Err(err).Msg("failed to delete session background tasks")
		}
	}()

	if err := s.Login(ctx, user, pw); err != nil {
		return err
	}
	if account != "" {
		if err := s.UseAccountWithName(ctx, account); err != nil {
			return err
		}
	}

	return fn(ctx, s)
}

// createOutputFile creates path's parent directories on demand.
func createOutputFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return os.Create(path)
}
