// Package cli implements the bikelog commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"bikelog/internal/auth"
	"bikelog/internal/config"
	"bikelog/internal/logging"
	"bikelog/internal/store"
	"bikelog/internal/strava"
	"bikelog/internal/tui"
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "bikelog",
	Short: "Export Strava rides to Google Earth and a bike log form",
	Long: "bikelog downloads activities and starred segments from Strava and writes them as\n" +
		"KML for Google Earth, or as an XFDF bike log that fills a PDF form one day per row.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: ~/.bikelog/config.json)")
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Cache database (default: ~/.bikelog/data.db)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

// Execute runs the command line. Ctrl-C cancels the running command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RootCmd.ExecuteContext(ctx)
}

// errConfigNeeded is returned after the user has been told to edit the config
var errConfigNeeded = errors.New("config needs editing")

// session holds what every command needs: config, logger and the cache
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	runID  string
	db     *store.Store
}

func openSession(cmd *cobra.Command) (*session, error) {
	base, err := logging.New(verbose)
	if err != nil {
		return nil, err
	}
	logger, runID := logging.WithRunID(base)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	var db *store.Store
	if dbPath != "" {
		db, err = store.OpenPath(dbPath)
	} else {
		db, err = store.Open()
	}
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	logger.Debug("session opened", zap.String("command", cmd.Name()))
	return &session{cfg: cfg, logger: logger, runID: runID, db: db}, nil
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("closing database", zap.Error(err))
	}
	_ = s.logger.Sync()
}

// loadConfig reads and validates the config, writing an example on first run
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	out := cmd.ErrOrStderr()

	var (
		cfg  *config.Config
		err  error
		path = configPath
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
		dir, _ := config.GetConfigDir()
		path = filepath.Join(dir, "config.json")
	}

	if errors.Is(err, config.ErrNoConfig) {
		fmt.Fprintln(out, "No config file found. Creating example config...")
		example := config.Example()
		if err := config.SaveFile(path, &example); err != nil {
			return nil, fmt.Errorf("creating example config: %w", err)
		}
		fmt.Fprintf(out, "\nPlease edit the config file at:\n  %s\n\n", path)
		fmt.Fprintln(out, "You need to add your Strava API credentials.")
		fmt.Fprintln(out, "Get them from: https://www.strava.com/settings/api")
		return nil, errConfigNeeded
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "Config validation failed: %v\n\n", err)
		fmt.Fprintf(out, "Please edit the config file at:\n  %s\n", path)
		return nil, errConfigNeeded
	}
	return cfg, nil
}

func (s *session) oauthConfig() *oauth2.Config {
	return auth.NewConfig(s.cfg.Strava.ClientID, s.cfg.Strava.ClientSecret)
}

// client returns an API client using the stored tokens, running the OAuth
// flow first when there are none or they can no longer be refreshed
func (s *session) client(cmd *cobra.Command) (*strava.Client, error) {
	ctx := cmd.Context()

	stored, err := s.db.Credentials(ctx)
	if errors.Is(err, store.ErrNoAuth) {
		fmt.Fprintln(cmd.ErrOrStderr(), "No authentication found. Starting OAuth flow...")
		if stored, err = s.authenticate(cmd); err != nil {
			return nil, fmt.Errorf("authentication: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("checking auth: %w", err)
	}

	ts := s.tokenSource(ctx, stored)

	if _, err := ts.Token(); errors.Is(err, auth.ErrRevoked) {
		s.logger.Debug("stored token rejected", zap.Error(err))
		fmt.Fprintln(cmd.ErrOrStderr(), "Stored token is invalid or expired. Re-authenticating...")
		if stored, err = s.authenticate(cmd); err != nil {
			return nil, fmt.Errorf("re-authentication: %w", err)
		}
		ts = s.tokenSource(ctx, stored)
	} else if err != nil {
		return nil, err
	}

	return strava.NewClient(ts), nil
}

// tokenSource refreshes stored's tokens on demand, saving them under its athlete
func (s *session) tokenSource(ctx context.Context, stored *store.Credentials) *auth.TokenSource {
	persist := func(ctx context.Context, t *oauth2.Token) error {
		return s.db.UpdateTokens(ctx, stored.AthleteID, t.AccessToken, t.RefreshToken, t.Expiry)
	}
	return auth.NewTokenSource(ctx, s.oauthConfig(), auth.NewToken(stored.AccessToken, stored.RefreshToken, stored.ExpiresAt), persist)
}

// authenticate runs the browser flow and stores the tokens
func (s *session) authenticate(cmd *cobra.Command) (*store.Credentials, error) {
	result, err := auth.Authenticate(cmd.Context(), s.oauthConfig(), cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	stored := &store.Credentials{
		AthleteID:    result.AthleteID,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		ExpiresAt:    result.Token.Expiry,
	}
	if err := s.db.SaveCredentials(cmd.Context(), stored); err != nil {
		return nil, err
	}

	s.logger.Info("authenticated", zap.Int64("athlete", result.AthleteID))
	return stored, nil
}

// interactive reports whether progress can be drawn on stderr
func interactive() bool {
	return !verbose && tui.IsTerminal(os.Stderr)
}
