package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/abhisek/lingoquiz/internal/api"
	"github.com/abhisek/lingoquiz/internal/auth"
	"github.com/abhisek/lingoquiz/internal/config"
	"github.com/abhisek/lingoquiz/internal/journal"
	"github.com/abhisek/lingoquiz/internal/logging"
	"github.com/abhisek/lingoquiz/internal/store"
)

// deps is what a command needs, built from flags and configuration.
type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	client  *api.Client
	auth    *auth.Manager
	journal *journal.Journal

	closers []io.Closer
}

// openDeps loads the configuration, opens the log file and the local store,
// and builds an authenticated platform client.
func openDeps(cmd *cobra.Command) (*deps, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	d := &deps{cfg: cfg}

	logger, lc, err := logging.New(logging.Options{Path: cfg.Log.Path, Level: cfg.Log.Level, Debug: cfg.Log.Debug})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	d.logger = logger.With("cmd", cmd.Name())
	d.closers = append(d.closers, lc)

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	d.store = st
	d.closers = append(d.closers, st)
	d.journal = journal.New(st.EventRepo(), d.logger)

	client, err := api.New(api.Options{
		BaseURL:     cfg.API.BaseURL,
		SuccessCode: cfg.API.SuccessCode,
		HTTPClient:  &http.Client{Timeout: cfg.API.Timeout},
		Logger:      d.logger,
		UserAgent:   "lingoquiz/" + version,
	})
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("api client: %w", err)
	}
	opts := []auth.Option{auth.WithLogger(d.logger)}
	if cfg.Auth.Token != "" {
		opts = append(opts, auth.WithStaticToken(cfg.Auth.Token))
	}
	d.auth = auth.NewManager(st.TokenRepo(), client, opts...)
	client.SetTokenSource(d.auth)
	d.client = client

	return d, nil
}

// Close releases everything openDeps opened, newest first.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i].Close()
	}
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then LINGOQUIZ_DB or the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Store.Path != "" {
		return cfg.Store.Path, store.EnsureDir(cfg.Store.Path)
	}
	return store.DefaultDBPath()
}

// friendly turns platform errors into a message for the terminal.
func friendly(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, auth.ErrNotSignedIn) {
		return errors.New("you are not signed in; run `lingoquiz login` first")
	}
	if api.IsUnauthorized(err) {
		return errors.New("your session has expired; run `lingoquiz login` again")
	}
	return errors.New(api.UserMessage(err))
}
