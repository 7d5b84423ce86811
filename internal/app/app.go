package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/newthinker/signaldesk/internal/backend"
	"github.com/newthinker/signaldesk/internal/config"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/dashboard"
	"github.com/newthinker/signaldesk/internal/metrics"
	"github.com/newthinker/signaldesk/internal/session"
	"github.com/newthinker/signaldesk/internal/storage/archive"
	"go.uber.org/zap"
)

// App wires the dashboard and its collaborators from configuration.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Registry
	backend   *backend.Client
	sessions  *session.Manager
	dashboard *dashboard.Dashboard

	exportsOnce sync.Once
	exports     archive.Storage
	exportsErr  error

	mu      sync.Mutex
	started bool
}

// New builds every component. Nothing touches the network until Start or
// an action is called.
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := metrics.NewRegistry()

	client := backend.New(
		backend.Config{BaseURL: cfg.Backend.BaseURL, Timeout: cfg.Backend.Timeout},
		backend.WithLogger(logger.Named("backend")),
		backend.WithMetrics(reg),
	)

	store := session.NewFileStore(cfg.Session.Path)
	sessions := session.NewManager(store, nil, client, logger.Named("session"))

	d := dashboard.New(client, sessions, cfg.Exchanges, cfg.DefaultExchange,
		dashboard.WithLogger(logger.Named("dashboard")),
		dashboard.WithMetrics(reg),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		metrics:   reg,
		backend:   client,
		sessions:  sessions,
		dashboard: d,
	}
}

// Start restores the session and loads the first history. It runs once.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.mu.Unlock()

	a.logger.Info("signaldesk starting",
		zap.String("backend", a.cfg.Backend.BaseURL),
		zap.String("exchange", a.cfg.DefaultExchange),
	)
	a.dashboard.Init(ctx)
}

func (a *App) Config() *config.Config { return a.cfg }
func (a *App) Logger() *zap.Logger { return a.logger }
func (a *App) Metrics() *metrics.Registry { return a.metrics }
func (a *App) Backend() *backend.Client { return a.backend }
func (a *App) Sessions() *session.Manager { return a.sessions }
func (a *App) Dashboard() *dashboard.Dashboard { return a.dashboard }

// Exports returns the configured export storage, created on first use.
func (a *App) Exports() (archive.Storage, error) {
	a.exportsOnce.Do(func() {
		a.exports, a.exportsErr = archive.New(a.cfg.Export)
	})
	return a.exports, a.exportsErr
}

// SaveExport stores file in the export storage and returns where it went.
func (a *App) SaveExport(ctx context.Context, file *backend.ExportFile) (string, error) {
	st, err := a.Exports()
	if err != nil {
		return "", err
	}
	name, err := archive.Save(ctx, st, file.Filename, file.Content)
	if err != nil {
		return "", err
	}
	loc := st.Location(name)
	a.logger.Info("export saved", zap.String("location", loc), zap.Int("bytes", len(file.Content)))
	return loc, nil
}

// ListExports returns the locations of saved exports whose names start
// with prefix, in name order.
func (a *App) ListExports(ctx context.Context, prefix string) ([]string, error) {
	st, err := a.Exports()
	if err != nil {
		return nil, err
	}
	names, err := st.List(ctx, prefix)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, err)
	}
	locs := make([]string, len(names))
	for i, name := range names {
		locs[i] = st.Location(name)
	}
	return locs, nil
}

// ExportToStorage exports the current signals and saves the file.
func (a *App) ExportToStorage(ctx context.Context) (string, error) {
	file, err := a.dashboard.Export(ctx)
	if err != nil {
		return "", err
	}
	loc, err := a.SaveExport(ctx, file)
	if err != nil {
		return "", fmt.Errorf("saving %s: %w", file.Filename, err)
	}
	return loc, nil
}

// Exchanges returns the backend's exchange list, falling back to the
// configured one when the backend cannot be reached.
func (a *App) Exchanges(ctx context.Context) []core.Exchange {
	exchanges, err := a.backend.Exchanges(ctx)
	if err != nil || len(exchanges) == 0 {
		a.logger.Debug("using configured exchanges", zap.Error(err))
		return a.cfg.Exchanges
	}
	return exchanges
}
