package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/config"
	"github.com/roach88/ledger/internal/ledger"
	"github.com/roach88/ledger/internal/store"
	"github.com/roach88/ledger/internal/telemetry"
)

// App is the application context: one store, one controller, one facade,
// built once at startup and passed to every consumer.
type App struct {
	Config     config.Config
	Store      *store.Store
	Controller *access.AdmissionController
	Facade     *Facade
	Ledger     *ledger.Repository

	logger            *slog.Logger
	shutdownTelemetry func(context.Context) error
}

// New opens the configured store and wires the access core around it.
// The caller must Close the App.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.AccessPolicy()
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.Setup(ctx, telemetry.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}

	var st *store.Store
	if cfg.InMemory() {
		st, err = store.OpenMemory()
	} else {
		st, err = store.Open(cfg.Database, store.WithMaxOpenConns(cfg.MaxOpenConns))
	}
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("open store: %w", err)
	}

	ctrl := access.NewAdmissionController(
		access.WithPolicy(policy),
		access.WithLogger(logger),
	)
	facade := access.NewFacade[*store.Tx](st,
		access.WithController(ctrl),
		access.WithFacadeLogger(logger),
	)

	logger.Debug("application ready",
		"db", st.Path(),
		"policy", policy.String(),
		"max_open_conns", cfg.MaxOpenConns,
	)

	return &App{
		Config:            cfg,
		Store:             st,
		Controller:        ctrl,
		Facade:            facade,
		Ledger:            ledger.NewRepository(facade),
		logger:            logger,
		shutdownTelemetry: shutdown,
	}, nil
}

// MustApp returns app, panicking if it is nil. Call it where an App is
// received so a missing one fails at construction instead of at first use.
func MustApp(app *App) *App {
	if app == nil || app.Facade == nil {
		panic("bootstrap: application context used before construction")
	}
	return app
}

// Install makes the App's facade the process-wide one.
func (a *App) Install() {
	install(MustApp(a).Facade)
}

// Close flushes telemetry and closes the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
