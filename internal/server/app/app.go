package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/tokengate/internal/server/http"
	"github.com/aussiebroadwan/tokengate/internal/server/service"
	"github.com/aussiebroadwan/tokengate/internal/server/store"
	"github.com/aussiebroadwan/tokengate/internal/server/store/drivers/sqlite"
	"github.com/aussiebroadwan/tokengate/pkg/cryptox"
	"github.com/aussiebroadwan/tokengate/pkg/jwtauth"
	"github.com/aussiebroadwan/tokengate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the token middleware to the credential store and serves it.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	hasher *cryptox.Hasher
	auth   *jwtauth.Middleware

	credentialService *service.CredentialService
	userService       *service.UserService

	server *http.Server
	router *httpapi.Router
}

// New builds the application: logger, database, services, middleware and
// router, in that order.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "tokengate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  cfg.LogOutput,
		}),
	}

	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initServices()

	if err := app.bootstrap(context.Background()); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initAuth(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Handler is the root handler, for serving the app from tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("tokengate starting",
		"port", app.cfg.Port,
		"algorithm", app.auth.Config().Algorithm,
		"issuance", app.auth.Config().IssuanceEndpoint,
		"refresh", app.auth.Config().RefreshEndpoint,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down tokengate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("tokengate stopped")
	return nil
}

func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(sqlite.DSN(app.cfg.DatabaseFile))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initServices() {
	app.credentialService = &service.CredentialService{
		Store:         app.db,
		Hasher:        app.hasher,
		LookupTimeout: app.cfg.LookupTimeout,
	}
	app.userService = &service.UserService{
		Store:  app.db,
		Hasher: app.hasher,
	}
}

// bootstrap seeds the first admin when configured to.
func (app *Application) bootstrap(ctx context.Context) error {
	if app.cfg.BootstrapUsername == "" {
		return nil
	}

	created, password, err := app.userService.Bootstrap(ctx, app.cfg.BootstrapUsername, app.cfg.BootstrapPassword)
	if err != nil {
		return fmt.Errorf("failed to bootstrap: %w", err)
	}
	if !created {
		app.logger.Debug("bootstrap skipped, users already exist")
		return nil
	}

	if app.cfg.BootstrapPassword == "" {
		// Only time this password is ever shown.
		app.logger.Warn("bootstrap admin created with generated password",
			"username", app.cfg.BootstrapUsername,
			"password", password,
		)
	} else {
		app.logger.Info("bootstrap admin created", "username", app.cfg.BootstrapUsername)
	}
	return nil
}

func (app *Application) initAuth() error {
	auth, err := jwtauth.New(&jwtauth.Options{
		Secret:                  app.cfg.Secret,
		Algorithm:               app.cfg.Algorithm,
		TokenLife:               app.cfg.TokenLife,
		RefreshLeeway:           app.cfg.RefreshLeeway,
		IssuanceEndpoint:        app.cfg.IssuanceEndpoint,
		RefreshEndpoint:         app.cfg.RefreshEndpoint,
		AuthorizationHeaderName: app.cfg.HeaderName,
		AuthorizationPrefix:     app.cfg.HeaderPrefix,

		Lookup:        app.credentialService,
		Verify:        app.credentialService,
		CreateToken:   app.credentialService,
		RefreshLookup: app.credentialService,
	})
	if err != nil {
		return fmt.Errorf("failed to configure token middleware: %w", err)
	}
	app.auth = auth
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.auth, BuildVersion, app.db, app.logger)
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
