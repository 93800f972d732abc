// Package server assembles and runs the CMS backend: configuration,
// database, services, the HTTP endpoint and graceful shutdown.
package server

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

	"github.com/lakelandsports/cms/internal/cryptox"
	"github.com/lakelandsports/cms/internal/logging"
	"github.com/lakelandsports/cms/internal/ratelimit"
	"github.com/lakelandsports/cms/internal/server/captcha"
	"github.com/lakelandsports/cms/internal/server/config"
	"github.com/lakelandsports/cms/internal/server/httpapi"
	"github.com/lakelandsports/cms/internal/server/mailer"
	"github.com/lakelandsports/cms/internal/server/repositories/repomanager"
	"github.com/lakelandsports/cms/internal/server/services"
	"github.com/lakelandsports/cms/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	manager repomanager.RepositoryManager
	handler http.Handler
}

// NewApp wires the whole application. Configuration is validated first so a
// short session secret or a bad settings key kills the process before it
// binds a port.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	manager, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	db := manager.Conn()

	key, err := cfg.SettingsEncryptionKey()
	if err != nil {
		return nil, err
	}
	box, err := cryptox.NewBox(key)
	if err != nil {
		return nil, fmt.Errorf("settings encryption: %w", err)
	}

	settingsService := services.NewSettingsService(db, manager, box)
	mail := mailer.NewDispatcher(settingsService, logger)
	accountService := services.NewAccountService(db, manager, mail, logger, cfg)
	postService := services.NewPostService(db, manager)
	media := storage.NewMediaStore(cfg)

	verifier := captcha.NewVerifier(settingsService, cfg.CaptchaEndpoint, cfg.CaptchaFailOpen, logger)
	oauth := mailer.NewOAuthConnector(settingsService, cfg.BaseURL+"/api/admin/mail/oauth/callback")

	srv := httpapi.NewServer(httpapi.Deps{
		Config:   cfg,
		Logger:   logger,
		DB:       db,
		Accounts: accountService,
		Posts:    postService,
		Settings: settingsService,
		Media:    media,
		Captcha:  verifier,
		Mail:     mail,
		OAuth:    oauth,
		Limits:   ratelimit.NewSet(),
	})

	return &App{
		config:  cfg,
		logger:  logger,
		manager: manager,
		handler: srv.Router(),
	}, nil
}

// Run serves HTTP until the context is cancelled or a termination signal
// arrives, then drains in-flight requests.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sigs
		cancel()
	}()

	httpServer := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting http server", "addr", app.config.EndpointAddrHTTP, "env", app.config.Environment)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		app.logger.Info(ctx, "shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}

	return app.manager.Conn().Close()
}
