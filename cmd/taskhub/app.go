package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/mishankov/taskhub/internal/db"
	"github.com/mishankov/taskhub/internal/handlers"
	"github.com/mishankov/taskhub/internal/logger"
	"github.com/mishankov/taskhub/internal/repository/postgres"
	"github.com/mishankov/taskhub/internal/service/auth"
	"github.com/mishankov/taskhub/internal/service/auth/tokenmanager"
	"github.com/mishankov/taskhub/internal/service/mail"
	"github.com/mishankov/taskhub/internal/service/task"
	"github.com/mishankov/taskhub/internal/service/user"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	if c.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         c.SentryDSN,
			Environment: c.Environment,
		})
		if err != nil {
			return nil, fmt.Errorf("error while initializing sentry. Err: %w", err)
		}
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{
		AccessSecret:  c.AccessSecret,
		RefreshSecret: c.RefreshSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	var mailSender auth.MailSender
	if c.MailAPIKey != "" {
		mailSender = mail.NewMailtrapSender(mail.Config{
			APIKey:    c.MailAPIKey,
			APIURL:    c.MailAPIURL,
			FromEmail: c.MailFromEmail,
			FromName:  c.MailFromName,
		}, l)
	} else {
		mailSender = mail.NewNopSender(l)
	}

	authService, err := auth.NewService(auth.Config{
		SecureCookies: c.Environment == logger.EnvProduction,
		FrontendURL:   c.FrontendURL,
	}, tokenManager, storage.User(), storage.ResetToken(), mailSender, l)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	userService := user.NewService(storage.User(), nil)
	taskService := task.NewService(storage.TaskList(), storage.Task())

	mux := handlers.NewRouter(
		handlers.RouterConfig{CORSOrigins: c.CORSOrigins},
		authService,
		userService,
		taskService,
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
