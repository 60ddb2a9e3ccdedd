package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"conduit/internal/auth"
	"conduit/internal/config"
	"conduit/internal/handlers"
	"conduit/internal/logger"
	"conduit/internal/repository"
	"conduit/internal/repository/db"
	"conduit/internal/server"
	"conduit/internal/service"

	_ "conduit/docs"
)

const shutdownTimeout = 10 * time.Second

type configLoader func() (*config.Config, error)

// NewServeCmd creates the serve subcommand.
func NewServeCmd(v *viper.Viper, load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return oops.Code("CONFIG_INVALID").Wrap(err)
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().String("port", "", "HTTP port (overrides config)")
	_ = v.BindPFlag("port", cmd.Flags().Lookup("port"))

	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	// init logger
	log := logger.New(cfg.Log.Level)
	defer func() { _ = log.Sync() }()

	if cfg.Log.Level != logger.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// open DB
	conn, err := db.InitDB(ctx, cfg.DB, log)
	if err != nil {
		return oops.Code("DB_CONNECT_FAILED").With("driver", cfg.DB.Driver).Wrap(err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.LogErr("db_close_failed", cerr)
		}
	}()

	apiHandler, err := wire(cfg, conn, log)
	if err != nil {
		return err
	}

	// start HTTP server
	srv := server.New(cfg.Port, apiHandler.InitRoutes())
	if err := srv.Listen(); err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("port", cfg.Port).Wrap(err)
	}
	errCh := runHTTPServer(srv, log)

	// graceful shutdown
	return waitForShutdown(ctx, srv, errCh, log)
}

// wire builds the object graph: repositories, auth core, services, handlers.
func wire(cfg *config.Config, conn *db.Conn, log *logger.Logger) (*handlers.Handler, error) {
	repos := repository.NewRepository(conn)

	hasher := auth.NewPasswordHasher(auth.PasswordParams{
		Time:       cfg.Password.Time,
		MemoryKiB:  cfg.Password.MemoryKiB,
		Threads:    cfg.Password.Threads,
		KeyLength:  cfg.Password.KeyLength,
		SaltLength: cfg.Password.SaltLength,
	})
	tokens, err := auth.NewAuthService(cfg.Auth.SigningSecret,
		auth.WithTokenTTL(cfg.Auth.TokenTTL),
		auth.WithLogger(log),
	)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	resolver := auth.NewResolver(tokens, repos.Users, log)

	services := service.NewService(repos, hasher, tokens, log)
	return handlers.NewHandler(services, resolver, log,
		handlers.WithHealthCheck(repos.Ping),
		handlers.WithFeedStream(cfg.Feed.PushInterval, cfg.Feed.PageSize),
	), nil
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, log *logger.Logger) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Infow("http_listening", "addr", srv.Addr())
		errCh <- srv.Run()
	}()
	return errCh
}

// waitForShutdown blocks until a termination signal or a server failure and
// then stops the server.
func waitForShutdown(ctx context.Context, srv *server.Server, errCh <-chan error, log *logger.Logger) error {
	select {
	case err := <-errCh:
		if err != nil {
			return oops.Code("HTTP_SERVE_FAILED").Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("shutting down server...")

	// allow in-flight requests to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return oops.Code("HTTP_SHUTDOWN_FAILED").Wrap(err)
	}
	return <-errCh
}
