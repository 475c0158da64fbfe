package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/aviralrabbit1/nextNotes/internal/server/config"
	"github.com/aviralrabbit1/nextNotes/internal/server/httpapi"
	"github.com/aviralrabbit1/nextNotes/internal/server/repository/sqlite"
	"github.com/aviralrabbit1/nextNotes/internal/server/service"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	version   string
	buildDate string
	logger    *zap.Logger
	server    *http.Server
	repoClose io.Closer
}

func New(cfg config.Config, version, buildDate string, logger *zap.Logger, opts ...service.Option) (*App, error) {
	repo, err := sqlite.New(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	services := service.NewServices(repo, cfg, opts...)
	router := httpapi.NewRouter(services, logger, cfg.MaxRequestBytes, reg)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &App{version: version, buildDate: buildDate, logger: logger, server: server, repoClose: repo}, nil
}

// Run serves until ctx is cancelled, then shuts the server down and closes
// the database.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		_ = a.repoClose.Close()
		return fmt.Errorf("listen %s: %w", a.server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	a.logger.Info("notekeeper server started",
		zap.String("version", a.version),
		zap.String("build_date", a.buildDate),
		zap.String("addr", ln.Addr().String()))

	var result *multierror.Error
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			result = multierror.Append(result, fmt.Errorf("serve: %w", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		result = multierror.Append(result, fmt.Errorf("shutdown: %w", err))
	}
	if err := a.repoClose.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("close repository: %w", err))
	}
	a.logger.Info("notekeeper server stopped")
	return result.ErrorOrNil()
}
