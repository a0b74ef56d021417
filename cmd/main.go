package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cesarion161/clawgic/internal/adapters/http/api"
	"github.com/cesarion161/clawgic/internal/adapters/http/swagger"
	app "github.com/cesarion161/clawgic/internal/app"
	"github.com/cesarion161/clawgic/internal/config"
	"github.com/cesarion161/clawgic/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout, nil); err != nil {
		_, _ = os.Stderr.WriteString("curation: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// run serves the simulation until ctx is cancelled. When ready is non-nil the
// bound listen address is sent on it once the server accepts connections.
func run(ctx context.Context, logOut io.Writer, ready chan<- string) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.InitWith(logOut, logger.Format(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log := logger.Get()

	svc, err := app.New(cfg, app.WithLogger(log.Named("service")))
	if err != nil {
		return fmt.Errorf("build service: %w", err)
	}
	if err := svc.Seed(ctx, cfg.SeedCurators, cfg.SeedPosts, cfg.SeedStake, cfg.SeedGoldenPairs); err != nil {
		return fmt.Errorf("seed registries: %w", err)
	}

	srv := newHTTPServer(cfg, svc, log)
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// The worker outlives the signal so Stop can drain queued rounds.
	if err := svc.Start(context.WithoutCancel(gctx)); err != nil {
		_ = ln.Close()
		return fmt.Errorf("start service: %w", err)
	}

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if ready != nil {
			ready <- ln.Addr().String()
		}
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("service stop: %w", err))
		}
		log.Info(shutdownCtx, "server stopped")
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newHTTPServer(cfg *config.Config, svc *app.Service, log logger.Logger) *http.Server {
	apiServer := api.NewServer(svc,
		api.WithMaxLimit(cfg.MaxLeaderboardLimit),
		api.WithRoundRateLimit(cfg.RoundsPerSecond, cfg.RoundsBurst),
		api.WithLogger(log.Named("http")),
	)
	mux := http.NewServeMux()
	apiServer.Register(mux)
	swagger.Register(mux)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
