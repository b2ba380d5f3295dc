// Command prismcms-server starts the PrismCMS console gRPC server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/and161185/prismcms/internal/clock"
	"github.com/and161185/prismcms/internal/config"
	"github.com/and161185/prismcms/internal/metrics"
	"github.com/and161185/prismcms/internal/migrate"
	"github.com/and161185/prismcms/internal/notify"
	"github.com/and161185/prismcms/internal/repository"
	"github.com/and161185/prismcms/internal/repository/file"
	"github.com/and161185/prismcms/internal/repository/memory"
	"github.com/and161185/prismcms/internal/repository/postgres"
	"github.com/and161185/prismcms/internal/seed"
	grpcserver "github.com/and161185/prismcms/internal/server/grpc"
	"github.com/and161185/prismcms/internal/service"
	"github.com/and161185/prismcms/internal/settings"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Parse(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	zc.Level = lvl
	return zc.Build()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	clk := clock.Real{}

	data := seed.Data{}
	if cfg.Seed {
		d, err := seed.Load()
		if err != nil {
			return err
		}
		data = d
	}

	// Repositories
	contentRepo, err := memory.NewContentRepo(clk, data.Content)
	if err != nil {
		return fmt.Errorf("content repo: %w", err)
	}
	users := memory.NewUserDirectory(data.Users)
	media := memory.NewMediaLibrary(data.Media)

	slot, closeSlot, err := openSlot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSlot()

	// Settings
	store := settings.NewStore(settings.Defaults(), logger.Named("settings"))
	var watcher *settings.Watcher
	if cfg.SettingsPath != "" {
		if watcher, err = openSettings(ctx, store, cfg.SettingsPath, logger); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	bus := notify.NewBus(clk, cfg.NotificationTTL, logger.Named("notify"))
	defer bus.Close()

	// Services
	identity := service.NewIdentityStore(users, slot, clk, []byte(cfg.JWTKey), cfg.SessionTTL, logger.Named("identity"))
	if err := identity.Restore(ctx); err != nil {
		logger.Warn("restore session", zap.Error(err))
	}
	app := grpcserver.New(
		identity,
		service.NewContentService(contentRepo, clk, cfg.Latency, logger.Named("content")),
		service.NewUserService(users, clk, logger.Named("users")),
		service.NewMediaService(media, store, clk, logger.Named("media")),
		store,
		bus,
		logger,
	)

	// gRPC server with interceptors
	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(
			grpcserver.RecoverUnary(logger),
			grpcserver.LoggingUnary(logger),
			grpcserver.MetricsUnary(),
			grpcserver.AuthUnary(identity, grpcserver.PublicMethods()),
		),
	}
	if cfg.TLSCert != "" {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLSCert, cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	} else {
		logger.Warn("TLS disabled, serving plaintext")
	}
	s := grpc.NewServer(opts...)
	grpcserver.Register(s, app)

	// Health & reflection (dev)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(grpcserver.ServiceName, healthpb.HealthCheckResponse_SERVING)
	if cfg.Dev {
		reflection.Register(s)
	}

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.Bool("tls", cfg.TLSCert != ""))
		return s.Serve(lis)
	})

	var ms *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		ms = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// Wait for stop
	g.Go(func() error {
		<-gctx.Done()
		hs.Shutdown()
		done := make(chan struct{})
		go func() {
			s.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(shutdownTimeout):
			s.Stop()
		}
		if ms != nil {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return ms.Shutdown(sctx)
		}
		return nil
	})
	return g.Wait()
}

// openSlot picks the session persistence backend. Postgres is migrated first.
func openSlot(ctx context.Context, cfg config.Config, logger *zap.Logger) (repository.SessionSlot, func(), error) {
	if cfg.SlotBackend == config.SlotPostgres {
		if err := migrate.Up(ctx, cfg.DSN, logger.Named("migrate")); err != nil {
			return nil, nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err := postgres.New(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewSessionSlot(db, postgres.DefaultSlotKey), db.Close, nil
	}
	path := cfg.SlotPath
	if path == "" {
		path = file.DefaultPath("session.json")
	}
	logger.Debug("session slot", zap.String("path", path))
	return file.NewSlot(path), func() {}, nil
}

// openSettings loads the settings file, writing the defaults when it does not exist yet,
// and starts watching it. Updates made over the console API are written back to it.
func openSettings(ctx context.Context, store *settings.Store, path string, logger *zap.Logger) (*settings.Watcher, error) {
	if err := store.LoadFile(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("settings: %w", err)
		}
		if err := store.Save(path); err != nil {
			return nil, fmt.Errorf("settings: %w", err)
		}
		logger.Info("settings file created", zap.String("path", path))
	}
	store.Persist(path)
	w, err := settings.NewWatcher(store, path, settings.DefaultDebounce, logger.Named("settings"))
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		return nil, err
	}
	return w, nil
}
