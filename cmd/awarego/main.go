package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"awarego/internal/api"
	"awarego/pkg/config"
	"awarego/pkg/db"
	"awarego/pkg/engine"
	"awarego/pkg/logging"
	"awarego/pkg/probe"
	"awarego/pkg/scene"
	"awarego/pkg/store"
	"awarego/pkg/version"
)

var (
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
	configPath = flag.String("config", "configs/awarego.yaml", "Path to config file")
)

func main() {
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	_ = godotenv.Load()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("AwareGo started", "version", version.Version, "addr", appCfg.Server.Addr)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()

	st := store.NewSQLiteStore(dbConn)
	provider := config.NewProvider(appCfg, st)

	repo := scene.NewRepository(appCfg.Scenes.Dir)

	// Scene probes are non-critical: the coordinator degrades a missing
	// scene to an empty fallback rather than refusing to start.
	results := probe.Run(ctx, []probe.Probe{
		{
			Name:     "Settings DB",
			Check:    func(c context.Context) error { return dbConn.PingContext(c) },
			Critical: true,
		},
		{
			Name: "Text Scene",
			Check: func(context.Context) error {
				_, err := repo.LoadTextScene(appCfg.Scenes.TextScene)
				return err
			},
		},
		{
			Name: "Encounter Scene",
			Check: func(context.Context) error {
				_, err := repo.LoadEncounter(appCfg.Scenes.Encounter)
				return err
			},
		},
	})
	if err := probe.Analyze(results); err != nil {
		return fmt.Errorf("startup checks failed: %w", err)
	}

	coord := engine.NewCoordinator(repo, provider, appCfg.Scenes.TextScene, appCfg.Scenes.Encounter)
	defer coord.Stop()

	return runServer(ctx, appCfg, coord, provider)
}

func runServer(ctx context.Context, cfg *config.Config, coord *engine.Coordinator, provider *config.Provider) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Addr,
		api.NewSessionHandler(coord),
		api.NewSettingsHandler(provider),
		api.NewEventsHandler(coord),
		shutdownFunc,
	)
	srv.Handler = loggingMiddleware(srv.Handler)

	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("Request processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
