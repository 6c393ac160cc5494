package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/arborfs/arborfs/internal/logger"
	"github.com/arborfs/arborfs/pkg/config"
	"github.com/arborfs/arborfs/pkg/fs"
	"github.com/arborfs/arborfs/pkg/gc"
	"github.com/arborfs/arborfs/pkg/static"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override configured log level (DEBUG, INFO, WARN, ERROR)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := setupLogging(cfg); err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}

	fmt.Println("ArborFS - database-backed virtual filesystem")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics are optional; a nil implementation keeps the facade no-op
	facadeMetrics := config.InitializeMetrics(cfg)

	records, err := config.CreateRecordStore(ctx, &cfg.Records)
	if err != nil {
		log.Fatalf("Failed to create record store: %v", err)
	}
	defer func() {
		if err := records.Close(); err != nil {
			logger.Error("Failed to close record store: %v", err)
		}
	}()
	logger.Info("Record store initialized: %s", cfg.Records.Type)

	objects, err := config.CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		log.Fatalf("Failed to create content store: %v", err)
	}
	defer func() {
		if err := objects.Close(); err != nil {
			logger.Error("Failed to close content store: %v", err)
		}
	}()
	logger.Info("Content store initialized: %s", cfg.Content.Type)

	facade, err := fs.New(ctx, records, objects, fs.WithMetrics(facadeMetrics))
	if err != nil {
		log.Fatalf("Failed to initialize filesystem: %v", err)
	}

	rootEntries, err := facade.ListDirectory(ctx, "/", nil)
	if err != nil {
		log.Fatalf("Failed to read filesystem root: %v", err)
	}
	logger.Info("Filesystem ready: %d entries at root", len(rootEntries))

	// Start the orphaned-content collector when enabled
	collector := gc.NewCollector(records, objects, cfg.GC.CollectorConfig())
	collector.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer stopCancel()
		if err := collector.Stop(stopCtx); err != nil {
			logger.Error("Garbage collector stop error: %v", err)
		}
	}()

	if !cfg.Static.Enabled {
		logger.Info("Static server disabled; running until interrupted")
		waitForSignal()
		return
	}

	srv := static.NewServer(cfg.Static.StaticServerConfig(), records, objects)

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on %s:%d. Press Ctrl+C to stop.", cfg.Static.Host, cfg.Static.Port)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel() // Cancel context to initiate shutdown

		// Wait for server to shut down gracefully
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			os.Exit(1)
		}
		logger.Info("Server stopped")
	}
}

// setupLogging configures the process-wide logger from the configuration.
func setupLogging(cfg *config.Config) error {
	logger.SetLevel(cfg.Logging.Level)

	switch cfg.Logging.Output {
	case "", "stdout":
		// Default output
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", cfg.Logging.Output, err)
		}
		logger.SetOutput(f)
	}

	return nil
}

// waitForSignal blocks until SIGINT or SIGTERM is received.
func waitForSignal() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received")
}
