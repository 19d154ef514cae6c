package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GemadaoOficial/megajuLive-sub001/internal/canonical"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/classify"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/cli"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/config"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/db"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/httpapi"
	"github.com/GemadaoOficial/megajuLive-sub001/internal/logging"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "", "Host interface to bind (default from REPORTD_HTTP_HOST)")
	port := fs.Int("port", 0, "HTTP port (default from REPORTD_HTTP_PORT)")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 10*time.Minute, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port < 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 0 and 65535 (0 uses REPORTD_HTTP_PORT)")
		return 2
	}

	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}

	dbCtx, dbCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer dbCancel()

	pool, err := db.NewPool(dbCtx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to connect to database")
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		return 1
	}
	defer pool.Close()

	var classifier canonical.Classifier
	client, err := classify.NewClient(cfg, logger)
	switch {
	case errors.Is(err, classify.ErrNotConfigured):
		logger.Warn().Msg("classifier endpoint not configured, canonicalize route disabled")
	case err != nil:
		logger.Error().Err(err).Msg("classifier initialization failed")
		fmt.Fprintf(os.Stderr, "Failed to initialize classifier: %v\n", err)
		return 1
	default:
		classifier = client
	}

	canonicalizer, err := canonical.NewCanonicalizer(pool, classifier, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize canonicalizer: %v\n", err)
		return 1
	}

	serveHost := *host
	if serveHost == "" {
		serveHost = cfg.HTTPHost
	}
	servePort := *port
	if servePort == 0 {
		servePort = cfg.HTTPPort
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		<-sigCh
		cancel()
	}()

	srv := httpapi.NewServer(pool, canonicalizer, logger, httpapi.Options{
		Host:            serveHost,
		Port:            servePort,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
	})

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Str("host", serveHost).Int("port", servePort).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}

	return 0
}
