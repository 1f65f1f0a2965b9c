package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/scipunch/sitefeed/config"
	"github.com/scipunch/sitefeed/fetcher"
	"github.com/scipunch/sitefeed/logging"
	"github.com/scipunch/sitefeed/pipeline"
	"github.com/scipunch/sitefeed/server"
	"github.com/scipunch/sitefeed/site"
)

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env with %s", err)
	}

	var cfgPath string
	var listen string
	flag.StringVar(&cfgPath, "config", config.DefaultPath(), "path to a TOML config")
	flag.StringVar(&listen, "listen", "", "address to listen on, overrides the config")
	flag.Parse()

	// Read config and create if default is missing
	conf, err := config.Read(cfgPath)
	wroteDefault := false
	if errors.Is(err, os.ErrNotExist) && cfgPath == config.DefaultPath() {
		if err := config.Write(cfgPath, conf); err != nil {
			log.Fatalf("failed to write default config with %s", err)
		}
		wroteDefault = true
	} else if err != nil {
		log.Fatalf("failed to read config with %s", err)
	}
	if listen != "" {
		conf.Listen = listen
	}

	logger, err := logging.New(conf.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger with %s", err)
	}
	defer logger.Sync()
	if wroteDefault {
		logger.Info("default config written", zap.String("at", cfgPath))
	}

	sites, err := site.Builtin(logger)
	if err != nil {
		logger.Fatal("failed to compile site definitions", zap.Error(err))
	}

	f := fetcher.NewHTTPFetcher(conf.UserAgent, conf.FetchTimeout.Duration, fetcher.WithLogger(logger))
	p := pipeline.New(f, logger)
	srv := &http.Server{
		Addr:    conf.Listen,
		Handler: server.New(p, sites, logger).Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", conf.Listen), zap.Int("sites", len(sites)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server stopped", zap.Error(err))
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), conf.ShutdownTimeout.Duration)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}
