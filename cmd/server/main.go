package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/BathSalt-2/Neur1genesis/internal/engine"
	"github.com/BathSalt-2/Neur1genesis/internal/server"
)

func main() {
	config := ParseFlags()

	logger := setupLogger(config.LogLevel, config.LogFormat)

	logger.WithFields(logrus.Fields{
		"version":   Version,
		"commit":    GitCommit,
		"buildDate": BuildDate,
	}).Info("Starting Privacy-Preserving Synthetic Data Engine")

	eng, err := engine.New(engine.Config{
		GlobalEpsilon: config.Epsilon,
		GlobalDelta:   config.Delta,
		K:             config.K,
		NoiseEpsilon:  config.NoiseEpsilon,
		Seed:          config.Seed,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to initialize engine")
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Host = config.Host
	serverConfig.Port = config.Port
	serverConfig.MetricsPort = config.MetricsPort
	serverConfig.EnableMetrics = config.EnableMetrics

	srv := server.NewServer(eng, serverConfig, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(ctx); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server failed to start")
		}
	}()

	<-sigChan
	logger.Info("shutdown signal received")

	if err := srv.Stop(context.Background()); err != nil {
		logger.WithError(err).Error("server shutdown failed")
	}
}

func setupLogger(level, format string) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
