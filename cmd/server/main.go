package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jo-hoe/hotdog/internal/backend"
	"github.com/jo-hoe/hotdog/internal/backend/imagesource"
	"github.com/jo-hoe/hotdog/internal/common"
	"github.com/jo-hoe/hotdog/internal/core"
	frontend "github.com/jo-hoe/hotdog/internal/frontend"
	"github.com/jo-hoe/hotdog/internal/metrics"
)

func getConfigPath() string {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// Default to config.yaml in current working directory
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

func main() {
	// Load configuration
	configPath := getConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		log.Printf("failed to load config from %s: %v", configPath, err)
		panic(err)
	}
	slog.SetDefault(slog.New(config.NewLogHandler(os.Stdout)))

	databaseService, err := core.NewDatabaseService(config)
	if err != nil {
		slog.Error("failed to initialize database service", "error", err)
		os.Exit(1)
	}

	recorder := metrics.New()
	imageSource := imagesource.NewClient(config.ImageSource.URL, config.ImageSource.Timeout)
	coreService := core.NewCoreService(databaseService, imageSource, recorder)
	server := common.NewEchoServer()

	apiService := backend.NewAPIService(coreService, recorder)
	apiService.SetRoutes(server)
	frontendService := frontend.NewFrontendService(config, coreService)
	frontendService.SetRoutes(server)

	portString := fmt.Sprintf(":%d", config.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting server", "port", config.Port, "database", config.Database.Type)
	serveErr := common.Serve(ctx, server, portString, 10*time.Second)
	if serveErr != nil {
		slog.Error("http server error", "error", serveErr)
	}

	if err := coreService.Close(); err != nil {
		slog.Error("core service close error", "error", err)
	}
	if serveErr != nil {
		os.Exit(1)
	}
}
