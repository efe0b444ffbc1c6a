package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/quote-validator/internal/config"
	"github.com/garyjia/quote-validator/internal/container"
	httpapi "github.com/garyjia/quote-validator/internal/interfaces/http"
	"github.com/garyjia/quote-validator/pkg/utils"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:          "quote-server",
	Short:        "Quote validation HTTP server",
	SilenceUsage: true,
	RunE:         run,
}

func main() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the YAML config file")

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting quote validator",
		zap.String("address", cfg.Server.Address()),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("worker_enabled", cfg.Worker.Enabled))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Start(ctx); err != nil {
		logger.Error("Failed to start container", zap.Error(err))
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Container shutdown failed", zap.Error(err))
		}
	}()

	services := c.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Mode:         cfg.Server.Mode,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		MaxUploadMB:  cfg.Validation.MaxUploadMB,
	}, httpapi.Services{
		Validation: services.Validation,
		Templates:  services.Templates,
		Submission: services.Submission,
	}, c.HTTPHealth, utils.NewServiceLogger(logger))

	// Start blocks until the signal context is cancelled
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Server exited successfully")
	return nil
}
