package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kylerisse/upsgraph/pkg/config"
	"github.com/kylerisse/upsgraph/pkg/panel"
	"github.com/kylerisse/upsgraph/pkg/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, envFile string

	cmd := &cobra.Command{
		Use:   "upsgraphd",
		Short: "Serve UPS graph panels over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath, envFile)
			if err != nil {
				return err
			}
			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}

			srv, err := newServer(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.Start(); err != nil {
				return err
			}
			logger.Info("Server is running. Press Ctrl+C to stop.")
			<-ctx.Done()

			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the YAML configuration file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "dotenv file with UPSGRAPH_* overrides")
	return cmd
}

// loadConfig reads the configuration file when one is given, applies
// environment overrides and validates the result. Variables from envFile
// never replace ones already set in the environment.
func loadConfig(path, envFile string) (*config.Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := config.DefaultConfig()
	if path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newServer builds the table catalog and the API server for cfg.
func newServer(cfg *config.Config, logger *logrus.Logger) (*server.Server, error) {
	catalog, err := panel.NewBuiltinCatalog()
	if err != nil {
		return nil, err
	}
	if cfg.Tables.Dir != "" {
		if err := catalog.LoadDir(cfg.Tables.Dir, logger); err != nil {
			return nil, err
		}
	}
	logger.Infof("Loaded %d classification table(s), default %q.", len(catalog.Names()), cfg.Tables.Default)

	srv, err := server.NewServer(cfg, catalog, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create server: %w", err)
	}
	return srv, nil
}
