package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/alanyoungcy/tradedash/internal/app"
	"github.com/alanyoungcy/tradedash/internal/config"
	"github.com/alanyoungcy/tradedash/internal/domain"
)

const defaultConfigPath = "config.toml"

// newRootCmd creates the root command.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tradedash",
		Short: "Read-mostly dashboard for the crypto trading bot",
		Long: `tradedash serves the trading bot's positions, journal, AI analysis log,
candles and portfolio snapshots from the staging and production databases.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "Configuration file path")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// loadConfig reads the --config file. A missing default file is not an
// error; defaults and TRADEDASH_* variables still apply.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// setup loads and validates configuration and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *slog.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, err
	}
	logger, closeLog := newLogger(cfg.LogLevel, cfg.Log)
	slog.SetDefault(logger)
	return cfg, logger, closeLog, nil
}

// newServeCmd creates the serve command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server and live position feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, closeLog, err := setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			logger.Info("tradedash starting",
				slog.String("version", version),
				slog.Int("port", cfg.Server.Port),
				slog.String("default_environment", cfg.DefaultEnvironment),
			)

			application := app.New(cfg, version, logger)
			defer application.Close()

			// Setup signal handling for graceful shutdown.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := application.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("application exited with error", slog.String("error", err.Error()))
				return err
			}
			logger.Info("tradedash stopped")
			return nil
		},
	}
}

// newExportCmd creates the export command group.
func newExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export data to object storage",
	}

	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Export one month of the trade journal as JSONL",
		Long: `Export every journal entry whose entry time falls in the given UTC month.
Example: tradedash export journal --env production --month 2024-03`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			envs, err := envFlag(cmd)
			if err != nil {
				return err
			}
			monthStr, _ := cmd.Flags().GetString("month")
			month := time.Now().UTC().AddDate(0, -1, 0)
			if monthStr != "" {
				if month, err = time.Parse("2006-01", monthStr); err != nil {
					return fmt.Errorf("invalid month %q, use YYYY-MM: %w", monthStr, err)
				}
			}
			force, _ := cmd.Flags().GetBool("force")

			cfg, logger, closeLog, err := setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			application := app.New(cfg, version, logger)
			defer application.Close()

			results, err := application.ExportJournal(cmd.Context(), app.ExportOptions{Envs: envs, Month: month, Force: force})
			for _, r := range results {
				if r.Skipped {
					fmt.Fprintf(cmd.OutOrStdout(), "skipped  %s (exists, use --force)\n", r.Path)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s: %s entries, %s\n", r.Path, humanize.Comma(int64(r.Count)), humanize.Bytes(uint64(r.Bytes)))
			}
			return err
		},
	}
	journalCmd.Flags().String("env", "", "Environment to export (staging or production; both if empty)")
	journalCmd.Flags().String("month", "", "Month in YYYY-MM format (previous month if not provided)")
	journalCmd.Flags().Bool("force", false, "Overwrite an existing export")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored journal exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			envs, err := envFlag(cmd)
			if err != nil {
				return err
			}
			if len(envs) == 0 {
				envs = domain.Environments
			}
			cfg, logger, closeLog, err := setup(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			application := app.New(cfg, version, logger)
			defer application.Close()

			for _, env := range envs {
				infos, err := application.ListExports(cmd.Context(), env)
				if err != nil {
					return err
				}
				for _, info := range infos {
					fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-48s %8s  %s\n", env, info.Path, humanize.Bytes(uint64(info.Size)), humanize.Time(info.LastModified))
				}
			}
			return nil
		},
	}
	listCmd.Flags().String("env", "", "Environment to list (both if empty)")

	exportCmd.AddCommand(journalCmd, listCmd)
	return exportCmd
}

// envFlag parses --env; empty means every environment.
func envFlag(cmd *cobra.Command) ([]domain.Environment, error) {
	v, _ := cmd.Flags().GetString("env")
	if v == "" {
		return nil, nil
	}
	env, ok := domain.ParseEnvironment(v)
	if !ok {
		return nil, fmt.Errorf("unknown environment %q (valid: staging, production)", v)
	}
	return []domain.Environment{env}, nil
}

// newConfigCmd creates the config command.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	// config show subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(config.RedactedConfig(cfg))
		},
	})

	// config validate subcommand
	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	})

	return configCmd
}

// newVersionCmd creates the version command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "tradedash "+version)
		},
	}
}
