package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/construtora/agenda-api/pkg/config"
	"github.com/construtora/agenda-api/pkg/logger"
)

// @title Agenda API
// @version 1.0.0
// @description Team calendar and task agenda with resilient multi-backend persistence
// @BasePath /
// @schemes http

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfg  *config.Config
	logr *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "agenda",
	Short:         "Team agenda API",
	Long:          "Serves the team calendar and task agenda, manages the schema and seeds the roster.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded

		l, err := logger.New(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		logr = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logr != nil {
			_ = logr.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
