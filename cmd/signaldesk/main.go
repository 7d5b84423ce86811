package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/newthinker/signaldesk/internal/app"
	"github.com/newthinker/signaldesk/internal/config"
	"github.com/newthinker/signaldesk/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "signaldesk",
	Short: "signaldesk - trading signal dashboard",
	Long: `signaldesk fetches trading signals from the signal backend for an
exchange and date range, and shows statistics, sortable signal tables and
daily history in the terminal or a local web dashboard.`,
	SilenceUsage:  true,
	SilenceErrors: true, // main reports them, skipping ones already shown
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file when given, otherwise defaults with
// environment overrides, and validates the result.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// withApp loads config, builds the logger and app, and runs fn.
func withApp(fn func(a *app.App, log *zap.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if debug {
		level = "debug"
	}
	log, err := logger.New(debug, level)
	if err != nil {
		return err
	}
	defer log.Sync()

	if cfgFile == "" {
		log.Debug("no config file specified, using defaults")
	}

	return fn(app.New(cfg, log), log)
}
