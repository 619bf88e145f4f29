package main

import (
	"log/slog"
	"os"

	"dispatch/cmd"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "dispatch",
	Short:        "Order dispatch engine",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "",
		"YAML configuration file; DISPATCH_ environment variables override it")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (cmd.Config, *slog.Logger, error) {
	cfg, err := cmd.LoadConfig(cfgPath)
	if err != nil {
		return cmd.Config{}, nil, err
	}
	return cfg, newLogger(cfg.Logging), nil
}

func newLogger(cfg cmd.LoggingConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
