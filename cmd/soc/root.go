package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xela07ax/ztna-soc-console/internal/infra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "soc",
	Short:         "ZTNA SOC demo console: synthetic access events, risk scoring and a live dashboard.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd, pulseCmd)
}

// bootstrap читает .env (если есть), конфиг и собирает логгер.
func bootstrap() (*infra.Config, *zap.Logger, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, err
	}

	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
