package main

import (
	"encoding/json"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/xela07ax/ztna-soc-console/internal/engine"
	"go.uber.org/zap"
)

var (
	pulseCount int
	pulseSeed  uint64
)

var pulseCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Print N synthetic scored events as JSON lines and exit.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if pulseCount < 1 {
			return fmt.Errorf("--count must be positive, got %d", pulseCount)
		}
		cfg, _, err := bootstrap()
		if err != nil {
			return err
		}
		if pulseSeed != 0 {
			cfg.Generator.Seed = pulseSeed
		}

		// stdout занят событиями: логи отключены
		core := engine.NewSOCCore(engine.Options{Config: cfg, Registry: prometheus.NewRegistry()}, zap.NewNop())
		defer core.Stop()

		enc := json.NewEncoder(cmd.OutOrStdout())
		for i := 0; i < pulseCount; i++ {
			ev, err := core.Generator.Pulse()
			if err != nil {
				return err
			}
			if err := enc.Encode(ev); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	pulseCmd.Flags().IntVar(&pulseCount, "count", 10, "number of events to generate")
	pulseCmd.Flags().Uint64Var(&pulseSeed, "seed", 0, "RNG seed (0: from config or current time)")
}
