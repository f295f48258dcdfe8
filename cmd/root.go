package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/DonatoReis/lynx/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "lynx",
	Short: "Questionnaire-driven product recommendation assistant",
	Long:  "Walks a branching questionnaire, scrapes configured product pages into a TTL cache, and streams a Claude recommendation built from the collected answers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
