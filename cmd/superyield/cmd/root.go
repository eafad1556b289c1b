package cmd

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"superyield/internal/config"
)

var (
	cfgPath string
	envOnly bool
)

var rootCmd = &cobra.Command{
	Use:   "superyield",
	Short: "Allocation agent for the SuperYield vault",
	Long: `superyield asks a reasoning model where to put the vault's idle capital and
only returns decisions that pass the risk rules.

It can:
  - serve the HTTP API (optimize, optimize-auto, SSE and websocket streams)
  - run one decision from a request file
  - print the prompt a request would produce`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	defaultPath := os.Getenv("SY_CONFIG")
	if defaultPath == "" {
		defaultPath = "config/config.yaml"
	}
	defaultEnvOnly := false
	if raw := os.Getenv("SY_ENV_ONLY"); raw != "" {
		defaultEnvOnly = strings.EqualFold(raw, "true") || raw == "1"
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", defaultPath, "config file (env: SY_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&envOnly, "env-only", defaultEnvOnly, "ignore the config file and read only the environment (env: SY_ENV_ONLY)")
}

func loadConfig() (config.Config, error) {
	return config.Load(cfgPath, envOnly)
}
