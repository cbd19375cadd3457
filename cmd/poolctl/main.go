// Command poolctl is the operator CLI for the Provider Pool Manager's
// on-disk pool document: disable/enable/reset entries and print status,
// without needing the embedding service's live adapters running.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oakhollow/providerpool/internal/config"
)

var (
	configPath string
	poolPath   string
)

func main() {
	root := &cobra.Command{
		Use:   "poolctl",
		Short: "Operate on a Provider Pool Manager document",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a config file (yaml/toml/json)")
	root.PersistentFlags().StringVar(&poolPath, "pool", "", "override the pool document path")

	root.AddCommand(
		statusCmd(),
		disableCmd(),
		enableCmd(),
		resetCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if poolPath != "" {
		cfg.PoolFilePath = poolPath
	}
	return cfg, nil
}
