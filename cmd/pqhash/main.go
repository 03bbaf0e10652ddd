// Package main implements the pqhash command: train quantization models,
// publish hash codes to a search index and query it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pqhash"
	"github.com/hupe1980/pqhash/internal/config"
)

var (
	// configPath is the optional YAML configuration file
	configPath string
	// version information
	version = "dev"

	cfg    *config.Config
	logger *pqhash.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pqhash",
	Short: "Partitioned quantization hashing for image retrieval",
	Long: `pqhash converts image embeddings into compact hash codes and publishes them
to a keyword search index for approximate nearest-neighbor retrieval.

Storage, registry and search backends are configured with a YAML file
(--config) and PQHASH_* environment variables, for example:

  PQHASH_STORAGE_BACKEND=s3 PQHASH_STORAGE_BUCKET=corpus pqhash index`,
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return err
		}
		l, err := newLogger(c.Log)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file")
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(modelsCmd)
}
