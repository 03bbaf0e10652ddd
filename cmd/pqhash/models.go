package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pqhash/registry"
)

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsShowCmd)
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model registry",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored models, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		blobs, err := newBlobStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		models, err := newRegistry(ctx, cfg, blobs)
		if err != nil {
			return err
		}

		names, err := models.List(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var modelsShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the shape of a model (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		blobs, err := newBlobStore(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		models, err := newRegistry(ctx, cfg, blobs)
		if err != nil {
			return err
		}

		var name string
		if len(args) == 1 {
			name = args[0]
		}
		name, err = models.Resolve(ctx, name)
		if errors.Is(err, registry.ErrNoModel) {
			return errors.New("no model found; run pqhash train first")
		}
		if err != nil {
			return err
		}

		m, err := models.Load(ctx, name)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "name\t%s\n", name)
		fmt.Fprintf(w, "groups\t%d\n", m.NumGroups())
		fmt.Fprintf(w, "clusters\t%d\n", m.NumClusters())
		fmt.Fprintf(w, "dimension\t%d\n", m.Dimension())
		fmt.Fprintf(w, "metric\t%s\n", m.Metric())
		return w.Flush()
	},
}
