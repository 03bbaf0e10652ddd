package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/pqhash"
	"github.com/hupe1980/pqhash/store"
)

var (
	// search command flags
	searchKey    string
	searchVector string
	searchText   string
	searchSize   int
	searchModel  string
)

func init() {
	searchCmd.Flags().StringVar(&searchKey, "key", "", "Query with the stored feature vector of this item")
	searchCmd.Flags().StringVar(&searchVector, "vector", "", "Query with the vector in this .npy file")
	searchCmd.Flags().StringVar(&searchText, "text", "", "Free text matched against descriptions")
	searchCmd.Flags().IntVar(&searchSize, "size", 10, "Maximum number of hits")
	searchCmd.Flags().StringVar(&searchModel, "model", "", "Model name (default: model.name or the latest model)")
	searchCmd.MarkFlagsMutuallyExclusive("key", "vector")
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Find items similar to a feature vector",
	Long: `Hash a query vector with the model and rank indexed items by shared hash
tokens, optionally combined with a description text match.

Examples:
  # Items similar to a stored item
  pqhash search --key 000123

  # Query vector from a file, boosted by text
  pqhash search --vector query.npy --text "red car" --size 20`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	if searchKey == "" && searchVector == "" && searchText == "" {
		return errors.New("one of --key, --vector or --text is required")
	}

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	models, err := newRegistry(ctx, cfg, blobs)
	if err != nil {
		return err
	}

	index, err := newSearchIndex(cfg.Search)
	if err != nil {
		return err
	}

	var vector []float32
	switch {
	case searchKey != "":
		vector, err = store.NewFeatureStore(blobs).Get(ctx, searchKey)
		if err != nil {
			return fmt.Errorf("load features of %s: %w", searchKey, err)
		}
	case searchVector != "":
		data, err := os.ReadFile(searchVector)
		if err != nil {
			return err
		}
		vector, err = store.DecodeVector(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", searchVector, err)
		}
	}

	model := searchModel
	if model == "" {
		model = cfg.Model.Name
	}

	searcher, err := pqhash.NewSearcher(ctx, models, index,
		pqhash.WithModelName(model),
		pqhash.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	hits, err := searcher.Search(ctx, vector, searchText, searchSize)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCORE\tDESCRIPTION")
	for _, h := range hits {
		fmt.Fprintf(w, "%s\t%.3f\t%s\n", h.ID, h.Score, strings.TrimSpace(h.Document.Description))
	}
	return w.Flush()
}
