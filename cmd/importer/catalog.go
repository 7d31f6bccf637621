package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/catalog"
	"github.com/providingshelter/ingest/internal/logger"
)

func newCatalogCmd() *cobra.Command {
	var delta bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Synchronize the dataset catalog export into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			syncer := catalog.NewSyncer(catalog.Config{
				Mode:           a.cfg.Catalog.Mode,
				FullURL:        a.cfg.Catalog.FullURL,
				DeltaURL:       a.cfg.Catalog.DeltaURL,
				FallbackCSVURL: a.cfg.Catalog.FallbackCSVURL,
				LocalPath:      a.cfg.Catalog.LocalPath,
				BatchSize:      a.cfg.Catalog.BatchSize,
			}, a.store, a.http, a.clock)

			result, err := syncer.Run(ctx, catalog.RunOptions{Delta: delta})
			if err != nil {
				logger.ErrorCtx(ctx, err, zap.Bool("delta", delta))
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "inserted=%d updated=%d skipped=%d affected=%d\n",
				result.Inserted, result.Updated, result.Skipped, result.Affected)
			return nil
		},
	}

	cmd.Flags().BoolVar(&delta, "delta", false, "Read the changed-datasets export instead of the full export")
	return cmd
}
