package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/providingshelter/ingest/internal/citycode"
	"github.com/providingshelter/ingest/internal/logger"
)

func newResyncCityCodesCmd() *cobra.Command {
	var loadPath string

	cmd := &cobra.Command{
		Use:   "resync-citycodes",
		Short: "Mark current city codes and fill the codes of imported facts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if loadPath != "" {
				f, err := os.Open(loadPath)
				if err != nil {
					return err
				}
				n, err := citycode.Load(ctx, a.store, f)
				f.Close()
				if err != nil {
					return err
				}
				logger.InfoCtx(ctx, "Loaded city codes", zap.String("path", loadPath), zap.Int("rows", n))
			}

			resyncer := citycode.NewResyncer(a.store)
			defer resyncer.Wait()

			result, err := resyncer.Sync(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "codes=%d facts=%d\n", result.UpdatedCodes, result.UpdatedFacts)
			return nil
		},
	}

	cmd.Flags().StringVar(&loadPath, "load", "", "CSV file of city codes to upsert before the resync")
	return cmd
}
