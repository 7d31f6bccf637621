package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/providingshelter/ingest/internal/adapter"
	"github.com/providingshelter/ingest/internal/citycode"
	"github.com/providingshelter/ingest/internal/crosstab"
	"github.com/providingshelter/ingest/internal/importer"
	"github.com/providingshelter/ingest/internal/libreoffice"
)

func newCrossTabCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crosstab <file>",
		Short: "Import a cross-tab statistics spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			resyncer := citycode.NewResyncer(a.store)
			defer resyncer.Wait()

			orchestrator := importer.NewOrchestrator(
				importer.NewFileStore(a.cfg.Storage.UploadRoot, a.fs, a.clock),
				a.store,
				libreoffice.NewConverter(libreoffice.Config{
					SofficePath: a.cfg.LibreOffice.SofficePath,
					WaitTimeout: a.cfg.LibreOffice.WaitTimeout,
				}, adapter.NewCommandRunner(), a.fs),
				crosstab.NewParser(),
				citycode.NewResolver(a.store),
				resyncer,
				a.publisher,
				a.clock,
			)

			result, err := orchestrator.Import(ctx, importer.Upload{
				FileName: filepath.Base(args[0]),
				Body:     f,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "import=%s duplicate=%t raw=%d parsed=%d\n",
				result.ImportID, result.Duplicate, result.RawRows, result.ParsedRows)
			return nil
		},
	}
	return cmd
}
