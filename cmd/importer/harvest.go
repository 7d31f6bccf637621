package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/providingshelter/ingest/internal/converter"
	"github.com/providingshelter/ingest/internal/downloader"
	"github.com/providingshelter/ingest/internal/harvester"
	"github.com/providingshelter/ingest/internal/registry"
)

func newHarvestCmd() *cobra.Command {
	var (
		keyword         string
		downloadUnknown bool
		concurrency     int
	)

	cmd := &cobra.Command{
		Use:   "harvest [dataset-id...]",
		Short: "Download and normalize the resources of catalog datasets",
		Long: "Harvest every dataset in the catalog, the datasets whose title contains --keyword, " +
			"or the dataset IDs given as arguments.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, cleanup, err := setup(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			policy, err := loadPolicy(a.cfg.Formats.PolicyPath, registry.FormatPolicyData{
				Allow:     a.cfg.Formats.Allow,
				Container: a.cfg.Formats.Container,
				Deny:      a.cfg.Formats.Deny,
			})
			if err != nil {
				return err
			}

			h := harvester.New(harvester.Config{
				RootPath:          a.cfg.Storage.RootPath,
				InlineMaxBytes:    a.cfg.Storage.InlineMaxBytes,
				DetailURLTemplate: a.cfg.Harvest.DetailURLTemplate,
				Concurrency:       a.cfg.Harvest.Concurrency,
				ProgressEvery:     a.cfg.Harvest.ProgressEvery,
			},
				a.store,
				a.http,
				downloader.NewDownloader(a.http, a.fs),
				converter.NewDefaultRegistry(a.json),
				policy,
				a.publisher,
				a.clock,
			)

			summary, err := h.Run(ctx, harvester.RunOptions{
				DatasetIDs:      args,
				Keyword:         keyword,
				DownloadUnknown: downloadUnknown,
				Concurrency:     concurrency,
			})
			if summary != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "datasets=%d processed=%d skipped=%d failed=%d\n",
					summary.Datasets, summary.Processed, summary.Skipped, summary.Failed)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "Only harvest datasets whose title contains this keyword")
	cmd.Flags().BoolVar(&downloadUnknown, "download-unknown", false, "Also fetch resources with blank or unlisted formats")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of datasets harvested at once (defaults to harvest.concurrency)")
	return cmd
}

func loadPolicy(path string, lists registry.FormatPolicyData) (registry.FormatPolicy, error) {
	if path == "" {
		return registry.NewFormatPolicy(lists), nil
	}
	policy, err := registry.LoadFormatPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load format policy: %w", err)
	}
	return policy, nil
}
