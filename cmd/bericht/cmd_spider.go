// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/sidecar"
	"github.com/autobericht/bericht-mcp/internal/spider"
	"github.com/autobericht/bericht-mcp/internal/weights"
)

func newSpiderCmd(a *app) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "spider [project-dir|file]",
		Short: "Compute the spider chart scores of a project",
		Long: `Spider computes the weighted company and consultant score per chapter,
applies the manual overrides stored in the sidecar and prints the result.
With --write the result is stored under "spider" in the sidecar.

The weights table is taken from --weights, then weights.json (or .yaml) in
the project folder, then --bundled-weights, then the built-in default.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, projectDir, err := resolveInput(args)
			if err != nil {
				return err
			}
			store, err := sidecar.NewStore(file, a.logger)
			if err != nil {
				return err
			}
			doc, err := store.Load()
			if err != nil {
				return err
			}
			project, err := doc.Project()
			if err != nil {
				return err
			}
			overrides, err := doc.Overrides()
			if err != nil {
				return err
			}

			provider, err := weights.NewProvider(a.logger, a.opts.WeightSources(projectDir)...)
			if err != nil {
				return err
			}
			table, err := provider.Load(cmd.Context())
			if err != nil {
				return err
			}

			res, err := spider.NewCalculator(a.opts.Lang).Compute(spider.Input{
				Project:       project,
				Weights:       table.Table,
				WeightsSource: table.Source,
				Overrides:     overrides,
			})
			if err != nil {
				return err
			}
			a.logger.Info("spider computed",
				zap.String("file", file),
				zap.String("weights", table.Source),
				zap.Int("chapters", len(res.Baseline.Chapters14)))

			if write {
				if err := store.Save(doc, &res); err != nil {
					return err
				}
			}
			return a.writeOutput(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Store the result in the sidecar")
	return cmd
}
