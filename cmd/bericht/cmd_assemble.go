// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/report"
	"github.com/autobericht/bericht-mcp/internal/sidecar"
)

func newAssembleCmd(a *app) *cobra.Command {
	var chapterID string
	cmd := &cobra.Command{
		Use:   "assemble [project-dir|file]",
		Short: "Print the assembled report rows of a project",
		Long: `Assemble reads project_sidecar.json (or a bare project document) and prints,
per chapter, the section headers and report-ready findings with their final
display ids.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _, err := resolveInput(args)
			if err != nil {
				return err
			}
			project, err := loadProject(a, file)
			if err != nil {
				return err
			}

			opts := a.opts.ReportOptions()
			var views []report.ChapterView
			if chapterID != "" {
				chapter, ok := report.FindChapter(project, chapterID)
				if !ok {
					return fmt.Errorf("chapter %q not found in %s", chapterID, file)
				}
				views = []report.ChapterView{{
					ID:    chapter.ID.Trim(),
					Title: chapter.Title.Resolve(a.opts.Lang),
					Nodes: report.AssembleChapter(chapter, opts),
				}}
			} else if views, err = report.AssembleProject(cmd.Context(), project, a.opts.Lang, opts); err != nil {
				return err
			}
			a.logger.Debug("chapters assembled", zap.String("file", file), zap.Int("chapters", len(views)))
			return a.writeOutput(cmd.OutOrStdout(), views)
		},
	}
	cmd.Flags().StringVar(&chapterID, "chapter", "", "Assemble only this chapter")
	return cmd
}

func loadProject(a *app, file string) (report.Project, error) {
	store, err := sidecar.NewStore(file, a.logger)
	if err != nil {
		return report.Project{}, err
	}
	doc, err := store.Load()
	if err != nil {
		return report.Project{}, err
	}
	return doc.Project()
}
