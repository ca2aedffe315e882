// SPDX-License-Identifier: Apache-2.0

package report

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ChapterView is the assembled output of one chapter.
type ChapterView struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Nodes []Node `json:"rows"`
}

// AssembleProject assembles every chapter concurrently and returns the
// views in document order. opts.Rows is ignored; each chapter uses its
// own stored order. Title is resolved in lang.
func AssembleProject(ctx context.Context, project Project, lang string, opts Options) ([]ChapterView, error) {
	opts.Rows = nil
	views := make([]ChapterView, len(project.Chapters))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, chapter := range project.Chapters {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			views[i] = ChapterView{
				ID:    chapter.ID.Trim(),
				Title: chapter.Title.Resolve(lang),
				Nodes: AssembleChapter(chapter, opts),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// FindChapter returns the chapter with the given id.
func FindChapter(project Project, id string) (Chapter, bool) {
	for _, chapter := range project.Chapters {
		if chapter.ID.Trim() == id {
			return chapter, true
		}
	}
	return Chapter{}, false
}
