// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/report"
)

// MetadataAssembleChapter describes the assemble_chapter tool.
var MetadataAssembleChapter = &mcp.Tool{
	Name: "assemble_chapter",
	Description: "Assemble the final report rows of a project. " +
		"Returns, per chapter, an ordered list of section headers and findings with display ids " +
		"renumbered without gaps, resolved finding and recommendation text and a priority label. " +
		"Only report-ready findings are included; a section header appears only when one of its " +
		"findings does. Chapters with a dotted id (such as 4.8) are numbered flat.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "project_sidecar.json content, or a bare project document with a chapters list",
			},
			"chapter_id": map[string]interface{}{
				"type":        "string",
				"description": "Assemble only this chapter. If omitted, every chapter is assembled.",
			},
			"lang": map[string]interface{}{
				"type":        "string",
				"description": "Language for chapter titles. Defaults to the server setting.",
			},
			"kind": map[string]interface{}{
				"type":        "string",
				"description": "Numbering kind. auto infers it from the chapter id.",
				"enum":        []string{"auto", "structured", "flat"},
			},
			"title_chapters": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Chapters whose findings show their title override. Defaults to the server setting.",
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifier for the document (file path, URL, etc.) used in error messages.",
			},
		},
	},
	OutputSchema: objectSchema,
}

// InputAssembleChapter is the input for the AssembleChapter tool.
type InputAssembleChapter struct {
	Content       string   `json:"content"`
	ChapterID     string   `json:"chapter_id"`
	Lang          string   `json:"lang"`
	Kind          string   `json:"kind"`
	TitleChapters []string `json:"title_chapters"`
	SourceID      string   `json:"source_id"`
}

// OutputAssembleChapter is the output for the AssembleChapter tool.
type OutputAssembleChapter struct {
	// Chapters holds the assembled rows per chapter, in document order.
	Chapters []report.ChapterView `json:"chapters"`
	// TotalFindings counts finding rows across all chapters.
	TotalFindings int `json:"total_findings"`
}

// AssembleChapter assembles one chapter, or all of them, from a project
// document.
func (t *Toolset) AssembleChapter(ctx context.Context, _ *mcp.CallToolRequest, input InputAssembleChapter) (*mcp.CallToolResult, OutputAssembleChapter, error) {
	_, project, err := t.parseDocument(input.Content, input.SourceID)
	if err != nil {
		return nil, OutputAssembleChapter{}, err
	}

	opts := t.opts.ReportOptions()
	if input.Kind != "" {
		kind, ok := report.ParseChapterKind(input.Kind)
		if !ok {
			return nil, OutputAssembleChapter{}, fmt.Errorf("unknown numbering kind %q", input.Kind)
		}
		opts.Kind = kind
	}
	if input.TitleChapters != nil {
		opts.TitleChapters = input.TitleChapters
	}
	lang := t.lang(input.Lang)

	var views []report.ChapterView
	if input.ChapterID != "" {
		chapter, ok := report.FindChapter(project, input.ChapterID)
		if !ok {
			return nil, OutputAssembleChapter{}, fmt.Errorf("chapter %q not found", input.ChapterID)
		}
		views = []report.ChapterView{{
			ID:    chapter.ID.Trim(),
			Title: chapter.Title.Resolve(lang),
			Nodes: report.AssembleChapter(chapter, opts),
		}}
	} else {
		views, err = report.AssembleProject(ctx, project, lang, opts)
		if err != nil {
			return nil, OutputAssembleChapter{}, err
		}
	}

	out := OutputAssembleChapter{Chapters: views}
	for _, view := range views {
		for _, node := range view.Nodes {
			if node.Kind == report.NodeFinding {
				out.TotalFindings++
			}
		}
	}
	t.logger.Debug("chapters assembled",
		zap.Int("chapters", len(views)),
		zap.Int("findings", out.TotalFindings))
	return nil, out, nil
}
