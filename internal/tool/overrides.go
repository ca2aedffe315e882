// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/autobericht/bericht-mcp/internal/report"
	"github.com/autobericht/bericht-mcp/internal/spider"
)

// MetadataNormalizeOverrides describes the normalize_overrides tool.
var MetadataNormalizeOverrides = &mcp.Tool{
	Name: "normalize_overrides",
	Description: "Normalize spider overrides as stored by the editor. " +
		"The use flags become booleans by truthiness; values become a finite number or null. " +
		"Normalizing an already normalized map returns it unchanged.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"overrides"},
		"properties": map[string]interface{}{
			"overrides": overridesSchema,
		},
	},
	OutputSchema: objectSchema,
}

// InputNormalizeOverrides is the input for the NormalizeOverrides tool.
type InputNormalizeOverrides struct {
	Overrides map[string]spider.RawOverride `json:"overrides"`
}

// OutputNormalizeOverrides is the output for the NormalizeOverrides tool.
type OutputNormalizeOverrides struct {
	Overrides spider.Overrides `json:"overrides"`
}

// NormalizeOverrides coerces raw override entries.
func (t *Toolset) NormalizeOverrides(_ context.Context, _ *mcp.CallToolRequest, input InputNormalizeOverrides) (*mcp.CallToolResult, OutputNormalizeOverrides, error) {
	return nil, OutputNormalizeOverrides{Overrides: spider.NormalizeOverrides(rawOverrides(input.Overrides))}, nil
}

// MetadataApplyOverrides describes the apply_overrides tool.
var MetadataApplyOverrides = &mcp.Tool{
	Name: "apply_overrides",
	Description: "Apply spider overrides to a list of chapter scores. " +
		"A company or consultant value is replaced only when its use flag is set and the " +
		"override holds a finite number. The input rows are not modified.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"rows"},
		"properties": map[string]interface{}{
			"rows": map[string]interface{}{
				"type":        "array",
				"description": "Chapter scores: {id, label, weightSum, company, consultant}",
				"items":       map[string]interface{}{"type": "object"},
			},
			"overrides": overridesSchema,
		},
	},
	OutputSchema: objectSchema,
}

// InputApplyOverrides is the input for the ApplyOverrides tool.
type InputApplyOverrides struct {
	Rows      []spider.ChapterScore         `json:"rows"`
	Overrides map[string]spider.RawOverride `json:"overrides"`
}

// OutputApplyOverrides is the output for the ApplyOverrides tool.
type OutputApplyOverrides struct {
	Rows []spider.ChapterScore `json:"rows"`
}

// ApplyOverrides normalizes the overrides and applies them to rows.
func (t *Toolset) ApplyOverrides(_ context.Context, _ *mcp.CallToolRequest, input InputApplyOverrides) (*mcp.CallToolResult, OutputApplyOverrides, error) {
	overrides := spider.NormalizeOverrides(rawOverrides(input.Overrides))
	return nil, OutputApplyOverrides{Rows: spider.ApplyOverrides(input.Rows, overrides)}, nil
}

// MetadataMoveRow describes the move_row tool.
var MetadataMoveRow = &mcp.Tool{
	Name: "move_row",
	Description: "Move a row one or more places up (negative delta) or down (positive delta) " +
		"in a chapter's stored row order by swapping it with the row delta places away. " +
		"Returns the new order; moved is false and the order unchanged when the row is unknown or the move would leave the list.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"order", "row_id", "delta"},
		"properties": map[string]interface{}{
			"order": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Current row ids in display order (meta.order)",
			},
			"row_id": map[string]interface{}{
				"type":        "string",
				"description": "Id of the row to move",
			},
			"delta": map[string]interface{}{
				"type":        "integer",
				"description": "Number of places to move",
			},
		},
	},
	OutputSchema: objectSchema,
}

// InputMoveRow is the input for the MoveRow tool.
type InputMoveRow struct {
	Order []string `json:"order"`
	RowID string   `json:"row_id"`
	Delta int      `json:"delta"`
}

// OutputMoveRow is the output for the MoveRow tool.
type OutputMoveRow struct {
	Order []string `json:"order"`
	Moved bool     `json:"moved"`
}

// MoveRow reorders a chapter's rows.
func (t *Toolset) MoveRow(_ context.Context, _ *mcp.CallToolRequest, input InputMoveRow) (*mcp.CallToolResult, OutputMoveRow, error) {
	if input.RowID == "" {
		return nil, OutputMoveRow{}, fmt.Errorf("row_id is required")
	}
	order := make([]report.ID, len(input.Order))
	for i, id := range input.Order {
		order[i] = report.ID(id)
	}
	moved, ok := report.MoveRow(order, report.ID(input.RowID), input.Delta)
	out := OutputMoveRow{Order: make([]string, len(moved)), Moved: ok}
	for i, id := range moved {
		out.Order[i] = string(id)
	}
	return nil, out, nil
}
