// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/autobericht/bericht-mcp/internal/spider"
	"github.com/autobericht/bericht-mcp/internal/weights"
)

// inlineWeights labels a weights table passed in the tool input.
const inlineWeights = "input/weights"

// MetadataComputeSpider describes the compute_spider tool.
var MetadataComputeSpider = &mcp.Tool{
	Name: "compute_spider",
	Description: "Compute the spider chart scores of a project. " +
		"For every chapter the weighted company and consultant percentages are returned, " +
		"rounded to multiples of 5, in two views: chapters 1-11 and chapters 1-14. " +
		"Manual overrides from the document (or the overrides input) replace individual values " +
		"in the effective scores; the baseline is left untouched. " +
		"The weights table is taken from the weights input, then the project folder, then the bundled default.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "project_sidecar.json content, or a bare project document with a chapters list",
			},
			"weights": map[string]interface{}{
				"type":        "string",
				"description": "Optional weights table (JSON or YAML) with an items list of {id, weight}.",
			},
			"project_dir": map[string]interface{}{
				"type":        "string",
				"description": "Optional project folder searched for weights.json before the bundled default.",
			},
			"overrides": overridesSchema,
			"lang": map[string]interface{}{
				"type":        "string",
				"description": "Language for chapter labels. Defaults to the server setting.",
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifier for the document used in error messages.",
			},
		},
	},
	OutputSchema: objectSchema,
}

// InputComputeSpider is the input for the ComputeSpider tool.
type InputComputeSpider struct {
	Content    string                        `json:"content"`
	Weights    string                        `json:"weights"`
	ProjectDir string                        `json:"project_dir"`
	Overrides  map[string]spider.RawOverride `json:"overrides"`
	Lang       string                        `json:"lang"`
	SourceID   string                        `json:"source_id"`
}

// OutputComputeSpider is the output for the ComputeSpider tool.
type OutputComputeSpider struct {
	// Result is the envelope stored under "spider" in the sidecar.
	Result spider.Result `json:"result"`
	// Scores indexes the effective scores by chapter id.
	Scores map[string]spider.Pair `json:"scores"`
}

// ComputeSpider scores a project document.
func (t *Toolset) ComputeSpider(ctx context.Context, _ *mcp.CallToolRequest, input InputComputeSpider) (*mcp.CallToolResult, OutputComputeSpider, error) {
	doc, project, err := t.parseDocument(input.Content, input.SourceID)
	if err != nil {
		return nil, OutputComputeSpider{}, err
	}

	table, source, err := t.loadWeights(ctx, input)
	if err != nil {
		return nil, OutputComputeSpider{}, err
	}

	overrides := input.Overrides
	if overrides == nil {
		if overrides, err = doc.Overrides(); err != nil {
			return nil, OutputComputeSpider{}, err
		}
	}

	res, err := spider.NewCalculator(t.lang(input.Lang)).WithClock(t.clock).Compute(spider.Input{
		Project:       project,
		Weights:       table,
		WeightsSource: source,
		Overrides:     overrides,
	})
	if err != nil {
		return nil, OutputComputeSpider{}, err
	}
	t.logger.Debug("spider computed",
		zap.String("weights", source),
		zap.Int("chapters", len(res.Baseline.Chapters14)),
		zap.Int("overrides", len(res.Overrides)))

	return nil, OutputComputeSpider{Result: res, Scores: spider.ScoreMap(res)}, nil
}

func (t *Toolset) loadWeights(ctx context.Context, input InputComputeSpider) (spider.WeightsTable, string, error) {
	if input.Weights != "" {
		table, err := weights.Decode(t.validator, inlineWeights, []byte(input.Weights))
		return table, inlineWeights, err
	}
	provider, err := weights.NewProvider(t.logger, t.opts.WeightSources(input.ProjectDir)...)
	if err != nil {
		return spider.WeightsTable{}, "", err
	}
	res, err := provider.Load(ctx)
	if err != nil {
		return spider.WeightsTable{}, "", err
	}
	return res.Table, res.Source, nil
}
