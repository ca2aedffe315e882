// SPDX-License-Identifier: Apache-2.0

package spider

import (
	"time"

	"github.com/autobericht/bericht-mcp/internal/report"
)

// SchemaVersion is written into every Result.
const SchemaVersion = "1"

// Result is the spider data stored in the project sidecar: baseline
// scores, the overrides in effect and the resulting effective scores.
type Result struct {
	SchemaVersion string    `json:"schemaVersion"`
	WeightsSource string    `json:"weightsSource"`
	GeneratedAt   time.Time `json:"generatedAt"`
	Overrides     Overrides `json:"overrides"`
	Baseline      Scores    `json:"baseline"`
	Effective     Scores    `json:"effective"`
}

// Input bundles everything Calculator.Compute needs.
type Input struct {
	Project       report.Project
	Weights       WeightsTable
	WeightsSource string
	Overrides     map[string]RawOverride
}

// Calculator produces spider Results.
type Calculator struct {
	opts  ScoreOptions
	clock func() time.Time
}

// NewCalculator creates a Calculator labelling chapters in lang.
func NewCalculator(lang string) *Calculator {
	return &Calculator{
		opts:  ScoreOptions{Lang: lang},
		clock: time.Now,
	}
}

// WithClock overrides the clock for testing.
func (c *Calculator) WithClock(clock func() time.Time) *Calculator {
	c.clock = clock
	return c
}

// Compute runs the aggregation and applies the normalized overrides to
// both chart views.
func (c *Calculator) Compute(in Input) (Result, error) {
	baseline, err := ComputeScores(in.Project, in.Weights, c.opts)
	if err != nil {
		return Result{}, err
	}
	overrides := NormalizeOverrides(in.Overrides)
	return Result{
		SchemaVersion: SchemaVersion,
		WeightsSource: in.WeightsSource,
		GeneratedAt:   c.clock().UTC(),
		Overrides:     overrides,
		Baseline:      baseline,
		Effective: Scores{
			Chapters11: ApplyOverrides(baseline.Chapters11, overrides),
			Chapters14: ApplyOverrides(baseline.Chapters14, overrides),
		},
	}, nil
}

// Pair is the effective score of one chapter.
type Pair struct {
	Company    float64 `json:"company"`
	Consultant float64 `json:"consultant"`
}

// ScoreMap indexes the effective scores by chapter id. Entries of the
// 1-11 view win over the 1-14 view.
func ScoreMap(res Result) map[string]Pair {
	out := make(map[string]Pair)
	for _, rows := range [][]ChapterScore{res.Effective.Chapters14, res.Effective.Chapters11} {
		for _, row := range rows {
			if row.ID == "" {
				continue
			}
			out[row.ID] = Pair{Company: row.Company, Consultant: row.Consultant}
		}
	}
	return out
}
