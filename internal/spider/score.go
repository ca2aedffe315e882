// SPDX-License-Identifier: Apache-2.0

package spider

import (
	"fmt"
	"math"
	"strings"

	"github.com/autobericht/bericht-mcp/internal/report"
)

const (
	// DefaultLang is the language used for chapter labels.
	DefaultLang = "de"

	fieldObservationType   = "field_observation"
	fieldObservationPrefix = "4.8"
)

// ScoreOptions tunes ComputeScores.
type ScoreOptions struct {
	// Lang selects the chapter title translation used in labels.
	Lang string
}

func (o ScoreOptions) lang() string {
	if o.Lang == "" {
		return DefaultLang
	}
	return o.Lang
}

// tally accumulates weighted scores of one chapter.
type tally struct {
	weight     float64
	company    float64
	consultant float64
	label      string
}

// ComputeScores computes weighted company and consultant percentages per
// chapter. Rows without a weight entry, section rows and field
// observations do not contribute.
func ComputeScores(project report.Project, table WeightsTable, opts ScoreOptions) (Scores, error) {
	if table.Items == nil {
		return Scores{}, fmt.Errorf("%w: weights table has no items list", ErrInvalidInput)
	}

	weights := make(map[string]float64, len(table.Items))
	for _, item := range table.Items {
		weights[item.ID.Trim()] = weightOf(item)
	}

	totals := make(map[string]*tally)
	for _, chapter := range project.Chapters {
		for _, row := range chapter.Rows {
			if !isScored(row) {
				continue
			}
			id := row.ID.Trim()
			weight := weights[id]
			if weight == 0 {
				continue
			}
			chapterID := chapterOf(id)
			acc, ok := totals[chapterID]
			if !ok {
				acc = &tally{}
				totals[chapterID] = acc
			}
			acc.weight += weight
			acc.company += weight * CompanyPercent(row)
			acc.consultant += weight * ConsultantPercent(row)
			if acc.label == "" {
				acc.label = chapterLabel(row, chapter, chapterID, opts.lang())
			}
		}
	}

	chapters := DeriveChapters(table)
	listed := make(map[string]bool, len(chapters))
	for _, ch := range chapters {
		listed[string(ch.ID)] = true
	}
	for _, id := range sortedIDs(totals) {
		if !listed[id] {
			chapters = append(chapters, defaultChapter(id, totals[id].weight))
		}
	}

	build := func(include func(WeightChapter) bool) []ChapterScore {
		out := make([]ChapterScore, 0, len(chapters))
		for _, ch := range chapters {
			if include(ch) {
				out = append(out, scoreChapter(ch, totals[string(ch.ID)]))
			}
		}
		return out
	}

	return Scores{
		Chapters11: build(func(ch WeightChapter) bool { return ch.IncludeIn11 == nil || *ch.IncludeIn11 }),
		Chapters14: build(func(ch WeightChapter) bool { return ch.IncludeIn14 == nil || *ch.IncludeIn14 }),
	}, nil
}

func scoreChapter(ch WeightChapter, acc *tally) ChapterScore {
	if acc == nil {
		acc = &tally{}
	}
	denom := acc.weight
	if denom == 0 && ch.WeightSum.Valid {
		denom = ch.WeightSum.Value
	}
	var company, consultant float64
	if denom != 0 {
		company = acc.company / denom
		consultant = acc.consultant / denom
	}
	label := acc.label
	if label == "" {
		label = string(ch.ID)
	}
	return ChapterScore{
		ID:         string(ch.ID),
		Label:      label,
		WeightSum:  denom,
		Company:    RoundToFive(company),
		Consultant: RoundToFive(consultant),
	}
}

// isScored excludes section rows and field observations, which never
// carry a weight.
func isScored(row report.Row) bool {
	if report.IsSectionRow(row) {
		return false
	}
	if row.Type == fieldObservationType {
		return false
	}
	return !strings.HasPrefix(row.ID.Trim(), fieldObservationPrefix)
}

func weightOf(item WeightItem) float64 {
	if !item.Weight.Valid {
		return 0
	}
	return item.Weight.Value
}

func chapterLabel(row report.Row, chapter report.Chapter, chapterID, lang string) string {
	if label := strings.TrimSpace(string(row.SectionLabel)); label != "" {
		return label
	}
	if title := chapter.Title.Resolve(lang); title != "" {
		return chapterID + ". " + title
	}
	return chapterID
}

// ConsultantPercent maps the assessed level 1-4 to 0-75%. A finding the
// consultant excluded counts as fully compliant.
func ConsultantPercent(row report.Row) float64 {
	level := 1.0
	if ws := row.Workstate; ws != nil {
		if ws.IncludeFinding != nil && !*ws.IncludeFinding {
			return 100
		}
		if ws.SelectedLevel.Valid && ws.SelectedLevel.Value != 0 {
			level = ws.SelectedLevel.Value
		}
	}
	return clampPercent((level - 1) * 25)
}

// CompanyPercent returns the client's self-assessment as 0 or 100, or the
// share of positive sub-item answers when the main answer is missing.
func CompanyPercent(row report.Row) float64 {
	if row.Customer == nil {
		return 0
	}
	if v, ok := binaryAnswer(row.Customer.Answer, true); ok {
		return v * 100
	}
	var total, count float64
	for _, item := range row.Customer.Items {
		if v, ok := binaryAnswer(item.Answer, false); ok {
			total += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / count * 100
}

// binaryAnswer recognizes 0, 1, "0" and "1", and booleans when allowBool.
func binaryAnswer(v any, allowBool bool) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if x == 0 || x == 1 {
			return x, true
		}
	case int:
		if x == 0 || x == 1 {
			return float64(x), true
		}
	case string:
		switch x {
		case "0":
			return 0, true
		case "1":
			return 1, true
		}
	case bool:
		if !allowBool {
			return 0, false
		}
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// RoundToFive rounds v to the nearest multiple of 5 within [0,100].
func RoundToFive(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return clampPercent(math.Floor(v/5+0.5) * 5)
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}
