// SPDX-License-Identifier: Apache-2.0

package spider

import (
	"errors"

	"github.com/autobericht/bericht-mcp/internal/report"
)

// ErrInvalidInput is returned when the weights table is unusable.
var ErrInvalidInput = errors.New("invalid input")

// WeightsTable assigns a weight to every scored finding id. Chapters is
// optional and derived from Items when empty.
type WeightsTable struct {
	Items    []WeightItem    `json:"items"`
	Chapters []WeightChapter `json:"chapters,omitempty"`
}

type WeightItem struct {
	ID     report.ID     `json:"id"`
	Weight report.Number `json:"weight"`
}

// WeightChapter configures one spider chapter and the chart views it
// appears in. Nil flags mean "included".
type WeightChapter struct {
	ID          report.ID     `json:"id"`
	IncludeIn11 *bool         `json:"includeIn11,omitempty"`
	IncludeIn14 *bool         `json:"includeIn14,omitempty"`
	WeightSum   report.Number `json:"weightSum"`
}

// ChapterScore is one spoke of the spider chart. Company and Consultant
// are percentages in [0,100]; computed values are multiples of 5.
type ChapterScore struct {
	ID         string  `json:"id"`
	Label      string  `json:"label"`
	WeightSum  float64 `json:"weightSum"`
	Company    float64 `json:"company"`
	Consultant float64 `json:"consultant"`
}

// Scores holds the two chart views: chapters 1-11 and chapters 1-14.
type Scores struct {
	Chapters11 []ChapterScore `json:"chapters_1_11"`
	Chapters14 []ChapterScore `json:"chapters_1_14"`
}

// RawOverride is an override entry as stored by the editor, before
// coercion.
type RawOverride struct {
	UseCompany    any `json:"useCompany,omitempty"`
	UseConsultant any `json:"useConsultant,omitempty"`
	Company       any `json:"company,omitempty"`
	Consultant    any `json:"consultant,omitempty"`
}

// OverrideEntry is a normalized per-chapter manual override.
type OverrideEntry struct {
	UseCompany    bool     `json:"useCompany"`
	UseConsultant bool     `json:"useConsultant"`
	Company       *float64 `json:"company"`
	Consultant    *float64 `json:"consultant"`
}

// Overrides maps chapter id to its override entry.
type Overrides map[string]OverrideEntry
