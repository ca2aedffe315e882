// SPDX-License-Identifier: Apache-2.0

package spider

import (
	"sort"
	"strconv"
	"strings"

	"github.com/autobericht/bericht-mcp/internal/report"
)

// Highest chapter numbers shown in the two chart views.
const (
	view11Limit = 11
	view14Limit = 14
)

// chapterOf returns the scoring chapter of a finding id: its first segment.
func chapterOf(id string) string {
	head, _, _ := strings.Cut(id, ".")
	return head
}

func boolPtr(b bool) *bool { return &b }

// defaultChapter builds the chapter entry used when the table does not
// list one: the view flags follow the chapter number.
func defaultChapter(id string, weightSum float64) WeightChapter {
	n, err := strconv.ParseFloat(id, 64)
	numeric := err == nil
	return WeightChapter{
		ID:          report.ID(id),
		IncludeIn11: boolPtr(numeric && n <= view11Limit),
		IncludeIn14: boolPtr(numeric && n <= view14Limit),
		WeightSum:   report.NumberOf(weightSum),
	}
}

// DeriveChapters returns the table's chapter list, or one derived from the
// items (weights summed per chapter) when the list is empty.
func DeriveChapters(table WeightsTable) []WeightChapter {
	if len(table.Chapters) > 0 {
		out := make([]WeightChapter, len(table.Chapters))
		copy(out, table.Chapters)
		for i := range out {
			out[i].ID = report.ID(out[i].ID.Trim())
		}
		return out
	}
	sums := make(map[string]float64)
	for _, item := range table.Items {
		sums[chapterOf(item.ID.Trim())] += weightOf(item)
	}
	out := make([]WeightChapter, 0, len(sums))
	for _, id := range sortedIDs(sums) {
		out = append(out, defaultChapter(id, sums[id]))
	}
	return out
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.SliceStable(ids, func(i, j int) bool {
		if c := report.CompareIDs(ids[i], ids[j]); c != 0 {
			return c < 0
		}
		return ids[i] < ids[j]
	})
	return ids
}
