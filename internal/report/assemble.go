// SPDX-License-Identifier: Apache-2.0

package report

import (
	"encoding/json"
	"strings"
)

// Node kinds emitted by AssembleChapter.
const (
	NodeSection = "section"
	NodeFinding = "finding"
)

// Node is one entry of an assembled chapter: a section header or a finding.
type Node struct {
	Kind           string
	ID             string
	Title          string
	Finding        string
	Recommendation string
	Priority       string
}

type sectionNode struct {
	Kind  string `json:"kind"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

type findingNode struct {
	Kind           string `json:"kind"`
	ID             string `json:"id"`
	Title          string `json:"title"`
	Finding        string `json:"finding"`
	Recommendation string `json:"recommendation"`
	Priority       string `json:"priority"`
}

// MarshalJSON writes section nodes without the finding-only fields.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.Kind == NodeSection {
		return json.Marshal(sectionNode{Kind: n.Kind, ID: n.ID, Title: n.Title})
	}
	return json.Marshal(findingNode(n))
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var f findingNode
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*n = Node(f)
	return nil
}

// Options tunes AssembleChapter. The zero value assembles report-ready
// findings in stored order with empty finding titles.
type Options struct {
	// Rows replaces the chapter's rows; they are used in the given order.
	Rows []Row
	// IncludeRow decides which findings are emitted. Defaults to IsReportReady.
	IncludeRow func(Row) bool
	// TitleForFinding overrides the finding title. When nil, findings of
	// chapters listed in TitleChapters show their titleOverride.
	TitleForFinding func(row Row, chapterID string) string
	TitleChapters   []string
	// ToText post-processes finding and recommendation text.
	ToText func(string) string
	// Kind forces flat or structured numbering.
	Kind ChapterKind
}

func (o Options) includeRow() func(Row) bool {
	if o.IncludeRow != nil {
		return o.IncludeRow
	}
	return IsReportReady
}

func (o Options) titleFor(row Row, chapterID string) string {
	if o.TitleForFinding != nil {
		return o.TitleForFinding(row, chapterID)
	}
	for _, id := range o.TitleChapters {
		if strings.TrimSpace(id) == chapterID {
			return strings.TrimSpace(string(row.TitleOverride))
		}
	}
	return ""
}

func (o Options) text(s string) string {
	if o.ToText == nil {
		return s
	}
	return o.ToText(s)
}

// AssembleChapter builds the final ordered list of section headers and
// findings for one chapter. A section header is emitted only when at least
// one included finding names it as its sectionId.
func AssembleChapter(chapter Chapter, opts Options) []Node {
	chapterID := chapter.ID.Trim()
	include := opts.includeRow()

	var rows []Row
	if opts.Rows != nil {
		rows = make([]Row, len(opts.Rows))
		copy(rows, opts.Rows)
	} else {
		rows = OrderRows(chapter)
	}

	included := includedSections(rows, include)
	numbering := Renumber(rows, chapterID, opts.Kind, include)

	nodes := make([]Node, 0, len(rows))
	for _, row := range rows {
		if IsSectionRow(row) {
			sectionID := row.ID.Trim()
			if sectionID == "" || !included[sectionID] {
				continue
			}
			nodes = append(nodes, Node{
				Kind:  NodeSection,
				ID:    numbering.SectionDisplayID(sectionID, chapterID),
				Title: ResolveSectionTitle(row),
			})
			continue
		}
		if !include(row) {
			continue
		}
		rowID := row.ID.Trim()
		if rowID == "" {
			continue
		}
		id, ok := numbering.Rows[rowID]
		if !ok {
			id = rowID
		}
		nodes = append(nodes, Node{
			Kind:           NodeFinding,
			ID:             id,
			Title:          opts.titleFor(row, chapterID),
			Finding:        opts.text(ResolveFindingText(row)),
			Recommendation: opts.text(ResolveRecommendationText(row)),
			Priority:       ResolvePriorityText(row),
		})
	}
	return nodes
}

// includedSections collects the explicit sectionIds of included findings.
func includedSections(rows []Row, include func(Row) bool) map[string]bool {
	out := make(map[string]bool)
	for _, row := range rows {
		if IsSectionRow(row) || !include(row) {
			continue
		}
		if id := row.SectionID.Trim(); id != "" {
			out[id] = true
		}
	}
	return out
}
