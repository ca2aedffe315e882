// SPDX-License-Identifier: Apache-2.0

package report

import (
	"strconv"
	"strings"
)

// ChapterKind selects how a chapter's findings are numbered.
type ChapterKind int

const (
	// KindAuto infers the kind from the chapter id: dotted ids are flat.
	KindAuto ChapterKind = iota
	// KindStructured numbers findings per section: "<chapter>.<s>.<c>".
	KindStructured
	// KindFlat numbers findings in one run: "<chapter>.<n>".
	KindFlat
)

func (k ChapterKind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindFlat:
		return "flat"
	default:
		return "auto"
	}
}

// ParseChapterKind maps "flat", "structured" or "auto" (or "") to a kind.
func ParseChapterKind(s string) (ChapterKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return KindAuto, true
	case "flat", "field-observation", "observation":
		return KindFlat, true
	case "structured", "sections":
		return KindStructured, true
	}
	return KindAuto, false
}

// IsFieldObservationChapter reports whether chapterID uses flat numbering
// when no explicit kind is given.
func IsFieldObservationChapter(chapterID string) bool {
	return strings.Contains(chapterID, ".")
}

// Resolve returns the concrete kind for chapterID.
func (k ChapterKind) Resolve(chapterID string) ChapterKind {
	if k != KindAuto {
		return k
	}
	if IsFieldObservationChapter(chapterID) {
		return KindFlat
	}
	return KindStructured
}

// Numbering maps raw ids to display ids for one chapter.
type Numbering struct {
	// Rows maps finding id to its display id.
	Rows map[string]string
	// Sections maps a resolved section id to its 1-based index.
	Sections map[string]int
}

// SectionDisplayID returns "<chapter>.<s>" for numbered sections and the
// raw id for sections no included finding was matched to.
func (n Numbering) SectionDisplayID(sectionID, chapterID string) string {
	key := strings.TrimSpace(sectionID)
	if key == "" {
		return ""
	}
	if idx, ok := n.Sections[key]; ok {
		return chapterID + "." + strconv.Itoa(idx)
	}
	return key
}

// Renumber assigns contiguous display ids to the included findings of rows,
// which must already be in display order. Section rows, excluded findings
// and findings without id are not numbered.
func Renumber(rows []Row, chapterID string, kind ChapterKind, include func(Row) bool) Numbering {
	if include == nil {
		include = IsReportReady
	}
	n := Numbering{
		Rows:     make(map[string]string),
		Sections: make(map[string]int),
	}
	flat := kind.Resolve(chapterID) == KindFlat
	counts := make(map[string]int)
	items := 0

	for _, row := range rows {
		if IsSectionRow(row) || !include(row) {
			continue
		}
		rowID := row.ID.Trim()
		if rowID == "" {
			continue
		}
		if flat {
			items++
			n.Rows[rowID] = chapterID + "." + strconv.Itoa(items)
			continue
		}
		sectionID := ResolveSectionID(row, chapterID)
		if _, ok := n.Sections[sectionID]; !ok {
			n.Sections[sectionID] = len(n.Sections) + 1
		}
		counts[sectionID]++
		n.Rows[rowID] = chapterID + "." + strconv.Itoa(n.Sections[sectionID]) + "." + strconv.Itoa(counts[sectionID])
	}
	return n
}
