// SPDX-License-Identifier: Apache-2.0

package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var leadingNumber = regexp.MustCompile(`^\s*\d+(?:\.\d+)*(?:\s|[.:-]\s*)?`)

// StripLeadingNumber removes a dotted numeric prefix such as "4.2 " or
// "3: " from a title. If nothing is left, the original text is returned.
func StripLeadingNumber(text string) string {
	cleaned := strings.TrimSpace(leadingNumber.ReplaceAllString(text, ""))
	if cleaned == "" {
		return text
	}
	return cleaned
}

// ResolveSectionID returns the section a finding belongs to: its explicit
// sectionId, else the first two components of its id, else "<chapter>.1".
func ResolveSectionID(row Row, chapterID string) string {
	if id := row.SectionID.Trim(); id != "" {
		return id
	}
	parts := strings.Split(row.ID.Trim(), ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return chapterID + ".1"
}

// ResolveSectionTitle returns a section header's display title.
func ResolveSectionTitle(row Row) string {
	raw := string(row.Title)
	if raw == "" {
		raw = string(row.ID)
	}
	return StripLeadingNumber(raw)
}

// ResolveFindingText prefers the consultant's text whenever it was set,
// even to the empty string.
func ResolveFindingText(row Row) string {
	if ws := row.Workstate; ws != nil && ws.FindingText != nil {
		return string(*ws.FindingText)
	}
	if row.Master != nil {
		return string(row.Master.Finding)
	}
	return ""
}

// ResolveRecommendationText returns "" when the recommendation was switched
// off, otherwise the consultant's text or the library text.
func ResolveRecommendationText(row Row) string {
	ws := row.Workstate
	if ws != nil {
		if ws.IncludeRecommendation != nil && !*ws.IncludeRecommendation {
			return ""
		}
		if ws.RecommendationText != nil {
			return string(*ws.RecommendationText)
		}
	}
	if row.Master != nil {
		return string(row.Master.Recommendation)
	}
	return ""
}

// ResolvePriorityText returns the rounded priority "1" to "4", or "".
func ResolvePriorityText(row Row) string {
	if row.Workstate == nil || !row.Workstate.Priority.Valid {
		return ""
	}
	value := roundHalfUp(row.Workstate.Priority.Value)
	if value < 1 || value > 4 {
		return ""
	}
	return strconv.Itoa(int(value))
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
