// SPDX-License-Identifier: Apache-2.0

package report

import "strings"

// KindSection is the row kind of a section header.
const KindSection = "section"

// IsSectionRow reports whether row is a section header.
func IsSectionRow(row Row) bool {
	return strings.EqualFold(strings.TrimSpace(row.Kind), KindSection)
}

// IsReportReady reports whether a finding may appear in the final report.
// Both includeFinding and done must be explicitly true.
func IsReportReady(row Row) bool {
	ws := row.Workstate
	if ws == nil || ws.IncludeFinding == nil {
		return false
	}
	return *ws.IncludeFinding && ws.Done != nil && *ws.Done
}
