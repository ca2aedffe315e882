// SPDX-License-Identifier: Apache-2.0

package spider

import (
	"math"

	"github.com/autobericht/bericht-mcp/internal/report"
)

// NormalizeOverrides coerces stored override entries: flags by truthiness,
// values to a finite number or nil. Normalizing twice yields the same map.
func NormalizeOverrides(raw map[string]RawOverride) Overrides {
	out := make(Overrides, len(raw))
	for id, val := range raw {
		out[id] = OverrideEntry{
			UseCompany:    truthy(val.UseCompany),
			UseConsultant: truthy(val.UseConsultant),
			Company:       finite(val.Company),
			Consultant:    finite(val.Consultant),
		}
	}
	return out
}

// Raw converts normalized overrides back into their stored form.
func (o Overrides) Raw() map[string]RawOverride {
	out := make(map[string]RawOverride, len(o))
	for id, entry := range o {
		raw := RawOverride{UseCompany: entry.UseCompany, UseConsultant: entry.UseConsultant}
		if entry.Company != nil {
			raw.Company = *entry.Company
		}
		if entry.Consultant != nil {
			raw.Consultant = *entry.Consultant
		}
		out[id] = raw
	}
	return out
}

// ApplyOverrides returns a copy of rows where each dimension is replaced by
// its override when that override is switched on and holds a finite value.
func ApplyOverrides(rows []ChapterScore, overrides Overrides) []ChapterScore {
	out := make([]ChapterScore, len(rows))
	for i, row := range rows {
		ov := overrides[row.ID]
		if ov.UseCompany && isFinite(ov.Company) {
			row.Company = *ov.Company
		}
		if ov.UseConsultant && isFinite(ov.Consultant) {
			row.Consultant = *ov.Consultant
		}
		out[i] = row
	}
	return out
}

func isFinite(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

func finite(v any) *float64 {
	n := report.ParseNumber(v)
	if !n.Valid {
		return nil
	}
	value := n.Value
	return &value
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case int:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}
