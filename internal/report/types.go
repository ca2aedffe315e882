// SPDX-License-Identifier: Apache-2.0

package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Project is the root report document as stored by the editor.
type Project struct {
	Meta     *ProjectMeta `json:"meta,omitempty"`
	Chapters []Chapter    `json:"chapters"`
}

type ProjectMeta struct {
	Locale  string `json:"locale,omitempty"`
	Company string `json:"company,omitempty"`
}

// Chapter is one numbered chapter of the report. A dotted ID ("4.8")
// marks a field-observation chapter.
type Chapter struct {
	ID    ID            `json:"id"`
	Title LocalizedText `json:"title,omitempty"`
	Rows  []Row         `json:"rows"`
	Meta  *ChapterMeta  `json:"meta,omitempty"`
}

// ChapterMeta carries editor state stored alongside a chapter.
type ChapterMeta struct {
	// Order lists finding row IDs in their custom display order.
	Order []ID `json:"order,omitempty"`
}

// Row is either a section header or a finding. Kind defaults to finding.
type Row struct {
	Kind          string          `json:"kind,omitempty"`
	ID            ID              `json:"id"`
	Type          string          `json:"type,omitempty"`
	SectionID     ID              `json:"sectionId,omitempty"`
	SectionLabel  Text            `json:"sectionLabel,omitempty"`
	Title         Text            `json:"title,omitempty"`
	TitleOverride Text            `json:"titleOverride,omitempty"`
	Master        *Master         `json:"master,omitempty"`
	Workstate     *Workstate      `json:"workstate,omitempty"`
	Customer      *CustomerAnswer `json:"customer,omitempty"`
}

// Master holds the library text a finding was created from.
type Master struct {
	Finding        Text `json:"finding,omitempty"`
	Recommendation Text `json:"recommendation,omitempty"`
}

// Workstate is the consultant's editing state for a finding. Pointer
// fields distinguish "absent" from the zero value.
type Workstate struct {
	IncludeFinding        *bool  `json:"includeFinding,omitempty"`
	Done                  *bool  `json:"done,omitempty"`
	FindingText           *Text  `json:"findingText,omitempty"`
	IncludeRecommendation *bool  `json:"includeRecommendation,omitempty"`
	RecommendationText    *Text  `json:"recommendationText,omitempty"`
	Priority              Number `json:"priority"`
	SelectedLevel         Number `json:"selectedLevel"`
}

// UnmarshalJSON treats a text key that is present but null as set to "".
func (w *Workstate) UnmarshalJSON(b []byte) error {
	type plain Workstate
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return err
	}
	if _, ok := keys["findingText"]; ok && p.FindingText == nil {
		p.FindingText = new(Text)
	}
	if _, ok := keys["recommendationText"]; ok && p.RecommendationText == nil {
		p.RecommendationText = new(Text)
	}
	*w = Workstate(p)
	return nil
}

// CustomerAnswer is the client's binary self-assessment. Answer may be
// 0, 1, true, false, "0" or "1"; anything else counts as unanswered.
type CustomerAnswer struct {
	Answer any            `json:"answer,omitempty"`
	Items  []CustomerItem `json:"items,omitempty"`
}

type CustomerItem struct {
	Answer any `json:"answer,omitempty"`
}

// ID is a row or chapter identifier. Numeric JSON values are accepted
// and kept in their literal form.
type ID string

func (id ID) String() string { return string(id) }

// Trim returns the identifier without surrounding whitespace.
func (id ID) Trim() string { return strings.TrimSpace(string(id)) }

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Text is free text that may be stored as a string, a list of lines or null.
type Text string

func (t Text) String() string { return string(t) }

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*t = Text(textOf(v))
	return nil
}

func textOf(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		lines := make([]string, len(x))
		for i, line := range x {
			lines[i] = textOf(line)
		}
		return strings.Join(lines, "\n")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Number is a loosely typed numeric field. Numeric strings and booleans
// are coerced; null, missing or unparseable values leave it unset.
type Number struct {
	Value float64
	Valid bool
}

// NumberOf returns a set Number.
func NumberOf(v float64) Number {
	return Number{Value: v, Valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

func (n *Number) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*n = ParseNumber(v)
	return nil
}

// ParseNumber coerces a decoded JSON value into a Number.
func ParseNumber(v any) Number {
	switch x := v.(type) {
	case float64:
		return NumberOf(x)
	case int:
		return NumberOf(float64(x))
	case bool:
		if x {
			return NumberOf(1)
		}
		return NumberOf(0)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return Number{}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}
		}
		return NumberOf(f)
	}
	return Number{}
}

// LocalizedText is a chapter title, either a plain string or a map of
// language code to text. A plain string is stored under the empty key.
type LocalizedText map[string]string

// Plain wraps a language-neutral string.
func Plain(s string) LocalizedText {
	return LocalizedText{"": s}
}

// Resolve returns the text for lang, falling back to the plain value.
func (l LocalizedText) Resolve(lang string) string {
	if s := strings.TrimSpace(l[lang]); s != "" {
		return s
	}
	return strings.TrimSpace(l[""])
}

func (l LocalizedText) MarshalJSON() ([]byte, error) {
	if len(l) == 1 {
		if s, ok := l[""]; ok {
			return json.Marshal(s)
		}
	}
	return json.Marshal(map[string]string(l))
}

func (l *LocalizedText) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*l = nil
	case string:
		*l = Plain(x)
	case map[string]any:
		out := make(LocalizedText, len(x))
		for k, val := range x {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		*l = out
	default:
		return fmt.Errorf("title must be a string or an object of translations")
	}
	return nil
}
