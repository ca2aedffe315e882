// SPDX-License-Identifier: Apache-2.0

package report

import (
	"strconv"
	"strings"
)

// OrderRows returns the chapter's rows in display order. Without a custom
// order the document order is kept. With one, section rows come first,
// followed by the findings listed in meta.order and then every remaining
// finding in document order. The input is not modified.
func OrderRows(chapter Chapter) []Row {
	rows := make([]Row, len(chapter.Rows))
	copy(rows, chapter.Rows)
	if chapter.Meta == nil || len(chapter.Meta.Order) == 0 {
		return rows
	}

	var sections []Row
	var items []int
	for i, row := range rows {
		if IsSectionRow(row) {
			sections = append(sections, row)
			continue
		}
		items = append(items, i)
	}

	byID := make(map[string]int, len(items))
	for _, i := range items {
		byID[rows[i].ID.Trim()] = i
	}

	used := make(map[int]bool, len(items))
	ordered := make([]Row, 0, len(rows))
	ordered = append(ordered, sections...)
	for _, id := range chapter.Meta.Order {
		i, ok := byID[id.Trim()]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		ordered = append(ordered, rows[i])
	}
	for _, i := range items {
		if !used[i] {
			ordered = append(ordered, rows[i])
		}
	}
	return ordered
}

// MoveRow returns a copy of order with rowID swapped with its neighbour
// delta positions away. ok is false when rowID is unknown or the move
// would leave the list.
func MoveRow(order []ID, rowID ID, delta int) ([]ID, bool) {
	index := -1
	for i, id := range order {
		if id == rowID {
			index = i
			break
		}
	}
	if index == -1 {
		return order, false
	}
	next := index + delta
	if next < 0 || next >= len(order) {
		return order, false
	}
	out := make([]ID, len(order))
	copy(out, order)
	out[index], out[next] = out[next], out[index]
	return out, true
}

// CompareIDs orders dotted ids segment by segment, numerically where both
// segments are numbers. A shorter id sorts before its extensions.
func CompareIDs(a, b string) int {
	aParts := strings.Split(a, ".")
	bParts := strings.Split(b, ".")
	for i := 0; i < len(aParts) || i < len(bParts); i++ {
		if i >= len(aParts) {
			return -1
		}
		if i >= len(bParts) {
			return 1
		}
		aNum, aErr := strconv.ParseFloat(strings.TrimSpace(aParts[i]), 64)
		bNum, bErr := strconv.ParseFloat(strings.TrimSpace(bParts[i]), 64)
		if aErr == nil && bErr == nil {
			switch {
			case aNum < bNum:
				return -1
			case aNum > bNum:
				return 1
			}
			continue
		}
		if c := strings.Compare(aParts[i], bParts[i]); c != 0 {
			return c
		}
	}
	return 0
}
