// Package ordering keeps ordered collections dense (sequences 0..n-1) across
// moves, inserts and removals, and persists the resulting order.
//
// The functions in this file are pure: they never modify the slice they are
// given and always return a renumbered copy when something changed.
package ordering

import (
	"sort"

	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
)

// Move removes the item at from and re-inserts it at to, then renumbers.
// Out-of-range indices and from == to leave the collection unchanged and
// report false.
func Move(items []domain.OrderedItem, from, to int) ([]domain.OrderedItem, bool) {
	n := len(items)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return items, false
	}

	out := make([]domain.OrderedItem, 0, n)
	moved := items[from]
	for i, item := range items {
		if i == from {
			continue
		}
		if len(out) == to {
			out = append(out, moved)
		}
		out = append(out, item)
	}
	if len(out) < n {
		out = append(out, moved)
	}
	return Renumber(out), true
}

// InsertAppend appends item with Sequence = len(items).
func InsertAppend(items []domain.OrderedItem, item domain.OrderedItem) []domain.OrderedItem {
	item.Sequence = len(items)
	out := make([]domain.OrderedItem, len(items), len(items)+1)
	copy(out, items)
	return append(out, item)
}

// Remove drops the item with the given id and closes the gap. A missing id
// leaves the collection unchanged and reports false.
func Remove(items []domain.OrderedItem, id string) ([]domain.OrderedItem, bool) {
	idx := indexOf(items, id)
	if idx < 0 {
		return items, false
	}
	out := make([]domain.OrderedItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	return Renumber(out), true
}

// Reorder arranges items in the order given by ids, which must be a
// permutation of the current ids.
func Reorder(items []domain.OrderedItem, ids []string) ([]domain.OrderedItem, error) {
	if len(ids) != len(items) {
		return nil, apperr.Newf(apperr.CodeValidation, "expected %d ids, got %d", len(items), len(ids))
	}
	byID := make(map[string]domain.OrderedItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	out := make([]domain.OrderedItem, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, apperr.Newf(apperr.CodeValidation, "id %q is not in the collection or is repeated", id)
		}
		delete(byID, id)
		out = append(out, item)
	}
	return Renumber(out), nil
}

// Renumber returns a copy with every Sequence set to its index.
func Renumber(items []domain.OrderedItem) []domain.OrderedItem {
	out := make([]domain.OrderedItem, len(items))
	for i, item := range items {
		item.Sequence = i
		out[i] = item
	}
	return out
}

// Normalize sorts by Sequence, keeping fetch order for ties, and renumbers.
func Normalize(items []domain.OrderedItem) []domain.OrderedItem {
	out := make([]domain.OrderedItem, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Sequence < out[j].Sequence
	})
	return Renumber(out)
}

// IsDense reports whether the items, in slice order, carry sequences 0..n-1.
func IsDense(items []domain.OrderedItem) bool {
	for i, item := range items {
		if item.Sequence != i {
			return false
		}
	}
	return true
}

// Updates returns the full {id, sequence} set for a batch write.
func Updates(items []domain.OrderedItem) []domain.SequenceUpdate {
	updates := make([]domain.SequenceUpdate, len(items))
	for i, item := range items {
		updates[i] = domain.SequenceUpdate{ID: item.ID, Sequence: item.Sequence}
	}
	return updates
}

func indexOf(items []domain.OrderedItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
