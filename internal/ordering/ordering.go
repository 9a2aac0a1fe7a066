// Package ordering computes the position changes needed to keep a collection
// densely numbered (0..n-1) when one element is inserted, removed or moved.
//
// Every function works on rank order (position, then id) rather than on raw
// position arithmetic, so a collection that already has gaps comes back dense
// after a single pass.
package ordering

import (
	"cmp"
	"slices"
)

// Append requests an insertion after the last element.
const Append = -1

// Item is one element of an ordered collection.
type Item struct {
	ID       int64
	Position int
}

// Shift records a position change for a single element.
type Shift struct {
	ID   int64
	From int
	To   int
}

// Insert computes the shifts needed to insert a new element before index p.
// p == Append or p > len(items) appends. It returns the position the new
// element receives together with the shifts for the existing elements.
func Insert(items []Item, p int) (int, []Shift) {
	order := ranked(items)
	if p < 0 || p > len(order) {
		p = len(order)
	}

	shifts := []Shift{}
	for i, it := range order {
		want := i
		if i >= p {
			want = i + 1
		}
		if it.Position != want {
			shifts = append(shifts, Shift{ID: it.ID, From: it.Position, To: want})
		}
	}
	return p, shifts
}

// Remove computes the shifts that close the hole left by element id. The
// removed element itself is not part of the result.
func Remove(items []Item, id int64) []Shift {
	order := ranked(items)
	rest := order[:0]
	for _, it := range order {
		if it.ID != id {
			rest = append(rest, it)
		}
	}
	return renumber(rest)
}

// Move computes the shifts for moving element id to index to within the same
// collection. The result includes the moved element when its position changes.
// ok is false when id is not part of items.
func Move(items []Item, id int64, to int) (pos int, shifts []Shift, ok bool) {
	order := ranked(items)
	idx := slices.IndexFunc(order, func(it Item) bool { return it.ID == id })
	if idx < 0 {
		return 0, nil, false
	}

	moved := order[idx]
	rest := slices.Delete(slices.Clone(order), idx, idx+1)
	if to < 0 || to > len(rest) {
		to = len(rest)
	}
	next := slices.Insert(rest, to, moved)
	return to, renumber(next), true
}

// Normalize returns the shifts that renumber items densely in rank order.
func Normalize(items []Item) []Shift {
	return renumber(ranked(items))
}

// IsDense reports whether positions is a permutation of 0..len-1.
func IsDense(positions []int) bool {
	seen := make([]bool, len(positions))
	for _, p := range positions {
		if p < 0 || p >= len(positions) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

func ranked(items []Item) []Item {
	order := slices.Clone(items)
	slices.SortStableFunc(order, func(a, b Item) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return order
}

func renumber(order []Item) []Shift {
	shifts := []Shift{}
	for i, it := range order {
		if it.Position != i {
			shifts = append(shifts, Shift{ID: it.ID, From: it.Position, To: i})
		}
	}
	return shifts
}
