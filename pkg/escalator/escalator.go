// Package escalator defines the fixed set of building escalators, their
// operational statuses, and the user-facing selection syntax used to target
// one or more of them.
package escalator

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// MinFloor and MaxFloor bound the floors served by escalators.
const (
	MinFloor uint8 = 2
	MaxFloor uint8 = 9
)

// Floors identifies one escalator by the floor it starts on and the floor it
// goes to. Floors{4, 2} and Floors{2, 4} are distinct escalators.
type Floors struct {
	Start uint8 `json:"start" cbor:"1,keyasint"`
	End   uint8 `json:"end" cbor:"2,keyasint"`
}

// String renders the escalator in its canonical "4-2" form.
func (f Floors) String() string {
	return fmt.Sprintf("%d-%d", f.Start, f.End)
}

// Inverse returns the escalator running the opposite direction.
func (f Floors) Inverse() Floors {
	return Floors{Start: f.End, End: f.Start}
}

// Compare orders escalators by start floor, then end floor.
func (f Floors) Compare(o Floors) int {
	if c := cmp.Compare(f.Start, o.Start); c != 0 {
		return c
	}
	return cmp.Compare(f.End, o.End)
}

// IsValidEscalator reports whether an escalator can physically exist between
// the two floors: they must be two floors apart, except for the 2/3 pair.
func IsValidEscalator(start, end uint8) bool {
	if start < MinFloor || start > MaxFloor || end < MinFloor || end > MaxFloor {
		return false
	}
	if (start == 2 && end == 3) || (start == 3 && end == 2) {
		return true
	}
	return start+2 == end || end+2 == start
}

// ErrInvalidRegistry is returned by NewRegistry for unusable escalator sets.
var ErrInvalidRegistry = errors.New("invalid escalator registry")

// Registry is the immutable, ordered set of known escalators. Its order is the
// canonical order used for status storage and every rendered listing.
type Registry struct {
	floors []Floors
	index  map[Floors]int
	pairs  []Floors
}

var defaultRegistry = mustDefault()

func mustDefault() *Registry {
	var all []Floors
	for start := MinFloor; start <= MaxFloor; start++ {
		for end := MinFloor; end <= MaxFloor; end++ {
			if IsValidEscalator(start, end) {
				all = append(all, Floors{Start: start, End: end})
			}
		}
	}
	r, err := NewRegistry(all...)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the building's registry: every valid escalator over floors
// 2 through 9, fourteen in total.
func Default() *Registry {
	return defaultRegistry
}

// NewRegistry builds a registry with the escalators in the given order.
func NewRegistry(floors ...Floors) (*Registry, error) {
	if len(floors) == 0 {
		return nil, fmt.Errorf("%w: no escalators", ErrInvalidRegistry)
	}
	r := &Registry{
		floors: make([]Floors, 0, len(floors)),
		index:  make(map[Floors]int, len(floors)),
	}
	for _, f := range floors {
		if !IsValidEscalator(f.Start, f.End) {
			return nil, fmt.Errorf("%w: %s is not a valid escalator", ErrInvalidRegistry, f)
		}
		if _, dup := r.index[f]; dup {
			return nil, fmt.Errorf("%w: duplicate escalator %s", ErrInvalidRegistry, f)
		}
		r.index[f] = len(r.floors)
		r.floors = append(r.floors, f)
	}
	r.pairs = buildPairOrder(r.floors, r.index)
	return r, nil
}

// buildPairOrder walks the registry and places each escalator's inverse
// directly after it.
func buildPairOrder(floors []Floors, index map[Floors]int) []Floors {
	placed := make(map[Floors]bool, len(floors))
	out := make([]Floors, 0, len(floors))
	for _, f := range floors {
		if placed[f] {
			continue
		}
		out = append(out, f)
		placed[f] = true
		inv := f.Inverse()
		if _, ok := index[inv]; ok && !placed[inv] {
			out = append(out, inv)
			placed[inv] = true
		}
	}
	return out
}

// All returns a copy of the escalators in registry order.
func (r *Registry) All() []Floors {
	return slices.Clone(r.floors)
}

// Len returns the number of escalators.
func (r *Registry) Len() int { return len(r.floors) }

// Contains reports whether f is a known escalator.
func (r *Registry) Contains(f Floors) bool {
	_, ok := r.index[f]
	return ok
}

// Index returns the registry position of f.
func (r *Registry) Index(f Floors) (int, bool) {
	i, ok := r.index[f]
	return i, ok
}

// Inverse returns the escalator running opposite to f, if it is registered.
func (r *Registry) Inverse(f Floors) (Floors, bool) {
	inv := f.Inverse()
	return inv, r.Contains(inv)
}

// PairOrder returns the escalators grouped with their inverses, used when
// rendering two escalators per line.
func (r *Registry) PairOrder() []Floors {
	return slices.Clone(r.pairs)
}

// Sort orders floors by registry position; unknown escalators sort last in
// (start, end) order.
func (r *Registry) Sort(floors []Floors) {
	slices.SortStableFunc(floors, func(a, b Floors) int {
		ia, oka := r.index[a]
		ib, okb := r.index[b]
		switch {
		case oka && okb:
			return cmp.Compare(ia, ib)
		case oka:
			return -1
		case okb:
			return 1
		default:
			return a.Compare(b)
		}
	})
}
