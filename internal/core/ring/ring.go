/*
 * file: ring.go
 * package: ring
 * description:
 *     The seating ring: an ordered set of player ids with wrap-around
 *     successor/predecessor queries. Backed by google/btree so insert,
 *     remove, and neighbor lookups stay logarithmic as a match's seat
 *     count grows, instead of a linear scan over a slice.
 */

package ring

import (
	"github.com/google/btree"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

const treeDegree = 8

// ErrEmpty is returned by any neighbor query on an empty ring.
type ErrEmpty struct{}

func (ErrEmpty) Error() string { return "ring: empty" }

// Ring is the seating ring. A Ring is not safe for concurrent use; the
// match coordinator is its sole owner.
type Ring struct {
	tree *btree.BTreeG[domain.PlayerID]
}

func less(a, b domain.PlayerID) bool { return a < b }

// New returns an empty seating ring.
func New() *Ring {
	return &Ring{tree: btree.NewG(treeDegree, less)}
}

// Insert adds id to the ring. Inserting an id already present is a no-op.
func (r *Ring) Insert(id domain.PlayerID) {
	r.tree.ReplaceOrInsert(id)
}

// Remove drops id from the ring. Removing an absent id is a no-op
// (leave notifications are idempotent by construction).
func (r *Ring) Remove(id domain.PlayerID) {
	r.tree.Delete(id)
}

// Contains reports whether id is currently seated.
func (r *Ring) Contains(id domain.PlayerID) bool {
	_, ok := r.tree.Get(id)
	return ok
}

// Len returns the number of seated players.
func (r *Ring) Len() int { return r.tree.Len() }

// Empty reports whether no player is seated.
func (r *Ring) Empty() bool { return r.tree.Len() == 0 }

// Min returns the smallest seated id.
func (r *Ring) Min() (domain.PlayerID, error) {
	v, ok := r.tree.Min()
	if !ok {
		return 0, ErrEmpty{}
	}
	return v, nil
}

// Max returns the largest seated id.
func (r *Ring) Max() (domain.PlayerID, error) {
	v, ok := r.tree.Max()
	if !ok {
		return 0, ErrEmpty{}
	}
	return v, nil
}

// Successor returns the smallest id strictly greater than p, wrapping to
// the minimum if p is the maximum (or absent above everything seated).
func (r *Ring) Successor(p domain.PlayerID) (domain.PlayerID, error) {
	if r.tree.Len() == 0 {
		return 0, ErrEmpty{}
	}
	var found domain.PlayerID
	has := false
	r.tree.AscendGreaterOrEqual(p, func(item domain.PlayerID) bool {
		if item == p {
			return true // keep scanning past the pivot itself
		}
		found, has = item, true
		return false
	})
	if has {
		return found, nil
	}
	return r.tree.Min()
}

// Predecessor returns the largest id strictly less than p, wrapping to the
// maximum if p is the minimum (or absent below everything seated).
func (r *Ring) Predecessor(p domain.PlayerID) (domain.PlayerID, error) {
	if r.tree.Len() == 0 {
		return 0, ErrEmpty{}
	}
	var found domain.PlayerID
	has := false
	r.tree.DescendLessOrEqual(p, func(item domain.PlayerID) bool {
		if item == p {
			return true
		}
		found, has = item, true
		return false
	})
	if has {
		return found, nil
	}
	return r.tree.Max()
}

// Step applies a directional traversal from pivot p per the wire protocol's
// move actions. Stepping an empty ring is a caller error (the coordinator
// guarantees the ring is non-empty whenever a step is requested) and panics,
// matching the spec's "stepping is defined only when non-empty" contract.
func (r *Ring) Step(p domain.PlayerID, action domain.Action) domain.PlayerID {
	next, err := r.step(p, action)
	if err != nil {
		panic("ring: step on empty ring")
	}
	return next
}

func (r *Ring) step(p domain.PlayerID, action domain.Action) (domain.PlayerID, error) {
	switch action {
	case domain.ActionR1:
		return r.Successor(p)
	case domain.ActionR2:
		mid, err := r.Successor(p)
		if err != nil {
			return 0, err
		}
		return r.Successor(mid)
	case domain.ActionL1:
		return r.Predecessor(p)
	case domain.ActionL3:
		cur := p
		for i := 0; i < 3; i++ {
			prev, err := r.Predecessor(cur)
			if err != nil {
				return 0, err
			}
			cur = prev
		}
		return cur, nil
	default:
		return 0, ErrEmpty{}
	}
}

// Ascend calls fn for every seated id in increasing order until fn returns
// false.
func (r *Ring) Ascend(fn func(domain.PlayerID) bool) {
	r.tree.Ascend(fn)
}
