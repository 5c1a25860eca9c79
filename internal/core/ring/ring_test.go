package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juan10024/bombrelay-server/internal/core/domain"
)

func seeded(ids ...domain.PlayerID) *Ring {
	r := New()
	for _, id := range ids {
		r.Insert(id)
	}
	return r
}

func TestSuccessorWrapsAround(t *testing.T) {
	r := seeded(10, 20, 30)

	next, err := r.Successor(30)
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerID(10), next)

	mid, err := r.Successor(10)
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerID(20), mid)
}

func TestPredecessorWrapsAround(t *testing.T) {
	r := seeded(10, 20, 30)

	prev, err := r.Predecessor(10)
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerID(30), prev)
}

func TestStepMatchesSpecScenario(t *testing.T) {
	r := seeded(10, 20, 30)

	assert.Equal(t, domain.PlayerID(10), r.Step(30, domain.ActionR1))
	assert.Equal(t, domain.PlayerID(30), r.Step(10, domain.ActionL1))
	assert.Equal(t, domain.PlayerID(10), r.Step(10, domain.ActionL3)) // 10 -> 30 -> 20 -> 10
	assert.Equal(t, domain.PlayerID(30), r.Step(10, domain.ActionR2))
}

func TestStepClosureUnderAllActions(t *testing.T) {
	r := seeded(3, 7, 11, 42, 99)
	actions := []domain.Action{domain.ActionL3, domain.ActionL1, domain.ActionR1, domain.ActionR2}

	r.Ascend(func(p domain.PlayerID) bool {
		for _, a := range actions {
			next := r.Step(p, a)
			assert.True(t, r.Contains(next), "step(%d, %s) = %d not in ring", p, a, next)
		}
		return true
	})
}

func TestEmptyRingNeighborQueriesError(t *testing.T) {
	r := New()
	_, err := r.Successor(1)
	assert.ErrorIs(t, err, ErrEmpty{})
	_, err = r.Predecessor(1)
	assert.ErrorIs(t, err, ErrEmpty{})
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := seeded(1, 2)
	r.Remove(1)
	r.Remove(1)
	assert.False(t, r.Contains(1))
	assert.Equal(t, 1, r.Len())
}

func TestMinMax(t *testing.T) {
	r := seeded(5, 9, 10)
	min, err := r.Min()
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerID(5), min)
	max, err := r.Max()
	require.NoError(t, err)
	assert.Equal(t, domain.PlayerID(10), max)
}
