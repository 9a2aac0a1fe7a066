package ordering

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(ids ...int64) []Item {
	out := make([]Item, len(ids))
	for i, id := range ids {
		out[i] = Item{ID: id, Position: i}
	}
	return out
}

func apply(in []Item, shifts []Shift) map[int64]int {
	out := make(map[int64]int, len(in))
	for _, it := range in {
		out[it.ID] = it.Position
	}
	for _, s := range shifts {
		out[s.ID] = s.To
	}
	return out
}

func TestInsert(t *testing.T) {
	tests := []struct {
		name    string
		in      []Item
		p       int
		wantPos int
		want    []Shift
	}{
		{"empty append", nil, Append, 0, []Shift{}},
		{"append", items(1, 2, 3), Append, 3, []Shift{}},
		{"front", items(1, 2, 3), 0, 0, []Shift{{1, 0, 1}, {2, 1, 2}, {3, 2, 3}}},
		{"middle", items(1, 2, 3), 1, 1, []Shift{{2, 1, 2}, {3, 2, 3}}},
		{"past end clamps", items(1, 2), 9, 2, []Shift{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, shifts := Insert(tt.in, tt.p)
			assert.Equal(t, tt.wantPos, pos)
			if diff := cmp.Diff(tt.want, shifts); diff != "" {
				t.Errorf("shifts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRemove(t *testing.T) {
	shifts := Remove(items(1, 2, 3, 4), 2)
	assert.Equal(t, []Shift{{3, 2, 1}, {4, 3, 2}}, shifts)

	assert.Empty(t, Remove(items(1, 2, 3), 3), "removing the tail shifts nothing")
	assert.Equal(t, []Shift{{2, 1, 0}}, Remove(items(1, 2), 1))
}

func TestRemoveHealsGaps(t *testing.T) {
	in := []Item{{ID: 1, Position: 0}, {ID: 2, Position: 2}, {ID: 3, Position: 5}}
	shifts := Remove(in, 1)
	got := apply(in, shifts)
	assert.Equal(t, 0, got[2])
	assert.Equal(t, 1, got[3])
}

func TestMove(t *testing.T) {
	tests := []struct {
		name string
		to   int
		want map[int64]int
	}{
		{"down", 2, map[int64]int{1: 0, 2: 2, 3: 1, 4: 3}},
		{"up", 0, map[int64]int{1: 1, 2: 0, 3: 2, 4: 3}},
		{"same", 1, map[int64]int{1: 0, 2: 1, 3: 2, 4: 3}},
		{"past end", 10, map[int64]int{1: 0, 2: 3, 3: 1, 4: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := items(1, 2, 3, 4)
			_, shifts, ok := Move(in, 2, tt.to)
			require.True(t, ok)
			assert.Equal(t, tt.want, apply(in, shifts))
		})
	}
}

func TestMoveSamePositionIsEmpty(t *testing.T) {
	pos, shifts, ok := Move(items(1, 2, 3), 3, 2)
	require.True(t, ok)
	assert.Equal(t, 2, pos)
	assert.Empty(t, shifts)
}

func TestMoveUnknownID(t *testing.T) {
	_, _, ok := Move(items(1, 2), 42, 0)
	assert.False(t, ok)
}

func TestNormalize(t *testing.T) {
	in := []Item{{ID: 7, Position: 4}, {ID: 3, Position: 1}, {ID: 5, Position: 1}}
	got := apply(in, Normalize(in))
	assert.Equal(t, map[int64]int{3: 0, 5: 1, 7: 2}, got)
}

func TestIsDense(t *testing.T) {
	assert.True(t, IsDense(nil))
	assert.True(t, IsDense([]int{2, 0, 1}))
	assert.False(t, IsDense([]int{0, 2}))
	assert.False(t, IsDense([]int{0, 0}))
	assert.False(t, IsDense([]int{-1, 0}))
}

// Random insert/remove/move sequences must keep the collection dense.
func TestRandomSequencesStayDense(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	state := map[int64]int{}
	next := int64(1)

	snapshot := func() []Item {
		out := make([]Item, 0, len(state))
		for id, p := range state {
			out = append(out, Item{ID: id, Position: p})
		}
		return out
	}

	for step := 0; step < 500; step++ {
		cur := snapshot()
		switch op := rng.Intn(3); {
		case op == 0 || len(cur) == 0:
			pos, shifts := Insert(cur, rng.Intn(len(cur)+2)-1)
			for _, s := range shifts {
				state[s.ID] = s.To
			}
			state[next] = pos
			next++
		case op == 1:
			victim := cur[rng.Intn(len(cur))].ID
			shifts := Remove(cur, victim)
			delete(state, victim)
			for _, s := range shifts {
				state[s.ID] = s.To
			}
		default:
			id := cur[rng.Intn(len(cur))].ID
			_, shifts, ok := Move(cur, id, rng.Intn(len(cur)+1))
			require.True(t, ok)
			for _, s := range shifts {
				state[s.ID] = s.To
			}
		}

		positions := make([]int, 0, len(state))
		for _, p := range state {
			positions = append(positions, p)
		}
		require.True(t, IsDense(positions), "step %d: %v", step, state)
	}
}
