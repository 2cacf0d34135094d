package ordering

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/studio-cms/pkg/apperr"
	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
)

func items(ids ...string) []domain.OrderedItem {
	out := make([]domain.OrderedItem, len(ids))
	for i, id := range ids {
		out[i] = domain.OrderedItem{ID: id, Sequence: i}
	}
	return out
}

func ids(items []domain.OrderedItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func sequences(items []domain.OrderedItem) []int {
	out := make([]int, len(items))
	for i, item := range items {
		out[i] = item.Sequence
	}
	return out
}

func TestMove(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
		changed  bool
	}{
		{"forward to end", 1, 3, []string{"A", "C", "D", "B"}, true},
		{"backward to start", 3, 0, []string{"D", "A", "B", "C"}, true},
		{"forward one", 0, 1, []string{"B", "A", "C", "D"}, true},
		{"into middle", 0, 2, []string{"B", "C", "A", "D"}, true},
		{"equal indices", 2, 2, []string{"A", "B", "C", "D"}, false},
		{"from out of range", 4, 0, []string{"A", "B", "C", "D"}, false},
		{"to out of range", 0, 7, []string{"A", "B", "C", "D"}, false},
		{"negative", -1, 2, []string{"A", "B", "C", "D"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := items("A", "B", "C", "D")
			got, changed := Move(input, tt.from, tt.to)

			assert.Equal(t, tt.changed, changed)
			if diff := cmp.Diff(tt.want, ids(got)); diff != "" {
				t.Errorf("Move(%d, %d) mismatch (-want +got):\n%s", tt.from, tt.to, diff)
			}
			assert.Equal(t, []int{0, 1, 2, 3}, sequences(got))
			assert.Equal(t, []string{"A", "B", "C", "D"}, ids(input), "input must not be modified")
		})
	}
}

func TestMoveEmptyCollection(t *testing.T) {
	got, changed := Move(nil, 0, 0)
	assert.False(t, changed)
	assert.Empty(t, got)
}

func TestMoveScenarioHeroBanners(t *testing.T) {
	got, changed := Move(items("h1", "h2", "h3", "h4"), 3, 0)
	require.True(t, changed)

	want := []domain.SequenceUpdate{
		{ID: "h4", Sequence: 0},
		{ID: "h1", Sequence: 1},
		{ID: "h2", Sequence: 2},
		{ID: "h3", Sequence: 3},
	}
	if diff := cmp.Diff(want, Updates(got)); diff != "" {
		t.Errorf("batch payload mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertAppend(t *testing.T) {
	input := items("A", "B", "C")
	got := InsertAppend(input, domain.OrderedItem{ID: "D", Sequence: 42})

	assert.Equal(t, []string{"A", "B", "C", "D"}, ids(got))
	assert.Equal(t, []int{0, 1, 2, 3}, sequences(got))
	assert.Len(t, input, 3)
}

func TestRemove(t *testing.T) {
	got, removed := Remove(items("A", "B", "C", "D"), "B")
	require.True(t, removed)
	assert.Equal(t, []string{"A", "C", "D"}, ids(got))
	assert.Equal(t, []int{0, 1, 2}, sequences(got))

	input := items("A", "B")
	got, removed = Remove(input, "Z")
	assert.False(t, removed)
	assert.Equal(t, input, got)
}

func TestReorder(t *testing.T) {
	got, err := Reorder(items("A", "B", "C"), []string{"C", "A", "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "B"}, ids(got))
	assert.True(t, IsDense(got))

	_, err = Reorder(items("A", "B", "C"), []string{"A", "B"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = Reorder(items("A", "B", "C"), []string{"A", "A", "B"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))

	_, err = Reorder(items("A", "B", "C"), []string{"A", "B", "X"})
	assert.True(t, apperr.Is(err, apperr.CodeValidation))
}

func TestNormalize(t *testing.T) {
	raw := []domain.OrderedItem{
		{ID: "c", Sequence: 7},
		{ID: "a", Sequence: 1},
		{ID: "b1", Sequence: 3},
		{ID: "b2", Sequence: 3},
	}
	got := Normalize(raw)

	assert.Equal(t, []string{"a", "b1", "b2", "c"}, ids(got), "ties keep fetch order")
	assert.Equal(t, []int{0, 1, 2, 3}, sequences(got))
	assert.Equal(t, 7, raw[0].Sequence)
}

func TestIsDense(t *testing.T) {
	assert.True(t, IsDense(nil))
	assert.True(t, IsDense(items("A", "B")))
	assert.False(t, IsDense([]domain.OrderedItem{{ID: "A", Sequence: 1}, {ID: "B", Sequence: 2}}))
	assert.False(t, IsDense([]domain.OrderedItem{{ID: "A", Sequence: 0}, {ID: "B", Sequence: 0}}))
}

func TestDensityHoldsAcrossOperations(t *testing.T) {
	current := items("a", "b", "c", "d", "e")
	steps := []func([]domain.OrderedItem) []domain.OrderedItem{
		func(in []domain.OrderedItem) []domain.OrderedItem { out, _ := Move(in, 4, 1); return out },
		func(in []domain.OrderedItem) []domain.OrderedItem { out, _ := Remove(in, "c"); return out },
		func(in []domain.OrderedItem) []domain.OrderedItem { return InsertAppend(in, domain.OrderedItem{ID: "f"}) },
		func(in []domain.OrderedItem) []domain.OrderedItem { out, _ := Move(in, 0, 4); return out },
		func(in []domain.OrderedItem) []domain.OrderedItem { out, _ := Remove(in, "a"); return out },
	}
	for i, step := range steps {
		current = step(current)
		require.True(t, IsDense(current), "step %d broke density: %v", i, sequences(current))
	}
	assert.Equal(t, []string{"e", "b", "d", "f"}, ids(current))
}
