package quiz

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShuffleIsPermutation(t *testing.T) {
	in := []int{5, 3, 3, 9, 1, 0, 7, 7, 7, 2}
	orig := append([]int(nil), in...)

	for i := 0; i < 50; i++ {
		out := Shuffle(in)
		require.Len(t, out, len(in))

		got := append([]int(nil), out...)
		want := append([]int(nil), in...)
		sort.Ints(got)
		sort.Ints(want)
		assert.Equal(t, want, got)
	}
	assert.Equal(t, orig, in, "input must not be mutated")
}

func TestShuffleEmptyAndSingle(t *testing.T) {
	empty := Shuffle([]string{})
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	single := []string{"only"}
	out := Shuffle(single)
	assert.Equal(t, []string{"only"}, out)

	out[0] = "changed"
	assert.Equal(t, "only", single[0], "result must be a copy")
}

func TestShuffleReachesEveryOrdering(t *testing.T) {
	seen := map[[3]int]int{}
	for i := 0; i < 3000; i++ {
		out := Shuffle([]int{0, 1, 2})
		seen[[3]int{out[0], out[1], out[2]}]++
	}
	// 6 orderings at ~500 each; anything under 300 points at a broken walk.
	require.Len(t, seen, 6)
	for order, n := range seen {
		assert.Greater(t, n, 300, "ordering %v", order)
	}
}

func TestEffectiveCount(t *testing.T) {
	cases := []struct {
		requested, bank, want int
	}{
		{0, 10, 10},
		{1, 10, 1},
		{10, 10, 10},
		{25, 10, 10},
		{3, 3, 3},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, EffectiveCount(c.requested, c.bank), "requested=%d bank=%d", c.requested, c.bank)
	}
}
