package graph

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edges(pairs ...[2]string) []Edge {
	out := make([]Edge, len(pairs))
	for i, p := range pairs {
		out[i] = Edge{Source: p[0], Target: p[1]}
	}
	return out
}

func TestSort(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		ids   []string
		edges []Edge
		want  []string
	}{
		{
			name:  "fifo tie breaking",
			ids:   []string{"1", "2", "3", "4", "5"},
			edges: edges([2]string{"1", "2"}, [2]string{"2", "3"}, [2]string{"4", "5"}),
			want:  []string{"1", "4", "2", "5", "3"},
		},
		{
			name:  "cycle residual appended in original order",
			ids:   []string{"1", "2", "3"},
			edges: edges([2]string{"1", "2"}, [2]string{"2", "1"}),
			want:  []string{"3", "1", "2"},
		},
		{
			name:  "dangling target is skipped",
			ids:   []string{"1", "2"},
			edges: edges([2]string{"1", "99"}, [2]string{"2", "1"}),
			want:  []string{"2", "1"},
		},
		{
			name:  "unknown source leaves target residual",
			ids:   []string{"1", "2"},
			edges: edges([2]string{"99", "1"}),
			want:  []string{"2", "1"},
		},
		{
			name: "empty",
			ids:  nil,
			want: []string{},
		},
		{
			name:  "diamond",
			ids:   []string{"d", "c", "b", "a"},
			edges: edges([2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"b", "d"}, [2]string{"c", "d"}),
			want:  []string{"a", "b", "c", "d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sort(tt.ids, tt.edges))
		})
	}
}

func TestSortRandomGraphsArePermutations(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(7, 11))

	for round := range 20 {
		n := 1 + rng.IntN(200)
		ids := make([]string, n)
		for i := range ids {
			ids[i] = strconv.Itoa(i + 1)
		}
		var es []Edge
		for range rng.IntN(3 * n) {
			// Ids up to n+10 so some targets dangle.
			es = append(es, Edge{
				Source: strconv.Itoa(1 + rng.IntN(n+10)),
				Target: strconv.Itoa(1 + rng.IntN(n+10)),
			})
		}

		order := Sort(ids, es)
		require.Len(t, order, n, "round %d", round)
		pos := make(map[string]int, n)
		for i, id := range order {
			_, dup := pos[id]
			require.False(t, dup, "duplicate %s in round %d", id, round)
			pos[id] = i
		}
		assert.ElementsMatch(t, ids, order)
	}
}

func TestSortRespectsEdgesOnDAG(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(3, 5))

	n := 500
	ids := make([]string, n)
	for i := range ids {
		ids[i] = strconv.Itoa(i + 1)
	}
	// Only forward edges (low -> high), so the graph is acyclic and every
	// node resolves in the queue phase.
	var es []Edge
	for range 2000 {
		a, b := 1+rng.IntN(n), 1+rng.IntN(n)
		if a == b {
			continue
		}
		if a > b {
			a, b = b, a
		}
		es = append(es, Edge{Source: strconv.Itoa(a), Target: strconv.Itoa(b)})
	}

	order := Sort(ids, es)
	pos := make(map[string]int, n)
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range es {
		assert.Less(t, pos[e.Source], pos[e.Target], "edge %s->%s", e.Source, e.Target)
	}
}

func TestOrderCacheRecomputesOnMutation(t *testing.T) {
	s := New(100, rand.New(rand.NewPCG(1, 1)))
	s.AddNode()
	s.AddNode()

	var c OrderCache
	order, didFull := c.Refresh(s)
	assert.True(t, didFull)
	assert.Equal(t, []string{"1", "2"}, order)

	_, didFull = c.Refresh(s)
	assert.False(t, didFull)

	s.AddEdge("2", "1")
	order, didFull = c.Refresh(s)
	assert.True(t, didFull)
	assert.Equal(t, []string{"2", "1"}, order)

	s.MoveNode("1", 5, 5)
	_, didFull = c.Refresh(s)
	assert.False(t, didFull, "moving a node is not a topology change")
	assert.Equal(t, 2, c.Refreshes())
}
