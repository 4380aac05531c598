package graph

import (
	"strconv"
	"time"
)

// LoadTimings splits mock topology generation into the two phases the
// report calls query and transform.
type LoadTimings struct {
	Query     time.Duration
	Transform time.Duration
	Total     time.Duration
}

// Generate fills the store with nodeCount nodes and edgeCount random edges.
// Edge targets are resampled until they differ from the source.
func Generate(s *Store, nodeCount, edgeCount int) LoadTimings {
	t0 := time.Now()
	for range nodeCount {
		s.AddNode()
	}
	tQuery := time.Now()

	if nodeCount > 1 {
		for range edgeCount {
			src := s.Intn(nodeCount) + 1
			dst := s.Intn(nodeCount) + 1
			for dst == src {
				dst = s.Intn(nodeCount) + 1
			}
			s.AddEdge(strconv.Itoa(src), strconv.Itoa(dst))
		}
	}
	tTransform := time.Now()

	return LoadTimings{
		Query:     tQuery.Sub(t0),
		Transform: tTransform.Sub(tQuery),
		Total:     tTransform.Sub(t0),
	}
}
