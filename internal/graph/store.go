// Package graph holds the node/edge collections of the visualized graph and
// computes their topological order.
package graph

import (
	"math/rand/v2"
	"strconv"
)

type Node struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Edge points from Source to Target. Target may name a node that does not
// exist (yet); consumers skip such edges.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Store is an append-only node and edge collection. Every topology mutation
// bumps Version so cached orders know to recompute.
type Store struct {
	spread float64
	rng    *rand.Rand

	nodes   []Node
	index   map[string]int
	edges   []Edge
	version uint64
}

func New(spread float64, rng *rand.Rand) *Store {
	if spread <= 0 {
		spread = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(1, 2))
	}
	return &Store{
		spread: spread,
		rng:    rng,
		index:  make(map[string]int),
	}
}

// AddNode appends a node with the next sequential id at a random position
// inside the configured spread.
func (s *Store) AddNode() string {
	id := strconv.Itoa(len(s.nodes) + 1)
	s.index[id] = len(s.nodes)
	s.nodes = append(s.nodes, Node{
		ID: id,
		X:  s.rng.Float64() * s.spread,
		Y:  s.rng.Float64() * s.spread,
	})
	s.version++
	return id
}

// AddEdge appends source -> target. Self edges are dropped and reported as
// false; the target does not have to exist.
func (s *Store) AddEdge(source, target string) bool {
	if source == target {
		return false
	}
	s.edges = append(s.edges, Edge{Source: source, Target: target})
	s.version++
	return true
}

// MoveNode shifts a node's position. Positions are not topology, so the
// version is left alone.
func (s *Store) MoveNode(id string, dx, dy float64) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.nodes[i].X += dx
	s.nodes[i].Y += dy
	return true
}

func (s *Store) Node(id string) (Node, bool) {
	i, ok := s.index[id]
	if !ok {
		return Node{}, false
	}
	return s.nodes[i], true
}

func (s *Store) HasNode(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Nodes returns the backing slice in insertion order. Callers must not
// modify it.
func (s *Store) Nodes() []Node { return s.nodes }

// Edges returns the backing slice in insertion order. Callers must not
// modify it.
func (s *Store) Edges() []Edge { return s.edges }

func (s *Store) Len() int        { return len(s.nodes) }
func (s *Store) Version() uint64 { return s.version }

// IDs returns node ids in insertion order.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.nodes))
	for i, n := range s.nodes {
		ids[i] = n.ID
	}
	return ids
}

// Intn exposes the store's random source to callers that pick among
// existing nodes, keeping a seeded run reproducible end to end.
func (s *Store) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.IntN(n)
}
