package graph

import "time"

// Sort orders ids with Kahn's algorithm. The queue is FIFO and is seeded in
// ids order, so ties resolve by discovery order. Ids that never reach
// in-degree zero (cycles, or edges from unknown sources) are appended in
// their original order without further ordering among themselves. Edges whose
// target is not in ids are ignored.
//
// The result is always a permutation of ids.
func Sort(ids []string, edges []Edge) []string {
	known := make(map[string]bool, len(ids))
	for _, id := range ids {
		known[id] = true
	}

	next := make(map[string][]string, len(ids))
	inDeg := make(map[string]int, len(ids))
	for _, e := range edges {
		if !known[e.Target] {
			continue
		}
		if known[e.Source] {
			next[e.Source] = append(next[e.Source], e.Target)
		}
		inDeg[e.Target]++
	}

	queue := make([]string, 0, len(ids))
	for _, id := range ids {
		if inDeg[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(ids))
	done := make(map[string]bool, len(ids))
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		order = append(order, cur)
		done[cur] = true
		for _, nxt := range next[cur] {
			inDeg[nxt]--
			if inDeg[nxt] == 0 {
				queue = append(queue, nxt)
			}
		}
	}

	if len(order) == len(ids) {
		return order
	}
	for _, id := range ids {
		if !done[id] {
			order = append(order, id)
		}
	}
	return order
}

// OrderCache keeps the last computed order and recomputes it in full
// whenever the store version moved.
type OrderCache struct {
	version     uint64
	valid       bool
	order       []string
	lastRefresh time.Time
	lastCost    time.Duration
	refreshes   int
}

// Refresh returns the order for the store's current topology. didFull
// reports whether a recompute happened.
func (c *OrderCache) Refresh(s *Store) (order []string, didFull bool) {
	if c.valid && c.version == s.Version() {
		return c.order, false
	}
	start := time.Now()
	c.order = Sort(s.IDs(), s.Edges())
	c.lastRefresh = time.Now()
	c.lastCost = c.lastRefresh.Sub(start)
	c.version = s.Version()
	c.valid = true
	c.refreshes++
	return c.order, true
}

// Order returns the last computed order without recomputing. Callers must
// not modify it.
func (c *OrderCache) Order() []string { return c.order }

// LastCost is the wall time of the most recent recompute.
func (c *OrderCache) LastCost() time.Duration { return c.lastCost }

func (c *OrderCache) Refreshes() int { return c.refreshes }
