package sampler

// window keeps the most recent n values for live display. The session-wide
// figures live in RenderStats; this only feeds the "recent" readout.
type window struct {
	buf   []float64
	idx   int
	count int
}

func newWindow(n int) *window {
	if n < 1 {
		n = 1
	}
	return &window{buf: make([]float64, n)}
}

func (w *window) add(v float64) {
	w.buf[w.idx] = v
	w.idx++
	if w.idx >= len(w.buf) {
		w.idx = 0
	}
	if w.count < len(w.buf) {
		w.count++
	}
}

// WindowStats summarizes the recent window.
type WindowStats struct {
	Last float64 `json:"last"`
	Max  float64 `json:"max"`
	Avg  float64 `json:"avg"`
	N    int     `json:"n"`
}

func (w *window) snapshot() WindowStats {
	if w.count == 0 {
		return WindowStats{}
	}
	var sum, hi float64
	for i := 0; i < w.count; i++ {
		v := w.buf[i]
		sum += v
		if v > hi {
			hi = v
		}
	}
	lastIdx := w.idx - 1
	if lastIdx < 0 {
		lastIdx = len(w.buf) - 1
	}
	return WindowStats{
		Last: w.buf[lastIdx],
		Max:  hi,
		Avg:  sum / float64(w.count),
		N:    w.count,
	}
}
