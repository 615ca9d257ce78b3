package detector

// History is a fixed-capacity rolling window of closed/open eye samples with
// a running closed count, so the closure percentage is O(1) per frame.
type History struct {
	window []bool
	filled int
	closed int
	next   int
}

func NewHistory(size int) *History {
	if size < 1 {
		size = 1
	}
	return &History{window: make([]bool, size)}
}

func (h *History) Push(closed bool) {
	if h.filled == len(h.window) && h.window[h.next] {
		h.closed--
	}
	h.window[h.next] = closed
	if closed {
		h.closed++
	}
	h.next = (h.next + 1) % len(h.window)
	if h.filled < len(h.window) {
		h.filled++
	}
}

func (h *History) Len() int { return h.filled }

// ClosurePct returns the percentage (0-100) of window samples classified as
// closed, 0 for an empty window.
func (h *History) ClosurePct() float64 {
	if h.filled == 0 {
		return 0
	}
	return float64(h.closed) / float64(h.filled) * 100
}

func (h *History) Reset() {
	for i := range h.window {
		h.window[i] = false
	}
	h.filled = 0
	h.closed = 0
	h.next = 0
}
