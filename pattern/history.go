package pattern

import "github.com/mohitkumar/autopilot/model"

const HistorySize = 10

// history keeps the most recent executions in a fixed ring; the oldest entry
// is overwritten once full.
type history struct {
	entries [HistorySize]model.ExecutionResult
	start   int
	size    int
}

func (h *history) push(r model.ExecutionResult) {
	if h.size < HistorySize {
		h.entries[(h.start+h.size)%HistorySize] = r
		h.size++
		return
	}
	h.entries[h.start] = r
	h.start = (h.start + 1) % HistorySize
}

func (h *history) len() int {
	return h.size
}

// last returns up to n most recent entries, oldest first.
func (h *history) last(n int) []model.ExecutionResult {
	if n > h.size {
		n = h.size
	}
	out := make([]model.ExecutionResult, 0, n)
	for i := h.size - n; i < h.size; i++ {
		out = append(out, h.entries[(h.start+i)%HistorySize])
	}
	return out
}

func (h *history) all() []model.ExecutionResult {
	return h.last(h.size)
}
