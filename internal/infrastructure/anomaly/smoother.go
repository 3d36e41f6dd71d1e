package anomaly

import (
	"time"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

// History keeps the bounded rolling window of final scores and the record
// of domain transitions, for smoothing and diagnostics.
type History struct {
	window      []float64
	transitions []domainAnomaly.TransitionRecord
}

// NewHistory creates empty score and transition histories.
func NewHistory() *History {
	return &History{}
}

// Smooth damps single-step spikes using the two most recent final scores.
// With fewer than 3 recorded scores the input passes through unchanged.
// Called before Push, so the current value is never part of the window.
func (h *History) Smooth(x float64) float64 {
	if len(h.window) < 3 {
		return x
	}
	n := len(h.window)
	return 0.5*x + 0.3*h.window[n-1] + 0.2*h.window[n-2]
}

// Push appends a final score to the rolling window, dropping the oldest
// beyond the cap.
func (h *History) Push(score float64) {
	h.window = append(h.window, score)
	if len(h.window) > domainAnomaly.WindowCap {
		h.window = h.window[1:]
	}
}

// Average returns the mean of the rolling window, 0 when empty.
func (h *History) Average() float64 {
	if len(h.window) == 0 {
		return 0
	}
	var sum float64
	for _, s := range h.window {
		sum += s
	}
	return sum / float64(len(h.window))
}

// RecordTransition appends a transition event, dropping the oldest beyond
// the cap.
func (h *History) RecordTransition(from, to []string) {
	h.transitions = append(h.transitions, domainAnomaly.TransitionRecord{
		From:      from,
		To:        to,
		Timestamp: time.Now(),
	})
	if len(h.transitions) > domainAnomaly.TransitionHistoryCap {
		h.transitions = h.transitions[1:]
	}
}

// TransitionCount returns the number of recorded transitions.
func (h *History) TransitionCount() int {
	return len(h.transitions)
}

// Transitions returns the recorded transition events, oldest first.
func (h *History) Transitions() []domainAnomaly.TransitionRecord {
	out := make([]domainAnomaly.TransitionRecord, len(h.transitions))
	copy(out, h.transitions)
	return out
}

// Reset clears both histories.
func (h *History) Reset() {
	h.window = nil
	h.transitions = nil
}
