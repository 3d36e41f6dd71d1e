package anomaly

import (
	"testing"

	domainAnomaly "github.com/MRIIOT/llm-cmp-sub005/internal/domain/anomaly"
)

func TestSmoothPassthroughWhenShort(t *testing.T) {
	h := NewHistory()

	for i, score := range []float64{0.3, 0.6} {
		if got := h.Smooth(0.9); !almostEqual(got, 0.9) {
			t.Errorf("entry %d: expected passthrough 0.9, got %.4f", i, got)
		}
		h.Push(score)
	}
}

func TestSmoothWeights(t *testing.T) {
	h := NewHistory()
	h.Push(0.1)
	h.Push(0.2)
	h.Push(0.4)

	// 0.5*x + 0.3*window[-1] + 0.2*window[-2]
	expected := 0.5*0.8 + 0.3*0.4 + 0.2*0.2
	if got := h.Smooth(0.8); !almostEqual(got, expected) {
		t.Errorf("expected %.4f, got %.4f", expected, got)
	}
}

func TestWindowCap(t *testing.T) {
	h := NewHistory()
	for i := 0; i < domainAnomaly.WindowCap+15; i++ {
		h.Push(1.0)
	}
	if len(h.window) != domainAnomaly.WindowCap {
		t.Errorf("expected window capped at %d, got %d", domainAnomaly.WindowCap, len(h.window))
	}
}

func TestAverage(t *testing.T) {
	h := NewHistory()

	if got := h.Average(); got != 0 {
		t.Errorf("expected 0 for empty window, got %.4f", got)
	}

	h.Push(0.2)
	h.Push(0.4)
	h.Push(0.6)
	if got := h.Average(); !almostEqual(got, 0.4) {
		t.Errorf("expected 0.4, got %.4f", got)
	}
}

func TestTransitionHistoryCap(t *testing.T) {
	h := NewHistory()
	for i := 0; i < domainAnomaly.TransitionHistoryCap+20; i++ {
		h.RecordTransition([]string{"a"}, []string{"b"})
	}
	if h.TransitionCount() != domainAnomaly.TransitionHistoryCap {
		t.Errorf("expected transitions capped at %d, got %d",
			domainAnomaly.TransitionHistoryCap, h.TransitionCount())
	}
}

func TestHistoryReset(t *testing.T) {
	h := NewHistory()
	h.Push(0.5)
	h.RecordTransition(nil, []string{"a"})

	h.Reset()

	if h.Average() != 0 || h.TransitionCount() != 0 {
		t.Error("expected empty histories after reset")
	}
}
