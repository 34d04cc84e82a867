package contract

import "sync/atomic"

// AnalyzerHandle holds the shared-immutable Analyzer reference described
// in spec §5's cancellation model: shutdown clears it atomically (CAS),
// and every in-flight or future operation that loads a nil handle treats
// that as "the server is shutting down" and returns without error.
type AnalyzerHandle struct {
	v atomic.Pointer[Analyzer]
}

func NewAnalyzerHandle(a Analyzer) *AnalyzerHandle {
	h := &AnalyzerHandle{}
	h.v.Store(&a)
	return h
}

// Load returns the current Analyzer, or nil if Clear has run.
func (h *AnalyzerHandle) Load() Analyzer {
	p := h.v.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Clear atomically removes the Analyzer reference. Idempotent.
func (h *AnalyzerHandle) Clear() {
	h.v.Store(nil)
}
