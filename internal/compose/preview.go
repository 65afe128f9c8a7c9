package compose

import "sync/atomic"

// PreviewSession serializes live preview requests. Each edit tick takes a
// new generation; a resolution finishing for an older generation is stale
// and must be dropped so the last writer wins.
type PreviewSession struct {
	gen atomic.Uint64
}

// Next claims a new generation for an incoming preview request.
func (s *PreviewSession) Next() uint64 {
	return s.gen.Add(1)
}

// Current returns the most recently claimed generation.
func (s *PreviewSession) Current() uint64 {
	return s.gen.Load()
}

// IsCurrent reports whether a finished resolution is still the newest one.
func (s *PreviewSession) IsCurrent(gen uint64) bool {
	return gen == s.gen.Load()
}
