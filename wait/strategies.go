package wait

import (
	"math/rand"
	"time"
)

// FixedStrategy waits for a fixed duration between attempts
type FixedStrategy struct {
	duration time.Duration
}

// NewFixedStrategy creates a new fixed wait strategy
func NewFixedStrategy(duration time.Duration) *FixedStrategy {
	return &FixedStrategy{duration: duration}
}

// Next returns the next wait duration
func (s *FixedStrategy) Next() (time.Duration, bool) {
	return s.duration, true
}

// Reset resets the strategy
func (s *FixedStrategy) Reset() {}

// ExponentialBackoff doubles a base delay on every attempt and adds a
// uniformly random jitter in [0, jitter]. Without the jitter the sequence is
// non-decreasing; max caps the doubled part (0 means uncapped).
type ExponentialBackoff struct {
	base    time.Duration
	jitter  time.Duration
	max     time.Duration
	attempt int
	rand    *rand.Rand
}

// NewExponentialBackoff creates a new exponential backoff strategy
func NewExponentialBackoff(base, jitter, max time.Duration) *ExponentialBackoff {
	return &ExponentialBackoff{
		base:   base,
		jitter: jitter,
		max:    max,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Next returns the next wait duration
func (s *ExponentialBackoff) Next() (time.Duration, bool) {
	duration := s.Base(s.attempt)
	if s.jitter > 0 {
		duration += time.Duration(s.rand.Int63n(int64(s.jitter) + 1))
	}
	s.attempt++
	return duration, true
}

// Base returns the jitter-free delay of the given zero-based attempt
func (s *ExponentialBackoff) Base(attempt int) time.Duration {
	duration := s.base
	for i := 0; i < attempt; i++ {
		if s.max > 0 && duration >= s.max {
			break
		}
		// stop doubling before the duration overflows
		if duration > time.Duration(1<<62) {
			break
		}
		duration *= 2
	}
	if s.max > 0 && duration > s.max {
		duration = s.max
	}
	return duration
}

// Attempt returns how many delays have been handed out since the last reset
func (s *ExponentialBackoff) Attempt() int {
	return s.attempt
}

// Reset resets the strategy
func (s *ExponentialBackoff) Reset() {
	s.attempt = 0
}
