// Package polltest provides a clock for exercising polling and backoff loops without waiting.
package polltest

import (
	"sync"
	"time"

	"github.com/raulk/clock"
)

// StepClock is a mock clock whose After advances the mock time by the requested duration and
// fires immediately. Every requested wait is recorded.
type StepClock struct {
	*clock.Mock

	mu    sync.Mutex
	waits []time.Duration
}

func NewStepClock() *StepClock {
	return &StepClock{Mock: clock.NewMock()}
}

func (s *StepClock) After(d time.Duration) <-chan time.Time {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()

	s.Mock.Add(d)
	ch := make(chan time.Time, 1)
	ch <- s.Mock.Now()
	return ch
}

// Waits returns the durations passed to After, in call order.
func (s *StepClock) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]time.Duration(nil), s.waits...)
}

// Elapsed returns the total mock time spent waiting.
func (s *StepClock) Elapsed() time.Duration {
	var total time.Duration
	for _, w := range s.Waits() {
		total += w
	}
	return total
}
