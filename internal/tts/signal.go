package tts

import (
	"sync"
	"sync/atomic"
)

// StopSignal is a cooperative cancellation flag shared between a caller and
// a session. Setting it is idempotent and safe from any goroutine, before,
// during or after the session. It is never reset.
type StopSignal struct {
	stopped atomic.Bool
	once    sync.Once
	ch      chan struct{}
}

func NewStopSignal() *StopSignal {
	return &StopSignal{ch: make(chan struct{})}
}

func (s *StopSignal) Stop() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.ch)
	})
}

func (s *StopSignal) Stopped() bool {
	return s.stopped.Load()
}

// C is closed when Stop is first called.
func (s *StopSignal) C() <-chan struct{} {
	return s.ch
}
