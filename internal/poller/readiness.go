package poller

import (
	"sync"
	"sync/atomic"
)

// Readiness is told when listing has succeeded at least once.
type Readiness interface {
	MarkReady()
}

// ReadyLatch is a Readiness that flips once per lifetime.
type ReadyLatch struct {
	once    sync.Once
	ready   atomic.Bool
	onReady func()
}

// NewReadyLatch creates a latch. onReady, if not nil, runs on the first MarkReady.
func NewReadyLatch(onReady func()) *ReadyLatch {
	return &ReadyLatch{onReady: onReady}
}

// MarkReady marks the latch ready. Only the first call has an effect.
func (r *ReadyLatch) MarkReady() {
	r.once.Do(func() {
		r.ready.Store(true)

		if r.onReady != nil {
			r.onReady()
		}
	})
}

// Ready reports whether MarkReady was called.
func (r *ReadyLatch) Ready() bool {
	return r.ready.Load()
}
