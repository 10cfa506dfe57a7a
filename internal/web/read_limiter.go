package web

// read_limiter.go bounds how many uploaded files are decoded at once.
//
// Each read holds a semaphore slot for the whole decode. When every slot is
// taken, new requests wait up to maxWait and then fail with
// ErrTooManyReads. WaitForDrain lets shutdown block until in-flight reads
// finish.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyReads is returned when no read slot frees up in time.
var ErrTooManyReads = errors.New("too many concurrent reads, please try again later")

const (
	defaultMaxConcurrentReads = 5
	defaultMaxReadWait        = 10 * time.Second
)

// ReadLimiter is a counting semaphore for CSV reads.
type ReadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewReadLimiter allows at most maxConcurrent reads; callers wait up to maxWait.
// Non-positive arguments fall back to defaults.
func NewReadLimiter(maxConcurrent int, maxWait time.Duration) *ReadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrentReads
	}
	if maxWait <= 0 {
		maxWait = defaultMaxReadWait
	}

	idle := make(chan struct{})
	close(idle)
	return &ReadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		idle:      idle,
	}
}

// Acquire takes a slot, waiting at most maxWait.
// The caller must Release after a nil return.
func (l *ReadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		if l.active == 0 {
			l.idle = make(chan struct{})
		}
		l.active++
		l.mu.Unlock()
		return nil

	case <-timer.C:
		return ErrTooManyReads

	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *ReadLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.semaphore
}

// WaitForDrain blocks until no reads are active or ctx is done.
func (l *ReadLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadLimiterStatus is a snapshot of limiter usage.
type ReadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state for the health endpoint.
func (l *ReadLimiter) Status() ReadLimiterStatus {
	l.mu.Lock()
	active := l.active
	l.mu.Unlock()

	return ReadLimiterStatus{
		Active:        active,
		Available:     cap(l.semaphore) - active,
		MaxConcurrent: cap(l.semaphore),
	}
}
