package core

// upload_limiter.go bounds how many workbooks are parsed at once.
//
// Workbook parsing holds the whole sheet in memory, so parallel uploads are
// limited by a semaphore. When all slots are taken, callers wait up to
// maxWait and then fail with ErrTooManyUploads. WaitForDrain lets shutdown
// wait for in-flight parses.

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrTooManyUploads is returned when no parse slot frees up in time.
var ErrTooManyUploads = errors.New("too many uploads in progress, please try again later")

// DefaultMaxConcurrentUploads is the default limit for parallel workbook parses.
const DefaultMaxConcurrentUploads = 4

// DefaultMaxWaitTime is how long to wait for a slot before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// UploadLimiter limits concurrent workbook parsing.
type UploadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration
	active    atomic.Int64
}

// NewUploadLimiter creates a limiter allowing maxConcurrent parses at once.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentUploads
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &UploadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire waits for a slot. The caller must Release it when done.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.active.Add(1)
		return nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyUploads
	}
}

// Release frees a slot taken by Acquire.
func (l *UploadLimiter) Release() {
	l.active.Add(-1)
	<-l.semaphore
}

// ActiveCount returns the number of parses in progress.
func (l *UploadLimiter) ActiveCount() int {
	return int(l.active.Load())
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return cap(l.semaphore) - len(l.semaphore)
}

// WaitForDrain blocks until no parse is active or ctx is done.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// UploadLimiterStatus is a point-in-time view of the limiter.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	return UploadLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: cap(l.semaphore),
	}
}
