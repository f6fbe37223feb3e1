package notify

import (
	"context"
	"sync"
)

// Recorder is a Notifier that records every notice. Test code uses it to
// assert which notices an operation emitted.
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

func (r *Recorder) Success(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = append(r.successes, message)
}

func (r *Recorder) Error(_ context.Context, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// Successes returns the success notices recorded so far.
func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.successes))
	copy(out, r.successes)
	return out
}

// Errors returns the error notices recorded so far.
func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

// Reset clears all recorded notices.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.successes = nil
	r.errors = nil
}
