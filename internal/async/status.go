// Package async runs the background embedding worker: papers are
// searchable lexically the moment they are written, and join vector
// retrieval once the worker catches up.
package async

import (
	"sync"
	"time"
)

// WorkerState describes what the worker is doing.
type WorkerState string

const (
	StateIdle      WorkerState = "idle"
	StateEmbedding WorkerState = "embedding"
	StateStopped   WorkerState = "stopped"
	StateError     WorkerState = "error"
)

// ProgressSnapshot is a point-in-time copy of worker progress, safe to
// serialize into a status response.
type ProgressSnapshot struct {
	State     WorkerState `json:"state"`
	Embedded  int         `json:"embedded"`
	Failed    int         `json:"failed"`
	LastError string      `json:"last_error,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Progress tracks worker counters behind a mutex.
type Progress struct {
	mu        sync.Mutex
	state     WorkerState
	embedded  int
	failed    int
	lastError string
	updatedAt time.Time
}

// NewProgress creates an idle progress tracker.
func NewProgress() *Progress {
	return &Progress{state: StateIdle, updatedAt: time.Now()}
}

func (p *Progress) setState(state WorkerState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	p.updatedAt = time.Now()
}

func (p *Progress) addEmbedded(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.embedded += n
	p.updatedAt = time.Now()
}

func (p *Progress) recordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed++
	p.lastError = err.Error()
	p.updatedAt = time.Now()
}

// Snapshot returns a copy of the current progress.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProgressSnapshot{
		State:     p.state,
		Embedded:  p.embedded,
		Failed:    p.failed,
		LastError: p.lastError,
		UpdatedAt: p.updatedAt,
	}
}
