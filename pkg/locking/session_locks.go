// Package locking serializes conversation turns per interview session.
package locking

import (
	"sync"
)

// defaultHighWater is the registry size above which released entries
// become eligible for eviction.
const defaultHighWater = 1024

// SessionLocks hands out one mutex per session ID so that turns on the
// same session run single-flight while distinct sessions proceed in
// parallel. Entries are reference counted and evicted opportunistically
// on release; there is no cleanup goroutine.
type SessionLocks struct {
	mu        sync.Mutex
	entries   map[string]*sessionLock
	highWater int
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewSessionLocks creates an empty lock registry.
func NewSessionLocks() *SessionLocks {
	return &SessionLocks{
		entries:   make(map[string]*sessionLock),
		highWater: defaultHighWater,
	}
}

// Acquire blocks until the caller holds the session's lock and returns
// the matching release function. Release must be called exactly once.
func (l *SessionLocks) Acquire(sessionID string) (release func()) {
	l.mu.Lock()
	e, ok := l.entries[sessionID]
	if !ok {
		e = &sessionLock{}
		l.entries[sessionID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.release(sessionID, e)
		})
	}
}

// release drops one reference and evicts idle entries once the registry
// has grown past its high-water mark. An entry is only removed when no
// goroutine holds or waits on it, so a session ID always maps to a
// single live lock.
func (l *SessionLocks) release(sessionID string, e *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 && len(l.entries) > l.highWater {
		delete(l.entries, sessionID)
	}
}

// Len reports the number of tracked sessions.
func (l *SessionLocks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
