package service

import "sync"

// sessionLocks serializa mutaciones por token de sesion dentro del proceso.
// Dos requests concurrentes sobre el mismo token se ordenan aca; entre
// procesos, el chequeo optimista de version del repositorio cubre el resto.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[string]*sessionLockEntry
}

type sessionLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[string]*sessionLockEntry)}
}

func (l *sessionLocks) Lock(token string) {
	l.mu.Lock()
	entry, ok := l.entries[token]
	if !ok {
		entry = &sessionLockEntry{}
		l.entries[token] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *sessionLocks) Unlock(token string) {
	l.mu.Lock()
	entry := l.entries[token]
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, token)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
