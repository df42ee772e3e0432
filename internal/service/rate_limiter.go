package service

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter acota la cantidad de mensajes por clave (token de sesion)
// dentro de una ventana. Una implementacion nil o degradada debe ser
// permisiva: limitar es proteccion, no correctitud.
type RateLimiter interface {
	Allow(key string) bool
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	buckets map[string]*rateBucket
}

type rateBucket struct {
	count   int
	resetAt time.Time
}

// NewMemoryRateLimiter crea un limitador de ventana fija en memoria.
func NewMemoryRateLimiter(window time.Duration, max int) RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &memoryRateLimiter{
		window:  window,
		max:     max,
		buckets: make(map[string]*rateBucket),
	}
}

func (l *memoryRateLimiter) Allow(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return false
	}
	now := time.Now().UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok || now.After(bucket.resetAt) {
		l.buckets[key] = &rateBucket{count: 1, resetAt: now.Add(l.window)}
		return true
	}
	bucket.count++
	return bucket.count <= l.max
}
