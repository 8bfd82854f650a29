// Package debounce suppresses redundant history writes for the same chat
// issued in quick succession, e.g. rapid autosave retriggers from the client.
// It is a per-process guard only: it does not give exclusivity across server
// instances.
package debounce

import (
	"sync"
	"time"
)

const (
	// DefaultWindow matches the client's autosave debounce interval.
	DefaultWindow = 1000 * time.Millisecond

	sweepFactor = 5
)

type Guard struct {
	window time.Duration

	mu       sync.Mutex
	accepted map[string]time.Time
}

func NewGuard(window time.Duration) *Guard {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Guard{
		window:   window,
		accepted: make(map[string]time.Time),
	}
}

// ShouldPersist reports whether a write for chatID at time now may reach the
// history store. The window check and the timestamp update happen under one
// lock so two writes arriving in the same tick cannot both be accepted.
// Accepting a write also sweeps records older than five windows to bound the
// map.
func (g *Guard) ShouldPersist(chatID string, now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if last, ok := g.accepted[chatID]; ok && now.Sub(last) < g.window {
		return false
	}

	g.accepted[chatID] = now

	horizon := g.window * sweepFactor
	for id, at := range g.accepted {
		if now.Sub(at) > horizon {
			delete(g.accepted, id)
		}
	}

	return true
}

// Forget drops the record for chatID so a future save is accepted
// immediately. Called when the chat itself is deleted.
func (g *Guard) Forget(chatID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.accepted, chatID)
}
