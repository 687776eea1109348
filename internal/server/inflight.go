package server

import "sync"

// publishGuard prevents concurrent publish attempts for one document. There
// is no server-side lock on drafts, so the HTTP layer refuses re-invocation
// while an attempt is in flight.
type publishGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func newPublishGuard() *publishGuard {
	return &publishGuard{inFlight: make(map[string]struct{})}
}

func (g *publishGuard) tryAcquire(documentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[documentID]; busy {
		return false
	}
	g.inFlight[documentID] = struct{}{}
	return true
}

func (g *publishGuard) release(documentID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, documentID)
}
