package snapshot

import (
	"sync"
	"sync/atomic"
)

// Publisher holds the latest snapshot. Readers never block on the writer.
type Publisher struct {
	mu      sync.Mutex // serialises publishers; readers use latest only
	version uint64
	latest  atomic.Pointer[Snapshot]
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// Publish stamps s with the next version and makes it the latest snapshot.
// s must not be modified afterwards.
func (p *Publisher) Publish(s *Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.version++
	s.version = p.version
	p.latest.Store(s)
}

// Latest returns the most recently published snapshot, or nil before the
// first publication.
func (p *Publisher) Latest() *Snapshot {
	return p.latest.Load()
}
