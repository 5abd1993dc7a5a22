package catalog

import "sync"

// Ticket identifies one in-flight request started through a Fence.
type Ticket[K comparable] struct {
	Key K
	seq uint64
}

// Fence drops responses to requests that a newer request has superseded.
// Call Begin before issuing a request and Current before applying its
// response.
type Fence[K comparable] struct {
	mu  sync.Mutex
	seq uint64
	key K
}

// Begin records key as the latest request and returns its ticket.
func (f *Fence[K]) Begin(key K) Ticket[K] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.key = key
	return Ticket[K]{Key: key, seq: f.seq}
}

// Current reports whether t is still the latest request.
func (f *Fence[K]) Current(t Ticket[K]) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return t.seq == f.seq && t.Key == f.key
}

// Latest returns the key of the most recent request.
func (f *Fence[K]) Latest() K {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.key
}
