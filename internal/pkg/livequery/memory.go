package livequery

import (
	"context"
	"sync"
)

// MemoryFeed is an in-process Feed, used when Redis is unavailable and in tests.
type MemoryFeed struct {
	mu      sync.Mutex
	clients map[uint]map[chan struct{}]struct{}
}

func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{clients: make(map[uint]map[chan struct{}]struct{})}
}

func (f *MemoryFeed) Publish(ctx context.Context, userID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.clients[userID] {
		notify(ch)
	}
	return nil
}

func (f *MemoryFeed) Subscribe(ctx context.Context, userID uint) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)

	f.mu.Lock()
	if f.clients[userID] == nil {
		f.clients[userID] = make(map[chan struct{}]struct{})
	}
	f.clients[userID][ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.clients[userID], ch)
		if len(f.clients[userID]) == 0 {
			delete(f.clients, userID)
		}
		close(ch)
		f.mu.Unlock()
	}()

	return ch, nil
}

// Subscribers returns the number of live subscriptions for userID.
func (f *MemoryFeed) Subscribers(userID uint) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients[userID])
}
