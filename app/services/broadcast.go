package services

import (
	"sync"

	"postdirectory/app/models"
)

// UpdateHandler receives the full post list after every change.
type UpdateHandler func(posts []models.Post)

// broadcaster fans a post list out to registered handlers. Handlers run
// synchronously on the publishing goroutine, in subscription order.
// Every list carries a version; a list older than the newest one already
// handed out is never delivered.
type broadcaster struct {
	mu        sync.Mutex
	nextID    uint64
	handlers  []registration
	delivered uint64
}

type registration struct {
	id uint64
	fn UpdateHandler
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	id   uint64
	b    *broadcaster
	once sync.Once
}

// Unsubscribe stops further deliveries. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.b.remove(s.id)
	})
}

func (b *broadcaster) subscribe(fn UpdateHandler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.handlers = append(b.handlers, registration{id: b.nextID, fn: fn})
	return &Subscription{id: b.nextID, b: b}
}

func (b *broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, reg := range b.handlers {
		if reg.id == id {
			b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
			return
		}
	}
}

// publish delivers a copy of posts, taken at the given version, to every
// current handler. Delivery stops as soon as a newer version has started.
func (b *broadcaster) publish(version uint64, posts []models.Post) {
	b.mu.Lock()
	if version <= b.delivered {
		b.mu.Unlock()
		return
	}
	b.delivered = version
	handlers := append([]registration(nil), b.handlers...)
	b.mu.Unlock()

	// Fire handlers outside the lock so they may call back into the directory.
	for _, reg := range handlers {
		if b.superseded(version) {
			return
		}
		snapshot := make([]models.Post, len(posts))
		copy(snapshot, posts)
		reg.fn(snapshot)
	}
}

func (b *broadcaster) superseded(version uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return version < b.delivered
}

// count reports the number of registered handlers.
func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers)
}
