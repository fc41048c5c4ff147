package service

import "sync"

// subscribers is a small fan-out list. Callbacks run synchronously on the
// publishing goroutine, outside any lock.
type subscribers[E any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(E)
}

func (s *subscribers[E]) add(fn func(E)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = make(map[int]func(E))
	}
	id := s.next
	s.next++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

func (s *subscribers[E]) publish(e E) {
	s.mu.Lock()
	fns := make([]func(E), 0, len(s.fns))
	// registration order
	for i := 0; i < s.next; i++ {
		if fn, ok := s.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
