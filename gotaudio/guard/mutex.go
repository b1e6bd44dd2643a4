//go:build !singlethread

package guard

import "sync"

// Mutex is a real mutual exclusion lock.
type Mutex struct {
	mu sync.Mutex
}

func (m *Mutex) Lock()   { m.mu.Lock() }
func (m *Mutex) Unlock() { m.mu.Unlock() }
