//go:build singlethread

package guard

// Mutex compiles to nothing: there is no audio callback thread to
// synchronize with.
type Mutex struct{}

func (m *Mutex) Lock()   {}
func (m *Mutex) Unlock() {}
