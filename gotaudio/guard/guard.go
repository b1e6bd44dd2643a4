// Package guard provides the lock placed around audio state that is shared
// with the host audio callback thread. Targets that pump audio from the
// game loop itself (no callback thread) can build with the singlethread
// tag to compile the lock away while keeping the same API.
package guard
