// Package led pushes RGB frames to an output sink: an addressable strip over
// SPI, a console preview, or a simulator.
package led

import "sync"

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sim is a no-hardware driver that remembers the last frame written.
type Sim struct {
	mu   sync.Mutex
	last []byte
}

func NewSim() *Sim { return &Sim{} }

func (s *Sim) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = append(s.last[:0], rgb...)
	return nil
}

// Last returns a copy of the most recent frame.
func (s *Sim) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.last...)
}

func (s *Sim) Close() error { return nil }
