package recursive

import "github.com/hupe1980/plsom/som"

// Session threads its own excitations through a shared Stateless map, so one
// set of weights can follow many independent sequences. Each call swaps the
// session's excitations into the map and restores the map's own afterwards.
//
// Sessions of the same map must not be used concurrently.
type Session struct {
	m           *Stateless
	excitations []float64
}

// Classify runs a classification step for this session.
func (s *Session) Classify(input []float64) ([]int, error) {
	var winner []int
	err := s.run(func() error {
		var err error
		winner, err = s.m.Classify(input)
		return err
	})
	return winner, err
}

// Train runs a training step for this session. The weight update is shared
// by every session of the map.
func (s *Session) Train(input []float64) error {
	return s.run(func() error { return s.m.Train(input) })
}

func (s *Session) run(step func() error) error {
	p := s.m.policy
	saved := p.excitations
	p.excitations = s.excitations
	defer func() { p.excitations = saved }()

	if err := step(); err != nil {
		return err
	}
	s.excitations = p.excitations
	return nil
}

// Excitations returns a copy of the session's excitations, or nil before the
// first step.
func (s *Session) Excitations() []float64 {
	if s.excitations == nil {
		return nil
	}
	return append([]float64(nil), s.excitations...)
}

// SetExcitations replaces the session's excitations. nil starts a new sequence.
func (s *Session) SetExcitations(exc []float64) error {
	if exc == nil {
		s.excitations = nil
		return nil
	}
	if len(exc) != s.m.Len() {
		return &som.ErrDimensionMismatch{Expected: s.m.Len(), Actual: len(exc)}
	}
	s.excitations = append([]float64(nil), exc...)
	return nil
}

// Reset forgets the sequence.
func (s *Session) Reset() { s.excitations = nil }
