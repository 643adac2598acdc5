package progress

// Simulator advances through Steps on every tick while a result is pending.
// It never reaches the last step on its own; only Complete does. It is not
// safe for concurrent use, Driver serializes access.
type Simulator struct {
	steps Steps
	step  int
	done  bool
}

func NewSimulator(steps Steps) (*Simulator, error) {
	if err := steps.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{steps: steps}, nil
}

// Tick moves to min(step+1, N-2). Ticks after Complete or Fail are ignored.
func (s *Simulator) Tick() int {
	if s.done {
		return s.step
	}
	if next := s.step + 1; next <= len(s.steps)-2 {
		s.step = next
	}
	return s.step
}

// Complete forces the last step and freezes the simulator.
func (s *Simulator) Complete() int {
	if !s.done {
		s.step = s.steps.Last()
		s.done = true
	}
	return s.step
}

// Fail freezes the simulator where it is.
func (s *Simulator) Fail() {
	s.done = true
}

func (s *Simulator) Index() int { return s.step }

func (s *Simulator) Done() bool { return s.done }

func (s *Simulator) Current() LoadingStep { return s.steps[s.step] }

func (s *Simulator) Steps() Steps { return s.steps }
