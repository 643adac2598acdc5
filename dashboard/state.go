package dashboard

import (
	"stkdecider/models"
	"stkdecider/progress"
	"stkdecider/service"
	"stkdecider/visual"
)

// State is everything the analysis page displays. Only Reduce produces new
// states.
type State struct {
	RequestID   uint64                   `json:"requestId"`
	Symbol      string                   `json:"symbol"`
	Days        int                      `json:"days"`
	Loading     bool                     `json:"loading"`
	Step        int                      `json:"step"`
	TotalSteps  int                      `json:"totalSteps"`
	LoadingStep *progress.LoadingStep    `json:"loadingStep,omitempty"`
	Analysis    *visual.AnalysisView     `json:"analysis,omitempty"`
	Raw         *models.CombinedAnalysis `json:"-"`
	Err         *service.UserError       `json:"error,omitempty"`

	Steps   progress.Steps       `json:"-"`
	pending *visual.AnalysisView // composed result waiting for the reveal delay
	raw     *models.CombinedAnalysis
}

// NewState is the idle page.
func NewState(steps progress.Steps) State {
	return State{Steps: steps, TotalSteps: len(steps)}
}

// Event is a page transition.
type Event interface {
	requestID() uint64
}

type Submit struct {
	ID     uint64
	Symbol string
	Days   int
}

type Tick struct {
	ID   uint64
	Step int
}

type Succeeded struct {
	ID     uint64
	Result *visual.AnalysisView
	Raw    *models.CombinedAnalysis
}

type Revealed struct {
	ID uint64
}

type Failed struct {
	ID  uint64
	Err *service.UserError
}

// Rejected reports an input error found before any request was issued.
type Rejected struct {
	ID  uint64
	Err *service.UserError
}

func (e Submit) requestID() uint64    { return e.ID }
func (e Tick) requestID() uint64      { return e.ID }
func (e Succeeded) requestID() uint64 { return e.ID }
func (e Revealed) requestID() uint64  { return e.ID }
func (e Failed) requestID() uint64    { return e.ID }
func (e Rejected) requestID() uint64  { return e.ID }

// Reduce applies ev to s. Submit and Rejected start a new request id; every
// other event carrying an id other than s.RequestID is stale and leaves s
// unchanged.
func Reduce(s State, ev Event) State {
	switch e := ev.(type) {
	case Submit:
		if e.ID <= s.RequestID {
			return s
		}
		return State{
			RequestID:   e.ID,
			Symbol:      e.Symbol,
			Days:        e.Days,
			Loading:     true,
			Step:        0,
			TotalSteps:  len(s.Steps),
			LoadingStep: stepAt(s.Steps, 0),
			Steps:       s.Steps,
		}

	case Rejected:
		if e.ID <= s.RequestID {
			return s
		}
		return State{
			RequestID:  e.ID,
			TotalSteps: len(s.Steps),
			Err:        e.Err,
			Steps:      s.Steps,
		}
	}

	if ev.requestID() != s.RequestID || !s.Loading {
		return s
	}

	switch e := ev.(type) {
	case Tick:
		// the autonomous advance never reaches the completed step
		if s.pending != nil || e.Step <= s.Step || e.Step > len(s.Steps)-2 {
			return s
		}
		s.Step = e.Step
		s.LoadingStep = stepAt(s.Steps, e.Step)

	case Succeeded:
		s.Step = len(s.Steps) - 1
		s.LoadingStep = stepAt(s.Steps, s.Step)
		s.pending = e.Result
		s.raw = e.Raw

	case Revealed:
		if s.pending == nil {
			return s
		}
		s.Loading = false
		s.Analysis = s.pending
		s.Raw = s.raw
		s.pending, s.raw = nil, nil
		s.LoadingStep = nil

	case Failed:
		s.Loading = false
		s.LoadingStep = nil
		s.Analysis = nil
		s.Raw = nil
		s.pending, s.raw = nil, nil
		s.Err = e.Err
	}
	return s
}

func stepAt(steps progress.Steps, i int) *progress.LoadingStep {
	if i < 0 || i >= len(steps) {
		return nil
	}
	st := steps[i]
	return &st
}
