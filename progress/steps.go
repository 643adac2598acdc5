package progress

import (
	"errors"
	"fmt"
)

var ErrInvalidSteps = errors.New("invalid loading steps")

// LoadingStep is one stage shown while an analysis is pending.
type LoadingStep struct {
	Message  string `json:"message" yaml:"message"`
	Progress int    `json:"progress" yaml:"progress"`
	Tip      string `json:"tip,omitempty" yaml:"tip,omitempty"`
}

// Steps is an ordered step sequence. The last step is reserved for the
// moment the result arrives.
type Steps []LoadingStep

// Validate requires at least two steps, non-decreasing progress within
// [0,100] and a final step at 100.
func (s Steps) Validate() error {
	if len(s) < 2 {
		return fmt.Errorf("%w: need at least 2 steps, got %d", ErrInvalidSteps, len(s))
	}
	prev := 0
	for i, st := range s {
		if st.Progress < 0 || st.Progress > 100 {
			return fmt.Errorf("%w: step %d progress %d outside [0,100]", ErrInvalidSteps, i, st.Progress)
		}
		if st.Progress < prev {
			return fmt.Errorf("%w: step %d progress %d below previous %d", ErrInvalidSteps, i, st.Progress, prev)
		}
		prev = st.Progress
	}
	if last := s[len(s)-1].Progress; last != 100 {
		return fmt.Errorf("%w: last step must reach 100, got %d", ErrInvalidSteps, last)
	}
	return nil
}

// Last is the index of the completed step.
func (s Steps) Last() int { return len(s) - 1 }

// DefaultSteps are the five stages of a combined analysis.
func DefaultSteps() Steps {
	return Steps{
		{
			Message:  "Downloading historical prices...",
			Progress: 25,
			Tip:      "Fetching the last 60 days of closing prices",
		},
		{
			Message:  "Training the Prophet model on 60 days of history...",
			Progress: 50,
			Tip:      "Prophet looks for daily and weekly patterns",
		},
		{
			Message:  "Computing technical indicators (RSI, MACD)...",
			Progress: 75,
			Tip:      "RSI spots overbought/oversold levels, MACD measures momentum",
		},
		{
			Message:  "Generating the final recommendation...",
			Progress: 90,
			Tip:      "Blending the forecast with technical signals",
		},
		{
			Message:  "Analysis complete!",
			Progress: 100,
			Tip:      "Results ready to view",
		},
	}
}
