package scheduler

import "github.com/san-kum/coilsim/internal/protocol"

// Scheduler turns elapsed time into discrete pulse emissions for one
// protocol. Implementations are single-threaded: one Tick per frame,
// queries between ticks.
type Scheduler interface {
	// Tick advances the schedule by dt seconds and returns the number
	// of pulses emitted during this tick. Large deltas are tolerated;
	// callers clamp dt to keep catch-up bounded.
	Tick(dt float64) int

	Delivered() int
	Done() bool

	InInterTrain() bool
	// InterTrainProgress reports how far the current pause has run,
	// in [0, 1]. Zero outside a pause.
	InterTrainProgress() float64
	// InterTrainRemaining reports the seconds left in the current
	// pause. Zero outside a pause.
	InterTrainRemaining() float64

	// Reset returns the scheduler to its pre-session state.
	Reset()
}

// New builds the scheduler variant for a protocol. Invalid protocols
// are refused here so that no session ever starts on one.
func New(p protocol.Protocol) (Scheduler, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch p.Type {
	case protocol.ITBS, protocol.CTBS:
		return newTheta(p), nil
	default:
		return newStandard(p), nil
	}
}
