package scheduler

import "github.com/san-kum/coilsim/internal/protocol"

// timeEpsilon absorbs the float drift of repeated interval additions
// when comparing event times at a train boundary.
const timeEpsilon = 1e-9

// thetaScheduler emits theta-burst stimulation: bursts of 3 pulses at
// 50 Hz, repeating at 5 Hz. The first burst of a train fires at the
// train start, so a 2-second iTBS train packs exactly 10 bursts (30
// pulses) before its 8-second pause. cTBS runs one uninterrupted
// sequence of bursts.
//
// The tick walks the active-time axis event by event: the next due
// pulse follows from the position within the current burst, and for
// iTBS the train end competes with it for the same time slice.
type thetaScheduler struct {
	p          protocol.Protocol
	continuous bool

	trainTime   float64 // active seconds into the current train
	nextPulseAt float64 // active-time position of the next due pulse
	burstPulse  int     // pulses already emitted in the current burst
	inITI       bool
	itiAcc      float64
	delivered   int
}

func newTheta(p protocol.Protocol) *thetaScheduler {
	return &thetaScheduler{p: p, continuous: p.Type == protocol.CTBS}
}

const (
	intraPulseGap = 1 / protocol.IntraBurstRate
	burstPeriod   = 1 / protocol.BurstRate
)

func (s *thetaScheduler) Tick(dt float64) int {
	if dt <= 0 || s.Done() {
		return 0
	}

	emitted := 0
	remaining := dt
	for remaining > 0 && !s.Done() {
		if s.inITI {
			need := protocol.ITBSInterTrainSeconds - s.itiAcc
			if remaining < need {
				s.itiAcc += remaining
				break
			}
			remaining -= need
			s.inITI = false
			s.itiAcc = 0
			s.trainTime = 0
			s.nextPulseAt = 0
			s.burstPulse = 0
			continue
		}

		duePulse := s.nextPulseAt - s.trainTime
		if duePulse < 0 {
			duePulse = 0
		}

		if !s.continuous {
			dueEnd := protocol.ITBSTrainSeconds - s.trainTime
			if dueEnd <= duePulse+timeEpsilon {
				// The train closes before (or exactly as) the next
				// burst would start.
				if remaining < dueEnd {
					s.trainTime += remaining
					break
				}
				remaining -= dueEnd
				s.inITI = true
				s.itiAcc = 0
				continue
			}
		}

		if remaining < duePulse {
			s.trainTime += remaining
			break
		}
		remaining -= duePulse
		s.trainTime = s.nextPulseAt
		s.delivered++
		emitted++

		s.burstPulse++
		if s.burstPulse >= protocol.PulsesPerBurst {
			s.burstPulse = 0
			s.nextPulseAt += burstPeriod - float64(protocol.PulsesPerBurst-1)*intraPulseGap
		} else {
			s.nextPulseAt += intraPulseGap
		}
	}
	return emitted
}

func (s *thetaScheduler) Delivered() int { return s.delivered }

func (s *thetaScheduler) Done() bool { return s.delivered >= s.p.TotalPulses }

func (s *thetaScheduler) InInterTrain() bool { return s.inITI }

func (s *thetaScheduler) InterTrainProgress() float64 {
	if !s.inITI {
		return 0
	}
	progress := s.itiAcc / protocol.ITBSInterTrainSeconds
	if progress > 1 {
		progress = 1
	}
	return progress
}

func (s *thetaScheduler) InterTrainRemaining() float64 {
	if !s.inITI {
		return 0
	}
	remaining := protocol.ITBSInterTrainSeconds - s.itiAcc
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (s *thetaScheduler) Reset() {
	s.trainTime = 0
	s.nextPulseAt = 0
	s.burstPulse = 0
	s.inITI = false
	s.itiAcc = 0
	s.delivered = 0
}
