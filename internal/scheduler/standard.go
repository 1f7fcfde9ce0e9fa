package scheduler

import "github.com/san-kum/coilsim/internal/protocol"

// standardScheduler emits pulses at a fixed frequency in trains of a
// fixed size, pausing for the inter-train interval between them. Each
// pulse waits one full interval, so the first pulse of a train lands
// one interval after the train starts and the nominal train duration
// pulsesPerTrain/frequency matches the emission span exactly.
type standardScheduler struct {
	p             protocol.Protocol
	pulseInterval float64

	pulseAcc   float64
	trainCount int
	delivered  int
	inITI      bool
	itiAcc     float64
}

func newStandard(p protocol.Protocol) *standardScheduler {
	return &standardScheduler{p: p, pulseInterval: 1 / p.Frequency}
}

func (s *standardScheduler) Tick(dt float64) int {
	if dt <= 0 || s.Done() {
		return 0
	}

	if s.inITI {
		s.itiAcc += dt
		if s.itiAcc < s.p.InterTrainInterval {
			return 0
		}
		// The pause ends mid-tick; the overshoot belongs to the next
		// train's pulse clock.
		carry := s.itiAcc - s.p.InterTrainInterval
		s.inITI = false
		s.itiAcc = 0
		s.pulseAcc = carry
	} else {
		s.pulseAcc += dt
	}

	emitted := 0
	for s.pulseAcc >= s.pulseInterval && !s.Done() {
		s.pulseAcc -= s.pulseInterval
		s.delivered++
		s.trainCount++
		emitted++

		if s.trainCount >= s.p.PulsesPerTrain {
			s.trainCount = 0
			if !s.Done() && s.p.InterTrainInterval > 0 {
				s.inITI = true
				s.pulseAcc = 0
				break
			}
		}
	}
	return emitted
}

func (s *standardScheduler) Delivered() int { return s.delivered }

func (s *standardScheduler) Done() bool { return s.delivered >= s.p.TotalPulses }

func (s *standardScheduler) InInterTrain() bool { return s.inITI }

func (s *standardScheduler) InterTrainProgress() float64 {
	if !s.inITI || s.p.InterTrainInterval <= 0 {
		return 0
	}
	progress := s.itiAcc / s.p.InterTrainInterval
	if progress > 1 {
		progress = 1
	}
	return progress
}

func (s *standardScheduler) InterTrainRemaining() float64 {
	if !s.inITI {
		return 0
	}
	remaining := s.p.InterTrainInterval - s.itiAcc
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

func (s *standardScheduler) Reset() {
	s.pulseAcc = 0
	s.trainCount = 0
	s.delivered = 0
	s.inITI = false
	s.itiAcc = 0
}
