package scheduler_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/scheduler"
)

// drive ticks a scheduler with a fixed dt until it finishes or the
// time budget runs out, returning total pulses and the time of the
// last emission.
func drive(s scheduler.Scheduler, dt, maxSeconds float64) (total int, lastEmission float64) {
	t := 0.0
	for t < maxSeconds && !s.Done() {
		n := s.Tick(dt)
		t += dt
		if n > 0 {
			total += n
			lastEmission = t
		}
	}
	return total, lastEmission
}

var _ = Describe("scheduler.New", func() {
	It("refuses invalid protocols", func() {
		_, err := scheduler.New(protocol.Protocol{Type: protocol.Standard, Frequency: 0, PulsesPerTrain: 10, TotalPulses: 100})
		Expect(err).To(MatchError(protocol.ErrNonPositiveFrequency))

		_, err = scheduler.New(protocol.Protocol{Type: protocol.Standard, Frequency: 10, PulsesPerTrain: 0, TotalPulses: 100})
		Expect(err).To(MatchError(protocol.ErrNonPositivePulsesPerTrain))

		_, err = scheduler.New(protocol.Protocol{Type: protocol.Standard, Frequency: 10, PulsesPerTrain: 10, TotalPulses: 0})
		Expect(err).To(MatchError(protocol.ErrNonPositiveTotalPulses))

		_, err = scheduler.New(protocol.Protocol{Type: protocol.Standard, Frequency: 10, PulsesPerTrain: 10, InterTrainInterval: -1, TotalPulses: 100})
		Expect(err).To(MatchError(protocol.ErrNegativeInterTrain))

		_, err = scheduler.New(protocol.Protocol{Type: "burst", TotalPulses: 100})
		Expect(err).To(MatchError(protocol.ErrUnknownType))
	})

	It("picks the variant from the stimulation type", func() {
		s, err := scheduler.New(*protocol.GetPreset("depression-10hz"))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).NotTo(BeNil())

		s, err = scheduler.New(*protocol.GetPreset("itbs-600"))
		Expect(err).NotTo(HaveOccurred())
		Expect(s).NotTo(BeNil())
	})
})

var _ = Describe("standard scheduler", func() {
	p := protocol.Protocol{
		Type: protocol.Standard, Frequency: 10, PulsesPerTrain: 40,
		InterTrainInterval: 11, TotalPulses: 3000,
	}

	It("matches the derived session metrics for the 10 Hz depression protocol", func() {
		Expect(p.TrainDuration()).To(BeNumerically("~", 4.0, 1e-12))
		Expect(p.TotalTrains()).To(Equal(75))
		// 75 trains of 4 s with 74 pauses of 11 s between them.
		Expect(p.SessionDuration()).To(BeNumerically("~", 1114.0, 1e-9))
	})

	It("emits exactly TotalPulses and spans SessionDuration within one tick", func() {
		s, err := scheduler.New(p)
		Expect(err).NotTo(HaveOccurred())

		dt := 0.0078125 // exact in binary
		total, last := drive(s, dt, 2000)
		Expect(total).To(Equal(3000))
		Expect(s.Done()).To(BeTrue())
		Expect(last).To(BeNumerically("~", p.SessionDuration(), dt+1e-9))
	})

	It("never exceeds TotalPulses for adversarial tick deltas", func() {
		small := protocol.Protocol{
			Type: protocol.Standard, Frequency: 20, PulsesPerTrain: 5,
			InterTrainInterval: 0.5, TotalPulses: 37,
		}
		s, err := scheduler.New(small)
		Expect(err).NotTo(HaveOccurred())

		deltas := []float64{0.001, 3.0, 0.016, 50.0, 0.25, 100.0}
		total := 0
		for i := 0; i < 10000 && !s.Done(); i++ {
			total += s.Tick(deltas[i%len(deltas)])
			Expect(s.Delivered()).To(BeNumerically("<=", small.TotalPulses))
		}
		Expect(total).To(Equal(37))
	})

	It("emits nothing during the inter-train interval and reports its progress", func() {
		s, err := scheduler.New(p)
		Expect(err).NotTo(HaveOccurred())

		// Run out the first train.
		emitted := 0
		for emitted < 40 {
			emitted += s.Tick(0.05)
		}
		Expect(s.InInterTrain()).To(BeTrue())

		prev := s.InterTrainProgress()
		for i := 0; i < 100; i++ { // 5 s into the 11 s pause
			Expect(s.Tick(0.05)).To(BeZero())
			cur := s.InterTrainProgress()
			Expect(cur).To(BeNumerically(">=", prev))
			prev = cur
		}
		Expect(s.InInterTrain()).To(BeTrue())
		Expect(s.InterTrainRemaining()).To(BeNumerically("~", 6.0, 0.1))
	})

	It("skips the trailing interval after the final train", func() {
		tiny := protocol.Protocol{
			Type: protocol.Standard, Frequency: 10, PulsesPerTrain: 5,
			InterTrainInterval: 2, TotalPulses: 10,
		}
		s, err := scheduler.New(tiny)
		Expect(err).NotTo(HaveOccurred())

		total, _ := drive(s, 0.0078125, 60)
		Expect(total).To(Equal(10))
		Expect(s.InInterTrain()).To(BeFalse())
	})

	It("returns to zero state on Reset", func() {
		s, err := scheduler.New(p)
		Expect(err).NotTo(HaveOccurred())

		drive(s, 0.05, 30)
		Expect(s.Delivered()).NotTo(BeZero())

		s.Reset()
		Expect(s.Delivered()).To(BeZero())
		Expect(s.Done()).To(BeFalse())
		Expect(s.InInterTrain()).To(BeFalse())

		total, _ := drive(s, 0.0078125, 2000)
		Expect(total).To(Equal(3000))
	})
})

var _ = Describe("theta-burst scheduler", func() {
	Context("iTBS", func() {
		p := *protocol.GetPreset("itbs-600")

		It("emits 30 pulses per 2-second train and rests for 8 seconds", func() {
			s, err := scheduler.New(p)
			Expect(err).NotTo(HaveOccurred())

			dt := 0.001
			t := 0.0
			pulsesByWindow := map[int]int{}
			for !s.Done() && t < 300 {
				n := s.Tick(dt)
				t += dt
				if n > 0 {
					// Each 10-second cycle is 2 s active + 8 s pause.
					cycle := int(t / 10)
					offset := t - float64(cycle)*10
					Expect(offset).To(BeNumerically("<=", 2.0+2*dt),
						"pulse at %.3f s falls inside an 8 s pause", t)
					pulsesByWindow[cycle] += n
				}
			}
			Expect(s.Delivered()).To(Equal(600))
			// 600 pulses over 20 trains of 30.
			Expect(pulsesByWindow).To(HaveLen(20))
			for _, n := range pulsesByWindow {
				Expect(n).To(Equal(30))
			}
		})

		It("finishes near the nominal session duration", func() {
			Expect(p.TrainPulses()).To(Equal(30))
			Expect(p.TotalTrains()).To(Equal(20))
			// 20 trains of 2 s plus 19 pauses of 8 s.
			Expect(p.SessionDuration()).To(BeNumerically("~", 192.0, 1e-9))

			s, err := scheduler.New(p)
			Expect(err).NotTo(HaveOccurred())
			dt := 0.0078125
			_, last := drive(s, dt, 400)
			Expect(last).To(BeNumerically("~", p.SessionDuration(), 1.0))
		})
	})

	Context("cTBS", func() {
		p := *protocol.GetPreset("ctbs-600")

		It("runs bursts back to back with no inter-train interval", func() {
			s, err := scheduler.New(p)
			Expect(err).NotTo(HaveOccurred())

			dt := 0.001
			t := 0.0
			for !s.Done() && t < 100 {
				s.Tick(dt)
				Expect(s.InInterTrain()).To(BeFalse())
				t += dt
			}
			Expect(s.Delivered()).To(Equal(600))
			// 200 bursts at 5 Hz: just under 40 seconds.
			Expect(t).To(BeNumerically("~", 40.0, 1.0))
		})

		It("packs three pulses into each 50 Hz burst", func() {
			s, err := scheduler.New(p)
			Expect(err).NotTo(HaveOccurred())

			// The burst at t=0 finishes within 40 ms; the next
			// starts a burst period later at t=0.2.
			Expect(s.Tick(0.05)).To(Equal(3))
			Expect(s.Tick(0.1)).To(BeZero())
			Expect(s.Tick(0.06)).To(Equal(1))
		})
	})

	It("tolerates one giant delta without overshooting the total", func() {
		s, err := scheduler.New(*protocol.GetPreset("itbs-600"))
		Expect(err).NotTo(HaveOccurred())

		Expect(s.Tick(1e6)).To(Equal(600))
		Expect(s.Done()).To(BeTrue())
		Expect(s.Tick(1.0)).To(BeZero())
	})

	It("resets cleanly", func() {
		s, err := scheduler.New(*protocol.GetPreset("ctbs-600"))
		Expect(err).NotTo(HaveOccurred())
		s.Tick(5)
		Expect(s.Delivered()).NotTo(BeZero())

		s.Reset()
		Expect(s.Delivered()).To(BeZero())
		Expect(s.Tick(0.2)).To(Equal(3))
	})
})
