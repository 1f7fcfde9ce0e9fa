package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/coilsim/internal/protocol"
	"github.com/san-kum/coilsim/internal/scheduler"
)

func TestPulseSpectrum_Synthetic10Hz(t *testing.T) {
	// One pulse every 10 ticks at dt=0.01 is a clean 10 Hz comb.
	dt := 0.01
	train := make([]int, 1024)
	for i := range train {
		if i%10 == 0 {
			train[i] = 1
		}
	}

	s := PulseSpectrum(train, dt)
	got := s.DominantFrequency()
	if math.Abs(got-10) > 0.5 {
		t.Errorf("dominant frequency %.3f Hz, want 10 +- 0.5", got)
	}
}

func TestPulseSpectrum_DegenerateInput(t *testing.T) {
	if s := PulseSpectrum(nil, 0.01); len(s.Power) != 0 {
		t.Error("nil train produced a spectrum")
	}
	if s := PulseSpectrum([]int{1, 0, 0, 1}, 0); len(s.Power) != 0 {
		t.Error("zero dt produced a spectrum")
	}
	if f := (Spectrum{}).DominantFrequency(); f != 0 {
		t.Errorf("empty spectrum dominant frequency %v", f)
	}
}

func TestVerifyProtocol_ScheduledStandardRun(t *testing.T) {
	p := protocol.Protocol{
		Type: protocol.Standard, Frequency: 8, PulsesPerTrain: 1000,
		InterTrainInterval: 0, TotalPulses: 1000,
	}
	sched, err := scheduler.New(p)
	if err != nil {
		t.Fatal(err)
	}

	dt := 1.0 / 128
	train := make([]int, 4096)
	for i := range train {
		train[i] = sched.Tick(dt)
	}

	measured, expected, ok := VerifyProtocol(PulseSpectrum(train, dt), p, 0.5)
	if !ok {
		t.Errorf("measured %.3f Hz, expected %.3f Hz", measured, expected)
	}
}

func TestVerifyProtocol_ThetaExpectsBurstRate(t *testing.T) {
	p := *protocol.GetPreset("ctbs-600")
	if ExpectedFrequency(p) != protocol.BurstRate {
		t.Fatalf("theta expected frequency %v, want burst rate", ExpectedFrequency(p))
	}

	sched, err := scheduler.New(p)
	if err != nil {
		t.Fatal(err)
	}
	dt := 1.0 / 256
	train := make([]int, 8192)
	for i := range train {
		train[i] = sched.Tick(dt)
	}

	measured, expected, ok := VerifyProtocol(PulseSpectrum(train, dt), p, 0.5)
	if !ok {
		t.Errorf("measured %.3f Hz, expected %.3f Hz", measured, expected)
	}
}
