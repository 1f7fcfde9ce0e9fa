// Package analysis verifies recorded pulse trains against their
// protocol: the per-tick emission counts of a run are transformed into
// a power spectrum whose dominant frequency should match the
// protocol's pulse rate (standard) or burst repetition rate (theta).
package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/coilsim/internal/protocol"
)

// Spectrum is one-sided: Power[i] is the magnitude at frequency
// i*BinHz, up to the Nyquist rate.
type Spectrum struct {
	Power []float64
	BinHz float64
}

// PulseSpectrum computes the power spectrum of a pulse train sampled
// at fixed tick size dt. The mean is removed and a Hann window applied
// before the transform, so the DC component does not mask the pulse
// rate. The input is zero-padded to a power of two.
func PulseSpectrum(pulsesPerTick []int, dt float64) Spectrum {
	if len(pulsesPerTick) < 2 || dt <= 0 {
		return Spectrum{}
	}

	mean := 0.0
	for _, n := range pulsesPerTick {
		mean += float64(n)
	}
	mean /= float64(len(pulsesPerTick))

	n := 1
	for n < len(pulsesPerTick) {
		n *= 2
	}
	data := make([]float64, n)
	for i, v := range pulsesPerTick {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(len(pulsesPerTick)-1)))
		data[i] = (float64(v) - mean) * window
	}

	spectrum := fft.FFTReal(data)
	power := make([]float64, n/2)
	for i := range power {
		power[i] = cmplx.Abs(spectrum[i])
	}
	return Spectrum{Power: power, BinHz: 1 / (float64(n) * dt)}
}

// DominantFrequency returns the fundamental of the spectrum: the
// lowest non-DC bin whose power reaches the spectral peak. An ideal
// pulse comb carries equal power at every harmonic, so taking the
// first near-peak bin selects the pulse rate rather than an arbitrary
// multiple of it. Zero for an empty spectrum.
func (s Spectrum) DominantFrequency() float64 {
	peak := 0.0
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] > peak {
			peak = s.Power[i]
		}
	}
	if peak == 0 {
		return 0
	}
	for i := 1; i < len(s.Power); i++ {
		if s.Power[i] >= 0.9*peak {
			return float64(i) * s.BinHz
		}
	}
	return 0
}

// ExpectedFrequency is the rate the dominant spectral line of a run
// should sit at: the pulse frequency for standard protocols, the
// burst repetition rate for theta-burst ones.
func ExpectedFrequency(p protocol.Protocol) float64 {
	switch p.Type {
	case protocol.ITBS, protocol.CTBS:
		return protocol.BurstRate
	default:
		return p.Frequency
	}
}

// VerifyProtocol checks a spectrum's dominant frequency against the
// protocol within tolHz.
func VerifyProtocol(s Spectrum, p protocol.Protocol, tolHz float64) (measured, expected float64, ok bool) {
	measured = s.DominantFrequency()
	expected = ExpectedFrequency(p)
	return measured, expected, math.Abs(measured-expected) <= tolHz
}
