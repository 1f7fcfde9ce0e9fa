// Package audio gives stimulation pulses an audible click through
// portaudio. Frontends report emitted pulses from the session tick;
// the callback synthesizes one short transient per pulse.
package audio

import (
	"math"
	"sync"

	"github.com/gordonklaus/portaudio"
)

const (
	SampleRate = 44100
	BufferSize = 1024

	// Click envelope and carrier. A short decaying sine reads as the
	// capacitor-discharge click of a stimulator without being harsh.
	clickFreq  = 950.0
	clickDecay = 220.0 // 1/s amplitude decay
	clickGain  = 0.35
	maxVoices  = 24
)

type voice struct {
	t float64
}

type Processor struct {
	stream *portaudio.Stream

	mu      sync.Mutex
	pending int
	voices  []voice
	active  bool

	// One-pole smoothing keeps the transient from aliasing into a
	// harsh digital tick.
	filterState [2]float64
}

func NewProcessor() *Processor {
	return &Processor{voices: make([]voice, 0, maxVoices)}
}

// Start opens the default output device. Output only, no capture:
// duplex streams often fail on Linux when in and out devices differ.
func (a *Processor) Start() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, a.process)
	if err != nil {
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return err
	}

	a.stream = stream
	a.mu.Lock()
	a.active = true
	a.mu.Unlock()
	return nil
}

// Stop is idempotent: a second call is a no-op.
func (a *Processor) Stop() {
	if a.stream == nil {
		return
	}
	a.stream.Stop()
	a.stream.Close()
	a.stream = nil
	portaudio.Terminate()
	a.mu.Lock()
	a.active = false
	a.pending = 0
	a.voices = a.voices[:0]
	a.mu.Unlock()
}

func (a *Processor) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// Pulse queues n clicks for the next callback. Safe from any goroutine.
func (a *Processor) Pulse(n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	a.pending += n
	a.mu.Unlock()
}

func lpf(sample, cutoff, dt, state float64) (float64, float64) {
	rc := 1.0 / (2.0 * math.Pi * cutoff)
	alpha := dt / (rc + dt)
	out := state + alpha*(sample-state)
	return out, out
}

func (a *Processor) process(out [][]float32) {
	a.mu.Lock()
	for a.pending > 0 && len(a.voices) < maxVoices {
		a.voices = append(a.voices, voice{})
		a.pending--
	}
	// Overflow pulses fold into the newest voice rather than queueing
	// an ever-growing backlog.
	a.pending = 0
	active := a.voices
	a.mu.Unlock()

	dt := 1.0 / float64(SampleRate)
	for i := 0; i < len(out[0]); i++ {
		sample := 0.0
		for v := range active {
			env := math.Exp(-clickDecay * active[v].t)
			sample += env * math.Sin(2*math.Pi*clickFreq*active[v].t)
			active[v].t += dt
		}
		sample *= clickGain

		var l, r float64
		l, a.filterState[0] = lpf(sample, 4000, dt, a.filterState[0])
		r, a.filterState[1] = lpf(sample, 4000, dt, a.filterState[1])
		out[0][i] = float32(l)
		out[1][i] = float32(r)
	}

	// Retire voices that decayed below hearing.
	a.mu.Lock()
	keep := a.voices[:0]
	for _, v := range a.voices {
		if math.Exp(-clickDecay*v.t) > 1e-3 {
			keep = append(keep, v)
		}
	}
	a.voices = keep
	a.mu.Unlock()
}
