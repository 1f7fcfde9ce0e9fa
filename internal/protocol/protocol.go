package protocol

import "math"

// Type selects the pulse-timing pattern of a stimulation protocol.
type Type string

const (
	Standard Type = "standard"
	ITBS     Type = "itbs"
	CTBS     Type = "ctbs"
)

// Theta-burst timing is fixed by the stimulation pattern itself and is
// not configurable per protocol.
const (
	BurstRate             = 5.0  // bursts per second
	IntraBurstRate        = 50.0 // pulses per second within a burst
	PulsesPerBurst        = 3
	ITBSTrainSeconds      = 2.0
	ITBSInterTrainSeconds = 8.0
)

// Protocol describes one stimulation session. Frequency, PulsesPerTrain
// and InterTrainInterval drive the standard scheduler; theta-burst
// types take their timing from the fixed constants above and only read
// TotalPulses. A protocol is immutable while a session runs.
type Protocol struct {
	Name               string  `yaml:"name,omitempty"`
	Type               Type    `yaml:"type"`
	Frequency          float64 `yaml:"frequency_hz"`
	PulsesPerTrain     int     `yaml:"pulses_per_train"`
	InterTrainInterval float64 `yaml:"inter_train_interval_s"`
	TotalPulses        int     `yaml:"total_pulses"`
}

func (p Protocol) Validate() error {
	switch p.Type {
	case Standard, ITBS, CTBS:
	default:
		return ErrUnknownType
	}
	if p.TotalPulses <= 0 {
		return ErrNonPositiveTotalPulses
	}
	if p.InterTrainInterval < 0 {
		return ErrNegativeInterTrain
	}
	if p.Type == Standard {
		if p.Frequency <= 0 {
			return ErrNonPositiveFrequency
		}
		if p.PulsesPerTrain <= 0 {
			return ErrNonPositivePulsesPerTrain
		}
		return nil
	}
	// Theta-burst fields are ignored but still must not be nonsense.
	if p.Frequency < 0 {
		return ErrNonPositiveFrequency
	}
	if p.PulsesPerTrain < 0 {
		return ErrNonPositivePulsesPerTrain
	}
	return nil
}

// TrainPulses is the pulse count of one full train: the configured
// count for standard protocols, one 2-second block of bursts for iTBS,
// and the whole session for cTBS.
func (p Protocol) TrainPulses() int {
	switch p.Type {
	case ITBS:
		return int(ITBSTrainSeconds * BurstRate * PulsesPerBurst)
	case CTBS:
		return p.TotalPulses
	default:
		return p.PulsesPerTrain
	}
}

// TrainDuration is the nominal duration of one full train in seconds.
func (p Protocol) TrainDuration() float64 {
	switch p.Type {
	case ITBS:
		return ITBSTrainSeconds
	case CTBS:
		bursts := math.Ceil(float64(p.TotalPulses) / PulsesPerBurst)
		return bursts / BurstRate
	default:
		if p.Frequency <= 0 {
			return 0
		}
		return float64(p.PulsesPerTrain) / p.Frequency
	}
}

// InterTrain is the pause between trains in seconds.
func (p Protocol) InterTrain() float64 {
	switch p.Type {
	case ITBS:
		return ITBSInterTrainSeconds
	case CTBS:
		return 0
	default:
		return p.InterTrainInterval
	}
}

func (p Protocol) TotalTrains() int {
	per := p.TrainPulses()
	if per <= 0 {
		return 0
	}
	return int(math.Ceil(float64(p.TotalPulses) / float64(per)))
}

// SessionDuration is the nominal wall-clock length of the session:
// every train at full length plus the pauses between them.
func (p Protocol) SessionDuration() float64 {
	trains := p.TotalTrains()
	if trains <= 0 {
		return 0
	}
	return float64(trains)*p.TrainDuration() + float64(trains-1)*p.InterTrain()
}
