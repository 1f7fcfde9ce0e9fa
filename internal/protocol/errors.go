package protocol

import "errors"

// Validation errors for stimulation protocols.
var (
	// ErrUnknownType indicates a stimulation type outside {standard, itbs, ctbs}.
	ErrUnknownType = errors.New("protocol: unknown stimulation type")

	// ErrNonPositiveFrequency indicates a zero or negative pulse frequency.
	ErrNonPositiveFrequency = errors.New("protocol: frequency must be positive")

	// ErrNonPositivePulsesPerTrain indicates a zero or negative train size.
	ErrNonPositivePulsesPerTrain = errors.New("protocol: pulses per train must be positive")

	// ErrNonPositiveTotalPulses indicates a zero or negative session pulse count.
	ErrNonPositiveTotalPulses = errors.New("protocol: total pulses must be positive")

	// ErrNegativeInterTrain indicates a negative inter-train interval.
	ErrNegativeInterTrain = errors.New("protocol: inter-train interval must not be negative")
)
