package protocol

import "sort"

var Presets = map[string]Protocol{
	"depression-10hz": {
		Name: "depression-10hz", Type: Standard,
		Frequency: 10, PulsesPerTrain: 40, InterTrainInterval: 11, TotalPulses: 3000,
	},
	"low-frequency-1hz": {
		Name: "low-frequency-1hz", Type: Standard,
		Frequency: 1, PulsesPerTrain: 600, InterTrainInterval: 0, TotalPulses: 600,
	},
	"motor-threshold": {
		Name: "motor-threshold", Type: Standard,
		Frequency: 0.2, PulsesPerTrain: 1, InterTrainInterval: 0, TotalPulses: 20,
	},
	"itbs-600": {
		Name: "itbs-600", Type: ITBS, TotalPulses: 600,
	},
	"ctbs-600": {
		Name: "ctbs-600", Type: CTBS, TotalPulses: 600,
	},
}

func GetPreset(name string) *Protocol {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return &p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
