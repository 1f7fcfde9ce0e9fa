package protocol

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Default is the out-of-the-box protocol, identical to the
// depression-10hz preset.
func Default() Protocol {
	return Presets["depression-10hz"]
}

// Load reads a protocol yaml file over the default values and
// validates the result.
func Load(path string) (*Protocol, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse protocol %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func Save(path string, p Protocol) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
