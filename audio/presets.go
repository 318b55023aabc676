package audio

import (
	"fmt"
	"sort"
)

type Device interface {
	Set(key string, val interface{}) error
	Get(key string) (interface{}, error)
}

type preset map[string]interface{}

var presets = map[string]preset{
	"pluck": preset{
		"level":       -10.,
		"env.attack":  0.002,
		"env.decay":   0.25,
		"env.sustain": 0.,
		"env.release": 0.08,
	},
	"pad": preset{
		"level":       -14.,
		"env.attack":  0.6,
		"env.decay":   0.5,
		"env.sustain": 0.8,
		"env.release": 1.2,
	},
	"organ": preset{
		"level":       -12.,
		"env.attack":  0.01,
		"env.decay":   0.1,
		"env.sustain": 1.,
		"env.release": 0.1,
	},
}

func LoadPreset(name string, d Device) error {
	p, ok := presets[name]
	if !ok {
		return fmt.Errorf("unknown preset: %v", name)
	}
	for k, v := range p {
		if err := d.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}

func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
