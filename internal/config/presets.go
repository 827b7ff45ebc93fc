package config

import (
	"maps"
	"slices"
)

var Presets = map[string]*Config{
	"uniform": {
		Workload: "uniform", Bodies: 128, Systems: 4,
		Ticks: 200, Delta: 0.05, Buffer: DefaultBuffer, LogLevel: DefaultLogLevel,
	},
	"contended": {
		Workload: "contended", Bodies: 64, Systems: 6,
		Ticks: 200, Delta: 0.05, Buffer: DefaultBuffer, LogLevel: DefaultLogLevel,
	},
	"mixed": {
		Workload: "mixed", Bodies: 256, Systems: 8,
		Ticks: 300, Delta: 0.05, Buffer: DefaultBuffer, LogLevel: DefaultLogLevel,
	},
	"wide": {
		Workload: "uniform", Bodies: 4096, Systems: 4,
		Ticks: 500, Delta: 0.02, Buffer: 256, LogLevel: DefaultLogLevel,
	},
	"storm": {
		Workload: "contended", Bodies: 512, Systems: 16,
		Ticks: 500, Delta: 0.02, Buffer: 256, LogLevel: DefaultLogLevel,
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	return slices.Sorted(maps.Keys(Presets))
}
