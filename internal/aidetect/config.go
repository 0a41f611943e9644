package aidetect

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	PresetConservative = "conservative"
	PresetBalanced     = "balanced"
	PresetAggressive   = "aggressive"

	DefaultThreshold = 0.6
)

type Weights map[FeatureID]float64

func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w {
		total += v
	}
	return total
}

// Normalized rescales w to sum to 1. A non-positive sum returns a copy.
func (w Weights) Normalized() Weights {
	out := make(Weights, len(w))
	sum := w.Sum()
	for k, v := range w {
		if sum > 0 {
			out[k] = v / sum
		} else {
			out[k] = v
		}
	}
	return out
}

// Config is the configuration context of one analysis. A missing weight
// means the feature does not contribute.
type Config struct {
	Preset    string  `json:"preset,omitempty"`
	Threshold float64 `json:"threshold"`
	Weights   Weights `json:"weights"`
	Rules     []Rule  `json:"rules"`
}

var presetWeights = map[string][]float64{
	// ai_patterns, transitions, hedging, repetition, vocab_diversity,
	// sentence_structure, uniformity, burstiness, drawing_descriptions
	PresetConservative: {0.22, 0.10, 0.10, 0.12, 0.13, 0.13, 0.07, 0.08, 0.05},
	PresetBalanced:     {0.25, 0.12, 0.12, 0.11, 0.11, 0.09, 0.05, 0.05, 0.10},
	PresetAggressive:   {0.30, 0.16, 0.16, 0.10, 0.09, 0.07, 0.05, 0.04, 0.03},
}

func PresetNames() []string {
	return []string{PresetConservative, PresetBalanced, PresetAggressive}
}

// Preset returns a fresh copy of a named configuration.
func Preset(name string) (Config, error) {
	ws, ok := presetWeights[name]
	if !ok {
		return Config{}, fmt.Errorf("unknown preset %q", name)
	}
	weights := make(Weights, len(AllFeatures))
	for i, f := range AllFeatures {
		weights[f] = ws[i]
	}
	return Config{
		Preset:    name,
		Threshold: DefaultThreshold,
		Weights:   weights,
		Rules:     DefaultRules(),
	}, nil
}

func DefaultConfig() Config {
	cfg, _ := Preset(PresetBalanced)
	return cfg
}

// WeightsFromNames converts a string-keyed weight map, rejecting unknown
// feature names.
func WeightsFromNames(in map[string]float64) (Weights, error) {
	out := make(Weights, len(in))
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, err := ParseFeature(name)
		if err != nil {
			return nil, err
		}
		out[f] = in[name]
	}
	return out, nil
}

func (c Config) Clone() Config {
	out := c
	out.Weights = make(Weights, len(c.Weights))
	for k, v := range c.Weights {
		out.Weights[k] = v
	}
	out.Rules = append([]Rule(nil), c.Rules...)
	return out
}

// Validate checks the configuration at a trust boundary. The engine itself
// tolerates anything Validate would reject.
func (c Config) Validate() error {
	var errs []error
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold %v outside [0,1]", c.Threshold))
	}
	var unknown []FeatureID
	for f := range c.Weights {
		if !f.Valid() {
			unknown = append(unknown, f)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	for _, f := range unknown {
		errs = append(errs, fmt.Errorf("unknown feature %q in weights", f))
	}
	for _, f := range append(append([]FeatureID(nil), AllFeatures...), unknown...) {
		w, ok := c.Weights[f]
		if ok && (math.IsNaN(w) || math.IsInf(w, 0) || w < 0) {
			errs = append(errs, fmt.Errorf("weight for %s must be a finite non-negative number, got %v", f, w))
		}
	}
	for _, r := range c.Rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
