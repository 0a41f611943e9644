package aidetect

import (
	"errors"
	"fmt"
	"math"
)

type Op string

const (
	OpGT  Op = ">"
	OpGTE Op = ">="
	OpLT  Op = "<"
	OpLTE Op = "<="
)

// Condition compares the raw score of one feature against a constant.
type Condition struct {
	Feature FeatureID `json:"feature" yaml:"feature" toml:"feature"`
	Op      Op        `json:"op" yaml:"op" toml:"op"`
	Value   float64   `json:"value" yaml:"value" toml:"value"`
}

// Rule adds Delta to the running confidence when every condition holds.
type Rule struct {
	Name       string      `json:"name" yaml:"name" toml:"name"`
	Conditions []Condition `json:"conditions" yaml:"conditions" toml:"conditions"`
	Delta      float64     `json:"delta" yaml:"delta" toml:"delta"`
}

// DefaultRules bumps formal, heavily hedged prose.
func DefaultRules() []Rule {
	return []Rule{{
		Name: "formal_hedged_prose",
		Conditions: []Condition{
			{Feature: FeatureTransitions, Op: OpGT, Value: 0.9},
			{Feature: FeatureHedging, Op: OpGT, Value: 0.9},
		},
		Delta: 0.10,
	}}
}

func (c Condition) holds(scores Scores) bool {
	v, ok := scores.Raw(c.Feature)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGT:
		return v > c.Value
	case OpGTE:
		return v >= c.Value
	case OpLT:
		return v < c.Value
	case OpLTE:
		return v <= c.Value
	default:
		return false
	}
}

// Matches reports whether all conditions hold. A rule with no conditions
// never fires.
func (r Rule) Matches(scores Scores) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !c.holds(scores) {
			return false
		}
	}
	return true
}

func (r Rule) Validate() error {
	var errs []error
	if len(r.Conditions) == 0 {
		errs = append(errs, fmt.Errorf("rule %q: no conditions", r.Name))
	}
	if math.IsNaN(r.Delta) || math.IsInf(r.Delta, 0) {
		errs = append(errs, fmt.Errorf("rule %q: delta must be finite", r.Name))
	}
	for _, c := range r.Conditions {
		if !c.Feature.Valid() {
			errs = append(errs, fmt.Errorf("rule %q: unknown feature %q", r.Name, c.Feature))
		}
		switch c.Op {
		case OpGT, OpGTE, OpLT, OpLTE:
		default:
			errs = append(errs, fmt.Errorf("rule %q: unsupported operator %q", r.Name, c.Op))
		}
	}
	return errors.Join(errs...)
}

// applyRules folds rules over base in order, clamping after each firing.
func applyRules(base float64, scores Scores, rules []Rule) (float64, []string) {
	running := base
	var fired []string
	for _, r := range rules {
		if !r.Matches(scores) {
			continue
		}
		running = clamp01(running + r.Delta)
		fired = append(fired, r.Name)
	}
	return running, fired
}
