package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ledger/internal/access"
)

// Scenario is one admission schedule with its expectations.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Policy is "relaxed" (default) or "exclusive".
	Policy string `yaml:"policy,omitempty"`

	// Steps run in order against a single controller.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated on the final trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is exactly one of submit, submit_all or release, optionally
// followed by a check of the controller state.
//
// submit_all queues its ops together before a single admission pass, the
// way operations arriving at the same instant on an idle system would be.
type Step struct {
	Submit    *SubmitStep   `yaml:"submit,omitempty"`
	SubmitAll []SubmitStep  `yaml:"submit_all,omitempty"`
	Release   string        `yaml:"release,omitempty"`
	Expect    *ExpectClause `yaml:"expect,omitempty"`
}

func (s Step) submits() []SubmitStep {
	if s.Submit != nil {
		return []SubmitStep{*s.Submit}
	}
	return s.SubmitAll
}

func (s Step) forms() int {
	n := 0
	if s.Submit != nil {
		n++
	}
	if s.SubmitAll != nil {
		n++
	}
	if s.Release != "" {
		n++
	}
	return n
}

// SubmitStep submits one operation under a scenario-chosen name.
type SubmitStep struct {
	Op   string `yaml:"op"`
	Kind string `yaml:"kind"`
}

// ExpectClause describes the controller state after a step.
// Nil fields are not checked.
type ExpectClause struct {
	// Granted lists every op that is executing after the step.
	Granted []string `yaml:"granted,omitempty"`

	// Pending is the pending queue length after the step.
	Pending *int `yaml:"pending,omitempty"`
}

// Assertion validates the final trace.
type Assertion struct {
	Type  string   `yaml:"type"`
	Ops   []string `yaml:"ops,omitempty"`
	Count int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertGrantOrder      = "grant_order"
	AssertSameBatch       = "same_batch"
	AssertSeparateBatches = "separate_batches"
	AssertBatchCount      = "batch_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// OpNames returns the submitted op names in submission order.
func (s *Scenario) OpNames() []string {
	var names []string
	for _, step := range s.Steps {
		for _, sub := range step.submits() {
			names = append(names, sub.Op)
		}
	}
	return names
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if _, err := access.ParsePolicy(s.Policy); err != nil {
		return err
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	submitted := make(map[string]bool)
	for i, step := range s.Steps {
		switch {
		case step.forms() == 0:
			return fmt.Errorf("steps[%d]: submit, submit_all or release is required", i)
		case step.forms() > 1:
			return fmt.Errorf("steps[%d]: submit, submit_all and release are mutually exclusive", i)
		case step.Release != "":
			if !submitted[step.Release] {
				return fmt.Errorf("steps[%d]: release of unsubmitted op %q", i, step.Release)
			}
		default:
			if len(step.submits()) == 0 {
				return fmt.Errorf("steps[%d].submit_all: must be non-empty", i)
			}
			for _, sub := range step.submits() {
				if sub.Op == "" {
					return fmt.Errorf("steps[%d].submit: op is required", i)
				}
				if submitted[sub.Op] {
					return fmt.Errorf("steps[%d].submit: duplicate op %q", i, sub.Op)
				}
				if _, err := access.ParseKind(sub.Kind); err != nil {
					return fmt.Errorf("steps[%d].submit: %w", i, err)
				}
				submitted[sub.Op] = true
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a, submitted); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion, submitted map[string]bool) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertGrantOrder, AssertSameBatch, AssertSeparateBatches:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops list is required for %s", index, a.Type)
		}
		for _, op := range a.Ops {
			if !submitted[op] {
				return fmt.Errorf("assertions[%d]: unknown op %q", index, op)
			}
		}
	case AssertBatchCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for batch_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
