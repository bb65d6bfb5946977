package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one scripted tracker run.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Criterion selects what the tracker follows.
	Criterion CriterionSpec `yaml:"criterion"`

	// Setup registers services before the tracker opens, so the scenario
	// can exercise initial reconciliation.
	Setup []Step `yaml:"setup,omitempty"`

	// Steps are the registry mutations applied after the tracker opens.
	Steps []Step `yaml:"steps,omitempty"`

	// Assertions validate the final tracker state and the hook trace.
	Assertions []Assertion `yaml:"assertions"`
}

// CriterionSpec names exactly one criterion shape.
type CriterionSpec struct {
	// Type tracks every service of this capability type.
	Type string `yaml:"type,omitempty"`

	// Filter tracks services matching this filter expression.
	Filter string `yaml:"filter,omitempty"`

	// Reference tracks the single setup registration with this name.
	Reference string `yaml:"reference,omitempty"`
}

// Step is one registry mutation. Exactly one field is set.
type Step struct {
	Register   *RegisterStep `yaml:"register,omitempty"`
	Modify     *ModifyStep   `yaml:"modify,omitempty"`
	Unregister string        `yaml:"unregister,omitempty"`

	// Remove force-untracks the named registration via the tracker, not
	// the registry.
	Remove string `yaml:"remove,omitempty"`
}

// RegisterStep registers a service under a scenario-local name.
type RegisterStep struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Ranking int    `yaml:"ranking,omitempty"`
	Service string `yaml:"service"`
}

// ModifyStep updates properties of a registered service.
type ModifyStep struct {
	Name    string `yaml:"name"`
	Ranking *int   `yaml:"ranking,omitempty"`
}

// Assertion validates the run outcome.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected value for size, revision, and trace_count.
	Count int64 `yaml:"count,omitempty"`

	// Name is the registration name for selected and trace_count.
	Name string `yaml:"name,omitempty"`

	// Names is the expected tracked set (order irrelevant) for tracked.
	Names []string `yaml:"names,omitempty"`

	// Hook narrows trace_count to one hook kind: adding, modified, removed.
	Hook string `yaml:"hook,omitempty"`
}

// Assertion type constants.
const (
	AssertSize       = "size"        // tracker.Size() == count
	AssertRevision   = "revision"    // tracker.Revision() == count
	AssertSelected   = "selected"    // best reference is the named registration
	AssertTracked    = "tracked"     // tracked set equals names
	AssertTraceCount = "trace_count" // hook fired count times for name
)

// Load reads and parses a scenario YAML file. Unknown fields are rejected so
// typos fail loudly instead of silently skipping steps.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}

	if err := validate(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %q: %w", path, err)
	}
	return &s, nil
}

func validate(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	shapes := 0
	if s.Criterion.Type != "" {
		shapes++
	}
	if s.Criterion.Filter != "" {
		shapes++
	}
	if s.Criterion.Reference != "" {
		shapes++
	}
	if shapes != 1 {
		return fmt.Errorf("criterion must set exactly one of type, filter, reference")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	names := make(map[string]bool)
	setupNames := make(map[string]bool)
	steps := make([]Step, 0, len(s.Setup)+len(s.Steps))
	steps = append(steps, s.Setup...)
	steps = append(steps, s.Steps...)
	for i, st := range steps {
		set := 0
		if st.Register != nil {
			set++
			if st.Register.Name == "" || st.Register.Type == "" {
				return fmt.Errorf("step %d: register needs name and type", i)
			}
			if names[st.Register.Name] {
				return fmt.Errorf("step %d: duplicate registration name %q", i, st.Register.Name)
			}
			names[st.Register.Name] = true
			if i < len(s.Setup) {
				setupNames[st.Register.Name] = true
			}
		}
		if st.Modify != nil {
			set++
			if st.Modify.Name == "" {
				return fmt.Errorf("step %d: modify needs name", i)
			}
		}
		if st.Unregister != "" {
			set++
		}
		if st.Remove != "" {
			set++
		}
		if set != 1 {
			return fmt.Errorf("step %d: exactly one of register, modify, unregister, remove", i)
		}
	}

	// A reference criterion needs its reference before the tracker is built,
	// so the registration must happen in setup.
	if ref := s.Criterion.Reference; ref != "" && !setupNames[ref] {
		return fmt.Errorf("criterion reference %q is not registered in setup", ref)
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertSize, AssertRevision:
		case AssertSelected:
			if a.Name == "" {
				return fmt.Errorf("assertions[%d]: selected needs name", i)
			}
		case AssertTracked:
		case AssertTraceCount:
			if a.Hook == "" || a.Name == "" {
				return fmt.Errorf("assertions[%d]: trace_count needs hook and name", i)
			}
		default:
			return fmt.Errorf("assertions[%d]: unknown assertion type %q", i, a.Type)
		}
	}
	return nil
}
