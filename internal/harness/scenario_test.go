package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	s, err := Load("testdata/scenarios/printer_selection.yaml")
	require.NoError(t, err)

	assert.Equal(t, "printer-selection", s.Name)
	assert.Equal(t, "Printer", s.Criterion.Type)
	assert.Len(t, s.Setup, 3)
	assert.Len(t, s.Steps, 2)
	assert.NotEmpty(t, s.Assertions)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/scenarios/does_not_exist.yaml")
	assert.Error(t, err)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: a stray field must fail the parse
criterion:
  type: Printer
setup:
  - registre:
      name: a
      type: Printer
      service: svc
assertions:
  - type: size
    count: 0
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_CriterionShape(t *testing.T) {
	for name, criterion := range map[string]string{
		"none": "  {}",
		"two":  "  type: Printer\n  filter: \"(a=1)\"",
	} {
		t.Run(name, func(t *testing.T) {
			path := writeScenario(t, `
name: bad-criterion
description: criterion shape check
criterion:
`+criterion+`
assertions:
  - type: size
    count: 0
`)
			_, err := Load(path)
			assert.ErrorContains(t, err, "criterion")
		})
	}
}

func TestLoad_ReferenceCriterionNeedsSetupRegistration(t *testing.T) {
	path := writeScenario(t, `
name: late-reference
description: reference criteria must point at a setup registration
criterion:
  reference: target
steps:
  - register:
      name: target
      type: Printer
      service: svc
assertions:
  - type: size
    count: 1
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "not registered in setup")
}

func TestLoad_DuplicateName(t *testing.T) {
	path := writeScenario(t, `
name: dup
description: duplicate registration names are rejected
criterion:
  type: Printer
setup:
  - register:
      name: a
      type: Printer
      service: one
  - register:
      name: a
      type: Printer
      service: two
assertions:
  - type: size
    count: 2
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoad_AssertionsRequired(t *testing.T) {
	path := writeScenario(t, `
name: no-assertions
description: a scenario without assertions checks nothing
criterion:
  type: Printer
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "assertions")
}

func TestLoad_UnknownAssertionType(t *testing.T) {
	path := writeScenario(t, `
name: bad-assertion
description: unknown assertion types are rejected
criterion:
  type: Printer
assertions:
  - type: latency
    count: 3
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown assertion type")
}

func TestLoad_StepShape(t *testing.T) {
	path := writeScenario(t, `
name: bad-step
description: a step must do exactly one thing
criterion:
  type: Printer
steps:
  - register:
      name: a
      type: Printer
      service: svc
    unregister: a
assertions:
  - type: size
    count: 0
`)
	_, err := Load(path)
	assert.ErrorContains(t, err, "exactly one")
}
