package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := `
name: test_scenario
description: "Test scenario for validation"
policy: exclusive
steps:
  - submit: { op: W1, kind: write }
    expect: { granted: [W1], pending: 0 }
  - submit_all:
      - { op: R1, kind: read }
      - { op: R2, kind: read }
  - release: W1
assertions:
  - type: same_batch
    ops: [R1, R2]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "exclusive", scenario.Policy)
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, "W1", scenario.Steps[0].Submit.Op)
	assert.Equal(t, []string{"W1"}, scenario.Steps[0].Expect.Granted)
	require.NotNil(t, scenario.Steps[0].Expect.Pending)
	assert.Equal(t, 0, *scenario.Steps[0].Expect.Pending)
	assert.Len(t, scenario.Steps[1].SubmitAll, 2)
	assert.Equal(t, "W1", scenario.Steps[2].Release)
	assert.Equal(t, []string{"W1", "R1", "R2"}, scenario.OpNames())
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(`
name: typo
description: "misspelled key"
step:
  - submit: { op: R1, kind: read }
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: `
description: "d"
steps:
  - submit: { op: R1, kind: read }
`,
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: `
name: n
steps:
  - submit: { op: R1, kind: read }
`,
			want: "description is required",
		},
		{
			name: "bad policy",
			yaml: `
name: n
description: "d"
policy: serial
steps:
  - submit: { op: R1, kind: read }
`,
			want: "invalid admission policy",
		},
		{
			name: "no steps",
			yaml: `
name: n
description: "d"
`,
			want: "steps list is required",
		},
		{
			name: "empty step",
			yaml: `
name: n
description: "d"
steps:
  - expect: { pending: 0 }
`,
			want: "submit, submit_all or release is required",
		},
		{
			name: "two forms in one step",
			yaml: `
name: n
description: "d"
steps:
  - submit: { op: R1, kind: read }
    release: R1
`,
			want: "mutually exclusive",
		},
		{
			name: "bad kind",
			yaml: `
name: n
description: "d"
steps:
  - submit: { op: D1, kind: delete }
`,
			want: "steps[0].submit",
		},
		{
			name: "duplicate op",
			yaml: `
name: n
description: "d"
steps:
  - submit: { op: R1, kind: read }
  - submit: { op: R1, kind: read }
`,
			want: `duplicate op "R1"`,
		},
		{
			name: "release before submit",
			yaml: `
name: n
description: "d"
steps:
  - release: R1
`,
			want: `release of unsubmitted op "R1"`,
		},
		{
			name: "assertion on unknown op",
			yaml: `
name: n
description: "d"
steps:
  - submit: { op: R1, kind: read }
assertions:
  - type: same_batch
    ops: [R1, R9]
`,
			want: `unknown op "R9"`,
		},
		{
			name: "unknown assertion type",
			yaml: `
name: n
description: "d"
steps:
  - submit: { op: R1, kind: read }
assertions:
  - type: trace_contains
`,
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "negative batch count",
			yaml: `
name: n
description: "d"
steps:
  - submit: { op: R1, kind: read }
assertions:
  - type: batch_count
    count: -1
`,
			want: "count must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
