package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	t.Parallel()

	want := &Spec{
		Inputs: []ContainerSpec{
			{Path: "data/values.json"},
			{Path: "inline", Values: map[string]any{"weights": []any{int64(1), int64(2)}}},
		},
		Outputs: []ContainerSpec{
			{Path: "out/result.yaml", Scope: "run", Elements: []string{"total"}},
		},
		Params: map[string]any{
			"scale": int64(2),
			"Clip":  map[string]any{"threshold": int64(3)},
		},
		ParamsFile: "params.yaml",
	}

	yamlSrc := `
inputs:
  - path: data/values.json
  - path: inline
    values:
      weights: [1, 2]
outputs:
  - path: out/result.yaml
    scope: run
    elements: [total]
params:
  scale: 2
  Clip:
    threshold: 3
params_file: params.yaml
`
	hclSrc := `
input "data/values.json" {}
input "inline" {
  values = { weights = [1, 2] }
}
output "out/result.yaml" {
  scope    = "run"
  elements = ["total"]
}
params_file = "params.yaml"
params {
  scale = 2
  algorithm "Clip" {
    threshold = 3
  }
}
`

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		got, err := ParseYAML([]byte(yamlSrc))
		require.NoError(t, err)
		// yaml.v2 decodes integers as int.
		want := *want
		want.Inputs = []ContainerSpec{want.Inputs[0], {Path: "inline", Values: map[string]any{"weights": []any{1, 2}}}}
		want.Params = map[string]any{"scale": 2, "Clip": map[string]any{"threshold": 3}}
		if diff := cmp.Diff(&want, got); diff != "" {
			t.Errorf("spec mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("hcl", func(t *testing.T) {
		t.Parallel()
		got, err := ParseHCL([]byte(hclSrc), "pipeline.hcl")
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("spec mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("unknown yaml field", func(t *testing.T) {
		t.Parallel()
		_, err := ParseYAML([]byte("inputz: []\n"))
		assert.ErrorIs(t, err, ErrInvalidSpec)
	})

	t.Run("hcl syntax error", func(t *testing.T) {
		t.Parallel()
		_, err := ParseHCL([]byte(`input "x" {`), "broken.hcl")
		assert.ErrorIs(t, err, ErrInvalidSpec)
	})
}

func TestLoadSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("outputs:\n  - elements: [total]\n"), 0o644))

	s, err := LoadSpec(path)
	require.NoError(t, err)
	assert.Equal(t, dir, s.BaseDir)
	assert.Equal(t, []string{"total"}, s.Requested())
	assert.Equal(t, filepath.Join(dir, "in.json"), s.resolve("in.json"))
	assert.Equal(t, "/abs/in.json", s.resolve("/abs/in.json"))

	_, err = LoadSpec(filepath.Join(dir, "pipeline.toml"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "pipeline.txt")
	require.NoError(t, os.WriteFile(txt, nil, 0o644))
	_, err = LoadSpec(txt)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestSpecValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		spec Spec
		err  string
	}{
		{
			name: "valid",
			spec: Spec{Inputs: []ContainerSpec{{Path: "in.json"}}, Outputs: []ContainerSpec{{Elements: []string{"total"}}}},
		},
		{
			name: "nothing requested",
			spec: Spec{Inputs: []ContainerSpec{{Path: "in.json"}}},
			err:  "no output elements requested",
		},
		{
			name: "input without path",
			spec: Spec{Inputs: []ContainerSpec{{}}, Outputs: []ContainerSpec{{Elements: []string{"total"}}}},
			err:  "input #1 has no path",
		},
		{
			name: "path reused",
			spec: Spec{
				Inputs:  []ContainerSpec{{Path: "data.json"}},
				Outputs: []ContainerSpec{{Path: "data.json", Elements: []string{"total"}}},
			},
			err: "container 'data.json' is listed twice",
		},
		{
			name: "output with values",
			spec: Spec{Outputs: []ContainerSpec{{Elements: []string{"total"}, Values: map[string]any{"x": 1}}}},
			err:  "output #1 cannot carry values",
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.spec.Validate()
			if tc.err == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSpec)
			assert.ErrorContains(t, err, tc.err)
		})
	}
}

func TestFromArgs(t *testing.T) {
	t.Parallel()

	got := FromArgs([]string{"data/a.json", "store.db#run1"}, []string{"total", "mean"}, "out.yaml", "params.hcl")
	want := &Spec{
		Inputs: []ContainerSpec{
			{Path: "data/a.json"},
			{Path: "store.db", Scope: "run1"},
		},
		Outputs:    []ContainerSpec{{Path: "out.yaml", Elements: []string{"total", "mean"}}},
		ParamsFile: "params.hcl",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("spec mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, FromArgs(nil, nil, "", "").Outputs)
}

func TestSpecOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "params.yaml"), []byte("scale: 2\nClip:\n  threshold: 1\n  mode: soft\n"), 0o644))

	s := &Spec{
		BaseDir:    dir,
		ParamsFile: "params.yaml",
		Params:     map[string]any{"Clip": map[string]any{"threshold": 5}},
	}
	got, err := s.Overrides()
	require.NoError(t, err)
	assert.Equal(t, 2, got["scale"])
	assert.Equal(t, map[string]any{"threshold": 5, "mode": "soft"}, got["Clip"])
}
