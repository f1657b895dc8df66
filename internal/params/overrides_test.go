package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	want := Overrides{
		"limit":  0.7,
		"Filter": map[string]any{"window": 5},
	}

	cases := []struct {
		file string
		src  string
	}{
		{file: "params.yaml", src: "limit: 0.7\nFilter:\n  window: 5\n"},
		{file: "params.json", src: `{"limit": 0.7, "Filter": {"window": 5}}`},
		{file: "params.hcl", src: "limit = 0.7\nalgorithm \"Filter\" {\n  window = 5\n}\n"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.file, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), tc.file)
			require.NoError(t, os.WriteFile(path, []byte(tc.src), 0o600))

			got, err := LoadOverrides(path)
			require.NoError(t, err)

			// Numbers decode differently per format; compare through the
			// resolver's view instead of raw Go types.
			assert.EqualValues(t, 0.7, got["limit"])
			scoped, ok := asStringMap(got["Filter"])
			require.True(t, ok)
			assert.EqualValues(t, 5, scoped["window"])
			assert.Len(t, got, len(want))
		})
	}
}

func TestLoadOverrides_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	unsupported := filepath.Join(dir, "params.toml")
	require.NoError(t, os.WriteFile(unsupported, []byte("a = 1"), 0o600))
	_, err := LoadOverrides(unsupported)
	assert.ErrorContains(t, err, "unsupported overrides format")

	_, err = LoadOverrides(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read overrides")

	broken := filepath.Join(dir, "broken.hcl")
	require.NoError(t, os.WriteFile(broken, []byte("a = "), 0o600))
	_, err = LoadOverrides(broken)
	assert.ErrorContains(t, err, "failed to parse HCL overrides")
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := Overrides{"limit": 1, "Filter": map[string]any{"window": 3, "win": 9}}
	over := Overrides{"limit": 2, "Filter": map[any]any{"window": 4}}

	got := Merge(base, over)
	assert.Equal(t, 2, got["limit"])
	assert.Equal(t, map[string]any{"window": 4, "win": 9}, got["Filter"])
	assert.Equal(t, map[string]any{"window": 3, "win": 9}, base["Filter"], "base is not modified")
}
