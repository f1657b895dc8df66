package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/algogrid/internal/app"
	"github.com/specialistvlad/algogrid/internal/catalog"
)

// LogsEnv enables dumping captured logs of every harness run.
const LogsEnv = "ALGOGRID_TEST_LOGS"

// HarnessResult holds the outcomes of an end-to-end run.
type HarnessResult struct {
	Output    string
	LogOutput string
	Err       error
	App       *app.App
}

// WriteFiles writes files, keyed by slash-separated relative path, into a
// fresh temporary directory and returns it.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

// SetupApp builds an App with debug logging captured in a separate buffer
// from the command output.
func SetupApp(t *testing.T, cfg app.Config, modules ...catalog.Module) (*app.App, *SafeBuffer, *SafeBuffer) {
	t.Helper()

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	cfg.LogLevel = "debug"
	cfg.LogOutput = logs
	conf, err := app.NewConfig(cfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv(LogsEnv) == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return app.NewApp(out, conf, modules...), out, logs
}

// RunApp runs a pipeline end to end. A panic during startup is reported as
// an error.
func RunApp(ctx context.Context, t *testing.T, cfg app.Config, modules ...catalog.Module) (res *HarnessResult) {
	t.Helper()

	res = &HarnessResult{}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("application startup panicked | %v", r)
		}
	}()

	a, out, logs := SetupApp(t, cfg, modules...)
	res.App = a
	res.Err = a.Run(ctx)
	res.Output = out.String()
	res.LogOutput = logs.String()
	return res
}
