package internal

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schemaTree = map[string]string{
	"dictionary.json": `{
		"attributes": {
			"name": {"caption": "Name", "type": "string_t"},
			"time": {"caption": "Event Time", "type": "timestamp_t"},
			"activity_id": {"caption": "Activity ID", "type": "integer_t",
				"enum": {"0": {"caption": "Unknown"}, "99": {"caption": "Other"}}},
			"user": {"caption": "User", "type": "object_t", "object_type": "user"}
		}
	}`,
	"categories.json":   `{"attributes": {"iam": {"uid": 3, "caption": "IAM"}}}`,
	"objects/user.json": `{"name": "user", "caption": "User", "attributes": {"name": {}}}`,
	"events/base_event.json": `{"name": "base_event", "caption": "Base Event", "uid": 0,
		"attributes": {"activity_id": {"requirement": "required"}, "time": {"requirement": "required"}}}`,
	"events/iam/authentication.json": `{"name": "authentication", "caption": "Authentication",
		"extends": "base_event", "category": "iam", "uid": 2, "attributes": {"user": {}}}`,
}

func writeSchema(t *testing.T, dir string) {
	t.Helper()
	for name, content := range schemaTree {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func run(t *testing.T, env map[string]string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	getenv := func(k string) string { return env[k] }
	err := Run(context.Background(), args, getenv, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, _, err := run(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ocsfgen version")
}

func TestGenerateCmd(t *testing.T) {
	schema := t.TempDir()
	writeSchema(t, schema)
	target := filepath.Join(t.TempDir(), "ocsf")

	out, _, err := run(t, nil, "generate",
		"--schema-dir", schema,
		"--version", "1.7.0",
		"-o", target,
		"-p", "example.com/app/ocsf",
		"--strict", "user",
	)
	require.NoError(t, err)
	assert.Regexp(t, `1\.7\.0\s+v1_7\s+generated\s+\d+ files\s+default`, out)
	assert.FileExists(t, filepath.Join(target, "ocsf.go"))
	assert.FileExists(t, filepath.Join(target, "v1_7", "objects", "user.go"))

	out, _, err = run(t, nil, "generate", "--schema-dir", schema, "--version", "1.7.0", "-o", target, "-p", "example.com/app/ocsf", "--strict", "user", "--incremental")
	require.NoError(t, err)
	assert.Contains(t, out, "unchanged")

	out, _, err = run(t, nil, "generate", "--schema-dir", schema, "--version", "1.7.0", "-o", target, "-p", "example.com/app/ocsf", "--strict", "user")
	require.NoError(t, err)
	assert.Contains(t, out, "generated")
}

func TestGenerateCmdConfigAndEnv(t *testing.T) {
	schema := t.TempDir()
	writeSchema(t, schema)
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "ocsfgen.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`versions: ["1.7.0"]
target: `+filepath.Join(dir, "from-file")+`
package: example.com/app/ocsf
schema_dir: `+schema+`
`), 0o644))
	envTarget := filepath.Join(dir, "from-env")

	_, stderr, err := run(t, map[string]string{"OCSFGEN_TARGET": envTarget}, "generate", "-c", cfgFile, "-v")
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(envTarget, "v1_7"))
	assert.NoDirExists(t, filepath.Join(dir, "from-file"))
	assert.Contains(t, stderr, "level=DEBUG")
}

func TestGenerateCmdFailures(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "v1.7.0"))
	target := t.TempDir()

	out, _, err := run(t, nil, "generate", "--schema-dir", root, "--version", "1.7.0,1.8.0", "--default-version", "1.7.0", "-o", target, "-p", "example.com/out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 versions failed")
	assert.Contains(t, err.Error(), "1.8.0")
	assert.Regexp(t, `1\.8\.0\s+v1_8\s+failed`, out)
	assert.DirExists(t, filepath.Join(target, "v1_7"))
}

func TestGenerateCmdErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing explicit config", args: []string{"generate", "-c", filepath.Join(t.TempDir(), "none.yaml")}, want: "none.yaml"},
		{name: "nothing configured", args: []string{"generate"}, want: "Versions"},
		{name: "watch without schema dir", args: []string{"generate", "--watch", "--version", "1.7.0", "-o", t.TempDir(), "-p", "example.com/out"}, want: "--watch"},
		{name: "unexpected argument", args: []string{"generate", "extra"}, want: "extra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, nil, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFetchCmd(t *testing.T) {
	root := t.TempDir()
	writeSchema(t, filepath.Join(root, "v1.7.0"))

	out, _, err := run(t, nil, "fetch", "--schema-dir", root, "--version", "1.7.0")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join(root, "v1.7.0"))

	_, _, err = run(t, nil, "fetch", "--schema-dir", root, "--version", "1.6.0")
	assert.Error(t, err)
}

func TestWatchDir(t *testing.T) {
	dir := t.TempDir()
	writeSchema(t, dir)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	go func() {
		done <- watchDir(ctx, logger, dir, 20*time.Millisecond, func(context.Context) { calls.Add(1) })
	}()

	// Give the watcher time to register before changing files.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "events", "network"), 0o755))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "events", "network", "http.json"), []byte(`{}`), 0o644))
	assert.Eventually(t, func() bool { return calls.Load() > 0 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestHidden(t *testing.T) {
	assert.True(t, hidden("/s", "/s/.git/index"))
	assert.True(t, hidden("/s", "/s/objects/.user.json.swp"))
	assert.False(t, hidden("/s", "/s/objects/user.json"))
}
