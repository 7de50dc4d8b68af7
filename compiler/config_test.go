package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/ocsf/compiler/gen"
	"github.com/syssam/ocsf/compiler/source"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *Config
		wantErr bool
	}{
		{
			name: "full",
			content: `versions: ["1.6.0", "1.7.0"]
default_version: 1.6.0
target: ./ocsf
package: github.com/acme/ocsf
cache_dir: .cache
repository: https://example.com/schema.git
workers: 4
strict:
  - user
`,
			want: &Config{
				Versions:       []string{"1.6.0", "1.7.0"},
				DefaultVersion: "1.6.0",
				Target:         "./ocsf",
				Package:        "github.com/acme/ocsf",
				CacheDir:       ".cache",
				Repository:     "https://example.com/schema.git",
				Workers:        4,
				Strict:         []string{"user"},
			},
		},
		{
			name:    "empty",
			content: "",
			want:    &Config{},
		},
		{
			name:    "invalid yaml",
			content: "versions: [1.7.0",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), DefaultConfigFile)
			require.NoError(t, os.WriteFile(p, []byte(tt.content), 0o644))
			got, err := LoadConfig(p)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestConfigSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), DefaultConfigFile)
	cfg := &Config{Versions: []string{"1.7.0"}, Target: "out", Package: "example.com/out", Incremental: true}
	require.NoError(t, cfg.Save(p))
	got, err := LoadConfig(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"1.7.0"}, got.Versions)
	assert.True(t, got.Incremental)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"OCSFGEN_TARGET":      "/tmp/out",
		"OCSFGEN_VERSIONS":    "1.6.0, 1.7.0,",
		"OCSFGEN_STRICT":      "user,device",
		"OCSFGEN_WORKERS":     "3",
		"OCSFGEN_PACKAGE":     "  ",
		"OCSFGEN_INCREMENTAL": "true",
	}
	cfg := &Config{Package: "example.com/keep", Target: "out"}
	require.NoError(t, cfg.ApplyEnv(func(k string) string { return env[k] }))
	assert.Equal(t, "/tmp/out", cfg.Target)
	assert.Equal(t, "example.com/keep", cfg.Package)
	assert.Equal(t, []string{"1.6.0", "1.7.0"}, cfg.Versions)
	assert.Equal(t, []string{"user", "device"}, cfg.Strict)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Incremental)

	env["OCSFGEN_WORKERS"] = "many"
	err := cfg.ApplyEnv(func(k string) string { return env[k] })
	assert.True(t, gen.IsConfigError(err))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnvFile(filepath.Join(dir, ".env")))

	p := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(p, []byte("OCSFGEN_TEST_ENV_FILE=loaded\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("OCSFGEN_TEST_ENV_FILE") })
	require.NoError(t, LoadEnvFile(p))
	assert.Equal(t, "loaded", os.Getenv("OCSFGEN_TEST_ENV_FILE"))
}

func TestSchemaVersions(t *testing.T) {
	tests := []struct {
		name        string
		cfg         Config
		want        []string
		wantDefault string
		wantErr     string
	}{
		{name: "sorted with latest default", cfg: Config{Versions: []string{"1.7.0", "v1.1.0", "1.10.0"}}, want: []string{"1.1.0", "1.7.0", "1.10.0"}, wantDefault: "1.10.0"},
		{name: "explicit default", cfg: Config{Versions: []string{"1.6.0", "1.7.0"}, DefaultVersion: "v1.6.0"}, want: []string{"1.6.0", "1.7.0"}, wantDefault: "1.6.0"},
		{name: "default by minor version", cfg: Config{Versions: []string{"1.6.0", "1.7.0"}, DefaultVersion: "1.7"}, want: []string{"1.6.0", "1.7.0"}, wantDefault: "1.7.0"},
		{name: "default by package", cfg: Config{Versions: []string{"1.6.0", "1.7.1"}, DefaultVersion: "v1_7"}, want: []string{"1.6.0", "1.7.1"}, wantDefault: "1.7.1"},
		{name: "other patch default", cfg: Config{Versions: []string{"1.7.0"}, DefaultVersion: "1.7.5"}, wantErr: "DefaultVersion"},
		{name: "unknown minor default", cfg: Config{Versions: []string{"1.7.0"}, DefaultVersion: "1.6"}, wantErr: "DefaultVersion"},
		{name: "unknown default", cfg: Config{Versions: []string{"1.7.0"}, DefaultVersion: "1.5.0"}, wantErr: "DefaultVersion"},
		{name: "same package", cfg: Config{Versions: []string{"1.7.0", "1.7.1"}}, wantErr: "v1_7"},
		{name: "not semver", cfg: Config{Versions: []string{"latest"}}, wantErr: "semantic version"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, def, err := tt.cfg.SchemaVersions()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			var tags []string
			for _, v := range vs {
				tags = append(tags, v.Tag)
			}
			assert.Equal(t, tt.want, tags)
			assert.Equal(t, tt.wantDefault, def.Tag)
		})
	}
}

func TestConfigProvider(t *testing.T) {
	cfg := &Config{CacheDir: t.TempDir()}
	g, ok := cfg.Provider().(*source.Git)
	require.True(t, ok)
	assert.Equal(t, source.DefaultRepository, g.Repository)

	cfg.SchemaDir = t.TempDir()
	_, ok = cfg.Provider().(source.Dir)
	assert.True(t, ok)
}
