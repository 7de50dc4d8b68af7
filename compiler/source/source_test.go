package source

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dictionary.json"), []byte(`{"attributes": {}}`), 0o644))
}

func TestTag(t *testing.T) {
	assert.Equal(t, "v1.7.0", Tag("1.7.0"))
	assert.Equal(t, "v1.7.0", Tag("v1.7.0"))
}

func TestFetchError(t *testing.T) {
	cause := errors.New("exit status 128")
	err := &FetchError{Version: "1.7.0", Message: "remote branch v1.7.0 not found", Err: cause}
	assert.Equal(t, "ocsf: fetch 1.7.0: remote branch v1.7.0 not found: exit status 128", err.Error())
	assert.True(t, errors.Is(err, ErrFetch))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsFetchError(err))
	assert.False(t, IsFetchError(cause))
}

func TestDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "v1.7.0"))
	writeTree(t, filepath.Join(root, "1.6.0"))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "v1.5.0"), 0o755))
	ctx := context.Background()
	d := Dir{Root: root}

	dir, err := d.Fetch(ctx, "1.7.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "v1.7.0"), dir)

	dir, err = d.Fetch(ctx, "v1.6.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "1.6.0"), dir)

	_, err = d.Fetch(ctx, "1.5.0")
	assert.True(t, IsFetchError(err), "a directory without dictionary.json is not a schema tree")

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = d.Fetch(cancelled, "1.7.0")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocal(t *testing.T) {
	root := t.TempDir()
	_, err := Local(root).Fetch(context.Background(), "1.7.0")
	require.Error(t, err)

	writeTree(t, root)
	dir, err := Local(root).Fetch(context.Background(), "1.7.0")
	require.NoError(t, err)
	assert.Equal(t, root, dir)
}

func TestGitSkipsFetchedVersion(t *testing.T) {
	cache := t.TempDir()
	g := NewGit("", cache)
	g.Command = filepath.Join(cache, "no-such-git")
	assert.Equal(t, DefaultRepository, g.Repository)

	writeTree(t, g.Dir("1.7.0"))
	dir, err := g.Fetch(context.Background(), "1.7.0")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "v1.7.0"), dir)
}

func TestGitCommandFailure(t *testing.T) {
	cache := t.TempDir()
	g := NewGit("https://example.invalid/schema.git", cache)
	g.Command = filepath.Join(cache, "no-such-git")

	_, err := g.Fetch(context.Background(), "1.7.0")
	require.Error(t, err)
	assert.True(t, IsFetchError(err))

	entries, err := os.ReadDir(cache)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed clone leaves nothing in the cache")
}

func TestGitClone(t *testing.T) {
	git, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not installed")
	}
	repo := t.TempDir()
	writeTree(t, repo)
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command(git, append([]string{"-C", repo, "-c", "user.name=ocsf", "-c", "user.email=ocsf@example.com"}, args...)...)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "--quiet")
	run("add", ".")
	run("commit", "--quiet", "-m", "schema")
	run("tag", "v1.7.0")

	cache := t.TempDir()
	g := NewGit("file://"+repo, cache)
	dir, err := g.Fetch(context.Background(), "1.7.0")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "dictionary.json"))

	_, err = g.Fetch(context.Background(), "1.8.0")
	require.Error(t, err)
	assert.True(t, IsFetchError(err))
}
