package source

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Git clones version tags of a repository into a cache directory, one
// shallow clone per version at <cache>/<tag>.
type Git struct {
	// Repository is the clone URL or local path.
	Repository string
	// CacheDir holds one directory per version.
	CacheDir string
	// Command is the git executable. Defaults to "git".
	Command string
	// Logger receives progress messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewGit creates a provider for repo. An empty repo selects DefaultRepository.
func NewGit(repo, cacheDir string) *Git {
	if repo == "" {
		repo = DefaultRepository
	}
	return &Git{Repository: repo, CacheDir: cacheDir}
}

// Dir returns the directory a version is cloned to.
func (g *Git) Dir(version string) string {
	return filepath.Join(g.CacheDir, Tag(version))
}

// Fetch clones the tag of version unless it is already present. The clone
// goes to a temporary sibling directory first, so an interrupted clone never
// looks like a complete one.
func (g *Git) Fetch(ctx context.Context, version string) (string, error) {
	dir := g.Dir(version)
	logger := g.logger().With("version", version)
	if complete(dir) {
		logger.Debug("schema already fetched", "dir", dir)
		return dir, nil
	}
	if err := os.MkdirAll(g.CacheDir, 0o755); err != nil {
		return "", &FetchError{Version: version, Message: "create cache directory", Err: err}
	}
	tmp, err := os.MkdirTemp(g.CacheDir, "."+Tag(version)+"-*")
	if err != nil {
		return "", &FetchError{Version: version, Message: "create staging directory", Err: err}
	}
	defer os.RemoveAll(tmp)

	logger.Info("fetching schema", "repository", g.Repository, "tag", Tag(version))
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, g.command(),
		"clone", "--quiet", "--depth", "1", "--branch", Tag(version), g.Repository, tmp)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "git clone failed"
		}
		return "", &FetchError{Version: version, Message: msg, Err: err}
	}
	if !complete(tmp) {
		return "", &FetchError{Version: version, Message: "tag " + Tag(version) + " has no " + schemaMarker}
	}
	_ = os.RemoveAll(dir)
	if err := os.Rename(tmp, dir); err != nil {
		return "", &FetchError{Version: version, Message: "move clone into place", Err: err}
	}
	return dir, nil
}

func (g *Git) command() string {
	if g.Command != "" {
		return g.Command
	}
	return "git"
}

func (g *Git) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}
