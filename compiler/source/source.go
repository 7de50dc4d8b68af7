// Package source materializes raw OCSF schema trees on the local disk.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultRepository is the upstream OCSF schema repository.
const DefaultRepository = "https://github.com/ocsf/ocsf-schema.git"

// ErrFetch is the sentinel matched by every FetchError.
var ErrFetch = errors.New("ocsf: fetch failed")

// Provider makes the schema tree of a version available in a local
// directory. Fetch is idempotent: a version already present is returned
// without being fetched again.
type Provider interface {
	Fetch(ctx context.Context, tag string) (dir string, err error)
}

// FetchError reports a version that could not be retrieved.
type FetchError struct {
	Version string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ocsf: fetch %s", e.Version)
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error { return e.Err }

// Is reports whether the target matches ErrFetch.
func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// Tag returns the git tag of a version, e.g. "v1.7.0" for "1.7.0".
func Tag(version string) string {
	return "v" + strings.TrimPrefix(version, "v")
}

// schemaMarker is the file every schema tree has at its root.
const schemaMarker = "dictionary.json"

// complete reports whether dir holds a schema tree.
func complete(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, schemaMarker))
	return err == nil && fi.Mode().IsRegular()
}
