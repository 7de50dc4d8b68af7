package source

import (
	"context"
	"path/filepath"
)

// Dir serves versions already present below Root, either as <Root>/v1.7.0
// or as <Root>/1.7.0. It never touches the network.
type Dir struct {
	Root string
}

// Fetch returns the directory holding version.
func (d Dir) Fetch(ctx context.Context, version string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{Version: version, Err: err}
	}
	for _, name := range []string{Tag(version), Tag(version)[1:]} {
		dir := filepath.Join(d.Root, name)
		if complete(dir) {
			return dir, nil
		}
	}
	return "", &FetchError{Version: version, Message: "no schema tree in " + d.Root}
}

// Local serves a single schema tree for every requested version. It backs
// generation from a working copy of the schema repository.
type Local string

// Fetch returns the directory when it holds a schema tree.
func (l Local) Fetch(_ context.Context, version string) (string, error) {
	if !complete(string(l)) {
		return "", &FetchError{Version: version, Message: "no " + schemaMarker + " in " + string(l)}
	}
	return string(l), nil
}
