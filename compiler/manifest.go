package compiler

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

// ManifestFile is the name of the manifest kept in the target directory.
const ManifestFile = ".ocsfgen.manifest"

// manifestFormat is bumped whenever the emitted code changes shape, so that
// every version is regenerated after an upgrade.
const manifestFormat = 2

// Manifest records the inputs every generated version was built from.
type Manifest struct {
	Format   int                      `msgpack:"format"`
	Versions map[string]ManifestEntry `msgpack:"versions"`
}

// ManifestEntry describes one generated version.
// Entries carry no timestamps, so identical inputs leave an identical file.
type ManifestEntry struct {
	Tag    string `msgpack:"tag"`
	Slug   string `msgpack:"slug"`
	Digest string `msgpack:"digest"`
	Files  int    `msgpack:"files"`
}

// ReadManifest reads the manifest of a target directory. A missing or
// outdated manifest yields an empty one.
func ReadManifest(target string) (*Manifest, error) {
	m := &Manifest{Format: manifestFormat, Versions: make(map[string]ManifestEntry)}
	data, err := os.ReadFile(filepath.Join(target, ManifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	var stored Manifest
	if err := msgpack.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ManifestFile, err)
	}
	if stored.Format != manifestFormat {
		return m, nil
	}
	for k, v := range stored.Versions {
		m.Versions[k] = v
	}
	return m, nil
}

// Write stores the manifest in the target directory.
func (m *Manifest) Write(target string) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encode %s: %w", ManifestFile, err)
	}
	data := buf.Bytes()
	if err := os.MkdirAll(target, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(target, ManifestFile+"-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(target, ManifestFile))
}

// Fresh reports whether version was generated from digest and its output
// directory still exists.
func (m *Manifest) Fresh(target, tag, digest string) bool {
	e, ok := m.Versions[tag]
	if !ok || e.Digest != digest {
		return false
	}
	fi, err := os.Stat(filepath.Join(target, e.Slug))
	return err == nil && fi.IsDir()
}

// Digest hashes the JSON files of a schema tree together with the settings
// that change the generated code.
func Digest(dir string, settings ...string) (string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && strings.HasPrefix(d.Name(), ".") && p != dir {
			return filepath.SkipDir
		}
		if !d.IsDir() && filepath.Ext(p) == ".json" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	sort.Strings(files)

	h := sha256.New()
	fmt.Fprintf(h, "format %d\n", manifestFormat)
	for _, s := range settings {
		fmt.Fprintf(h, "setting %q\n", s)
	}
	for _, p := range files {
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(h, "file %q\n", filepath.ToSlash(rel))
		if err := hashFile(h, p); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(w io.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
