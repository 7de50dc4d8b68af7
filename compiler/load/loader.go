package load

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
)

// Well-known files and directories of an OCSF schema tree.
const (
	DictionaryFile = "dictionary.json"
	CategoriesFile = "categories.json"
	VersionFile    = "version.json"
	ObjectsDir     = "objects"
	EventsDir      = "events"
)

// Loader reads a schema tree from a filesystem.
type Loader struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewLoader creates a Loader that reads from the given filesystem.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys, logger: slog.Default()}
}

// WithLogger sets the logger used for skipped files.
func (l *Loader) WithLogger(logger *slog.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// Load reads the whole tree. The dictionary is required; categories and
// version.json are optional.
func (l *Loader) Load() (*Schema, error) {
	s := &Schema{
		Categories: make(map[string]*Category),
		Objects:    make(map[string]*Entity),
		Events:     make(map[string]*Entity),
	}
	var version struct {
		Version string `json:"version"`
	}
	switch err := l.readJSON(VersionFile, &version); {
	case err == nil:
		s.Version = version.Version
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	s.Dictionary = &Dictionary{}
	if err := l.readJSON(DictionaryFile, s.Dictionary); err != nil {
		return nil, err
	}
	if s.Dictionary.Attributes == nil {
		s.Dictionary.Attributes = NewAttributes()
	}

	var categories struct {
		Attributes map[string]*Category `json:"attributes"`
	}
	switch err := l.readJSON(CategoriesFile, &categories); {
	case err == nil:
		for name, c := range categories.Attributes {
			c.Name = name
			s.Categories[name] = c
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if err := l.loadDir(ObjectsDir, KindObject, s.Objects); err != nil {
		return nil, err
	}
	if err := l.loadDir(EventsDir, KindEvent, s.Events); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadEntity reads one entity file and merges its $include files.
func (l *Loader) LoadEntity(file string, kind Kind) (*Entity, error) {
	e := &Entity{}
	if err := l.readJSON(file, e); err != nil {
		return nil, err
	}
	e.Kind = kind
	e.Path = file
	if e.Name == "" {
		e.Name = strings.TrimSuffix(path.Base(file), path.Ext(file))
	}
	if e.Attributes == nil {
		e.Attributes = NewAttributes()
	}
	includes := append(Includes{}, e.Includes...)
	includes = append(includes, e.Attributes.Includes...)
	if err := l.include(e.Attributes, includes, map[string]bool{file: true}); err != nil {
		return nil, fmt.Errorf("load %s: %w", file, err)
	}
	return e, nil
}

func (l *Loader) loadDir(dir string, kind Kind, into map[string]*Entity) error {
	if _, err := fs.Stat(l.fsys, dir); errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("schema directory not found", "dir", dir)
		return nil
	}
	return fs.WalkDir(l.fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".json" {
			return nil
		}
		e, err := l.LoadEntity(p, kind)
		if err != nil {
			return err
		}
		if prev, ok := into[e.Name]; ok {
			return fmt.Errorf("load %s: %s %q already defined in %s", p, kind, e.Name, prev.Path)
		}
		into[e.Name] = e
		return nil
	})
}

// include merges the attributes of every included file below attrs.
// Entries already present in attrs win. Nested includes are followed.
func (l *Loader) include(attrs *Attributes, includes Includes, stack map[string]bool) error {
	for _, inc := range includes {
		file := path.Clean(strings.TrimPrefix(inc, "/"))
		if stack[file] {
			return fmt.Errorf("include cycle at %s", file)
		}
		var part struct {
			Includes   Includes    `json:"$include"`
			Attributes *Attributes `json:"attributes"`
		}
		if err := l.readJSON(file, &part); err != nil {
			return err
		}
		if part.Attributes == nil {
			part.Attributes = NewAttributes()
		}
		nested := append(Includes{}, part.Includes...)
		nested = append(nested, part.Attributes.Includes...)
		if len(nested) > 0 {
			stack[file] = true
			if err := l.include(part.Attributes, nested, stack); err != nil {
				return err
			}
			delete(stack, file)
		}
		attrs.Fill(part.Attributes)
	}
	return nil
}

func (l *Loader) readJSON(file string, v any) error {
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}
	return nil
}
