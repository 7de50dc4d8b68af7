// Package load reads a raw OCSF schema tree (dictionary, categories,
// objects, events and their $include files) into memory.
package load

import (
	"sort"
)

// Kind is the category of an entity.
type Kind string

// Entity kinds.
const (
	KindObject Kind = "object"
	KindEvent  Kind = "event"
)

// Entity represents one OCSF object or event definition as it appears in the
// source tree, with its $include files already merged.
type Entity struct {
	Name        string      `json:"name"`
	Caption     string      `json:"caption,omitempty"`
	Description string      `json:"description,omitempty"`
	Extends     string      `json:"extends,omitempty"`
	UID         int         `json:"uid,omitempty"`
	Category    string      `json:"category,omitempty"`
	Strict      bool        `json:"strict,omitempty"`
	Profiles    []string    `json:"profiles,omitempty"`
	Includes    Includes    `json:"$include,omitempty"`
	Attributes  *Attributes `json:"attributes,omitempty"`

	// Kind is set by the loader from the directory the file was found in.
	Kind Kind `json:"-"`
	// Path of the source file, relative to the schema root.
	Path string `json:"-"`
}

// Abstract reports whether the entity is an abstract base
// (its native name starts with an underscore).
func (e *Entity) Abstract() bool {
	return len(e.Name) > 0 && e.Name[0] == '_'
}

// TypeDef is a derived scalar type declared in the dictionary "types" section.
type TypeDef struct {
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	// Type is the base type, e.g. "string_t" for "file_hash_t".
	Type     string `json:"type,omitempty"`
	TypeName string `json:"type_name,omitempty"`
}

// Dictionary is the shared attribute dictionary of a version.
type Dictionary struct {
	Caption     string      `json:"caption,omitempty"`
	Description string      `json:"description,omitempty"`
	Attributes  *Attributes `json:"attributes,omitempty"`
	Types       struct {
		Attributes map[string]TypeDef `json:"attributes,omitempty"`
	} `json:"types"`
}

// BaseType returns the base scalar type of a derived type, following the
// "types" section until a type without a base is reached.
func (d *Dictionary) BaseType(t string) string {
	if d == nil {
		return t
	}
	seen := make(map[string]bool)
	for !seen[t] {
		seen[t] = true
		def, ok := d.Types.Attributes[t]
		if !ok || def.Type == "" || def.Type == t {
			return t
		}
		t = def.Type
	}
	return t
}

// Category is an OCSF event category.
type Category struct {
	Name        string `json:"-"`
	UID         int    `json:"uid"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
}

// Schema is the complete raw tree of one schema version.
type Schema struct {
	// Version is read from version.json when present.
	Version    string
	Dictionary *Dictionary
	Categories map[string]*Category
	Objects    map[string]*Entity
	Events     map[string]*Entity
}

// Entity returns the object or event with the given name.
func (s *Schema) Entity(kind Kind, name string) (*Entity, bool) {
	var e *Entity
	var ok bool
	switch kind {
	case KindObject:
		e, ok = s.Objects[name]
	case KindEvent:
		e, ok = s.Events[name]
	}
	return e, ok
}

// ObjectNames returns the object names in sorted order.
func (s *Schema) ObjectNames() []string { return sortedKeys(s.Objects) }

// EventNames returns the event names in sorted order.
func (s *Schema) EventNames() []string { return sortedKeys(s.Events) }

func sortedKeys(m map[string]*Entity) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
