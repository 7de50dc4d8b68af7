package ocsf

import (
	"sort"

	"github.com/syssam/ocsf/validate"
)

// Registry maps native entity names to their validators. Generated category
// barrels expose one Registry per category and version.
type Registry struct {
	category string
	schemas  map[string]validate.Schema
}

// NewRegistry returns a registry for the given category.
func NewRegistry(category string, schemas map[string]validate.Schema) *Registry {
	return &Registry{category: category, schemas: schemas}
}

// Category returns the registry category.
func (r *Registry) Category() string { return r.category }

// Len returns the number of registered entities.
func (r *Registry) Len() int { return len(r.schemas) }

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the validator registered under name.
func (r *Registry) Lookup(name string) (validate.Schema, error) {
	s, ok := r.schemas[name]
	if !ok {
		return nil, NewNotFoundError(r.category, name)
	}
	return s, nil
}

// Validate checks the JSON document data against the entity registered under name.
func (r *Registry) Validate(name string, data []byte) error {
	s, err := r.Lookup(name)
	if err != nil {
		return err
	}
	if err := validate.JSON(s, data); err != nil {
		return NewValidationError(name, err)
	}
	return nil
}
