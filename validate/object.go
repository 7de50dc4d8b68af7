package validate

import (
	"sort"
)

// Mode is the unknown-key policy of an object.
type Mode int

const (
	// Passthrough accepts keys that are not modeled by the object.
	Passthrough Mode = iota
	// Strict reports keys that are not modeled by the object.
	Strict
)

// String returns the policy name.
func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "passthrough"
}

// FieldSchema is one modeled key of an object.
type FieldSchema struct {
	name     string
	schema   Schema
	optional bool
}

// Field returns a required field named name validated by s.
func Field(name string, s Schema) *FieldSchema {
	return &FieldSchema{name: name, schema: s}
}

// Optional marks the field as optional. A missing key or a JSON null is
// accepted for optional fields.
func (f *FieldSchema) Optional() *FieldSchema {
	f.optional = true
	return f
}

// Name returns the JSON key of the field.
func (f *FieldSchema) Name() string { return f.name }

// IsOptional reports whether the field may be omitted.
func (f *FieldSchema) IsOptional() bool { return f.optional }

// Schema returns the validator of the field value.
func (f *FieldSchema) Schema() Schema { return f.schema }

// ObjectSchema validates a JSON object.
type ObjectSchema struct {
	name   string
	mode   Mode
	fields []*FieldSchema
	index  map[string]*FieldSchema
}

// Object returns an object validator. Field order is kept for Fields and
// for the order in which issues are reported.
func Object(name string, mode Mode, fields ...*FieldSchema) *ObjectSchema {
	o := &ObjectSchema{
		name:   name,
		mode:   mode,
		fields: fields,
		index:  make(map[string]*FieldSchema, len(fields)),
	}
	for _, f := range fields {
		o.index[f.name] = f
	}
	return o
}

// Name returns the OCSF name of the object.
func (o *ObjectSchema) Name() string { return o.name }

// Mode returns the unknown-key policy.
func (o *ObjectSchema) Mode() Mode { return o.mode }

// Fields returns the modeled fields in declaration order.
func (o *ObjectSchema) Fields() []*FieldSchema { return o.fields }

// Field returns the modeled field with the given key.
func (o *ObjectSchema) Field(name string) (*FieldSchema, bool) {
	f, ok := o.index[name]
	return f, ok
}

// Kind implements Schema.
func (o *ObjectSchema) Kind() string { return "object " + o.name }

func (o *ObjectSchema) check(v any, p path, is *Issues) {
	m, ok := v.(map[string]any)
	if !ok {
		is.add(p, CodeInvalidType, "expected %s, got %s", o.Kind(), typeOf(v))
		return
	}
	for _, f := range o.fields {
		fv, present := m[f.name]
		if !present || fv == nil {
			if !f.optional {
				is.add(p.key(f.name), CodeRequired, "required field %q is missing", f.name)
			}
			continue
		}
		f.schema.check(fv, p.key(f.name), is)
	}
	if o.mode != Strict {
		return
	}
	var unknown []string
	for k := range m {
		if _, ok := o.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		is.add(p.key(k), CodeUnrecognized, "unrecognized key %q in strict %s", k, o.Kind())
	}
}

// ArraySchema validates a JSON array whose elements satisfy one schema.
type ArraySchema struct {
	elem Schema
}

// Array returns a validator for arrays of elem.
func Array(elem Schema) *ArraySchema {
	return &ArraySchema{elem: elem}
}

// Elem returns the element validator.
func (a *ArraySchema) Elem() Schema { return a.elem }

// Kind implements Schema.
func (a *ArraySchema) Kind() string { return "array of " + a.elem.Kind() }

func (a *ArraySchema) check(v any, p path, is *Issues) {
	xs, ok := v.([]any)
	if !ok {
		is.add(p, CodeInvalidType, "expected %s, got %s", a.Kind(), typeOf(v))
		return
	}
	for i, x := range xs {
		a.elem.check(x, p.index(i), is)
	}
}
