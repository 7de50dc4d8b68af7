package load

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Requirement values used by OCSF attribute entries.
const (
	Required    = "required"
	Recommended = "recommended"
	Optional    = "optional"
)

// Attribute is one attribute entry, either from the dictionary or from an
// entity file. Entity entries are overlays: only the keys they set replace
// the dictionary definition.
type Attribute struct {
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	ObjectType  string `json:"object_type,omitempty"`
	Requirement string `json:"requirement,omitempty"`
	IsArray     *bool  `json:"is_array,omitempty"`
	Group       string `json:"group,omitempty"`
	Sibling     string `json:"sibling,omitempty"`
	Enum        Enum   `json:"enum,omitempty"`
}

// Array reports whether the attribute is multi-valued.
func (a *Attribute) Array() bool {
	return a.IsArray != nil && *a.IsArray
}

// Required reports whether the attribute must be present.
// "recommended" and "optional" attributes are both optional for validation.
func (a *Attribute) Required() bool {
	return a.Requirement == Required
}

// Overlay returns a copy of a with every key set in o applied on top.
// Enumerations are merged value by value, o wins on captions.
func (a *Attribute) Overlay(o *Attribute) *Attribute {
	c := *a
	if o == nil {
		return &c
	}
	if o.Caption != "" {
		c.Caption = o.Caption
	}
	if o.Description != "" {
		c.Description = o.Description
	}
	if o.Type != "" {
		c.Type = o.Type
		c.ObjectType = o.ObjectType
	} else if o.ObjectType != "" {
		c.ObjectType = o.ObjectType
	}
	if o.Requirement != "" {
		c.Requirement = o.Requirement
	}
	if o.IsArray != nil {
		v := *o.IsArray
		c.IsArray = &v
	}
	if o.Group != "" {
		c.Group = o.Group
	}
	if o.Sibling != "" {
		c.Sibling = o.Sibling
	}
	c.Enum = a.Enum.Merge(o.Enum)
	return &c
}

// EnumValue is one permitted value of an enumerated attribute.
type EnumValue struct {
	Key         string `json:"-"`
	Caption     string `json:"caption,omitempty"`
	Description string `json:"description,omitempty"`
}

// ID returns the numeric value of the key.
func (v EnumValue) ID() (int64, bool) {
	n, err := strconv.ParseInt(v.Key, 10, 64)
	return n, err == nil
}

// Enum is the value set of an enumerated attribute, sorted by numeric key.
// Non-numeric keys sort after numeric keys, lexically.
type Enum []EnumValue

// UnmarshalJSON decodes the OCSF "enum" object.
func (e *Enum) UnmarshalJSON(data []byte) error {
	var raw map[string]EnumValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Enum, 0, len(raw))
	for k, v := range raw {
		v.Key = k
		out = append(out, v)
	}
	out.sort()
	*e = out
	return nil
}

// Numeric reports whether every key is an integer.
func (e Enum) Numeric() bool {
	for _, v := range e {
		if _, ok := v.ID(); !ok {
			return false
		}
	}
	return len(e) > 0
}

// IDs returns the numeric keys in ascending order.
func (e Enum) IDs() []int64 {
	ids := make([]int64, 0, len(e))
	for _, v := range e {
		if n, ok := v.ID(); ok {
			ids = append(ids, n)
		}
	}
	return ids
}

// Merge returns the union of e and o. Values in o replace values with the
// same key in e.
func (e Enum) Merge(o Enum) Enum {
	if len(o) == 0 {
		return slices.Clone(e)
	}
	if len(e) == 0 {
		return slices.Clone(o)
	}
	byKey := make(map[string]EnumValue, len(e)+len(o))
	for _, v := range e {
		byKey[v.Key] = v
	}
	for _, v := range o {
		byKey[v.Key] = v
	}
	out := make(Enum, 0, len(byKey))
	for _, v := range byKey {
		out = append(out, v)
	}
	out.sort()
	return out
}

func (e Enum) sort() {
	slices.SortFunc(e, func(a, b EnumValue) int {
		x, xok := a.ID()
		y, yok := b.ID()
		switch {
		case xok && yok:
			if x < y {
				return -1
			}
			if x > y {
				return 1
			}
			return 0
		case xok:
			return -1
		case yok:
			return 1
		}
		return strings.Compare(a.Key, b.Key)
	})
}

// Attributes is an ordered attribute table. Order is the order in which keys
// first appear in the source files.
type Attributes struct {
	names  []string
	byName map[string]*Attribute
	// Includes lists the "$include" targets found in the table.
	Includes []string
}

// NewAttributes returns an empty table.
func NewAttributes() *Attributes {
	return &Attributes{byName: make(map[string]*Attribute)}
}

// Len returns the number of attributes.
func (as *Attributes) Len() int {
	if as == nil {
		return 0
	}
	return len(as.names)
}

// Names returns the attribute names in order.
func (as *Attributes) Names() []string {
	if as == nil {
		return nil
	}
	return as.names
}

// Get returns the attribute with the given name.
func (as *Attributes) Get(name string) (*Attribute, bool) {
	if as == nil {
		return nil, false
	}
	a, ok := as.byName[name]
	return a, ok
}

// Set stores a under name. A name that is already present keeps its
// position.
func (as *Attributes) Set(name string, a *Attribute) {
	if as.byName == nil {
		as.byName = make(map[string]*Attribute)
	}
	if _, ok := as.byName[name]; !ok {
		as.names = append(as.names, name)
	}
	as.byName[name] = a
}

// Fill adds the attributes of o that are not already present, in o's order.
func (as *Attributes) Fill(o *Attributes) {
	for _, name := range o.Names() {
		if _, ok := as.byName[name]; ok {
			continue
		}
		a, _ := o.Get(name)
		as.Set(name, a)
	}
}

// UnmarshalJSON decodes an OCSF "attributes" object keeping key order.
// The "$include" key is collected into Includes.
func (as *Attributes) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attributes: expected object, got %v", tok)
	}
	*as = Attributes{byName: make(map[string]*Attribute)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("attributes: unexpected token %v", tok)
		}
		if name == IncludeKey {
			var inc Includes
			if err := dec.Decode(&inc); err != nil {
				return fmt.Errorf("attributes: %s: %w", IncludeKey, err)
			}
			as.Includes = append(as.Includes, inc...)
			continue
		}
		a := &Attribute{}
		if err := dec.Decode(a); err != nil {
			return fmt.Errorf("attributes: %s: %w", name, err)
		}
		as.Set(name, a)
	}
	_, err = dec.Token()
	return err
}

// IncludeKey is the OCSF key that pulls attributes from another file.
const IncludeKey = "$include"

// Includes is a "$include" value, either a single path or a list of paths.
type Includes []string

// UnmarshalJSON accepts a string or a list of strings.
func (in *Includes) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*in = Includes{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*in = many
	return nil
}
