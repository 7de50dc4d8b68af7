package gen

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/ocsf/compiler/load"
)

// Resolve flattens every object and event of s. Each entity's "extends"
// chain is walked from the root ancestor down, and every attribute entry is
// applied as an overlay on the dictionary definition, so a descendant's
// definition of a name always wins over an ancestor's. An attribute keeps
// the position of its first occurrence in the chain.
//
// Entities named in strict, or declaring "strict": true, reject keys that are
// not modeled. All malformations are reported together.
func Resolve(s *load.Schema, strict ...string) ([]*Type, error) {
	r := &resolver{schema: s, strict: set(strict...)}
	var (
		types []*Type
		errs  []error
	)
	for _, kind := range []load.Kind{load.KindObject, load.KindEvent} {
		names := s.ObjectNames()
		if kind == load.KindEvent {
			names = s.EventNames()
		}
		for _, name := range names {
			e, _ := s.Entity(kind, name)
			t, err := r.resolve(e)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			types = append(types, t)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return types, nil
}

type resolver struct {
	schema *load.Schema
	strict map[string]bool
}

// chain returns the extends chain of e, root ancestor first.
func (r *resolver) chain(e *load.Entity) ([]*load.Entity, error) {
	chain := []*load.Entity{e}
	seen := map[string]bool{e.Name: true}
	for cur := e; cur.Extends != ""; {
		parent, ok := r.schema.Entity(e.Kind, cur.Extends)
		if !ok {
			return nil, NewSchemaError(e.Name, "", fmt.Sprintf("%s %q extends unknown %s %q", e.Kind, cur.Name, e.Kind, cur.Extends), nil)
		}
		if seen[parent.Name] {
			names := make([]string, 0, len(chain)+1)
			for _, c := range chain {
				names = append(names, c.Name)
			}
			names = append(names, parent.Name)
			return nil, NewSchemaError(e.Name, "", "cyclic extends chain: "+strings.Join(names, " -> "), nil)
		}
		seen[parent.Name] = true
		chain = append(chain, parent)
		cur = parent
	}
	slices.Reverse(chain)
	return chain, nil
}

func (r *resolver) resolve(e *load.Entity) (*Type, error) {
	chain, err := r.chain(e)
	if err != nil {
		return nil, err
	}
	var (
		dict       = r.schema.Dictionary
		attrs      = load.NewAttributes()
		origin     = make(map[string]string)
		enumOrigin = make(map[string]string)
	)
	for _, ent := range chain {
		for _, name := range ent.Attributes.Names() {
			a, _ := ent.Attributes.Get(name)
			prev, ok := attrs.Get(name)
			if !ok {
				if prev, ok = dict.Attributes.Get(name); !ok {
					prev = &load.Attribute{}
				}
			}
			attrs.Set(name, prev.Overlay(a))
			origin[name] = ent.Name
			if len(a.Enum) > 0 {
				enumOrigin[name] = ent.Name
			}
		}
	}

	t := &Type{
		Name:        e.Name,
		TypeName:    TypeName(e.Name),
		Kind:        e.Kind,
		Caption:     e.Caption,
		Description: e.Description,
		Extends:     e.Extends,
		Abstract:    e.Abstract(),
		Strict:      e.Strict || r.strict[e.Name],
		fields:      make(map[string]*Field, attrs.Len()),
	}
	if e.Kind == load.KindEvent {
		r.classify(t, e, chain)
	}

	var errs []error
	used := make(map[string]bool, attrs.Len()+len(reservedFields))
	for _, id := range reservedFields {
		used[id] = true
	}
	for _, name := range attrs.Names() {
		a, _ := attrs.Get(name)
		f, err := r.field(e, name, a)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		f.Origin = origin[name]
		if f.Enum != nil {
			f.EnumOrigin = enumOrigin[name]
			f.EnumType = TypeName(f.EnumOrigin) + TypeName(name)
		}
		f.StructName = uniqueName(TypeName(name), used)
		t.Fields = append(t.Fields, f)
		t.fields[name] = f
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return t, nil
}

// ExtraField is the struct field that holds the unmodeled attributes of open
// entities.
const ExtraField = "Extra"

// reservedFields are never given to attributes, in open and strict entities
// alike.
var reservedFields = []string{ExtraField, "MarshalJSON", "UnmarshalJSON"}

// classify sets the category and class identifiers of an event. The
// category is inherited from the closest ancestor declaring one.
func (r *resolver) classify(t *Type, e *load.Entity, chain []*load.Entity) {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Category != "" {
			t.Category = chain[i].Category
			break
		}
	}
	if c, ok := r.schema.Categories[t.Category]; ok {
		t.CategoryUID = c.UID
	}
	t.ClassUID = e.UID
	if e.UID < 1000 {
		t.ClassUID = t.CategoryUID*1000 + e.UID
	}
}

func (r *resolver) field(e *load.Entity, name string, a *load.Attribute) (*Field, error) {
	f := &Field{
		Name:        name,
		Caption:     a.Caption,
		Description: a.Description,
		NativeType:  a.Type,
		Array:       a.Array(),
		Optional:    !a.Required(),
	}
	if a.Type == ObjectType {
		if a.ObjectType == "" {
			return nil, NewSchemaError(e.Name, name, "object_t attribute without object_type", nil)
		}
		if _, ok := r.schema.Objects[a.ObjectType]; !ok {
			return nil, NewEdgeError(e.Name, a.ObjectType, name, "referenced object does not exist")
		}
		f.Ref = a.ObjectType
		return f, nil
	}
	native := a.Type
	if !Known(native) {
		native = r.schema.Dictionary.BaseType(native)
	}
	f.Primitive = MapType(native)
	if a.Enum.Numeric() && (f.Primitive.GoType == "int32" || f.Primitive.GoType == "int64") {
		f.Enum = a.Enum
	}
	return f, nil
}

// uniqueName returns name, or name with the smallest numeric suffix that is
// not yet used, and records it.
func uniqueName(name string, used map[string]bool) string {
	if name == "" {
		name = "Field"
	}
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	used[candidate] = true
	return candidate
}
