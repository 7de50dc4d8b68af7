package gen

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// EnumFamily is a captioned identifier family (activity_id, status_id,
// type_id...) emitted as a named integer type with one constant per value.
type EnumFamily struct {
	// Name is the Go type name, e.g. "AuthenticationActivityId".
	Name string
	// Attr is the native attribute name.
	Attr string
	// Origin is the entity that defined the values, empty for the dictionary.
	Origin string
	// GoType is the underlying integer type.
	GoType string
	Values []EnumConst
}

// EnumConst is one member of a family.
type EnumConst struct {
	// Member is the projected caption, unique within the family.
	Member  string
	ID      int64
	Caption string
}

// Const returns the Go constant name of the member.
func (f *EnumFamily) Const(c EnumConst) string {
	return f.Name + Separator + c.Member
}

// LabelsVar returns the name of the id to caption map.
func (f *EnumFamily) LabelsVar() string { return f.Name + "Labels" }

// collectEnums builds one family per distinct enum type name. Two fields that
// project to the same name must carry the same values.
func collectEnums(types []*Type) ([]*EnumFamily, error) {
	byName := make(map[string]*EnumFamily)
	var errs []string
	for _, t := range types {
		for _, f := range t.Fields {
			if !f.IsEnum() {
				continue
			}
			fam := newEnumFamily(f)
			prev, ok := byName[fam.Name]
			if !ok {
				byName[fam.Name] = fam
				continue
			}
			if !slices.Equal(prev.Values, fam.Values) || prev.GoType != fam.GoType {
				errs = append(errs, fmt.Sprintf("%s (%s.%s and %s.%s)", fam.Name, prev.Origin, prev.Attr, t.Name, f.Name))
			}
		}
	}
	if len(errs) > 0 {
		return nil, NewGenerationError("enums", "", "enum families project to the same name with different values: "+strings.Join(errs, ", "), nil)
	}
	fams := make([]*EnumFamily, 0, len(byName))
	for _, fam := range byName {
		fams = append(fams, fam)
	}
	sort.Slice(fams, func(i, j int) bool { return fams[i].Name < fams[j].Name })
	return fams, nil
}

func newEnumFamily(f *Field) *EnumFamily {
	fam := &EnumFamily{
		Name:   f.EnumType,
		Attr:   f.Name,
		Origin: f.EnumOrigin,
		GoType: f.Primitive.GoType,
	}
	used := make(map[string]bool, len(f.Enum))
	ids := make(map[int64]bool, len(f.Enum))
	for _, v := range f.Enum {
		id, ok := v.ID()
		if !ok || ids[id] {
			continue
		}
		ids[id] = true
		member := EnumMember(v.Caption)
		if used[member] {
			member = uniqueName(member+Separator+strings.ReplaceAll(v.Key, "-", "N"), used)
		} else {
			used[member] = true
		}
		fam.Values = append(fam.Values, EnumConst{Member: member, ID: id, Caption: v.Caption})
	}
	return fam
}
