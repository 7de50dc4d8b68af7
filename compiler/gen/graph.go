package gen

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/syssam/ocsf/compiler/load"
)

// SchemaVersion identifies one materialized schema version. It is never
// mutated after creation and may be shared by concurrent runs.
type SchemaVersion struct {
	// Tag is the version without the "v" prefix, e.g. "1.7.0".
	Tag string
	// Slug is the package directory name, e.g. "v1_7".
	Slug string
	// Dir is the local directory holding the raw schema tree.
	Dir string
}

// NewSchemaVersion validates tag as a semantic version and projects its slug.
func NewSchemaVersion(tag, dir string) (SchemaVersion, error) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "v")
	if !semver.IsValid("v" + tag) {
		return SchemaVersion{}, NewConfigError("Version", tag, "not a semantic version")
	}
	return SchemaVersion{Tag: tag, Slug: VersionSlug(tag), Dir: dir}, nil
}

// Semver returns the tag in golang.org/x/mod/semver form.
func (v SchemaVersion) Semver() string { return "v" + v.Tag }

// String returns the tag.
func (v SchemaVersion) String() string { return v.Tag }

// Latest returns the highest version of vs by semantic version order.
func Latest(vs []SchemaVersion) (SchemaVersion, bool) {
	if len(vs) == 0 {
		return SchemaVersion{}, false
	}
	best := vs[0]
	for _, v := range vs[1:] {
		if semver.Compare(v.Semver(), best.Semver()) > 0 {
			best = v
		}
	}
	return best, true
}

// SortVersions sorts vs in ascending semantic version order.
func SortVersions(vs []SchemaVersion) {
	sort.SliceStable(vs, func(i, j int) bool {
		return semver.Compare(vs[i].Semver(), vs[j].Semver()) < 0
	})
}

// The following types are the resolved, immutable form of a schema version
// consumed by the cycle resolver and the emitter.
type (
	// Type is a resolved entity: every inherited attribute materialized with
	// override precedence applied.
	Type struct {
		// Name is the native snake_case name.
		Name string
		// TypeName is the projected Go identifier.
		TypeName string
		// Kind is object or event.
		Kind        load.Kind
		Caption     string
		Description string
		// Extends is the native name of the parent entity, if any.
		Extends string
		// Abstract is set for entities whose native name starts with "_".
		Abstract bool
		// Strict entities reject keys that are not modeled.
		Strict bool
		// Fields in declaration order, ancestors first.
		Fields []*Field
		fields map[string]*Field
		// Event class identifiers. Zero for objects.
		Category    string
		CategoryUID int
		ClassUID    int
	}

	// Field is one resolved attribute of a Type.
	Field struct {
		// Name is the native attribute name and JSON key.
		Name string
		// StructName is the Go struct field name.
		StructName  string
		Caption     string
		Description string
		// NativeType is the declared OCSF type, e.g. "file_hash_t".
		NativeType string
		// Primitive is the mapping of the (base) scalar type. Unused for references.
		Primitive Primitive
		// Ref is the referenced object name when NativeType is object_t.
		Ref      string
		Array    bool
		Optional bool
		// Enum holds the permitted values of enumerated integer attributes.
		Enum load.Enum
		// EnumType is the Go name of the enum family, set with Enum.
		EnumType string
		// Origin is the entity whose definition supplied the attribute, or
		// empty when only the dictionary defines it.
		Origin string
		// EnumOrigin is the entity that last overrode the enumeration, or
		// empty when the values come from the dictionary.
		EnumOrigin string
	}

	// Edge is a reference from one entity to an object of the same version.
	Edge struct {
		From     string
		To       string
		Attr     string
		Array    bool
		Optional bool
	}

	// CycleAnnotation records how an edge is bound at emission time.
	CycleAnnotation struct {
		Edge Edge
		// InCycle is set for every edge inside a strongly connected component
		// of the reference graph (including self-loops).
		InCycle bool
		// Deferred is set for the cycle-breaking edges, emitted as lazy lookups.
		Deferred bool
	}

	// Graph is the resolved and annotated form of one schema version.
	Graph struct {
		Version SchemaVersion
		// Nodes holds objects then events, each sorted by native name.
		Nodes []*Type
		// Edges holds the object references, then the event references, each
		// in the order of Nodes and their fields.
		Edges []Edge
		// Annotations has one entry per edge, in Edges order.
		Annotations []CycleAnnotation
		// Order is the topological order of the objects over eager edges,
		// dependencies first. Events are never referenced, so they bind after
		// every object and take no part in it.
		Order []string
		// Enums holds the enum families sorted by name.
		Enums []*EnumFamily

		// Objects and events are keyed separately: OCSF reuses native names
		// across the two kinds.
		objects  map[string]*Type
		events   map[string]*Type
		deferred map[string]bool
	}
)

// Field returns the resolved field with the given native name.
func (t *Type) Field(name string) (*Field, bool) {
	f, ok := t.fields[name]
	return f, ok
}

// IsEvent reports whether the type is an event class.
func (t *Type) IsEvent() bool { return t.Kind == load.KindEvent }

// Label returns the human-readable name of the type.
func (t *Type) Label() string {
	if t.Caption != "" {
		return t.Caption
	}
	return t.Name
}

// IsRef reports whether the field references an object.
func (f *Field) IsRef() bool { return f.Ref != "" }

// IsEnum reports whether the field is an enumerated integer.
func (f *Field) IsEnum() bool { return f.EnumType != "" }

// Deferrable reports whether the edge may be bound lazily: arrays and
// optional attributes can be left unresolved until first validation.
func (e Edge) Deferrable() bool { return e.Array || e.Optional }

// String returns "from.attr -> to".
func (e Edge) String() string {
	return fmt.Sprintf("%s.%s -> %s", e.From, e.Attr, e.To)
}

func edgeKey(from, attr string) string { return from + "\x00" + attr }

// Object returns the object with the given native name.
func (g *Graph) Object(name string) (*Type, bool) {
	t, ok := g.objects[name]
	return t, ok
}

// Event returns the event class with the given native name.
func (g *Graph) Event(name string) (*Type, bool) {
	t, ok := g.events[name]
	return t, ok
}

// Objects returns the object nodes sorted by name.
func (g *Graph) Objects() []*Type { return g.kind(load.KindObject) }

// Events returns the event nodes sorted by name.
func (g *Graph) Events() []*Type { return g.kind(load.KindEvent) }

func (g *Graph) kind(k load.Kind) []*Type {
	var ts []*Type
	for _, t := range g.Nodes {
		if t.Kind == k {
			ts = append(ts, t)
		}
	}
	return ts
}

// ObjectOrder returns the objects in initialization order.
func (g *Graph) ObjectOrder() []string { return slices.Clone(g.Order) }

// Deferred reports whether the reference held by attribute attr of the
// object from is bound lazily. Event references are always eager.
func (g *Graph) Deferred(from, attr string) bool {
	return g.deferred[edgeKey(from, attr)]
}

// NewGraph resolves and annotates one schema version: inheritance is
// flattened, references are checked, reference cycles are broken and enum
// families are collected. Any failure is fatal for the version.
func NewGraph(cfg *Config, v SchemaVersion, s *load.Schema) (*Graph, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	types, err := Resolve(s, cfg.Strict...)
	if err != nil {
		return nil, err
	}
	g := &Graph{
		Version:  v,
		Nodes:    types,
		objects:  make(map[string]*Type),
		events:   make(map[string]*Type),
		deferred: make(map[string]bool),
	}
	var (
		names       []string
		objectEdges []Edge
		eventEdges  []Edge
	)
	for _, t := range types {
		if t.IsEvent() {
			g.events[t.Name] = t
		} else {
			g.objects[t.Name] = t
			names = append(names, t.Name)
		}
		for _, f := range t.Fields {
			if !f.IsRef() {
				continue
			}
			e := Edge{From: t.Name, To: f.Ref, Attr: f.Name, Array: f.Array, Optional: f.Optional}
			if t.IsEvent() {
				eventEdges = append(eventEdges, e)
			} else {
				objectEdges = append(objectEdges, e)
			}
		}
	}
	// Only objects are reference targets, so every cycle lies among them.
	if g.Annotations, g.Order, err = BreakCycles(names, objectEdges); err != nil {
		return nil, err
	}
	for _, a := range g.Annotations {
		if a.Deferred {
			g.deferred[edgeKey(a.Edge.From, a.Edge.Attr)] = true
		}
	}
	g.Edges = append(objectEdges, eventEdges...)
	for _, e := range eventEdges {
		g.Annotations = append(g.Annotations, CycleAnnotation{Edge: e})
	}
	if g.Enums, err = collectEnums(types); err != nil {
		return nil, err
	}
	if missing := g.unknown(cfg.Strict); len(missing) > 0 {
		cfg.logger().Warn("strict entities not found", "version", v.Tag, "names", missing)
	}
	cfg.logger().Debug("resolved schema version",
		"version", v.Tag,
		"objects", len(g.Objects()),
		"events", len(g.Events()),
		"edges", len(g.Edges),
		"deferred", len(g.deferred),
		"enums", len(g.Enums),
	)
	return g, nil
}

// unknown returns the names that are neither an object nor an event.
func (g *Graph) unknown(names []string) []string {
	var missing []string
	for _, n := range names {
		_, obj := g.objects[n]
		_, ev := g.events[n]
		if !obj && !ev && !slices.Contains(missing, n) {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing
}
