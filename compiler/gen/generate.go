package gen

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/sync/errgroup"
)

// Sub-package names of a generated version.
const (
	ObjectsPkg = "objects"
	EventsPkg  = "events"
	EnumsPkg   = "enums"
)

// File is one rendered source file of a version.
type File struct {
	// Path is slash-separated and relative to the version directory.
	Path    string
	Content []byte
}

// Generator renders the Go packages of one resolved schema version.
type Generator struct {
	cfg   *Config
	graph *Graph
}

// NewGenerator creates a generator for the graph.
func NewGenerator(cfg *Config, g *Graph) *Generator {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Generator{cfg: cfg, graph: g}
}

// fileTask represents a single file generation task.
type fileTask struct {
	path   string
	render func() ([]byte, error)
}

// Files renders every file of the version in memory. Files are independent
// and rendered in parallel; the result is sorted by path. Identifier or file
// name collisions in any generated package fail the whole version.
func (g *Generator) Files(ctx context.Context) ([]File, error) {
	if err := g.checkCollisions(); err != nil {
		return nil, err
	}
	tasks := g.tasks()
	files := make([]File, len(tasks))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.workers())
	for i, task := range tasks {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			b, err := task.render()
			if err != nil {
				return err
			}
			files[i] = File{Path: task.path, Content: b}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	g.cfg.logger().Debug("rendered schema version", "version", g.graph.Version.Tag, "files", len(files))
	return files, nil
}

func (g *Generator) tasks() []fileTask {
	var tasks []fileTask
	add := func(p string, fn func() *jen.File) {
		tasks = append(tasks, fileTask{path: p, render: func() ([]byte, error) { return render(p, fn()) }})
	}
	for _, t := range g.graph.Objects() {
		add(path.Join(ObjectsPkg, goFileName(t.TypeName)), func() *jen.File { return g.genObject(t) })
	}
	for _, t := range g.graph.Events() {
		add(path.Join(EventsPkg, goFileName(t.TypeName)), func() *jen.File { return g.genEvent(t) })
	}
	for _, e := range g.graph.Enums {
		add(path.Join(EnumsPkg, goFileName(e.Name)), func() *jen.File { return g.genEnum(e) })
	}
	add(path.Join(ObjectsPkg, ObjectsPkg+".go"), g.genObjectsBarrel)
	add(path.Join(EventsPkg, EventsPkg+".go"), g.genEventsBarrel)
	add(path.Join(EnumsPkg, EnumsPkg+".go"), g.genEnumsBarrel)
	add(g.graph.Version.Slug+".go", g.genVersionBarrel)
	tasks = append(tasks, fileTask{path: "doc.go", render: g.renderDoc})
	return tasks
}

func render(p string, f *jen.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("render", p, "jennifer render failed", err)
	}
	return buf.Bytes(), nil
}

// versionPkg returns the import path of the version package.
func (g *Generator) versionPkg() string { return path.Join(g.cfg.Package, g.graph.Version.Slug) }

func (g *Generator) subPkg(name string) string { return path.Join(g.versionPkg(), name) }

// newFile creates a new Jennifer file with the header comment.
func (g *Generator) newFile(name string) *jen.File {
	f := jen.NewFilePathName(g.subPkg(name), name)
	f.HeaderComment(g.cfg.headerComment())
	f.ImportName(g.cfg.validatePkg(), "validate")
	f.ImportName(g.cfg.runtimePkg(), "ocsf")
	for _, pkg := range []string{ObjectsPkg, EventsPkg, EnumsPkg} {
		f.ImportName(g.subPkg(pkg), pkg)
	}
	return f
}

// genObject generates the struct and validator of an object.
func (g *Generator) genObject(t *Type) *jen.File {
	f := g.newFile(ObjectsPkg)
	g.genStruct(f, t)
	f.Commentf("%sSchema validates %q objects.", t.TypeName, t.Name)
	f.Var().Id(t.TypeName+"Schema").Op("=").Id("Slots").Dot("Define").Call(
		jen.Lit(t.Name),
		g.objectSchema(t),
	)
	return f
}

// genEvent generates the struct, validator and class identifiers of an event.
func (g *Generator) genEvent(t *Type) *jen.File {
	f := g.newFile(EventsPkg)
	g.genStruct(f, t)
	f.Var().Defs(
		jen.Commentf("%sSchema validates %q events.", t.TypeName, t.Name),
		jen.Id(t.TypeName+"Schema").Op("=").Add(g.objectSchema(t)),
		jen.Commentf("%sClass holds the identifiers of the %q class.", t.TypeName, t.Name),
		jen.Id(t.TypeName+"Class").Op("=").Qual(g.cfg.runtimePkg(), "ClassInfo").Values(jen.Dict{
			jen.Id("CategoryUID"): jen.Lit(t.CategoryUID),
			jen.Id("ClassUID"):    jen.Lit(t.ClassUID),
		}),
	)
	return f
}

// genStruct generates the static type of an entity.
func (g *Generator) genStruct(f *jen.File, t *Type) {
	kind := "object"
	if t.IsEvent() {
		kind = "event class"
	}
	f.Commentf("%s is the OCSF %s %q (%s).", t.TypeName, kind, t.Name, t.Label())
	if d := docText(t.Description); d != "" {
		f.Comment("")
		comment(f.Group, d)
	}
	f.Type().Id(t.TypeName).StructFunc(func(s *jen.Group) {
		for _, fd := range t.Fields {
			comment(s, g.fieldDoc(fd))
			s.Id(fd.StructName).Add(g.goType(fd)).Tag(structTags(fd))
		}
		if !t.Strict {
			s.Comment(ExtraField + " holds the attributes this schema version does not model.")
			s.Id(ExtraField).Map(jen.String()).Any().Tag(map[string]string{"json": "-"})
		}
	})
	if !t.Strict {
		g.genExtraCodec(f, t)
	}
}

// genExtraCodec generates the JSON methods that keep the unmodeled attributes
// of an open entity in its Extra field.
func (g *Generator) genExtraCodec(f *jen.File, t *Type) {
	v := g.cfg.validatePkg()
	known := make([]jen.Code, 0, len(t.Fields)+2)
	known = append(known, jen.Id("data"), jen.Parens(jen.Op("*").Id("plain")).Parens(jen.Id("x")))
	for _, fd := range t.Fields {
		known = append(known, jen.Lit(fd.Name))
	}

	f.Commentf("UnmarshalJSON decodes the modeled attributes and keeps the others in %s.", ExtraField)
	f.Func().Params(jen.Id("x").Op("*").Id(t.TypeName)).Id("UnmarshalJSON").Params(jen.Id("data").Index().Byte()).Error().Block(
		jen.Type().Id("plain").Id(t.TypeName),
		jen.List(jen.Id("extra"), jen.Err()).Op(":=").Qual(v, "DecodeExtra").Custom(multiline, known...),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Err())),
		jen.Id("x").Dot(ExtraField).Op("=").Id("extra"),
		jen.Return(jen.Nil()),
	)

	f.Commentf("MarshalJSON encodes the modeled attributes followed by %s.", ExtraField)
	f.Func().Params(jen.Id("x").Id(t.TypeName)).Id("MarshalJSON").Params().Params(jen.Index().Byte(), jen.Error()).Block(
		jen.Type().Id("plain").Id(t.TypeName),
		jen.Return(jen.Qual(v, "EncodeExtra").Call(jen.Id("plain").Call(jen.Id("x")), jen.Id("x").Dot(ExtraField))),
	)
}

func structTags(f *Field) map[string]string {
	tag := f.Name
	if f.Optional {
		tag += ",omitempty"
	}
	return map[string]string{"json": tag}
}

// goType returns the Jennifer code for a field's Go type.
func (g *Generator) goType(f *Field) jen.Code {
	var elem *jen.Statement
	switch {
	case f.IsRef():
		elem = jen.Qual(g.subPkg(ObjectsPkg), TypeName(f.Ref))
	case f.IsEnum():
		elem = jen.Qual(g.subPkg(EnumsPkg), f.EnumType)
	default:
		if f.Array {
			return jen.Index().Id(f.Primitive.GoType)
		}
		if f.Optional && f.Primitive.GoType != "any" {
			return jen.Id("*" + f.Primitive.GoType)
		}
		return jen.Id(f.Primitive.GoType)
	}
	switch {
	case f.Array:
		return jen.Index().Add(elem)
	case f.IsRef() || f.Optional:
		return jen.Op("*").Add(elem)
	}
	return elem
}

// objectSchema returns the validate.Object call of an entity.
func (g *Generator) objectSchema(t *Type) jen.Code {
	mode := "Passthrough"
	if t.Strict {
		mode = "Strict"
	}
	args := []jen.Code{jen.Lit(t.Name), jen.Qual(g.cfg.validatePkg(), mode)}
	for _, f := range t.Fields {
		args = append(args, g.fieldSchema(t, f))
	}
	return jen.Qual(g.cfg.validatePkg(), "Object").Custom(multiline, args...)
}

var (
	multiline       = jen.Options{Open: "(", Close: ")", Separator: ",", Multi: true}
	multilineValues = jen.Options{Open: "{", Close: "}", Separator: ",", Multi: true}
)

func (g *Generator) fieldSchema(t *Type, f *Field) jen.Code {
	v := g.cfg.validatePkg()
	var expr *jen.Statement
	switch {
	case f.IsRef() && !t.IsEvent() && g.graph.Deferred(t.Name, f.Name):
		expr = jen.Qual(g.subPkg(ObjectsPkg), "Slots").Dot("Lazy").Call(jen.Lit(f.Ref))
	case f.IsRef():
		expr = jen.Qual(g.subPkg(ObjectsPkg), TypeName(f.Ref)+"Schema")
	case f.IsEnum():
		ids := make([]jen.Code, 0, len(f.Enum))
		for _, id := range f.Enum.IDs() {
			ids = append(ids, jen.Lit(int(id)))
		}
		expr = jen.Qual(v, f.Primitive.Validator).Call().Dot("OneOf").Call(ids...)
	default:
		expr = jen.Qual(v, f.Primitive.Validator).Call()
	}
	if f.Array {
		expr = jen.Qual(v, "Array").Call(expr)
	}
	s := jen.Qual(v, "Field").Call(jen.Lit(f.Name), expr)
	if f.Optional {
		s = s.Dot("Optional").Call()
	}
	return s
}

// fieldDoc returns the doc comment of a struct field.
func (g *Generator) fieldDoc(f *Field) string {
	label := f.Caption
	if label == "" {
		label = f.Name
	}
	doc := fmt.Sprintf("%s is the %q attribute (%s", f.StructName, f.Name, label)
	switch {
	case f.Array && f.IsRef():
		target := f.Ref
		if t, ok := g.graph.Object(f.Ref); ok {
			target = t.Label()
		}
		doc += ", a list of " + inflect.Pluralize(target)
	case f.Array:
		doc += ", a list of " + inflect.Pluralize(f.Primitive.GoType) + " values"
	}
	doc += ")."
	if f.Optional {
		doc += " Optional."
	}
	if d := docText(f.Description); d != "" {
		doc += "\n" + d
	}
	return doc
}

// genEnum generates a named integer type with its constants and labels.
func (g *Generator) genEnum(e *EnumFamily) *jen.File {
	f := g.newFile(EnumsPkg)
	origin := e.Origin
	if origin == "" {
		origin = "the dictionary"
	}
	f.Commentf("%s enumerates the %q values defined by %s.", e.Name, e.Attr, origin)
	f.Type().Id(e.Name).Id(e.GoType)

	f.Const().DefsFunc(func(d *jen.Group) {
		for _, c := range e.Values {
			d.Id(e.Const(c)).Id(e.Name).Op("=").Lit(int(c.ID))
		}
	})

	f.Commentf("%s maps every %s to its caption.", e.LabelsVar(), e.Name)
	f.Var().Id(e.LabelsVar()).Op("=").Map(jen.Id(e.Name)).String().Values(jen.DictFunc(func(d jen.Dict) {
		for _, c := range e.Values {
			d[jen.Id(e.Const(c))] = jen.Lit(c.Caption)
		}
	}))

	f.Comment("String returns the caption of the value, or its number when it is not defined.")
	f.Func().Params(jen.Id("v").Id(e.Name)).Id("String").Params().String().Block(
		jen.If(jen.List(jen.Id("s"), jen.Id("ok")).Op(":=").Id(e.LabelsVar()).Index(jen.Id("v")), jen.Id("ok")).Block(
			jen.Return(jen.Id("s")),
		),
		jen.Return(jen.Qual("strconv", "FormatInt").Call(jen.Int64().Call(jen.Id("v")), jen.Lit(10))),
	)
	return f
}

// checkCollisions reports generated identifiers and file names that clash
// within one package.
func (g *Generator) checkCollisions() error {
	type scope struct {
		pkg   string
		ids   map[string]string
		files map[string]string
	}
	newScope := func(pkg string, reserved ...string) *scope {
		s := &scope{pkg: pkg, ids: make(map[string]string), files: map[string]string{pkg + ".go": "package barrel"}}
		for _, id := range reserved {
			s.ids[id] = "package barrel"
		}
		return s
	}
	var clashes []string
	claim := func(s *scope, owner string, file string, ids ...string) {
		for _, id := range ids {
			if prev, ok := s.ids[id]; ok {
				clashes = append(clashes, fmt.Sprintf("%s.%s (%s and %s)", s.pkg, id, prev, owner))
				continue
			}
			s.ids[id] = owner
		}
		if file == "" {
			return
		}
		if prev, ok := s.files[file]; ok {
			clashes = append(clashes, fmt.Sprintf("%s/%s (%s and %s)", s.pkg, file, prev, owner))
			return
		}
		s.files[file] = owner
	}

	objects := newScope(ObjectsPkg, "Slots", "Names", "Registry")
	for _, t := range g.graph.Objects() {
		claim(objects, t.Name, goFileName(t.TypeName), t.TypeName, t.TypeName+"Schema")
	}
	events := newScope(EventsPkg, "Names", "Registry", "Classes")
	for _, t := range g.graph.Events() {
		claim(events, t.Name, goFileName(t.TypeName), t.TypeName, t.TypeName+"Schema", t.TypeName+"Class")
	}
	enums := newScope(EnumsPkg, "Families", "Label")
	for _, e := range g.graph.Enums {
		ids := []string{e.Name, e.LabelsVar()}
		for _, c := range e.Values {
			ids = append(ids, e.Const(c))
		}
		claim(enums, e.Origin+"."+e.Attr, goFileName(e.Name), ids...)
	}
	if len(clashes) > 0 {
		return NewGenerationError("names", g.graph.Version.Slug, "generated names collide: "+strings.Join(clashes, ", "), nil)
	}
	return nil
}

var (
	htmlTag = regexp.MustCompile(`<[^>]*>`)
	spaces  = regexp.MustCompile(`[ \t\r\n]+`)
)

// docText strips markup from a schema description and collapses whitespace.
func docText(s string) string {
	s = htmlTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(spaces.ReplaceAllString(s, " "))
}

// comment writes text as line comments wrapped at 76 columns.
func comment(g *jen.Group, text string) {
	for _, para := range strings.Split(text, "\n") {
		line := ""
		for _, w := range strings.Fields(para) {
			if line != "" && len(line)+1+len(w) > 76 {
				g.Comment(line)
				line = ""
			}
			if line != "" {
				line += " "
			}
			line += w
		}
		if line != "" {
			g.Comment(line)
		}
	}
}
