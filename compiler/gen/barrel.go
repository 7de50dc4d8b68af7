package gen

import (
	"path"

	"github.com/dave/jennifer/jen"
)

// genObjectsBarrel generates the slot arena, registry and initialization
// order of the objects package.
func (g *Generator) genObjectsBarrel() *jen.File {
	f := g.newFile(ObjectsPkg)
	f.PackageComment("Package objects holds the OCSF " + g.graph.Version.Tag + " objects.")
	v := g.cfg.validatePkg()

	f.Comment("Slots holds every object validator of this version by native name.")
	f.Comment("References that close a cycle are looked up here on first use.")
	f.Var().Id("Slots").Op("=").Qual(v, "NewArena").Call(jen.Lit(g.graph.Version.Slug + "/" + ObjectsPkg))

	f.Comment("Names lists the objects in initialization order, dependencies first.")
	f.Var().Id("Names").Op("=").Index().String().Custom(multilineValues, lits(g.graph.ObjectOrder())...)

	f.Comment("Registry resolves object validators by native name.")
	f.Var().Id("Registry").Op("=").Qual(g.cfg.runtimePkg(), "NewRegistry").Call(
		jen.Lit("object"),
		jen.Map(jen.String()).Qual(v, "Schema").Values(jen.DictFunc(func(d jen.Dict) {
			for _, t := range g.graph.Objects() {
				d[jen.Lit(t.Name)] = jen.Id(t.TypeName + "Schema")
			}
		})),
	)
	return f
}

// genEventsBarrel generates the registry and class table of the events package.
func (g *Generator) genEventsBarrel() *jen.File {
	f := g.newFile(EventsPkg)
	f.PackageComment("Package events holds the OCSF " + g.graph.Version.Tag + " event classes.")
	events := g.graph.Events()
	names := make([]string, 0, len(events))
	for _, t := range events {
		names = append(names, t.Name)
	}

	f.Comment("Names lists the event classes sorted by native name.")
	f.Var().Id("Names").Op("=").Index().String().Custom(multilineValues, lits(names)...)

	f.Comment("Registry resolves event validators by native name.")
	f.Var().Id("Registry").Op("=").Qual(g.cfg.runtimePkg(), "NewRegistry").Call(
		jen.Lit("event"),
		jen.Map(jen.String()).Qual(g.cfg.validatePkg(), "Schema").Values(jen.DictFunc(func(d jen.Dict) {
			for _, t := range events {
				d[jen.Lit(t.Name)] = jen.Id(t.TypeName + "Schema")
			}
		})),
	)

	f.Comment("Classes maps event class names to their identifiers.")
	f.Var().Id("Classes").Op("=").Map(jen.String()).Qual(g.cfg.runtimePkg(), "ClassInfo").Values(jen.DictFunc(func(d jen.Dict) {
		for _, t := range events {
			d[jen.Lit(t.Name)] = jen.Id(t.TypeName + "Class")
		}
	}))
	return f
}

// genEnumsBarrel generates the family list and label lookup of the enums package.
func (g *Generator) genEnumsBarrel() *jen.File {
	f := g.newFile(EnumsPkg)
	f.PackageComment("Package enums holds the enumerated identifiers of OCSF " + g.graph.Version.Tag + ".")
	names := make([]string, 0, len(g.graph.Enums))
	for _, e := range g.graph.Enums {
		names = append(names, e.Name)
	}

	f.Comment("Families lists the enum type names.")
	f.Var().Id("Families").Op("=").Index().String().Custom(multilineValues, lits(names)...)

	f.Comment("Label returns the caption of id in the named family. Ids outside")
	f.Comment("the range of the family type are never members.")
	f.Func().Id("Label").Params(jen.Id("family").String(), jen.Id("id").Int64()).Params(jen.String(), jen.Bool()).BlockFunc(func(b *jen.Group) {
		if len(g.graph.Enums) > 0 {
			b.Switch(jen.Id("family")).BlockFunc(func(sw *jen.Group) {
				for _, e := range g.graph.Enums {
					sw.Case(jen.Lit(e.Name)).BlockFunc(func(c *jen.Group) {
						if e.GoType == "int32" {
							c.If(jen.Id("id").Op("<").Qual("math", "MinInt32").Op("||").Id("id").Op(">").Qual("math", "MaxInt32")).Block(
								jen.Return(jen.Lit(""), jen.False()),
							)
						}
						c.List(jen.Id("s"), jen.Id("ok")).Op(":=").Id(e.LabelsVar()).Index(jen.Id(e.Name).Call(jen.Id("id")))
						c.Return(jen.Id("s"), jen.Id("ok"))
					})
				}
			})
		}
		b.Return(jen.Lit(""), jen.False())
	})
	return f
}

// genVersionBarrel generates the version package that ties the
// sub-packages together.
func (g *Generator) genVersionBarrel() *jen.File {
	slug := g.graph.Version.Slug
	f := jen.NewFilePathName(g.versionPkg(), slug)
	f.HeaderComment(g.cfg.headerComment())
	for _, pkg := range []string{ObjectsPkg, EventsPkg, EnumsPkg} {
		f.ImportName(g.subPkg(pkg), pkg)
	}

	f.Comment("Version is the OCSF schema version of this package.")
	f.Const().Id("Version").Op("=").Lit(g.graph.Version.Tag)

	f.Var().Defs(
		jen.Comment("Objects resolves object validators by native name."),
		jen.Id("Objects").Op("=").Qual(g.subPkg(ObjectsPkg), "Registry"),
		jen.Comment("Events resolves event validators by native name."),
		jen.Id("Events").Op("=").Qual(g.subPkg(EventsPkg), "Registry"),
		jen.Comment("Classes maps event class names to their identifiers."),
		jen.Id("Classes").Op("=").Qual(g.subPkg(EventsPkg), "Classes"),
	)

	f.Comment("EnumLabel returns the caption of id in the named enum family.")
	f.Func().Id("EnumLabel").Params(jen.Id("family").String(), jen.Id("id").Int64()).Params(jen.String(), jen.Bool()).Block(
		jen.Return(jen.Qual(g.subPkg(EnumsPkg), "Label").Call(jen.Id("family"), jen.Id("id"))),
	)
	return f
}

// RootFile renders the package at the root of the target directory. It
// aliases the default version and lists every generated version.
func RootFile(cfg *Config, versions []SchemaVersion, def SchemaVersion) (File, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	sorted := append([]SchemaVersion(nil), versions...)
	SortVersions(sorted)
	tags := make([]string, 0, len(sorted))
	for _, v := range sorted {
		tags = append(tags, v.Tag)
	}
	pkg := path.Join(cfg.Package, def.Slug)

	f := jen.NewFilePathName(cfg.Package, cfg.PackageName())
	f.HeaderComment(cfg.headerComment())
	f.ImportName(pkg, def.Slug)
	f.PackageComment("Package " + cfg.PackageName() + " exposes the OCSF " + def.Tag + " validators by default.")

	f.Comment("Version is the default OCSF schema version.")
	f.Const().Id("Version").Op("=").Qual(pkg, "Version")

	f.Comment("Versions lists every generated schema version in ascending order.")
	f.Var().Id("Versions").Op("=").Index().String().Custom(multilineValues, lits(tags)...)

	f.Var().Defs(
		jen.Comment("Objects resolves object validators of the default version."),
		jen.Id("Objects").Op("=").Qual(pkg, "Objects"),
		jen.Comment("Events resolves event validators of the default version."),
		jen.Id("Events").Op("=").Qual(pkg, "Events"),
		jen.Comment("Classes maps event class names of the default version to their identifiers."),
		jen.Id("Classes").Op("=").Qual(pkg, "Classes"),
	)
	b, err := render("ocsf.go", f)
	if err != nil {
		return File{}, err
	}
	return File{Path: "ocsf.go", Content: b}, nil
}

func lits(ss []string) []jen.Code {
	cs := make([]jen.Code, 0, len(ss))
	for _, s := range ss {
		cs = append(cs, jen.Lit(s))
	}
	return cs
}
