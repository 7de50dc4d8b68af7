package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/ocsf/compiler/gen"
	"github.com/syssam/ocsf/compiler/load"
	"github.com/syssam/ocsf/compiler/source"
)

// Result is the outcome of one schema version.
type Result struct {
	Version  gen.SchemaVersion
	Dir      string
	Files    int
	Skipped  bool
	Duration time.Duration
	Err      error
}

// Failed reports whether the version failed.
func (r Result) Failed() bool { return r.Err != nil }

// Report summarizes a generation run.
type Report struct {
	// Results holds one entry per configured version in ascending order.
	Results []Result
	// Default is the version aliased by the root package.
	Default gen.SchemaVersion
	// Root reports whether the root package was written.
	Root    bool
	Metrics gen.WriterMetrics
}

// Failures returns the failed versions.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}

// Err joins the errors of every failed version, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Failures() {
		errs = append(errs, fmt.Errorf("version %s: %w", res.Version.Tag, res.Err))
	}
	return errors.Join(errs...)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithProvider replaces the schema source selected by the configuration.
func WithProvider(p source.Provider) Option {
	return func(c *Compiler) { c.provider = p }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// Compiler generates every configured schema version.
type Compiler struct {
	cfg      *Config
	provider source.Provider
	logger   *slog.Logger
}

// New creates a compiler for a validated configuration.
func New(cfg *Config, opts ...Option) (*Compiler, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "missing configuration")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Compiler{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.provider == nil {
		c.provider = cfg.Provider()
	}
	if g, ok := c.provider.(*source.Git); ok && g.Logger == nil {
		g.Logger = c.logger
	}
	return c, nil
}

// Generate is a shorthand for New followed by Run.
func Generate(ctx context.Context, cfg *Config, opts ...Option) (*Report, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}

// Run compiles every version on its own worker. A failing version never
// cancels the others; its error is recorded in the report and its previous
// output is left untouched. The returned error covers failures outside any
// single version.
func (c *Compiler) Run(ctx context.Context) (*Report, error) {
	versions, def, err := c.cfg.SchemaVersions()
	if err != nil {
		return nil, err
	}
	gcfg, err := gen.NewConfig(append(c.cfg.genOptions(),
		gen.WithWorkers(c.workers()),
		gen.WithLogger(c.logger),
	)...)
	if err != nil {
		return nil, err
	}
	if err := gcfg.Validate(); err != nil {
		return nil, err
	}
	manifest, err := ReadManifest(c.cfg.Target)
	if err != nil {
		c.logger.Warn("ignoring unreadable manifest", "error", err)
		manifest = &Manifest{Format: manifestFormat, Versions: make(map[string]ManifestEntry)}
	}

	var (
		writer  = gen.NewWriter(gcfg)
		results = make([]Result, len(versions))
		mu      sync.Mutex
		eg      errgroup.Group
	)
	eg.SetLimit(c.workers())
	for i, v := range versions {
		eg.Go(func() error {
			start := time.Now()
			res, entry := c.compile(ctx, gcfg, writer, manifest, v)
			res.Duration = time.Since(start)
			results[i] = res
			if entry != nil {
				mu.Lock()
				manifest.Versions[v.Tag] = *entry
				mu.Unlock()
			}
			return nil
		})
	}
	_ = eg.Wait()

	report := &Report{Results: results, Default: def}
	if err := c.writeRoot(gcfg, writer, report); err != nil {
		return report, err
	}
	if err := manifest.Write(c.cfg.Target); err != nil {
		c.logger.Warn("manifest not written", "error", err)
	}
	report.Metrics = writer.Metrics()
	return report, nil
}

// compile runs the stages of one version. The manifest entry is nil unless
// the version was written.
func (c *Compiler) compile(ctx context.Context, gcfg *gen.Config, w *gen.Writer, m *Manifest, v gen.SchemaVersion) (Result, *ManifestEntry) {
	res := Result{Version: v}
	logger := c.logger.With("version", v.Tag)
	fail := func(stage string, err error) (Result, *ManifestEntry) {
		logger.Error("schema version failed", "stage", stage, "error", err)
		res.Err = err
		return res, nil
	}

	dir, err := c.provider.Fetch(ctx, v.Tag)
	if err != nil {
		return fail("fetch", err)
	}
	res.Dir = dir
	v.Dir = dir
	res.Version = v

	digest, err := Digest(dir, c.settings()...)
	if err != nil {
		return fail("digest", err)
	}
	if c.cfg.Incremental && m.Fresh(c.cfg.Target, v.Tag, digest) {
		logger.Info("schema version unchanged", "slug", v.Slug)
		res.Skipped = true
		res.Files = m.Versions[v.Tag].Files
		return res, nil
	}

	logger.Debug("loading schema", "dir", dir)
	schema, err := load.NewLoader(os.DirFS(dir)).WithLogger(logger).Load()
	if err != nil {
		return fail("load", err)
	}
	graph, err := gen.NewGraph(gcfg, v, schema)
	if err != nil {
		return fail("resolve", err)
	}
	files, err := gen.NewGenerator(gcfg, graph).Files(ctx)
	if err != nil {
		return fail("emit", err)
	}
	if err := w.WriteVersion(ctx, v.Slug, files); err != nil {
		return fail("write", err)
	}
	res.Files = len(files)
	logger.Info("generated schema version", "slug", v.Slug, "files", len(files))
	return res, &ManifestEntry{
		Tag:    v.Tag,
		Slug:   v.Slug,
		Digest: digest,
		Files:  len(files),
	}
}

// writeRoot renders the root package over every version that has output.
// The root package is left alone when the default version has none.
func (c *Compiler) writeRoot(gcfg *gen.Config, w *gen.Writer, r *Report) error {
	var ok []gen.SchemaVersion
	hasDefault := false
	for _, res := range r.Results {
		if res.Failed() {
			continue
		}
		ok = append(ok, res.Version)
		if res.Version.Tag == r.Default.Tag {
			hasDefault = true
		}
	}
	if !hasDefault {
		c.logger.Warn("root package not updated", "default", r.Default.Tag)
		return nil
	}
	f, err := gen.RootFile(gcfg, ok, r.Default)
	if err != nil {
		return err
	}
	if err := w.WriteRoot(f); err != nil {
		return err
	}
	r.Root = true
	return nil
}

// settings lists the configuration values that change the generated code.
func (c *Compiler) settings() []string {
	strict := append([]string(nil), c.cfg.Strict...)
	sort.Strings(strict)
	return []string{
		"package=" + c.cfg.Package,
		"header=" + c.cfg.Header,
		"strict=" + strings.Join(strict, ","),
	}
}

func (c *Compiler) workers() int {
	if c.cfg.Workers > 0 {
		return c.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}
