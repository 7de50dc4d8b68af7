package gen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Writer moves rendered versions into the target directory. A version is
// written to a temporary sibling directory and renamed into place only after
// every file was written, so a failed version never leaves partial output.
type Writer struct {
	target  string
	workers int

	// Metrics for performance monitoring
	mu      sync.Mutex
	metrics *WriterMetrics
}

// WriterMetrics tracks generation output.
type WriterMetrics struct {
	Versions       int
	FilesGenerated int
	TotalBytes     int64
}

// NewWriter creates a writer for the configured target directory.
func NewWriter(cfg *Config) *Writer {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Writer{
		target:  cfg.Target,
		workers: cfg.workers(),
		metrics: &WriterMetrics{},
	}
}

// Metrics returns a copy of the generation metrics.
func (w *Writer) Metrics() WriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return *w.metrics
}

// WriteVersion replaces the directory of version slug with files.
func (w *Writer) WriteVersion(ctx context.Context, slug string, files []File) error {
	if w.target == "" {
		return NewConfigError("Target", nil, "missing target directory in config")
	}
	if err := os.MkdirAll(w.target, 0o755); err != nil {
		return NewGenerationError("write", w.target, "create output directory", err)
	}
	stage, err := os.MkdirTemp(w.target, "."+slug+"-*")
	if err != nil {
		return NewGenerationError("write", slug, "create staging directory", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.RemoveAll(stage)
		}
	}()

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(w.workers)
	for _, f := range files {
		eg.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return w.writeFile(stage, f)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := replaceDir(stage, filepath.Join(w.target, slug)); err != nil {
		return NewGenerationError("write", slug, "move version into place", err)
	}
	committed = true

	w.mu.Lock()
	w.metrics.Versions++
	w.mu.Unlock()
	return nil
}

// WriteRoot writes a file at the root of the target directory through a
// temporary file and a rename.
func (w *Writer) WriteRoot(f File) error {
	if err := os.MkdirAll(w.target, 0o755); err != nil {
		return NewGenerationError("write", w.target, "create output directory", err)
	}
	tmp, err := os.CreateTemp(w.target, "."+filepath.Base(f.Path)+"-*")
	if err != nil {
		return NewGenerationError("write", f.Path, "create temporary file", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(f.Content); err != nil {
		tmp.Close()
		return NewGenerationError("write", f.Path, "write temporary file", err)
	}
	if err := tmp.Close(); err != nil {
		return NewGenerationError("write", f.Path, "close temporary file", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return NewGenerationError("write", f.Path, "chmod temporary file", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.target, filepath.FromSlash(f.Path))); err != nil {
		return NewGenerationError("write", f.Path, "move file into place", err)
	}
	w.record(f)
	return nil
}

// writeFile writes a single file below dir.
func (w *Writer) writeFile(dir string, f File) error {
	full := filepath.Join(dir, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", f.Path, err)
	}
	if err := os.WriteFile(full, f.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	w.record(f)
	return nil
}

func (w *Writer) record(f File) {
	w.mu.Lock()
	w.metrics.FilesGenerated++
	w.metrics.TotalBytes += int64(len(f.Content))
	w.mu.Unlock()
}

// replaceDir renames stage to dst. An existing dst is moved aside first and
// restored if the rename fails.
func replaceDir(stage, dst string) error {
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		return os.Rename(stage, dst)
	}
	old := stage + ".old"
	if err := os.Rename(dst, old); err != nil {
		return err
	}
	if err := os.Rename(stage, dst); err != nil {
		_ = os.Rename(old, dst)
		return err
	}
	return os.RemoveAll(old)
}

var docTemplate = template.Must(template.New("doc").Parse(`{{ .Header }}

// Package {{ .Slug }} holds validators for OCSF schema version {{ .Version.Tag }}.
//
// The objects package has {{ len .Objects }} object validators and
// the events package has {{ len .Events }} event class validators.
// Enumerated identifiers live in the enums package ({{ len .Enums }} families).
{{- with .Deferred }}
//
// References that close a cycle are resolved on first validation:
//
{{- range . }}
//   - {{ .Edge.From }}.{{ .Edge.Attr }} -> {{ .Edge.To }}
{{- end }}
{{- end }}
package {{ .Slug }}
`))

// renderDoc renders the package documentation of the version and formats it
// with goimports.
func (g *Generator) renderDoc() ([]byte, error) {
	var deferred []CycleAnnotation
	for _, a := range g.graph.Annotations {
		if a.Deferred {
			deferred = append(deferred, a)
		}
	}
	data := struct {
		*Graph
		Header   string
		Slug     string
		Objects  []*Type
		Events   []*Type
		Deferred []CycleAnnotation
	}{
		Graph:    g.graph,
		Header:   g.cfg.headerComment(),
		Slug:     g.graph.Version.Slug,
		Objects:  g.graph.Objects(),
		Events:   g.graph.Events(),
		Deferred: deferred,
	}
	var buf bytes.Buffer
	if err := docTemplate.Execute(&buf, data); err != nil {
		return nil, NewGenerationError("doc", "doc.go", "execute template", err)
	}
	formatted, err := imports.Process("doc.go", buf.Bytes(), nil)
	if err != nil {
		return nil, NewGenerationError("doc", "doc.go", "format", err)
	}
	return formatted, nil
}

// lineComment turns every line of text into a // comment. Lines that are
// already comments are kept.
func lineComment(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		switch {
		case strings.HasPrefix(l, "//"):
		case l == "":
			l = "//"
		default:
			l = "// " + l
		}
		lines[i] = l
	}
	return strings.Join(lines, "\n")
}
