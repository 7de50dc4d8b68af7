package gen

import (
	"errors"
	"log/slog"
	"path"
	"runtime"
	"strings"
)

// Import paths of the runtime packages used by generated code.
const (
	DefaultRuntimePkg  = "github.com/syssam/ocsf"
	DefaultValidatePkg = DefaultRuntimePkg + "/validate"
	// DefaultHeader is the header comment of every generated file.
	DefaultHeader = "Code generated by ocsfgen. DO NOT EDIT."
)

// Config holds the code generation settings shared by all versions.
type Config struct {
	// Target is the output directory. Each version is written to Target/<slug>.
	Target string
	// Package is the import path of Target, e.g. "github.com/acme/ocsfgo".
	Package string
	// Header is the comment written at the top of every generated file.
	Header string
	// Strict lists native entity names emitted in closed mode.
	Strict []string
	// Workers bounds the number of files rendered in parallel.
	Workers int
	// RuntimePkg and ValidatePkg are the import paths of the runtime packages.
	RuntimePkg  string
	ValidatePkg string
	// Logger receives progress messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Option configures code generation.
type Option func(*Config) error

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithPackage sets the output package import path.
// For example: "github.com/org/project/ocsf".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithStrict adds entities that reject unmodeled keys.
func WithStrict(names ...string) Option {
	return func(c *Config) error {
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				return NewConfigError("Strict", n, "entity name cannot be empty")
			}
		}
		c.Strict = append(c.Strict, names...)
		return nil
	}
}

// WithWorkers sets the number of parallel file renderers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n < 0 {
			return NewConfigError("Workers", n, "workers cannot be negative")
		}
		c.Workers = n
		return nil
	}
}

// WithRuntime overrides the import path of the runtime module. The validate
// package is expected at <pkg>/validate.
func WithRuntime(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Runtime", nil, "runtime package cannot be empty")
		}
		c.RuntimePkg = pkg
		c.ValidatePkg = pkg + "/validate"
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Header:      DefaultHeader,
		RuntimePkg:  DefaultRuntimePkg,
		ValidatePkg: DefaultValidatePkg,
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the settings required for writing files are present.
func (c *Config) Validate() error {
	var errs []error
	if c.Target == "" {
		errs = append(errs, NewConfigError("Target", nil, "missing target directory"))
	}
	if c.Package == "" {
		errs = append(errs, NewConfigError("Package", nil, "missing package import path"))
	}
	return errors.Join(errs...)
}

// PackageName returns the Go package name of the root alias package.
func (c *Config) PackageName() string {
	base := path.Base(c.Package)
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		}
		return '_'
	}, base)
	name = strings.Trim(name, "_")
	switch {
	case name == "":
		return "ocsf"
	case name[0] >= '0' && name[0] <= '9':
		return "ocsf" + name
	}
	return name
}

func (c *Config) header() string {
	if c.Header == "" {
		return DefaultHeader
	}
	return c.Header
}

// headerComment is the header with every line commented.
func (c *Config) headerComment() string { return lineComment(c.header()) }

func (c *Config) runtimePkg() string {
	if c.RuntimePkg == "" {
		return DefaultRuntimePkg
	}
	return c.RuntimePkg
}

func (c *Config) validatePkg() string {
	if c.ValidatePkg == "" {
		return DefaultValidatePkg
	}
	return c.ValidatePkg
}

func (c *Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
