// Package compiler runs the OCSF code generation pipeline: every configured
// schema version is fetched, resolved and emitted in its own worker.
package compiler

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/syssam/ocsf/compiler/gen"
	"github.com/syssam/ocsf/compiler/source"
)

// DefaultConfigFile is the configuration file read when none is given.
const DefaultConfigFile = "ocsfgen.yaml"

// EnvPrefix is the prefix of the environment variables that override the
// configuration file.
const EnvPrefix = "OCSFGEN_"

// Config is the ocsfgen.yaml configuration file.
type Config struct {
	// Versions lists the schema versions to generate, e.g. ["1.6.0", "1.7.0"].
	Versions []string `yaml:"versions"`
	// DefaultVersion is aliased by the root package. Defaults to the newest version.
	DefaultVersion string `yaml:"default_version,omitempty"`
	// Target is the output directory.
	Target string `yaml:"target"`
	// Package is the import path of Target.
	Package string `yaml:"package"`
	// CacheDir holds fetched schema trees.
	CacheDir string `yaml:"cache_dir,omitempty"`
	// Repository is the schema repository cloned per version tag.
	Repository string `yaml:"repository,omitempty"`
	// SchemaDir replaces fetching with local trees: either one schema tree
	// used for every version, or a directory with one tree per version.
	SchemaDir string `yaml:"schema_dir,omitempty"`
	// Workers bounds the number of versions compiled in parallel.
	Workers int `yaml:"workers,omitempty"`
	// Strict lists the entities whose validators reject unmodeled keys.
	Strict []string `yaml:"strict,omitempty"`
	// Header overrides the generated file header.
	Header string `yaml:"header,omitempty"`
	// Incremental skips versions whose schema tree and settings match the
	// manifest of the previous run.
	Incremental bool `yaml:"incremental,omitempty"`
}

// LoadConfig reads a configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the configuration file.
func (c *Config) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(c)
}

// LoadEnvFile loads KEY=value pairs from a .env file into the process
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides configuration values with OCSFGEN_* variables.
// List values are comma separated.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(EnvPrefix + key)); v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v := getenv(EnvPrefix + key); strings.TrimSpace(v) != "" {
			*dst = splitList(v)
		}
	}
	str("TARGET", &c.Target)
	str("PACKAGE", &c.Package)
	str("CACHE_DIR", &c.CacheDir)
	str("REPOSITORY", &c.Repository)
	str("SCHEMA_DIR", &c.SchemaDir)
	str("DEFAULT_VERSION", &c.DefaultVersion)
	if v := strings.TrimSpace(getenv(EnvPrefix + "INCREMENTAL")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return gen.NewConfigError("Incremental", v, "not a boolean")
		}
		c.Incremental = b
	}
	list("VERSIONS", &c.Versions)
	list("STRICT", &c.Strict)
	if v := strings.TrimSpace(getenv(EnvPrefix + "WORKERS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return gen.NewConfigError("Workers", v, "not an integer")
		}
		c.Workers = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs []error
	if len(c.Versions) == 0 {
		errs = append(errs, gen.NewConfigError("Versions", nil, "no schema version configured"))
	}
	if c.Target == "" {
		errs = append(errs, gen.NewConfigError("Target", nil, "missing target directory"))
	}
	if c.Package == "" {
		errs = append(errs, gen.NewConfigError("Package", nil, "missing package import path"))
	}
	if c.Workers < 0 {
		errs = append(errs, gen.NewConfigError("Workers", c.Workers, "workers cannot be negative"))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if _, _, err := c.SchemaVersions(); err != nil {
		return err
	}
	return nil
}

// SchemaVersions parses the configured versions in ascending order and
// selects the default one. Two versions projecting to the same package
// directory are rejected.
func (c *Config) SchemaVersions() ([]gen.SchemaVersion, gen.SchemaVersion, error) {
	var (
		vs   []gen.SchemaVersion
		errs []error
		slug = make(map[string]string)
	)
	for _, tag := range c.Versions {
		v, err := gen.NewSchemaVersion(tag, "")
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, ok := slug[v.Slug]; ok {
			errs = append(errs, gen.NewConfigError("Versions", tag, fmt.Sprintf("same package %s as %s", v.Slug, prev)))
			continue
		}
		slug[v.Slug] = v.Tag
		vs = append(vs, v)
	}
	if len(errs) > 0 {
		return nil, gen.SchemaVersion{}, errors.Join(errs...)
	}
	gen.SortVersions(vs)
	def, ok := gen.Latest(vs)
	if !ok {
		return nil, gen.SchemaVersion{}, gen.NewConfigError("Versions", nil, "no schema version configured")
	}
	if c.DefaultVersion != "" {
		found := false
		for _, v := range vs {
			if selects(c.DefaultVersion, v) {
				def, found = v, true
			}
		}
		if !found {
			return nil, gen.SchemaVersion{}, gen.NewConfigError("DefaultVersion", c.DefaultVersion, "not one of the configured versions")
		}
	}
	return vs, def, nil
}

// selects reports whether s names v: by full tag, by major.minor or by
// package name. Slugs are unique, so the last two select at most one version.
func selects(s string, v gen.SchemaVersion) bool {
	s = strings.TrimSpace(s)
	if s == v.Slug {
		return true
	}
	s = strings.TrimPrefix(s, "v")
	if strings.Count(s, ".") == 1 {
		return gen.VersionSlug(s) == v.Slug
	}
	return s == v.Tag
}

// Provider returns the schema source selected by the configuration.
func (c *Config) Provider() source.Provider {
	if c.SchemaDir != "" {
		if _, err := os.Stat(filepath.Join(c.SchemaDir, "dictionary.json")); err == nil {
			return source.Local(c.SchemaDir)
		}
		return source.Dir{Root: c.SchemaDir}
	}
	cache := c.CacheDir
	if cache == "" {
		cache = filepath.Join(os.TempDir(), "ocsfgen")
	}
	return source.NewGit(c.Repository, cache)
}

// genOptions returns the code generation options of the configuration.
func (c *Config) genOptions() []gen.Option {
	opts := []gen.Option{
		gen.WithTarget(c.Target),
		gen.WithPackage(c.Package),
		gen.WithStrict(c.Strict...),
	}
	if c.Header != "" {
		opts = append(opts, gen.WithHeader(c.Header))
	}
	return opts
}
