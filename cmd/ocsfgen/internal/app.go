// Package internal contains the ocsfgen command line application.
package internal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/syssam/ocsf/compiler"
)

// Run executes the command line. OS dependencies are parameters so that
// tests can drive the application in process.
func Run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(&app{getenv: getenv, stderr: stderr})
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// app holds the state shared by all commands.
type app struct {
	getenv func(string) string
	stderr io.Writer
	logger *slog.Logger

	configFile string
	envFile    string
	verbose    bool
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "ocsfgen",
		Short:         "Generate Go validators for OCSF schema versions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))
			return compiler.LoadEnvFile(a.envFile)
		},
	}
	root.PersistentFlags().StringVarP(&a.configFile, "config", "c", compiler.DefaultConfigFile, "configuration file")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "file with OCSFGEN_* variables")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log every pipeline stage")

	registerGenerateCmd(root, a)
	registerFetchCmd(root, a)
	registerVersionCmd(root)
	return root
}

// settings are the configuration flags shared by generate and fetch.
type settings struct {
	versions       []string
	defaultVersion string
	target         string
	pkg            string
	schemaDir      string
	cacheDir       string
	repository     string
	strict         []string
	workers        int
}

func (s *settings) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringSliceVar(&s.versions, "version", nil, "schema version to generate (repeatable)")
	f.StringVar(&s.defaultVersion, "default-version", "", "version aliased by the root package")
	f.StringVarP(&s.target, "target", "o", "", "output directory")
	f.StringVarP(&s.pkg, "package", "p", "", "import path of the output directory")
	f.StringVar(&s.schemaDir, "schema-dir", "", "local schema tree, or a directory of per-version trees")
	f.StringVar(&s.cacheDir, "cache-dir", "", "directory for fetched schema trees")
	f.StringVar(&s.repository, "repository", "", "schema repository to clone")
	f.StringSliceVar(&s.strict, "strict", nil, "entity whose validator rejects unknown keys (repeatable)")
	f.IntVarP(&s.workers, "workers", "j", 0, "versions compiled in parallel")
}

// config loads the configuration file, then applies the environment and
// finally the flags set on the command line. A missing default file is
// not an error.
func (a *app) config(cmd *cobra.Command, s *settings) (*compiler.Config, error) {
	cfg, err := compiler.LoadConfig(a.configFile)
	switch {
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = &compiler.Config{}
	case err != nil:
		return nil, err
	}
	if err := cfg.ApplyEnv(a.getenv); err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("version") {
		cfg.Versions = s.versions
	}
	if changed("default-version") {
		cfg.DefaultVersion = s.defaultVersion
	}
	if changed("target") {
		cfg.Target = s.target
	}
	if changed("package") {
		cfg.Package = s.pkg
	}
	if changed("schema-dir") {
		cfg.SchemaDir = s.schemaDir
	}
	if changed("cache-dir") {
		cfg.CacheDir = s.cacheDir
	}
	if changed("repository") {
		cfg.Repository = s.repository
	}
	if changed("strict") {
		cfg.Strict = s.strict
	}
	if changed("workers") {
		cfg.Workers = s.workers
	}
	return cfg, nil
}
