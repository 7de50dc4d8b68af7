package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/syssam/ocsf/compiler"
)

func registerGenerateCmd(parent *cobra.Command, a *app) {
	var (
		s           settings
		incremental bool
		watch       bool
		debounce    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate validator packages for every configured version",
		Example: `  # Generate 1.6.0 and 1.7.0 into ./ocsf
  ocsfgen generate --version 1.6.0,1.7.0 -o ./ocsf -p github.com/acme/app/ocsf

  # Regenerate only the versions whose schema changed on every edit
  ocsfgen generate --schema-dir ../ocsf-schema --version 1.7.0 --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd, &s)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("incremental") {
				cfg.Incremental = incremental
			}
			if !watch {
				return a.generate(cmd.Context(), cmd.OutOrStdout(), cfg)
			}
			if cfg.SchemaDir == "" {
				return errors.New("--watch needs a local schema directory (--schema-dir)")
			}
			if err := a.generate(cmd.Context(), cmd.OutOrStdout(), cfg); err != nil {
				a.logger.Error("generation failed", "error", err)
			}
			cfg.Incremental = true
			return watchDir(cmd.Context(), a.logger, cfg.SchemaDir, debounce, func(ctx context.Context) {
				if err := a.generate(ctx, cmd.OutOrStdout(), cfg); err != nil {
					a.logger.Error("generation failed", "error", err)
				}
			})
		},
	}
	s.register(cmd)
	cmd.Flags().BoolVarP(&incremental, "incremental", "i", false, "skip versions whose inputs did not change since the last run")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate when the schema directory changes")
	cmd.Flags().DurationVar(&debounce, "debounce", 300*time.Millisecond, "quiet period before regenerating in watch mode")
	parent.AddCommand(cmd)
}

// generate runs the compiler and prints one line per version. Any failed
// version makes the run fail.
func (a *app) generate(ctx context.Context, out io.Writer, cfg *compiler.Config) error {
	report, err := compiler.Generate(ctx, cfg, compiler.WithLogger(a.logger))
	if err != nil {
		return err
	}
	printReport(out, report)
	failures := report.Failures()
	if len(failures) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d versions failed:", len(failures), len(report.Results))
	for _, f := range failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Version.Tag, f.Err)
	}
	return errors.New(b.String())
}

func printReport(out io.Writer, r *compiler.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, res := range r.Results {
		status := "generated"
		switch {
		case res.Failed():
			status = "failed"
		case res.Skipped:
			status = "unchanged"
		}
		def := ""
		if res.Version.Tag == r.Default.Tag {
			def = "default"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d files\t%s\n", res.Version.Tag, res.Version.Slug, status, res.Files, def)
	}
	_ = w.Flush()
}
