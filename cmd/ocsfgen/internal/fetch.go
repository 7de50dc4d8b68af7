package internal

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/syssam/ocsf/compiler/source"
)

func registerFetchCmd(parent *cobra.Command, a *app) {
	var s settings
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the configured schema versions into the cache",
		Example: `  # Warm the cache for an offline build
  ocsfgen fetch --version 1.6.0,1.7.0 --cache-dir .ocsf-cache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.config(cmd, &s)
			if err != nil {
				return err
			}
			if len(cfg.Versions) == 0 {
				return errors.New("no schema version configured")
			}
			provider := cfg.Provider()
			if g, ok := provider.(*source.Git); ok {
				g.Logger = a.logger
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer w.Flush()
			var errs []error
			for _, v := range cfg.Versions {
				dir, err := provider.Fetch(cmd.Context(), v)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(w, "%s\t%s\n", v, dir)
			}
			return errors.Join(errs...)
		},
	}
	s.register(cmd)
	parent.AddCommand(cmd)
}
