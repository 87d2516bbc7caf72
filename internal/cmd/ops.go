package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/apibind/apibind/internal/outfmt"
	"github.com/apibind/apibind/internal/resolve"
)

func newOpsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "ops [search]",
		Aliases: []string{"operations", "ls"},
		Short:   "List operations from the definitions file",
		Long:    "List the bound operations, optionally ranked by a fuzzy search term.",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mod, _, err := loadModule(nil)
			if err != nil {
				return err
			}

			names := mod.Names()
			if len(args) == 1 {
				matches := resolve.Rank(args[0], names, limit)
				names = names[:0]
				for _, m := range matches {
					names = append(names, m.Name)
				}
			}

			type opInfo struct {
				Name   string `json:"name"`
				Method string `json:"method"`
				URL    string `json:"url"`
			}
			infos := make([]opInfo, 0, len(names))
			for _, name := range names {
				def, ok := mod.Definition(name)
				if !ok {
					continue
				}
				infos = append(infos, opInfo{Name: name, Method: def.Method, URL: def.URL})
			}

			if outfmt.IsJSON(ctx) {
				out := cmd.OutOrStdout()
				if outfmt.IsJSONL(ctx) {
					for _, info := range infos {
						if err := outfmt.WriteJSONMaybeCompact(out, info, true); err != nil {
							return err
						}
					}
					return nil
				}
				return outfmt.WriteJSONMaybeCompact(out, infos, outfmt.IsCompact(ctx))
			}

			if len(infos) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No operations found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tMETHOD\tURL")
			for _, info := range infos {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Method, info.URL)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum matches when searching")
	return cmd
}
