package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	apibind "github.com/apibind/apibind"
	"github.com/apibind/apibind/internal/batch"
	"github.com/apibind/apibind/internal/outfmt"
	"github.com/apibind/apibind/internal/resolve"
)

func newBatchCmd() *cobra.Command {
	var (
		key         string
		values      []string
		concurrency int64
		progress    bool
		headerFlags []string
	)

	cmd := &cobra.Command{
		Use:   "batch <operation>",
		Short: "Invoke an operation once per value with bounded concurrency",
		Long:  "Fan one operation out over a list of path-parameter values. Individual failures are reported per value and never abort the batch.",
		Example: `  # Fetch three tags concurrently
  apibind batch getTag --key id --values 1,2,3

  # Delete with higher parallelism
  apibind batch deleteTag --key id --values 4,5,6,7 --concurrency 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if len(values) == 0 {
				return fmt.Errorf("--values is required")
			}

			headers, err := parseKeyValues(headerFlags, "header")
			if err != nil {
				return err
			}
			mod, _, err := loadModule(headers)
			if err != nil {
				return err
			}
			name, err := resolve.Operation(args[0], mod.Names())
			if err != nil {
				return err
			}
			op := mod.MustOperation(name)
			if op.HasParams() && key == "" {
				return fmt.Errorf("--key is required for operations with path parameters")
			}

			results := batch.Run(ctx, values, concurrency, progress, cmd.ErrOrStderr(),
				func(ctx context.Context, value string) (json.RawMessage, error) {
					var resp *apibind.Response
					var err error
					if op.HasParams() {
						resp, err = op.CallWithParams(ctx, apibind.Params{key: value}, nil, nil)
					} else {
						resp, err = op.Call(ctx, nil, nil)
					}
					if err != nil {
						return nil, err
					}
					return json.RawMessage(resp.Body), nil
				})

			success, failure := batch.Count(results)

			if outfmt.IsJSON(ctx) {
				type batchResult struct {
					Key     string          `json:"key"`
					Success bool            `json:"success"`
					Error   string          `json:"error,omitempty"`
					Data    json.RawMessage `json:"data,omitempty"`
				}
				out := make([]batchResult, 0, len(results))
				for _, r := range results {
					br := batchResult{Key: r.Key, Success: r.Success, Data: r.Data}
					if r.Error != nil {
						br.Error = r.Error.Error()
					}
					out = append(out, br)
				}
				if err := outfmt.WriteJSONMaybeCompact(cmd.OutOrStdout(), out, outfmt.IsCompact(ctx)); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.Success {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", r.Key)
					} else {
						_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", r.Key, r.Error)
					}
				}
			}

			if failure > 0 {
				return fmt.Errorf("%d of %d calls failed", failure, success+failure)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "Path parameter name to vary")
	cmd.Flags().StringSliceVar(&values, "values", nil, "Values to fan out over (comma-separated or repeated)")
	cmd.Flags().Int64Var(&concurrency, "concurrency", batch.DefaultConcurrency, "Maximum concurrent calls")
	cmd.Flags().BoolVar(&progress, "progress", false, "Show progress on stderr")
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Extra request header as key=value (repeatable)")
	flagAlias(cmd.Flags(), "concurrency", "cc")

	return cmd
}
