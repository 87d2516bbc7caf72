package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	apibind "github.com/apibind/apibind"
	"github.com/apibind/apibind/internal/cache"
	"github.com/apibind/apibind/internal/iocontext"
	"github.com/apibind/apibind/internal/resolve"
)

func newCallCmd() *cobra.Command {
	var (
		paramFlags   []string
		payloadFlags []string
		headerFlags  []string
		dataFlag     string
		async        bool
		useCache     bool
	)

	cmd := &cobra.Command{
		Use:     "call <operation>",
		Aliases: []string{"c"},
		Short:   "Invoke an operation from the definitions file",
		Long:    "Invoke a named operation. The name is matched fuzzily against the definitions file.",
		Example: `  # GET with a path parameter
  apibind call getTag --param id=7

  # POST with a JSON body
  apibind call createTag --data '{"name": "urgent"}'

  # Query parameters for GET/DELETE payloads
  apibind call listTags --payload page=2 --jq '.data[].name'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if dataFlag != "" && len(payloadFlags) > 0 {
				return fmt.Errorf("--data and --payload cannot be used together")
			}

			headers, err := parseKeyValues(headerFlags, "header")
			if err != nil {
				return err
			}
			mod, baseURL, err := loadModule(headers)
			if err != nil {
				return err
			}

			name, err := resolve.Operation(args[0], mod.Names())
			if err != nil {
				return err
			}
			op := mod.MustOperation(name)
			if name != args[0] {
				iocontext.Errf(ctx, "Resolved %q to operation %q\n", args[0], name)
			}

			payload, err := buildPayload(dataFlag, payloadFlags)
			if err != nil {
				return err
			}
			params, err := buildParams(paramFlags)
			if err != nil {
				return err
			}

			var store *cache.Store
			if useCache && op.Method() == http.MethodGet {
				dir, err := cache.DefaultDir()
				if err == nil {
					store = cache.NewStore(dir, name, baseURL)
					var cached json.RawMessage
					if store.Get(&cached) {
						return writeResponse(cmd, cached)
					}
				}
			}

			resp, err := callOperation(cmd, op, params, payload, async)
			if err != nil {
				return err
			}

			if store != nil {
				store.Put(json.RawMessage(resp.Body))
			}
			return writeResponse(cmd, resp.Body)
		},
	}

	cmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "Path parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVar(&payloadFlags, "payload", nil, "Payload field as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Extra request header as key=value (repeatable)")
	cmd.Flags().StringVar(&dataFlag, "data", "", "Raw JSON payload")
	cmd.Flags().BoolVar(&async, "async", false, "Dispatch in the background and wait on the pending handle")
	cmd.Flags().BoolVar(&useCache, "cache", false, "Cache GET responses (see APIBIND_NO_CACHE)")
	flagAlias(cmd.Flags(), "payload", "pl")
	flagAlias(cmd.Flags(), "header", "hdr")

	return cmd
}

func callOperation(cmd *cobra.Command, op *apibind.Operation, params apibind.Params, payload any, async bool) (*apibind.Response, error) {
	ctx := cmd.Context()
	if async {
		var pending *apibind.Pending
		if op.HasParams() {
			pending = op.StartWithParams(ctx, params, payload, nil)
		} else {
			pending = op.Start(ctx, payload, nil)
		}
		return pending.Wait(ctx)
	}
	if op.HasParams() {
		return op.CallWithParams(ctx, params, payload, nil)
	}
	return op.Call(ctx, payload, nil)
}

// buildPayload decodes --data as JSON, or folds --payload pairs into a map.
func buildPayload(data string, pairs []string) (any, error) {
	if data != "" {
		var payload any
		if err := json.Unmarshal([]byte(data), &payload); err != nil {
			return nil, fmt.Errorf("invalid --data: %w", err)
		}
		return payload, nil
	}
	kv, err := parseKeyValues(pairs, "payload")
	if err != nil || kv == nil {
		return nil, err
	}
	payload := make(map[string]any, len(kv))
	for k, v := range kv {
		payload[k] = v
	}
	return payload, nil
}

func buildParams(pairs []string) (apibind.Params, error) {
	kv, err := parseKeyValues(pairs, "param")
	if err != nil || kv == nil {
		return nil, err
	}
	params := make(apibind.Params, len(kv))
	for k, v := range kv {
		params[k] = v
	}
	return params, nil
}
