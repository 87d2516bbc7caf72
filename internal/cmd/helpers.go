package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	apibind "github.com/apibind/apibind"
	"github.com/apibind/apibind/internal/config"
	"github.com/apibind/apibind/internal/defsfile"
	"github.com/apibind/apibind/internal/filter"
	"github.com/apibind/apibind/internal/outfmt"
)

// aliasBridgeValue wraps a flag value so that setting the alias also marks
// the canonical flag as Changed.
type aliasBridgeValue struct {
	pflag.Value
	canonical *pflag.Flag
}

func (v *aliasBridgeValue) Set(s string) error {
	if err := v.Value.Set(s); err != nil {
		return err
	}
	v.canonical.Changed = true
	return nil
}

func flagAlias(fs *pflag.FlagSet, name, alias string) {
	f := fs.Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("flagAlias: flag %q not found", name))
	}
	a := *f // shallow copy — shares the Value interface
	a.Name = alias
	a.Shorthand = ""
	a.Usage = ""
	a.Hidden = true
	a.Value = &aliasBridgeValue{Value: f.Value, canonical: f}
	a.Annotations = map[string][]string{"alias-of": {name}}
	fs.AddFlag(&a)
}

// flagOrAliasChanged returns true if the named flag or any of its
// hidden aliases was explicitly set by the user.
func flagOrAliasChanged(cmd *cobra.Command, name string) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	if cmd.InheritedFlags().Changed(name) {
		return true
	}

	aliasChanged := func(fs *pflag.FlagSet) bool {
		found := false
		fs.VisitAll(func(f *pflag.Flag) {
			if found {
				return
			}
			if ann, ok := f.Annotations["alias-of"]; ok && len(ann) > 0 && ann[0] == name {
				if fs.Changed(f.Name) {
					found = true
				}
			}
		})
		return found
	}

	return aliasChanged(cmd.Flags()) || aliasChanged(cmd.InheritedFlags())
}

// parseKeyValues parses repeated "key=value" flag values into a map.
func parseKeyValues(pairs []string, flagName string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --%s %q: expected key=value", flagName, pair)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

// loadModule builds a bound module from the definitions file, layering the
// active profile and the --base-url flag over the file's own settings. The
// effective base URL is returned for cache scoping.
func loadModule(extraHeaders map[string]string) (*apibind.Module, string, error) {
	if flags.Defs == "" {
		return nil, "", fmt.Errorf("no definitions file: pass --defs or set APIBIND_DEFS")
	}
	file, err := defsfile.Load(flags.Defs)
	if err != nil {
		return nil, "", err
	}

	headers := apibind.Headers{}
	baseURL := file.BaseURL
	if profile, err := config.Load(); err == nil {
		if baseURL == "" {
			baseURL = profile.BaseURL
		}
		for k, v := range profile.Headers {
			headers[k] = v
		}
		if profile.Token != "" {
			headers["Authorization"] = "Bearer " + profile.Token
		}
	}
	for k, v := range file.ModuleHeaders() {
		headers[k] = v
	}
	for k, v := range extraHeaders {
		headers[k] = v
	}
	if flags.BaseURL != "" {
		baseURL = flags.BaseURL
	}

	mod, err := apibind.New(file.Table(),
		apibind.WithConfig(apibind.RequestConfig{
			BaseURL: baseURL,
			Headers: headers,
			Timeout: flags.Timeout,
		}))
	if err != nil {
		return nil, "", err
	}
	return mod, baseURL, nil
}

// writeResponse renders a response body according to the output mode and
// the active jq expression.
func writeResponse(cmd *cobra.Command, body []byte) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !outfmt.IsJSON(ctx) {
		if _, err := out.Write(body); err != nil {
			return err
		}
		if len(body) > 0 && body[len(body)-1] != '\n' {
			_, _ = fmt.Fprintln(out)
		}
		return nil
	}

	value, err := filter.ApplyFromJSON(body, jqQuery())
	if err != nil {
		return err
	}
	if outfmt.IsJSONL(ctx) {
		if items, ok := value.([]any); ok {
			for _, item := range items {
				if err := outfmt.WriteJSONMaybeCompact(out, item, true); err != nil {
					return err
				}
			}
			return nil
		}
	}
	return outfmt.WriteJSONMaybeCompact(out, value, outfmt.IsCompact(ctx))
}
