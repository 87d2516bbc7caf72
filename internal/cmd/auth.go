package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apibind/apibind/internal/config"
	"github.com/apibind/apibind/internal/outfmt"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored API profiles",
		Long:  "Store and switch between API connection profiles kept in the OS keychain.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthProfilesCmd())
	cmd.AddCommand(newAuthUseCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		profile     string
		token       string
		headerFlags []string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store connection details for a profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// The persistent --base-url flag doubles as the profile's URL.
			baseURL := flags.BaseURL
			if baseURL == "" {
				return fmt.Errorf("--base-url is required")
			}
			headers, err := parseKeyValues(headerFlags, "header")
			if err != nil {
				return err
			}
			if err := config.SaveProfile(profile, config.Profile{
				BaseURL: baseURL,
				Token:   token,
				Headers: headers,
			}); err != nil {
				return err
			}
			name := profile
			if name == "" {
				name = "default"
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q for %s\n", name, baseURL)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Profile name (default: default)")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token sent as Authorization header")
	cmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, "Default header as key=value (repeatable)")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Delete a stored profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.DeleteProfile(profile); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Profile removed")
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", "", "Profile name (default: default)")
	return cmd
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profile, err := config.Load()
			if err != nil {
				return err
			}

			if outfmt.IsJSON(ctx) {
				// Never print the token itself.
				return outfmt.WriteJSONMaybeCompact(cmd.OutOrStdout(), map[string]any{
					"base_url":  profile.BaseURL,
					"has_token": profile.Token != "",
					"headers":   profile.Headers,
				}, outfmt.IsCompact(ctx))
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Base URL: %s\n", profile.BaseURL)
			if profile.Token != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Token: configured")
			}
			for k, v := range profile.Headers {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Header: %s=%s\n", k, v)
			}
			return nil
		},
	}
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List stored profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			profiles, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			if outfmt.IsJSON(ctx) {
				return outfmt.WriteJSONMaybeCompact(cmd.OutOrStdout(), map[string]any{
					"profiles": profiles,
					"current":  current,
				}, outfmt.IsCompact(ctx))
			}

			if len(profiles) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No profiles stored")
				return nil
			}
			for _, p := range profiles {
				marker := " "
				if p == current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, p)
			}
			return nil
		},
	}
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Switch the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Loading first surfaces a clear error for unknown names.
			if _, err := config.LoadProfile(args[0]); err != nil {
				return err
			}
			if err := config.SetCurrentProfile(args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Switched to profile %q\n", args[0])
			return nil
		},
	}
}
