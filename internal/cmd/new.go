package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apibind/apibind/internal/scaffold"
)

func newNewCmd() *cobra.Command {
	var (
		templateDir string
		destDir     string
	)

	cmd := &cobra.Command{
		Use:   "new <project-name>",
		Short: "Generate a project from a template directory",
		Long: `Copy a template tree into a fresh project directory, substituting
{{ project_name }}, {{ project_name | title }}, {{ project_directory }},
and {{ secret_key }} tokens in template files.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if templateDir == "" {
				return fmt.Errorf("--template is required")
			}
			result, err := scaffold.Generate(scaffold.Options{
				TemplateDir: templateDir,
				ProjectName: args[0],
				DestDir:     destDir,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%d files) at %s\n",
				result.ProjectName, result.Files, result.ProjectDir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&templateDir, "template", "t", "", "Template directory to copy from")
	cmd.Flags().StringVar(&destDir, "dest", ".", "Parent directory for the new project")
	return cmd
}
