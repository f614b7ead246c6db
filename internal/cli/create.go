package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/uncovr/unc/internal/cliutil"
	"github.com/uncovr/unc/internal/scaffold"
)

func newCreateAppCmd(ctx *context) *cobra.Command {
	var (
		template string
		repo     string
		branch   string
		vars     []string
	)
	cmd := &cobra.Command{
		Use:   "create-app <name>",
		Short: "Create a new project from a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.loadSettings()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("template") {
				template = settings.Template.Name
			}
			if !cmd.Flags().Changed("repo") {
				repo = settings.Template.Repo
			}
			if !cmd.Flags().Changed("branch") {
				branch = settings.Template.Branch
			}
			replacements, err := parseVars(vars)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			styles := cliutil.NewStyles(out)
			fmt.Fprintf(out, "%s\n\n", styles.Success("Setting up your project..."))

			p := ctx.toolProber()
			creator := scaffold.NewCreator(ctx.templateFetcher(), ctx.gitInitializer(p), p, logger)
			res, err := creator.Create(cmd.Context(), scaffold.Options{
				Name:         args[0],
				Template:     template,
				Repo:         repo,
				Branch:       branch,
				Replacements: replacements,
			})
			if err != nil {
				return err
			}
			for _, warning := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", styles.Warning("Warning: "+cliutil.RedactSecrets(warning)))
			}

			fmt.Fprintln(out)
			fmt.Fprintf(out, "%s\n\n", styles.Success("Project created successfully!"))
			fmt.Fprintf(out, "  cd %s\n", styles.Accent(args[0]))
			fmt.Fprintf(out, "  %s\n\n", res.RunCommand)
			return nil
		},
	}
	cmd.Flags().StringVarP(&template, "template", "t", "default", "Template directory inside the repository")
	cmd.Flags().StringVarP(&repo, "repo", "r", "erickweyunga/uncovr-templates", "GitHub repository (owner/repo or URL)")
	cmd.Flags().StringVarP(&branch, "branch", "b", "main", "Repository branch")
	cmd.Flags().StringArrayVar(&vars, "var", nil, "Extra placeholder as key=value, replacing {{key}} (repeatable)")
	return cmd
}

func parseVars(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", v)
		}
		out[key] = value
	}
	return out, nil
}
