package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/api/schemas"
	"github.com/xkilldash9x/formscript/internal/observability"
	"github.com/xkilldash9x/formscript/internal/synthesizer"
	"github.com/xkilldash9x/formscript/internal/vault"
)

// newGenerateCmd creates the `generate` command. It reads page markup from a
// file or stdin and prints the synthesized script.
func newGenerateCmd(v *viper.Viper) *cobra.Command {
	var (
		htmlPath    string
		profilePath string
		userData    string
		template    string
		output      string
		pageURL     string
		noCache     bool
	)

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an automation script for a page and a user profile",
		Example: `  formscript generate --html login.html --user-data '{"username":"jd","password":"..."}'
  curl -s https://example.com/login | formscript generate --profile me.json
  formscript generate --template registration --profile me.json`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if profilePath != "" && userData != "" {
				return fmt.Errorf("--profile and --user-data are mutually exclusive")
			}
			if profilePath == "-" && htmlPath == "-" && template == "" {
				return fmt.Errorf("stdin can supply either the markup or the profile, not both")
			}
			if template != "" && cmd.Flags().Changed("html") {
				return fmt.Errorf("--template does not read page markup; drop --html")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			defer observability.Sync()

			profile, err := loadProfile(cmd.InOrStdin(), profilePath, userData)
			if err != nil {
				return err
			}

			if template != "" {
				script, err := synthesizer.Template(template, profile)
				if err != nil {
					return err
				}
				return writeOutput(cmd.OutOrStdout(), output, script)
			}

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			if noCache {
				cfg.SetCacheEnabled(false)
			}

			html, err := readInput(cmd.InOrStdin(), htmlPath)
			if err != nil {
				return err
			}

			comps, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			profile, err = vault.Fill(ctx, comps.Vault, pageURL, profile)
			if err != nil {
				logger.Warn("Vault lookup failed, using the supplied profile", zap.Error(err))
			}

			logger.Debug("Generating script from markup",
				zap.Int("html_bytes", len(html)), observability.ProfileFields(profile))
			script := comps.Synthesizer.Synthesize(ctx, string(html), profile)
			return writeOutput(cmd.OutOrStdout(), output, script)
		},
	}

	generateCmd.Flags().StringVar(&htmlPath, "html", "-", "Page markup file, '-' for stdin")
	generateCmd.Flags().StringVar(&profilePath, "profile", "", "User profile JSON file")
	generateCmd.Flags().StringVar(&userData, "user-data", "", "User profile as inline JSON")
	generateCmd.Flags().StringVarP(&template, "template", "t", "", fmt.Sprintf("Render a fixed site template instead (%s)", strings.Join(synthesizer.Templates(), ", ")))
	generateCmd.Flags().StringVarP(&output, "output", "o", "", "Write the script to a file instead of stdout")
	generateCmd.Flags().StringVar(&pageURL, "url", "", "Page URL used to fill missing login fields from the credential vault")
	generateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the script cache")
	generateCmd.Flags().String("llm-model", "", "Model used by the model assisted tier. (Overrides config/env)")
	_ = v.BindPFlag("llm.model", generateCmd.Flags().Lookup("llm-model"))
	return generateCmd
}

// loadProfile reads the profile from a file or inline JSON. A missing profile
// is an empty one; a malformed one is read as empty as well.
func loadProfile(in io.Reader, path, inline string) (schemas.UserProfile, error) {
	switch {
	case inline != "":
		return schemas.ParseUserProfile([]byte(inline)), nil
	case path != "":
		data, err := readInput(in, path)
		if err != nil {
			return schemas.UserProfile{}, err
		}
		return schemas.ParseUserProfile(data), nil
	default:
		return schemas.UserProfile{}, nil
	}
}
