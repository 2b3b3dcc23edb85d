package cmd

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/formscript/internal/analyzer"
	"github.com/xkilldash9x/formscript/internal/browser"
	"github.com/xkilldash9x/formscript/internal/observability"
	"github.com/xkilldash9x/formscript/internal/synthesizer"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// inventoryReport is the analyze output; it omits the markup itself.
type inventoryReport struct {
	URL       string              `json:"url"`
	Inventory map[string][]string `json:"inventory"`
	LoginForm bool                `json:"login_form"`
	Complex   bool                `json:"complex"`
}

// bindBrowserFlags adds the browser overrides shared by analyze and fetch.
func bindBrowserFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().Bool("headful", false, "Show the browser window. (Overrides config/env)")
	cmd.Flags().Duration("timeout", 0, "Navigation timeout. (Overrides config/env)")
	_ = v.BindPFlag("browser.navigation_timeout", cmd.Flags().Lookup("timeout"))
}

func fetchPage(cmd *cobra.Command, target string) (string, error) {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return "", err
	}
	if headful, _ := cmd.Flags().GetBool("headful"); headful {
		cfg.SetBrowserHeadless(false)
	}
	return browser.NewFetcher(cfg.Browser(), observability.GetLogger()).Fetch(ctx, target)
}

// newAnalyzeCmd creates the `analyze` command, which prints the form
// inventory of a live page or a local markup file as JSON.
func newAnalyzeCmd(v *viper.Viper) *cobra.Command {
	var file string

	analyzeCmd := &cobra.Command{
		Use:   "analyze [url]",
		Short: "Print the form inventory of a page",
		Args: func(cmd *cobra.Command, args []string) error {
			if file == "" && len(args) != 1 {
				return fmt.Errorf("requires a url argument or --file")
			}
			if file != "" && len(args) != 0 {
				return fmt.Errorf("a url argument and --file are mutually exclusive")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()

			var (
				html   string
				report = inventoryReport{URL: file}
			)
			if file != "" {
				data, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				html = string(data)
			} else {
				fetched, err := fetchPage(cmd, args[0])
				if err != nil {
					return err
				}
				report.URL, html = args[0], fetched
			}

			a := analyzer.New(html)
			report.Inventory = a.Inventory()
			report.LoginForm = a.IsLoginForm()
			report.Complex = synthesizer.IsComplex(html)

			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode inventory: %w", err)
			}
			return writeOutput(cmd.OutOrStdout(), "", string(out))
		},
	}

	analyzeCmd.Flags().StringVarP(&file, "file", "f", "", "Analyze a local markup file ('-' for stdin) instead of a url")
	bindBrowserFlags(analyzeCmd, v)
	return analyzeCmd
}

// newFetchCmd creates the `fetch` command, which prints the rendered markup of a page.
func newFetchCmd(v *viper.Viper) *cobra.Command {
	var output string

	fetchCmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Capture the rendered markup of a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()
			html, err := fetchPage(cmd, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, html)
		},
	}

	fetchCmd.Flags().StringVarP(&output, "output", "o", "", "Write the markup to a file instead of stdout")
	bindBrowserFlags(fetchCmd, v)
	return fetchCmd
}
