package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/internal/observability"
	"github.com/xkilldash9x/formscript/internal/runner"
)

// newRunCmd creates the `run` command, which plays a script through TagUI.
func newRunCmd(v *viper.Viper) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [script-file]",
		Short: "Execute a script with the TagUI engine",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			defer observability.Sync()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			script, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			r, err := runner.New(cfg.Runner(), logger)
			if err != nil {
				return fmt.Errorf("failed to initialize runner: %w", err)
			}
			if !r.Available(ctx) {
				return fmt.Errorf("tagui was not found; set runner.tagui_path or install it")
			}

			if err := r.Run(ctx, string(script)); err != nil {
				return err
			}
			logger.Info("Script executed", zap.String("source", path))
			fmt.Fprintln(cmd.OutOrStdout(), "success")
			return nil
		},
	}

	runCmd.Flags().String("tagui", "", "Path to the tagui executable. (Overrides config/env)")
	_ = v.BindPFlag("runner.tagui_path", runCmd.Flags().Lookup("tagui"))
	runCmd.Flags().String("browser", "", "Browser flag passed to tagui. (Overrides config/env)")
	_ = v.BindPFlag("runner.browser", runCmd.Flags().Lookup("browser"))
	runCmd.Flags().Duration("timeout", 0, "Maximum execution time. (Overrides config/env)")
	_ = v.BindPFlag("runner.timeout", runCmd.Flags().Lookup("timeout"))
	return runCmd
}
