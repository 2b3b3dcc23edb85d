package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/formscript/internal/browser"
	"github.com/xkilldash9x/formscript/internal/observability"
	"github.com/xkilldash9x/formscript/internal/runner"
	"github.com/xkilldash9x/formscript/internal/server"
)

// newServeCmd creates the `serve` command, which runs the HTTP API until the
// process receives an interrupt.
func newServeCmd(v *viper.Viper) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()
			defer observability.Sync()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
				cfg.SetCacheEnabled(false)
			}

			comps, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer comps.Shutdown()

			deps := server.Deps{
				Synthesizer: comps.Synthesizer,
				Fetcher:     browser.NewFetcher(cfg.Browser(), logger),
				Vault:       comps.Vault,
				LLMEnabled:  comps.LLM != nil,
			}
			if comps.Store != nil {
				deps.Database = comps.Store
			}
			if r, err := runner.New(cfg.Runner(), logger); err != nil {
				logger.Warn("Script runner disabled", zap.Error(err))
			} else {
				deps.Runner = r
			}

			srv := server.New(cfg.Server(), deps, logger, Version)
			if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}

	serveCmd.Flags().String("addr", "", "Listen address, e.g. 127.0.0.1:4000. (Overrides config/env)")
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	serveCmd.Flags().Bool("no-cache", false, "Disable the script cache. (Overrides config/env)")
	return serveCmd
}
