package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formscript/internal/observability"
)

// newCacheCmd groups maintenance of the PostgreSQL script cache.
func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Maintain the script cache database",
	}
	cacheCmd.AddCommand(newCacheInitCmd(), newCachePurgeCmd())
	return cacheCmd
}

func newCacheInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the cache table and index if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer observability.Sync()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			s, closeDB, err := openStore(ctx, cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := s.EnsureSchema(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cache schema ready")
			return nil
		},
	}
}

func newCachePurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Delete expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer observability.Sync()

			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			s, closeDB, err := openStore(ctx, cfg, observability.GetLogger())
			if err != nil {
				return err
			}
			defer closeDB()

			removed, err := s.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired entries\n", removed)
			return nil
		},
	}
}
