package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/formscript/internal/dsl"
)

// errInvalid is returned when a script fails the grammar check.
var errInvalid = errors.New("script is invalid")

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [script-file]",
		Short: "Check a script against the command grammar",
		Long:  "Reads a script from the given file (or stdin) and reports the first grammar error, if any.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return err
			}

			script := string(data)
			out := cmd.OutOrStdout()
			if err := dsl.Check(script); err != nil {
				fmt.Fprintf(out, "invalid: %v\n", err)
				return fmt.Errorf("%w: %w", errInvalid, err)
			}

			cacheable := "not cacheable"
			if dsl.IsCacheable(script) {
				cacheable = "cacheable"
			}
			fmt.Fprintf(out, "valid (%s)\n", cacheable)
			return nil
		},
	}
}
