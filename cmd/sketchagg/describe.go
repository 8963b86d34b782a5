package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"sketchagg/functions"
)

func newDescribeCommand(a *app) *cobra.Command {
	var funcName string
	cmd := &cobra.Command{
		Use:   "describe FILE...",
		Short: "Print the estimate and retained count of sketches",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := functions.Lookup(funcName)
			if err != nil {
				return err
			}
			for _, path := range args {
				buf, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrapf(err, "reading %s", path)
				}
				summary, err := spec.Describe(buf, a.cfg.EngineDefaults())
				if err != nil {
					return errors.Wrapf(err, "describing %s", path)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\testimate=%.2f\tretained=%d\n", path, summary.Estimate, summary.Retained)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "", "function that built the sketches")
	_ = cmd.MarkFlagRequired("func")
	return cmd
}
