package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"sketchagg/functions"
)

func newIntersectCommand(a *app) *cobra.Command {
	var (
		funcName string
		out      string
		seed     uint64
	)
	cmd := &cobra.Command{
		Use:   "intersect FILE_A FILE_B",
		Short: "Write the intersection of two sketches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := functions.LookupSetOperation(funcName)
			if err != nil {
				return err
			}
			var sketches [2][]byte
			for i, path := range args {
				buf, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrapf(err, "reading %s", path)
				}
				sketches[i] = buf
			}
			op := spec.New(a.options()...)
			overrides := a.cfg.EngineDefaults()
			var result []byte
			if cmd.Flags().Changed("seed") {
				overrides.Seed = seed
				result, err = op.EvaluateWithSeed(sketches[0], sketches[1], seed)
			} else {
				result, err = op.Evaluate(sketches[0], sketches[1])
			}
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, result, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", out)
			}
			summary, err := spec.Describe(result, overrides)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\testimate=%.2f\tretained=%d\n", out, summary.Estimate, summary.Retained)
			return nil
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "tuple_double_intersect", "set operation to apply")
	cmd.Flags().StringVar(&out, "out", "", "output file")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed the sketches were built with")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
