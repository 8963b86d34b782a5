package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"sketchagg/tuple"
)

func newTTestCommand(a *app) *cobra.Command {
	var numValues int
	cmd := &cobra.Command{
		Use:   "ttest FILE_A FILE_B",
		Short: "Welch t-test p-values between two tuple sketches",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sketches [2][]byte
			for i, path := range args {
				buf, err := os.ReadFile(path)
				if err != nil {
					return errors.Wrapf(err, "reading %s", path)
				}
				sketches[i] = buf
			}
			pValues, err := tuple.NewTTest(numValues, a.options()...).Evaluate(sketches[0], sketches[1])
			if err != nil {
				return err
			}
			if pValues == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "null")
				return nil
			}
			out := make([]string, len(pValues))
			for i, p := range pValues {
				out[i] = strconv.FormatFloat(p, 'g', 6, 64)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(out, ","))
			return nil
		},
	}
	cmd.Flags().IntVar(&numValues, "values", 1, "values per key")
	return cmd
}
