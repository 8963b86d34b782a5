package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sketchagg/core"
	"sketchagg/functions"
	"sketchagg/pipeline"
)

func newBuildCommand(a *app) *cobra.Command {
	var funcName, input, out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build one sketch per group from CSV rows group,key[,value]",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := functions.Lookup(funcName)
			if err != nil {
				return err
			}
			if spec.Input != core.DataInput {
				return errors.Newf("%s merges sketches; build needs a data function", funcName)
			}
			partitions, err := readPartitions(input, spec.Inputs, a.cfg.Partitions)
			if err != nil {
				return err
			}

			exchange, err := pipeline.Open(a.cfg, a.logger)
			if err != nil {
				return err
			}
			defer exchange.Close()

			p := pipeline.NewPipeline(func() core.Function {
				return spec.New(a.options()...)
			}, spec.Inputs, exchange)
			p.SetCombiners(a.cfg.Combiners)
			p.SetLogger(a.logger)

			results, err := p.Run(cmd.Context(), partitions)
			if err != nil {
				return err
			}
			return writeResults(cmd.OutOrStdout(), out, results, a.logger)
		},
	}
	cmd.Flags().StringVar(&funcName, "func", "", "function name")
	cmd.Flags().StringVar(&input, "input", "", "CSV input file")
	cmd.Flags().StringVar(&out, "out", "", "output directory")
	_ = cmd.MarkFlagRequired("func")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// readPartitions deals CSV rows round-robin into n partitions. Empty value
// cells are nulls.
func readPartitions(path string, inputs []core.Field, n int) ([][]pipeline.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 1 + len(inputs)
	partitions := make([][]pipeline.Input, n)
	for line := 0; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "reading input")
		}
		row := make(core.Row, len(inputs))
		for i, field := range inputs {
			cell := record[1+i]
			if cell == "" && i > 0 {
				continue
			}
			if field.Kind == core.KindFloat64 {
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, errors.Wrapf(err, "line %d column %s", line+1, field.Name)
				}
				row[i] = v
				continue
			}
			row[i] = cell
		}
		partitions[line%n] = append(partitions[line%n], pipeline.Input{Group: record[0], Row: row})
	}
	return partitions, nil
}

func writeResults(w io.Writer, dir string, results map[string][]byte, logger *zap.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}
	groups := make([]string, 0, len(results))
	for group := range results {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	for _, group := range groups {
		path := filepath.Join(dir, group+".sketch")
		if err := os.WriteFile(path, results[group], 0o644); err != nil {
			return errors.Wrapf(err, "writing %s", path)
		}
		logger.Debug("wrote sketch", zap.String("group", group), zap.Int("bytes", len(results[group])))
	}
	fmt.Fprintf(w, "wrote %d sketches to %s\n", len(groups), dir)
	return nil
}
