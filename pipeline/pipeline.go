package pipeline

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"sketchagg/core"
	"sketchagg/storage"
)

const QueueSize = 100

// rows between context checks
const checkInterval = 1024

// Input is one raw row tagged with its group.
type Input struct {
	Group string
	Row   core.Row
}

type partial struct {
	key    storage.Key
	record *core.Record
}

// Pipeline runs a function over partitioned input the way a distributed
// host would: PARTIAL1 per partition, optionally PARTIAL2 per combiner,
// and FINAL per group.
type Pipeline struct {
	newFunction func() core.Function
	inputs      []core.Field
	exchange    *Exchange
	combiners   int
	logger      *zap.Logger
}

func NewPipeline(newFunction func() core.Function, inputs []core.Field, exchange *Exchange) *Pipeline {
	return &Pipeline{
		newFunction: newFunction,
		inputs:      inputs,
		exchange:    exchange,
		logger:      zap.NewNop(),
	}
}

// SetCombiners sets the number of PARTIAL2 workers. Zero skips the stage.
func (p *Pipeline) SetCombiners(combiners int) {
	p.combiners = combiners
}

func (p *Pipeline) SetLogger(logger *zap.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Run aggregates every partition and returns the final bytes per group.
// Groups whose result is null are absent.
func (p *Pipeline) Run(ctx context.Context, partitions [][]Input) (map[string][]byte, error) {
	if err := p.runMap(ctx, partitions); err != nil {
		return nil, errors.Wrap(err, "partial1")
	}
	stage := storage.StageMap
	if p.combiners > 0 {
		if err := p.runCombine(ctx); err != nil {
			return nil, errors.Wrap(err, "partial2")
		}
		stage = storage.StageCombine
	}
	results, err := p.runReduce(ctx, stage)
	if err != nil {
		return nil, errors.Wrap(err, "final")
	}
	return results, nil
}

func (p *Pipeline) runMap(ctx context.Context, partitions [][]Input) error {
	group, ctx := errgroup.WithContext(ctx)
	writerQueue := make(chan partial, QueueSize)
	group.Go(func() error {
		return p.write(writerQueue)
	})

	mappers, mapCtx := errgroup.WithContext(ctx)
	for i, rows := range partitions {
		partition, rows := int64(i), rows
		mappers.Go(func() error {
			return p.mapPartition(mapCtx, partition, rows, writerQueue)
		})
	}
	group.Go(func() error {
		defer close(writerQueue)
		return mappers.Wait()
	})
	return group.Wait()
}

// write drains the queue even after a failure so that mappers never block.
func (p *Pipeline) write(writerQueue <-chan partial) error {
	var firstErr error
	for item := range writerQueue {
		if firstErr != nil {
			continue
		}
		firstErr = p.exchange.Put(item.key, item.record)
	}
	return firstErr
}

func (p *Pipeline) mapPartition(ctx context.Context, partition int64, rows []Input, writerQueue chan<- partial) error {
	fn := p.newFunction()
	defer fn.Close()
	if _, err := fn.Init(core.Partial1, p.inputs); err != nil {
		return err
	}

	buffers := make(map[string]core.AggregationBuffer)
	var groups []string
	for i, input := range rows {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		buf, ok := buffers[input.Group]
		if !ok {
			buf = fn.NewBuffer()
			buffers[input.Group] = buf
			groups = append(groups, input.Group)
		}
		if err := fn.Update(buf, input.Row); err != nil {
			return errors.Wrapf(err, "partition %d group %q", partition, input.Group)
		}
	}

	for _, group := range groups {
		record, err := fn.TerminatePartial(buffers[group])
		if err != nil {
			return errors.Wrapf(err, "partition %d group %q", partition, group)
		}
		if record == nil {
			continue
		}
		key := storage.Key{Stage: storage.StageMap, Group: group, Partition: partition}
		select {
		case writerQueue <- partial{key: key, record: record}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p.logger.Debug("mapped partition",
		zap.Int64("partition", partition),
		zap.Int("rows", len(rows)),
		zap.Int("groups", len(groups)))
	return nil
}

func (p *Pipeline) runCombine(ctx context.Context) error {
	groups, err := p.exchange.Groups(storage.StageMap)
	if err != nil {
		return err
	}
	combiners, ctx := errgroup.WithContext(ctx)
	for c := 0; c < p.combiners; c++ {
		combiner := int64(c)
		combiners.Go(func() error {
			return p.combine(ctx, combiner, groups)
		})
	}
	return combiners.Wait()
}

// combine merges the map records of every partition assigned to combiner.
func (p *Pipeline) combine(ctx context.Context, combiner int64, groups []string) error {
	fn := p.newFunction()
	defer fn.Close()
	if _, err := fn.Init(core.Partial2, []core.Field{fn.RecordShape()}); err != nil {
		return err
	}

	buf := fn.NewBuffer()
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn.Reset(buf); err != nil {
			return err
		}
		var consumed []storage.Key
		err := p.exchange.IterateGroup(storage.StageMap, group, func(key storage.Key, record *core.Record) error {
			if key.Partition%int64(p.combiners) != combiner {
				return nil
			}
			consumed = append(consumed, key)
			return fn.Merge(buf, record)
		})
		if err != nil {
			return errors.Wrapf(err, "combiner %d group %q", combiner, group)
		}
		if len(consumed) == 0 {
			continue
		}
		record, err := fn.TerminatePartial(buf)
		if err != nil {
			return errors.Wrapf(err, "combiner %d group %q", combiner, group)
		}
		key := storage.Key{Stage: storage.StageCombine, Group: group, Partition: combiner}
		if err := p.exchange.Merge(key, record, consumed); err != nil {
			return err
		}
	}
	p.logger.Debug("combined partitions", zap.Int64("combiner", combiner), zap.Int("groups", len(groups)))
	return nil
}

func (p *Pipeline) runReduce(ctx context.Context, stage storage.Stage) (map[string][]byte, error) {
	groups, err := p.exchange.Groups(stage)
	if err != nil {
		return nil, err
	}
	fn := p.newFunction()
	defer fn.Close()
	if _, err := fn.Init(core.Final, []core.Field{fn.RecordShape()}); err != nil {
		return nil, err
	}

	results := make(map[string][]byte, len(groups))
	buf := fn.NewBuffer()
	for _, group := range groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := fn.Reset(buf); err != nil {
			return nil, err
		}
		var consumed []storage.Key
		err := p.exchange.IterateGroup(stage, group, func(key storage.Key, record *core.Record) error {
			consumed = append(consumed, key)
			return fn.Merge(buf, record)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "group %q", group)
		}
		result, err := fn.Terminate(buf)
		if err != nil {
			return nil, errors.Wrapf(err, "group %q", group)
		}
		if result != nil {
			results[group] = result
		}
		for _, key := range consumed {
			if err := p.exchange.Delete(key); err != nil {
				return nil, err
			}
		}
	}
	p.logger.Info("aggregation finished", zap.Int("groups", len(results)))
	return results, nil
}

// RunComplete aggregates rows in a single COMPLETE pass.
func (p *Pipeline) RunComplete(ctx context.Context, rows []Input) (map[string][]byte, error) {
	fn := p.newFunction()
	defer fn.Close()
	if _, err := fn.Init(core.Complete, p.inputs); err != nil {
		return nil, err
	}

	buffers := make(map[string]core.AggregationBuffer)
	var groups []string
	for i, input := range rows {
		if i%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		buf, ok := buffers[input.Group]
		if !ok {
			buf = fn.NewBuffer()
			buffers[input.Group] = buf
			groups = append(groups, input.Group)
		}
		if err := fn.Update(buf, input.Row); err != nil {
			return nil, errors.Wrapf(err, "group %q", input.Group)
		}
	}

	results := make(map[string][]byte, len(groups))
	for _, group := range groups {
		result, err := fn.Terminate(buffers[group])
		if err != nil {
			return nil, errors.Wrapf(err, "group %q", group)
		}
		if result != nil {
			results[group] = result
		}
	}
	return results, nil
}
