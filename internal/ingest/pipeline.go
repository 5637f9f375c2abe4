package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/jsonload/internal/files/filesystem"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// Pipeline loads a list of files into a Store.
type Pipeline struct {
	store   jsonload.Store
	decoder *Decoder
	fs      filesystem.FileSystemProvider
	logger  jsonload.Logger
	config  jsonload.RunConfig
	runID   string
	now     func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithRunID tags the run's summary.
func WithRunID(id string) Option {
	return func(p *Pipeline) { p.runID = id }
}

// WithClock replaces time.Now for elapsed and rate computation.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// NewPipeline wires a pipeline. Zero values in config take the defaults.
func NewPipeline(
	store jsonload.Store,
	decoder *Decoder,
	fs filesystem.FileSystemProvider,
	logger jsonload.Logger,
	config jsonload.RunConfig,
	opts ...Option,
) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required: %w", jsonload.ErrInvalidConfig)
	}
	if decoder == nil {
		return nil, fmt.Errorf("decoder is required: %w", jsonload.ErrInvalidConfig)
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem is required: %w", jsonload.ErrInvalidConfig)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required: %w", jsonload.ErrInvalidConfig)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		store:   store,
		decoder: decoder,
		fs:      fs,
		logger:  logger,
		config:  config.WithDefaults(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run processes paths in batches and reports to sink after every batch.
// File-level failures are counted in the summary; the returned error is
// reserved for run-level faults: an empty list (ErrNoFiles) or a context
// cancelled between batches.
func (p *Pipeline) Run(ctx context.Context, paths []string, sink jsonload.EventSink) (jsonload.Summary, error) {
	if sink == nil {
		sink = jsonload.FuncSink{}
	}
	state := newRunState(p.runID, len(paths), p.now)

	if len(paths) == 0 {
		state.phase = jsonload.PhaseFailed
		return state.summary(), jsonload.ErrNoFiles
	}

	batches := Partition(paths, p.config.BatchSize)
	p.logger.Verbose("Processing %d files in %d batches (batch size %d, workers %d)",
		len(paths), len(batches), p.config.BatchSize, p.config.Workers)

	state.begin()
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			state.phase = jsonload.PhaseFailed
			p.logger.Info("Run interrupted after %d of %d files", state.completed, state.total)
			return state.summary(), fmt.Errorf("run interrupted before batch %d of %d: %w", i+1, len(batches), err)
		}

		outcomes := p.runBatch(ctx, i+1, batch)

		p.logger.Verbose("Batch %d: reporting", i+1)
		state.merge(outcomes)
		sink.OnProgress(state.progress())
		if rate, ok := state.rate(); ok {
			sink.OnRate(rate)
		}
	}

	state.phase = jsonload.PhaseCompleted
	summary := state.summary()
	sink.OnComplete(jsonload.CompletionEvent{Summary: summary})
	p.logger.Info("%s", summary.Message())
	return summary, nil
}

// runBatch processes every path of one batch and waits for all of them.
// Units run detached from ctx cancellation so an interrupted run still
// finishes the batch it is in.
func (p *Pipeline) runBatch(ctx context.Context, n int, batch []string) []outcome {
	unitCtx := context.WithoutCancel(ctx)
	outcomes := make([]outcome, len(batch))

	p.logger.Verbose("Batch %d: dispatching %d files", n, len(batch))
	var g errgroup.Group
	g.SetLimit(p.config.Workers)
	for i, path := range batch {
		g.Go(func() error {
			outcomes[i] = p.processFile(unitCtx, path)
			return nil
		})
	}

	p.logger.Verbose("Batch %d: awaiting", n)
	_ = g.Wait()
	return outcomes
}

// processFile is one unit of work. It never returns an error; failures are
// logged with the path and reported in the outcome.
func (p *Pipeline) processFile(ctx context.Context, path string) (out outcome) {
	out.path = path
	defer func() {
		if r := recover(); r != nil {
			out = outcome{path: path, result: resultFailed, err: fmt.Errorf("panic processing %s: %v", path, r)}
			p.logger.Error("%v", out.err)
		}
	}()

	rec, err := p.decoder.Decode(path)
	if err != nil {
		p.logger.Error("Skipping %s: %v", path, err)
		return outcome{path: path, result: resultFailed, err: err}
	}

	duplicate, err := p.insertRecord(ctx, rec)
	switch {
	case err != nil:
		if errors.Is(err, jsonload.ErrKeyConflict) {
			p.logger.Error("adresNo %d was inserted concurrently, keeping %s: %v", rec.Key(), path, err)
		} else {
			p.logger.Error("Failed to store %s: %v", path, err)
		}
		return outcome{path: path, result: resultFailed, err: err}
	case duplicate:
		p.logger.Info("Duplicate adresNo %d, keeping %s", rec.Key(), path)
		return outcome{path: path, result: resultDuplicate}
	}

	if err := p.fs.Remove(path); err != nil {
		derr := &jsonload.DisposalError{Path: path, Err: err}
		p.logger.Error("Inserted adresNo %d but %v", rec.Key(), derr)
		return outcome{path: path, result: resultInserted, err: derr}
	}
	p.logger.Verbose("Inserted adresNo %d from %s", rec.Key(), path)
	return outcome{path: path, result: resultInserted}
}

// insertRecord runs the duplicate check and the insert for rec in one
// transaction on one pooled connection. It reports duplicate=true without
// touching storage when the key already exists.
func (p *Pipeline) insertRecord(ctx context.Context, rec *jsonload.AddressRecord) (duplicate bool, err error) {
	path := rec.SourcePath
	storageErr := func(op string, err error) error {
		return &jsonload.StorageError{Path: path, Op: op, Err: err}
	}

	conn, err := p.store.Acquire(ctx)
	if err != nil {
		return false, storageErr("acquire", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return false, storageErr("begin", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			p.logger.Verbose("Rollback for %s: %v", path, rbErr)
		}
	}()

	count, err := tx.CountByKey(ctx, rec.Key())
	if err != nil {
		return false, storageErr("count", err)
	}
	if count > 0 {
		return true, nil
	}

	if err := tx.Insert(ctx, rec); err != nil {
		return false, storageErr("insert", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return false, storageErr("commit", err)
	}
	return false, nil
}

// Partition splits paths into consecutive batches of at most size paths,
// preserving order.
func Partition(paths []string, size int) [][]string {
	if size <= 0 {
		size = jsonload.DefaultBatchSize
	}
	batches := make([][]string, 0, (len(paths)+size-1)/size)
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		batches = append(batches, paths[start:end])
	}
	return batches
}
