package iterator

import (
	"context"
	"fmt"

	"github.com/INLOpen/docseek/core"
	"golang.org/x/sync/errgroup"
)

// SourceFactory opens an independent source for one partition.
type SourceFactory func(ctx context.Context, partition int) (Source, error)

// ScanPartitions scans every range concurrently, one goroutine per range,
// with at most limit partitions in flight when limit is positive. Each
// partition owns a source from newSource and a clone of opts.Filter;
// hooks, tracer, metrics and logger are shared. fn may be called from
// several goroutines at once. The first error cancels the other partitions.
func ScanPartitions(ctx context.Context, newSource SourceFactory, ranges []core.Range, limit int, opts Options, fn func(partition int, doc *Document) error) error {
	if opts.Filter == nil {
		return fmt.Errorf("document iterator requires a filter")
	}
	if opts.Metrics == nil {
		m, err := NewScanMetrics(false, "")
		if err != nil {
			return err
		}
		opts.Metrics = m
	}

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, r := range ranges {
		partOpts := opts
		partOpts.Filter = opts.Filter.Clone()
		g.Go(func() error {
			src, err := newSource(gctx, i)
			if err != nil {
				return fmt.Errorf("partition %d: failed to open source: %w", i, err)
			}
			it, err := NewDocumentIterator(src, partOpts)
			if err != nil {
				src.Close()
				return fmt.Errorf("partition %d: %w", i, err)
			}
			defer it.Close()
			if err := it.Scan(gctx, r, func(doc *Document) error { return fn(i, doc) }); err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			return nil
		})
	}
	return g.Wait()
}
