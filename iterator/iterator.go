// Package iterator drives a document filter over a sorted key stream. It
// groups keys into documents, calls the filter capability set in key order
// and performs the seeks the filter suggests.
package iterator

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/filter"
	"github.com/INLOpen/docseek/hooks"
	"github.com/INLOpen/docseek/keyparser"
	"github.com/INLOpen/docseek/projection"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Source is a seekable, sorted stream of entries.
type Source interface {
	// Seek restricts the source to r and positions it before the first entry of r.
	Seek(r core.Range) error
	Next() bool
	// At returns the current entry. It is only valid until the next call to Next or Seek.
	At() core.Entry
	Error() error
	Close() error
}

// Options configures a DocumentIterator. Only Filter is required.
type Options struct {
	Filter filter.Filter
	// Projection restricts the returned fields. Nil returns every field.
	Projection *projection.Projection
	// Parser extracts field names for the projection.
	Parser  keyparser.KeyParser
	Hooks   hooks.HookManager
	Tracer  trace.Tracer
	Metrics *ScanMetrics
	Logger  *slog.Logger
}

// Document is the outcome of scanning one document.
type Document struct {
	// Key is the start key shared by every key of the document range.
	Key core.Key
	// Subject is the document the filter evaluated. It differs from Key when
	// the range also covers ancestors or descendants of the document.
	Subject core.Key
	// Entries are the entries returned to the client, in key order, with
	// limit markers in place of dropped keys.
	Entries []core.Entry
	// Evaluated are the entries handed to the expression evaluator.
	Evaluated []core.Entry
}

// DocumentIterator scans a source one document at a time. It is not safe
// for concurrent use; clone the filter and create one iterator per goroutine.
type DocumentIterator struct {
	src        Source
	filter     filter.Filter
	seeker     filter.Seeker
	xform      filter.Transformer
	scoper     filter.DocumentScoper
	projection *projection.Projection
	parser     keyparser.KeyParser
	hooks      hooks.HookManager
	tracer     trace.Tracer
	metrics    *ScanMetrics
	logger     *slog.Logger

	scan      core.Range
	lookahead *core.Entry

	// Current document state.
	cur      *Document
	markers  map[string]struct{}
	steps    int
	visited  int
	returned int

	doc *Document
	err error
}

// NewDocumentIterator creates an unpositioned iterator over src. Call Seek
// (or Scan) before Next.
func NewDocumentIterator(src Source, opts Options) (*DocumentIterator, error) {
	if src == nil {
		return nil, fmt.Errorf("document iterator requires a source")
	}
	if opts.Filter == nil {
		return nil, fmt.Errorf("document iterator requires a filter")
	}
	it := &DocumentIterator{
		src:        src,
		filter:     opts.Filter,
		projection: opts.Projection,
		parser:     opts.Parser,
		hooks:      opts.Hooks,
		tracer:     opts.Tracer,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
	}
	it.seeker, _ = filter.AsSeeker(opts.Filter)
	it.xform, _ = filter.AsTransformer(opts.Filter)
	it.scoper, _ = filter.AsDocumentScoper(opts.Filter)
	if it.parser == nil {
		it.parser = keyparser.NewCachingParser(0)
	}
	if it.hooks == nil {
		it.hooks = hooks.NewHookManager(nil)
	}
	if it.tracer == nil {
		it.tracer = noop.NewTracerProvider().Tracer("docseek/iterator")
	}
	if it.metrics == nil {
		m, err := NewScanMetrics(false, "")
		if err != nil {
			return nil, err
		}
		it.metrics = m
	}
	if it.logger == nil {
		it.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	it.logger = it.logger.With("component", "DocumentIterator")
	return it, nil
}

// Seek restricts the scan to r and discards any partially read document.
func (it *DocumentIterator) Seek(ctx context.Context, r core.Range) error {
	it.scan = r
	it.lookahead = nil
	it.cur, it.doc, it.err = nil, nil, nil
	if err := it.src.Seek(r); err != nil {
		it.err = fmt.Errorf("failed to seek source to %s: %w", r, err)
		return it.err
	}
	return nil
}

// Next advances to the next document holding at least one returned entry.
func (it *DocumentIterator) Next(ctx context.Context) bool {
	it.doc = nil
	if it.err != nil {
		return false
	}
	for {
		if err := ctx.Err(); err != nil {
			it.err = err
			return false
		}
		e, ok := it.nextEntry()
		if !ok {
			if err := it.src.Error(); err != nil {
				it.err = fmt.Errorf("source failed: %w", err)
				return false
			}
			return it.finishDocument(ctx)
		}
		start, err := it.filter.StartKey(e.Key)
		if err != nil {
			it.err = fmt.Errorf("failed to compute document start for %s: %w", e.Key, err)
			return false
		}
		if it.cur != nil && !start.Equal(it.cur.Key) {
			it.lookahead = &e
			if it.finishDocument(ctx) {
				return true
			}
			it.lookahead = nil
		}
		if it.cur == nil {
			if err := it.startDocument(e.Key, start); err != nil {
				it.err = err
				return false
			}
		}
		if err := it.process(ctx, e); err != nil {
			it.err = err
			return false
		}
	}
}

// Document returns the document found by the last successful Next.
func (it *DocumentIterator) Document() *Document { return it.doc }

// Error returns the error that stopped the scan, if any.
func (it *DocumentIterator) Error() error { return it.err }

// Close closes the underlying source.
func (it *DocumentIterator) Close() error { return it.src.Close() }

func (it *DocumentIterator) nextEntry() (core.Entry, bool) {
	if it.lookahead != nil {
		e := *it.lookahead
		it.lookahead = nil
		return e, true
	}
	if !it.src.Next() {
		return core.Entry{}, false
	}
	return it.src.At(), true
}

// startDocument opens the group of keys sharing start, with k as its first key.
func (it *DocumentIterator) startDocument(k, start core.Key) error {
	subject, err := it.subject(k, start)
	if err != nil {
		return err
	}
	if err := it.filter.StartNewDocument(subject); err != nil {
		return fmt.Errorf("failed to start document %s: %w", subject, err)
	}
	it.cur = &Document{Key: start.Clone(), Subject: subject}
	it.markers = make(map[string]struct{})
	it.steps, it.visited, it.returned = 0, 0, 0
	return nil
}

// subject picks the document under evaluation: the one the scan range was
// built for when the filter can tell and it belongs to this group, otherwise
// the document of the group's first key.
func (it *DocumentIterator) subject(k, start core.Key) (core.Key, error) {
	if it.scoper != nil {
		doc, ok, err := it.scoper.ScopedDocument(it.scan)
		if err != nil {
			return core.Key{}, fmt.Errorf("failed to resolve scoped document of %s: %w", it.scan, err)
		}
		if ok {
			docStart, err := it.filter.StartKey(doc)
			if err != nil {
				return core.Key{}, fmt.Errorf("failed to compute document start for %s: %w", doc, err)
			}
			if docStart.Equal(start) {
				return doc, nil
			}
		}
	}
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, fmt.Errorf("failed to parse document of %s: %w", k, err)
	}
	return core.NewKeyBytes(k.Row, []byte(dt+"\x00"+uid), nil), nil
}

// finishDocument publishes the current document when it returned anything.
func (it *DocumentIterator) finishDocument(ctx context.Context) bool {
	cur := it.cur
	it.cur = nil
	if cur == nil || len(cur.Entries) == 0 {
		return false
	}
	if err := it.metrics.observeDocument(it.visited); err != nil {
		it.logger.Warn("Failed to record document metrics", "error", err)
	}
	if it.hooks.HasListeners(hooks.EventPostDocument) {
		_ = it.hooks.Trigger(ctx, hooks.NewPostDocumentEvent(hooks.PostDocumentPayload{
			DocumentKey:  cur.Key,
			KeysVisited:  it.visited,
			KeysReturned: it.returned,
		}))
	}
	it.doc = cur
	return true
}

func (it *DocumentIterator) process(ctx context.Context, e core.Entry) error {
	it.visited++
	it.metrics.KeysVisitedTotal.Add(1)

	applied, err := it.filter.Apply(e)
	if err != nil {
		return fmt.Errorf("filter apply failed: %w", err)
	}
	if applied {
		it.metrics.KeysEvaluatedTotal.Add(1)
		it.cur.Evaluated = append(it.cur.Evaluated, cloneEntry(e))
	}

	kept, err := it.filter.Keep(e.Key)
	if err != nil {
		return fmt.Errorf("filter keep failed: %w", err)
	}
	switch {
	case kept:
		projected, err := it.projected(e.Key)
		if err != nil {
			return err
		}
		if projected {
			it.returned++
			it.metrics.KeysReturnedTotal.Add(1)
			it.cur.Entries = append(it.cur.Entries, cloneEntry(e))
		}
	case it.xform != nil:
		if err := it.transform(ctx, e.Key); err != nil {
			return err
		}
	}

	if applied || kept {
		it.steps = 0
		return nil
	}
	it.steps++
	return it.maybeSeek(ctx, e.Key)
}

// projected reports whether a kept key survives the projection. Document
// markers carry no field and are always returned.
func (it *DocumentIterator) projected(k core.Key) (bool, error) {
	if it.projection == nil {
		return true, nil
	}
	pk, err := it.parser.Parse(k)
	if err != nil {
		return false, fmt.Errorf("failed to parse field of %s: %w", k, err)
	}
	if pk.RawField == "" {
		return true, nil
	}
	return it.projection.Apply(pk.RawField), nil
}

func (it *DocumentIterator) transform(ctx context.Context, k core.Key) error {
	marker, err := it.xform.Transform(k)
	if err != nil {
		return fmt.Errorf("filter transform failed: %w", err)
	}
	if marker == nil {
		return nil
	}
	id := string(marker.ColumnFamily) + "\x00" + string(marker.ColumnQualifier)
	if _, seen := it.markers[id]; seen {
		return nil
	}
	it.markers[id] = struct{}{}
	it.returned++
	it.metrics.KeysTransformedTotal.Add(1)
	it.cur.Entries = append(it.cur.Entries, core.Entry{Key: marker.Clone(), Value: []byte{}})
	if it.hooks.HasListeners(hooks.EventOnFieldLimit) {
		_ = it.hooks.Trigger(ctx, hooks.NewOnFieldLimitEvent(hooks.OnFieldLimitPayload{Key: k.Clone(), Marker: marker.Clone()}))
	}
	return nil
}

// maybeSeek asks the filter for a seek once enough consecutive keys were
// neither applied nor kept. The step count restarts only when the filter
// answers with a range, so a declining filter is asked again on the next key.
func (it *DocumentIterator) maybeSeek(ctx context.Context, current core.Key) error {
	if it.seeker == nil {
		return nil
	}
	maxNext := it.seeker.MaxNextCount()
	if maxNext < 0 || it.steps < maxNext {
		return nil
	}

	r, err := it.seeker.SeekRange(current, it.scan.End, it.scan.EndInclusive)
	if err != nil {
		return fmt.Errorf("filter seek range failed: %w", err)
	}
	if r == nil {
		return nil
	}
	it.steps = 0
	if !r.IsEmpty() && (r.Start == nil || !r.BeforeStart(current)) {
		it.logger.Debug("Ignoring seek that does not move forward", "current", current, "range", r)
		return nil
	}

	target := *r
	if it.hooks.HasListeners(hooks.EventPreSeek) {
		if err := it.hooks.Trigger(ctx, hooks.NewPreSeekEvent(hooks.PreSeekPayload{Current: current.Clone(), Target: target})); err != nil {
			it.metrics.SeeksVetoedTotal.Add(1)
			it.logger.Debug("Seek vetoed by hook", "current", current, "range", target, "error", err)
			return nil
		}
	}

	from := current.Clone()
	if err := it.src.Seek(target); err != nil {
		return fmt.Errorf("failed to seek source to %s: %w", target, err)
	}
	it.metrics.SeeksTotal.Add(1)
	it.logger.Debug("Seeked", "from", from, "range", target)
	trace.SpanFromContext(ctx).AddEvent("seek", trace.WithAttributes(
		attribute.String("seek.from", from.String()),
		attribute.String("seek.range", target.String()),
	))
	if it.hooks.HasListeners(hooks.EventPostSeek) {
		_ = it.hooks.Trigger(ctx, hooks.NewPostSeekEvent(hooks.PostSeekPayload{From: from, Target: target}))
	}
	return nil
}

// Scan seeks to r and calls fn for every document in order. A PreScan hook
// may narrow r before the scan starts. Scan stops at the first error
// returned by fn.
func (it *DocumentIterator) Scan(ctx context.Context, r core.Range, fn func(*Document) error) (err error) {
	ctx, span := it.tracer.Start(ctx, "DocumentIterator.Scan")
	defer span.End()

	it.metrics.ScansTotal.Add(1)
	var documents int64
	defer func() {
		span.SetAttributes(attribute.Int64("scan.documents", documents))
		if err != nil {
			it.metrics.ScanErrorsTotal.Add(1)
			span.RecordError(err)
			span.SetStatus(codes.Error, "scan_failed")
		}
		if it.hooks.HasListeners(hooks.EventPostScan) {
			_ = it.hooks.Trigger(ctx, hooks.NewPostScanEvent(hooks.PostScanPayload{Range: r, Documents: documents, Error: err}))
		}
	}()

	if err := it.hooks.Trigger(ctx, hooks.NewPreScanEvent(hooks.PreScanPayload{Range: &r})); err != nil {
		return fmt.Errorf("scan cancelled by pre-scan hook: %w", err)
	}
	span.SetAttributes(attribute.String("scan.range", r.String()))

	if err := it.Seek(ctx, r); err != nil {
		return err
	}
	for it.Next(ctx) {
		documents++
		if err := fn(it.doc); err != nil {
			return err
		}
	}
	return it.Error()
}

func cloneEntry(e core.Entry) core.Entry {
	return core.NewEntry(e.Key.Clone(), e.Value)
}
