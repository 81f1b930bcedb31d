// Package session assembles everything a configured scan needs: logger,
// tracer, filter, projection, parser cache, metrics and hooks.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/INLOpen/docseek/config"
	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/filter"
	"github.com/INLOpen/docseek/hooks"
	"github.com/INLOpen/docseek/iterator"
	"github.com/INLOpen/docseek/keyparser"
	"github.com/INLOpen/docseek/projection"
	"github.com/INLOpen/docseek/tracing"
	"go.opentelemetry.io/otel/trace"
)

// Session holds the shared, immutable parts of a scan configuration. Each
// scan gets its own filter clone, so one Session may serve concurrent scans.
type Session struct {
	cfg        *config.Config
	logger     *slog.Logger
	hooks      hooks.HookManager
	metrics    *iterator.ScanMetrics
	parser     *keyparser.CachingParser
	projection *projection.Projection
	filter     filter.Filter
	tracer     trace.Tracer
	timeout    time.Duration

	cleanupTracing func()
	logCloser      io.Closer
	closeOnce      sync.Once
}

type options struct {
	logger         *slog.Logger
	hooks          hooks.HookManager
	tracerProvider trace.TracerProvider
}

// Option overrides a component the session would otherwise build from config.
type Option func(*options)

// WithLogger replaces the logger built from the logging section.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHookManager uses hm instead of a fresh hook manager.
func WithHookManager(hm hooks.HookManager) Option {
	return func(o *options) { o.hooks = hm }
}

// WithTracerProvider replaces the provider built from the tracing section.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// New builds a session from cfg. Predicates come from the expression
// evaluator and may be nil for the field mode.
func New(cfg *config.Config, predicates filter.Predicates, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{cfg: cfg, cleanupTracing: func() {}}
	if err := s.init(predicates, o); err != nil {
		s.Close()
		return nil, err
	}
	s.logger.Info("Session ready", "filter_mode", cfg.Filter.Mode, "projection", s.projection.Mode().String(), "partitions", cfg.Scan.Partitions, "timeout", s.timeout.String())
	return s, nil
}

func (s *Session) init(predicates filter.Predicates, o options) error {
	cfg := s.cfg
	var err error

	s.logger = o.logger
	if s.logger == nil {
		s.logger, s.logCloser, err = config.NewLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
	}

	tp := o.tracerProvider
	if tp == nil {
		sdkProvider, cleanup, err := tracing.NewTracerProvider(cfg.Tracing, s.logger)
		if err != nil {
			return fmt.Errorf("failed to initialize tracer provider: %w", err)
		}
		tp, s.cleanupTracing = sdkProvider, cleanup
	}
	s.tracer = tp.Tracer("docseek")

	s.hooks = o.hooks
	if s.hooks == nil {
		s.hooks = hooks.NewHookManager(s.logger)
	}

	if s.metrics, err = iterator.NewScanMetrics(cfg.Scan.PublishMetrics, cfg.Scan.MetricPrefix); err != nil {
		return fmt.Errorf("failed to create scan metrics: %w", err)
	}
	s.parser = keyparser.NewObservedCachingParser(cfg.Scan.ParserCacheCapacity, s.hooks)
	s.parser.SetMetrics(s.metrics.ParserCacheHits, s.metrics.ParserCacheMisses)

	if s.projection, err = projection.New(cfg.Projection.Includes, cfg.Projection.Excludes); err != nil {
		return err
	}
	if s.filter, err = filter.Build(cfg.Filter, predicates, s.logger); err != nil {
		return err
	}
	s.timeout = config.ParseDuration(cfg.Scan.Timeout, 0, s.logger)
	return nil
}

// Hooks returns the hook manager listeners register with.
func (s *Session) Hooks() hooks.HookManager { return s.hooks }

// Metrics returns the scan metrics shared by every scan of the session.
func (s *Session) Metrics() *iterator.ScanMetrics { return s.metrics }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// Filter returns a fresh clone of the configured filter.
func (s *Session) Filter() filter.Filter { return s.filter.Clone() }

func (s *Session) iteratorOptions() iterator.Options {
	return iterator.Options{
		Filter:     s.filter.Clone(),
		Projection: s.projection,
		Parser:     s.parser,
		Hooks:      s.hooks,
		Tracer:     s.tracer,
		Metrics:    s.metrics,
		Logger:     s.logger,
	}
}

// NewIterator creates a document iterator over src with its own filter clone.
func (s *Session) NewIterator(src iterator.Source) (*iterator.DocumentIterator, error) {
	return iterator.NewDocumentIterator(src, s.iteratorOptions())
}

// Scan scans ranges with at most the configured number of partitions in
// flight, bounded by the configured timeout. No ranges means one unbounded
// range.
func (s *Session) Scan(ctx context.Context, newSource iterator.SourceFactory, ranges []core.Range, fn func(partition int, doc *iterator.Document) error) error {
	if len(ranges) == 0 {
		ranges = []core.Range{{}}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return iterator.ScanPartitions(ctx, newSource, ranges, s.cfg.Scan.Partitions, s.iteratorOptions(), fn)
}

// Close waits for asynchronous hook listeners, flushes pending spans and
// closes the log file, if any. It is safe to call Close more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.hooks != nil {
			s.hooks.Stop()
		}
		s.cleanupTracing()
		if s.logCloser != nil {
			err = s.logCloser.Close()
		}
	})
	return err
}
