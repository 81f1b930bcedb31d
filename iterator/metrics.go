package iterator

import (
	"expvar"
	"fmt"
	"sync"

	"github.com/caio/go-tdigest/v4"
)

// ScanMetrics holds the expvar variables updated by document scans. One
// instance may be shared by many concurrent scans.
type ScanMetrics struct {
	PublishedGlobally bool // Indicates if the metrics are published to the global expvar namespace.

	KeysVisitedTotal     *expvar.Int
	KeysEvaluatedTotal   *expvar.Int
	KeysReturnedTotal    *expvar.Int
	KeysTransformedTotal *expvar.Int
	SeeksTotal           *expvar.Int
	SeeksVetoedTotal     *expvar.Int
	DocumentsTotal       *expvar.Int
	ScansTotal           *expvar.Int
	ScanErrorsTotal      *expvar.Int

	ParserCacheHits   *expvar.Int
	ParserCacheMisses *expvar.Int

	// KeysPerDocument exposes p50, p90 and p99 of the keys visited per
	// emitted document.
	KeysPerDocument *expvar.Map

	mu sync.Mutex
	td *tdigest.TDigest
}

// publishExpvarInt safely publishes an expvar.Int.
func publishExpvarInt(name string) *expvar.Int {
	v := expvar.Get(name)
	if v == nil {
		return expvar.NewInt(name)
	}
	if iv, ok := v.(*expvar.Int); ok {
		iv.Set(0)
		return iv
	}
	panic(fmt.Sprintf("expvar: trying to publish Int %s but variable already exists with different type %T", name, v))
}

// publishExpvarMap safely publishes an expvar.Map.
func publishExpvarMap(name string) *expvar.Map {
	v := expvar.Get(name)
	if v == nil {
		return expvar.NewMap(name)
	}
	if mv, ok := v.(*expvar.Map); ok {
		return mv
	}
	panic(fmt.Sprintf("expvar: trying to publish Map %s but variable already exists with different type %T", name, v))
}

// NewScanMetrics creates scan metrics. When publishGlobally is true the
// variables are registered in the global expvar namespace under prefix.
func NewScanMetrics(publishGlobally bool, prefix string) (*ScanMetrics, error) {
	var newIntFunc func(string) *expvar.Int
	var newMapFunc func(string) *expvar.Map

	if publishGlobally {
		newIntFunc = publishExpvarInt
		newMapFunc = publishExpvarMap
	} else {
		newIntFunc = func(_ string) *expvar.Int { return new(expvar.Int) }
		newMapFunc = func(_ string) *expvar.Map {
			m := new(expvar.Map)
			m.Init()
			return m
		}
	}

	td, err := tdigest.New()
	if err != nil {
		return nil, fmt.Errorf("tdigest.New failed: %w", err)
	}

	return &ScanMetrics{
		PublishedGlobally:    publishGlobally,
		KeysVisitedTotal:     newIntFunc(prefix + "keys_visited_total"),
		KeysEvaluatedTotal:   newIntFunc(prefix + "keys_evaluated_total"),
		KeysReturnedTotal:    newIntFunc(prefix + "keys_returned_total"),
		KeysTransformedTotal: newIntFunc(prefix + "keys_transformed_total"),
		SeeksTotal:           newIntFunc(prefix + "seeks_total"),
		SeeksVetoedTotal:     newIntFunc(prefix + "seeks_vetoed_total"),
		DocumentsTotal:       newIntFunc(prefix + "documents_total"),
		ScansTotal:           newIntFunc(prefix + "scans_total"),
		ScanErrorsTotal:      newIntFunc(prefix + "scan_errors_total"),
		ParserCacheHits:      newIntFunc(prefix + "parser_cache_hits_total"),
		ParserCacheMisses:    newIntFunc(prefix + "parser_cache_misses_total"),
		KeysPerDocument:      newMapFunc(prefix + "keys_per_document"),
		td:                   td,
	}, nil
}

// observeDocument records the keys visited for one emitted document.
func (m *ScanMetrics) observeDocument(keysVisited int) error {
	m.DocumentsTotal.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.td.AddWeighted(float64(keysVisited), 1); err != nil {
		return fmt.Errorf("tdigest AddWeighted failed: %w", err)
	}
	for _, q := range []struct {
		name string
		q    float64
	}{{"p50", 0.5}, {"p90", 0.9}, {"p99", 0.99}} {
		f := new(expvar.Float)
		f.Set(m.td.Quantile(q.q))
		m.KeysPerDocument.Set(q.name, f)
	}
	return nil
}

// KeysPerDocumentQuantile returns the q-quantile of keys visited per
// document, or 0 before any document was observed.
func (m *ScanMetrics) KeysPerDocumentQuantile(q float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.td.Count() == 0 {
		return 0
	}
	return m.td.Quantile(q)
}
