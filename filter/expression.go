package filter

import (
	"bytes"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/keyparser"
	"github.com/INLOpen/docseek/rangeprovider"
)

// ExpressionFilter hands each key to the predicate registered for its base
// field. Keys of fields without a predicate are not evaluated. Every key is
// kept by default.
type ExpressionFilter struct {
	predicates Predicates
	provider   rangeprovider.Provider
}

// NewExpressionFilter builds a filter over predicates. A nil provider scopes
// ranges to a single document.
func NewExpressionFilter(predicates Predicates, provider rangeprovider.Provider) *ExpressionFilter {
	if predicates == nil {
		predicates = Predicates{}
	}
	if provider == nil {
		provider = rangeprovider.NewDocument()
	}
	return &ExpressionFilter{predicates: predicates, provider: provider}
}

// Fields returns the fields the expression references.
func (f *ExpressionFilter) Fields() *core.FieldSet {
	return f.predicates.Fields()
}

func (f *ExpressionFilter) evaluate(k core.Key, update bool) (bool, error) {
	pk, err := keyparser.Parse(k)
	if err != nil {
		return false, err
	}
	return f.evaluateParsed(k, pk, update), nil
}

func (f *ExpressionFilter) evaluateParsed(k core.Key, pk keyparser.ParsedKey, update bool) bool {
	pred, ok := f.predicates[pk.Field]
	if !ok {
		return false
	}
	if update {
		return pred.Apply(k, pk.Field, pk.Value)
	}
	return pred.Peek(k, pk.Field, pk.Value)
}

func (f *ExpressionFilter) Apply(e core.Entry) (bool, error) { return f.evaluate(e.Key, true) }

func (f *ExpressionFilter) Peek(e core.Entry) (bool, error) { return f.evaluate(e.Key, false) }

func (f *ExpressionFilter) Keep(core.Key) (bool, error) { return true, nil }

func (f *ExpressionFilter) StartNewDocument(core.Key) error {
	for _, pred := range f.predicates {
		pred.Reset()
	}
	return nil
}

func (f *ExpressionFilter) StartKey(k core.Key) (core.Key, error) { return f.provider.StartKey(k) }

func (f *ExpressionFilter) StopKey(k core.Key) (core.Key, error) { return f.provider.StopKey(k) }

func (f *ExpressionFilter) KeyRange(k core.Key) (core.Range, error) { return f.provider.Range(k) }

func (f *ExpressionFilter) Clone() Filter { return f.clone() }

func (f *ExpressionFilter) clone() *ExpressionFilter {
	return &ExpressionFilter{predicates: f.predicates.Clone(), provider: f.provider}
}

// AncestorFilter evaluates a document together with its ancestors but keeps
// only the keys of the document itself.
type AncestorFilter struct {
	*ExpressionFilter
	format      core.UIDFormat
	documentUID string
	started     bool
}

// NewAncestorFilter builds an ancestor filter ranging from the root document
// down to the document under evaluation.
func NewAncestorFilter(predicates Predicates, format core.UIDFormat) *AncestorFilter {
	return &AncestorFilter{ExpressionFilter: NewExpressionFilter(predicates, rangeprovider.NewAncestor(format)), format: format}
}

// ScopedDocument recovers the document an ancestor range was built for from
// its stop key, dt NUL uid NUL. The range start must be that document or one
// of its ancestors.
func (f *AncestorFilter) ScopedDocument(r core.Range) (core.Key, bool, error) {
	if r.End == nil || r.EndInclusive || len(r.End.ColumnQualifier) != 0 {
		return core.Key{}, false, nil
	}
	family, found := bytes.CutSuffix(r.End.ColumnFamily, []byte{0})
	if !found {
		return core.Key{}, false, nil
	}
	doc := core.NewKeyBytes(r.End.Row, family, nil)
	_, uid, err := keyparser.ParseDocument(doc)
	if err != nil {
		return core.Key{}, false, err
	}
	if r.Start != nil {
		_, startUID, err := keyparser.ParseDocument(*r.Start)
		if err != nil {
			return core.Key{}, false, err
		}
		if startUID != uid && !f.format.IsDescendant(uid, startUID) {
			return core.Key{}, false, nil
		}
	}
	return doc, true, nil
}

func (f *AncestorFilter) StartNewDocument(documentKey core.Key) error {
	_, uid, err := keyparser.ParseDocument(documentKey)
	if err != nil {
		return err
	}
	f.documentUID, f.started = uid, true
	return f.ExpressionFilter.StartNewDocument(documentKey)
}

func (f *AncestorFilter) Keep(k core.Key) (bool, error) {
	if !f.started {
		return true, nil
	}
	_, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return false, err
	}
	return uid == f.documentUID, nil
}

func (f *AncestorFilter) Clone() Filter {
	return &AncestorFilter{ExpressionFilter: f.ExpressionFilter.clone(), format: f.format}
}

// ParentFilter evaluates a parent document without returning any of its
// keys; the parent is fetched on its own when it has to be returned.
type ParentFilter struct {
	*ExpressionFilter
}

func NewParentFilter(predicates Predicates, provider rangeprovider.Provider) *ParentFilter {
	return &ParentFilter{ExpressionFilter: NewExpressionFilter(predicates, provider)}
}

func (f *ParentFilter) Keep(core.Key) (bool, error) { return false, nil }

func (f *ParentFilter) Clone() Filter {
	return &ParentFilter{ExpressionFilter: f.ExpressionFilter.clone()}
}

// TermFrequencyFilter keeps a term frequency key only when its value
// satisfies the field's predicate.
type TermFrequencyFilter struct {
	*ExpressionFilter
}

func NewTermFrequencyFilter(predicates Predicates, provider rangeprovider.Provider) *TermFrequencyFilter {
	return &TermFrequencyFilter{ExpressionFilter: NewExpressionFilter(predicates, provider)}
}

func (f *TermFrequencyFilter) Keep(k core.Key) (bool, error) {
	return f.Peek(core.Entry{Key: k})
}

func (f *TermFrequencyFilter) Clone() Filter {
	return &TermFrequencyFilter{ExpressionFilter: f.ExpressionFilter.clone()}
}
