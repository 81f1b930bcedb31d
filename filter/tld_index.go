package filter

import (
	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/keyparser"
)

// fieldIndexRollover sorts after every field index family of a row.
const fieldIndexRollover = "fi\x01"

// TLDFieldIndexFilter evaluates the field index keys of a top level document.
// Only query fields are evaluated; a key is returned only for non-event query
// fields whose value satisfies the expression.
type TLDFieldIndexFilter struct {
	tld *TLDFilter
}

func NewTLDFieldIndexFilter(predicates Predicates, opts TLDOptions) (*TLDFieldIndexFilter, error) {
	tld, err := NewTLDFilter(predicates, opts)
	if err != nil {
		return nil, err
	}
	return &TLDFieldIndexFilter{tld: tld}, nil
}

func (f *TLDFieldIndexFilter) parse(k core.Key) (keyparser.ParsedKey, bool, error) {
	pk, _, err := f.tld.parse(k)
	if err != nil {
		return keyparser.ParsedKey{}, false, err
	}
	return pk, pk.Shape == keyparser.ShapeFieldIndex, nil
}

func (f *TLDFieldIndexFilter) evaluate(e core.Entry, update bool) (bool, error) {
	pk, ok, err := f.parse(e.Key)
	if err != nil || !ok {
		return false, err
	}
	result := f.tld.cfg.queryFields.Contains(pk.Field) && f.tld.expr.evaluateParsed(e.Key, pk, update)
	if update {
		f.tld.updateSeekCounters(pk.Field, result)
	}
	return result, nil
}

func (f *TLDFieldIndexFilter) Apply(e core.Entry) (bool, error) { return f.evaluate(e, true) }

func (f *TLDFieldIndexFilter) Peek(e core.Entry) (bool, error) { return f.evaluate(e, false) }

func (f *TLDFieldIndexFilter) Keep(k core.Key) (bool, error) {
	pk, ok, err := f.parse(k)
	if err != nil || !ok {
		return false, err
	}
	if !f.tld.cfg.nonEventFields.Contains(pk.Field) {
		return false, nil
	}
	return f.evaluate(core.Entry{Key: k}, false)
}

func (f *TLDFieldIndexFilter) StartNewDocument(documentKey core.Key) error {
	return f.tld.StartNewDocument(documentKey)
}

func (f *TLDFieldIndexFilter) StartKey(k core.Key) (core.Key, error) { return f.tld.StartKey(k) }

func (f *TLDFieldIndexFilter) StopKey(k core.Key) (core.Key, error) { return f.tld.StopKey(k) }

func (f *TLDFieldIndexFilter) KeyRange(k core.Key) (core.Range, error) { return f.tld.KeyRange(k) }

func (f *TLDFieldIndexFilter) MaxNextCount() int { return f.tld.MaxNextCount() }

// SeekRange moves from a field index of a field the query does not use to
// the index of the next query field, or past every field index of the row.
func (f *TLDFieldIndexFilter) SeekRange(current core.Key, end *core.Key, endInclusive bool) (*core.Range, error) {
	pk, ok, err := f.parse(current)
	if err != nil || !ok {
		return nil, err
	}
	if f.tld.bypassSeek() || f.tld.cfg.queryFields.Contains(pk.Field) {
		return nil, nil
	}
	family := fieldIndexRollover
	if next, found := f.tld.cfg.queryFields.Higher(pk.RawField); found {
		family = keyparser.FieldIndexFamily(next)
	}
	start := core.NewKeyBytes(current.Row, []byte(family), nil)
	r := seekTo(start, true, end, endInclusive)
	f.tld.cfg.logger.Debug("Suggesting field index seek", "current", current, "range", r)
	return r, nil
}

func (f *TLDFieldIndexFilter) Clone() Filter {
	return &TLDFieldIndexFilter{tld: f.tld.clone()}
}

// TLDTermFrequencyFilter evaluates the term frequency keys of query fields
// and returns only those whose value satisfies the expression. It never
// suggests seeks.
type TLDTermFrequencyFilter struct {
	tld *TLDFilter
}

func NewTLDTermFrequencyFilter(predicates Predicates, opts TLDOptions) (*TLDTermFrequencyFilter, error) {
	tld, err := NewTLDFilter(predicates, opts)
	if err != nil {
		return nil, err
	}
	return &TLDTermFrequencyFilter{tld: tld}, nil
}

func (f *TLDTermFrequencyFilter) evaluate(e core.Entry, update bool) (bool, error) {
	pk, _, err := f.tld.parse(e.Key)
	if err != nil || pk.Shape != keyparser.ShapeTermFrequency {
		return false, err
	}
	return f.tld.cfg.queryFields.Contains(pk.Field) && f.tld.expr.evaluateParsed(e.Key, pk, update), nil
}

func (f *TLDTermFrequencyFilter) Apply(e core.Entry) (bool, error) { return f.evaluate(e, true) }

func (f *TLDTermFrequencyFilter) Peek(e core.Entry) (bool, error) { return f.evaluate(e, false) }

func (f *TLDTermFrequencyFilter) Keep(k core.Key) (bool, error) {
	return f.evaluate(core.Entry{Key: k}, false)
}

func (f *TLDTermFrequencyFilter) StartNewDocument(documentKey core.Key) error {
	return f.tld.StartNewDocument(documentKey)
}

func (f *TLDTermFrequencyFilter) StartKey(k core.Key) (core.Key, error) { return f.tld.StartKey(k) }

func (f *TLDTermFrequencyFilter) StopKey(k core.Key) (core.Key, error) { return f.tld.StopKey(k) }

func (f *TLDTermFrequencyFilter) KeyRange(k core.Key) (core.Range, error) { return f.tld.KeyRange(k) }

func (f *TLDTermFrequencyFilter) Clone() Filter {
	return &TLDTermFrequencyFilter{tld: f.tld.clone()}
}
