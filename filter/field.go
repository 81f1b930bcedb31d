package filter

import (
	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/keyparser"
	"github.com/INLOpen/docseek/rangeprovider"
)

// FieldFilter retains the event keys of a fixed field set in flat documents.
// After more than maxNextCount consecutive keys of a field outside the set it
// suggests seeking to the next retained field, or past the document.
type FieldFilter struct {
	fields       *core.FieldSet
	maxNextCount int
	provider     rangeprovider.Provider

	currentField string
	missCount    int
}

// NewFieldFilter builds a field filter. A maxNextCount of -1 disables seeking.
func NewFieldFilter(fields *core.FieldSet, maxNextCount int) (*FieldFilter, error) {
	if maxNextCount < -1 {
		return nil, &core.ConfigurationConflictError{Setting: "max_next_count", Message: "must be -1 or greater"}
	}
	return &FieldFilter{fields: fields, maxNextCount: maxNextCount, provider: rangeprovider.NewDocument()}, nil
}

func (f *FieldFilter) parseEvent(k core.Key) (keyparser.ParsedKey, bool, error) {
	if keyparser.ShapeOf(k) != keyparser.ShapeEvent {
		return keyparser.ParsedKey{}, false, nil
	}
	pk, err := keyparser.EventKeyParser{}.Parse(k)
	if err != nil {
		return keyparser.ParsedKey{}, false, err
	}
	return pk, true, nil
}

func (f *FieldFilter) Apply(e core.Entry) (bool, error) {
	pk, ok, err := f.parseEvent(e.Key)
	if err != nil || !ok {
		return false, err
	}
	if f.fields.Contains(pk.Field) {
		f.currentField, f.missCount = pk.Field, 0
		return true, nil
	}
	if pk.Field == f.currentField {
		f.missCount++
	} else {
		f.currentField, f.missCount = pk.Field, 1
	}
	return false, nil
}

func (f *FieldFilter) Peek(e core.Entry) (bool, error) {
	pk, ok, err := f.parseEvent(e.Key)
	if err != nil || !ok {
		return false, err
	}
	return f.fields.Contains(pk.Field), nil
}

func (f *FieldFilter) Keep(k core.Key) (bool, error) {
	return f.Peek(core.Entry{Key: k})
}

func (f *FieldFilter) StartNewDocument(core.Key) error {
	f.currentField, f.missCount = "", 0
	return nil
}

func (f *FieldFilter) StartKey(k core.Key) (core.Key, error) { return f.provider.StartKey(k) }

func (f *FieldFilter) StopKey(k core.Key) (core.Key, error) { return f.provider.StopKey(k) }

func (f *FieldFilter) KeyRange(k core.Key) (core.Range, error) { return f.provider.Range(k) }

func (f *FieldFilter) MaxNextCount() int { return f.maxNextCount }

func (f *FieldFilter) SeekRange(current core.Key, end *core.Key, endInclusive bool) (*core.Range, error) {
	if f.maxNextCount == -1 || f.missCount <= f.maxNextCount {
		return nil, nil
	}
	pk, ok, err := f.parseEvent(current)
	if err != nil || !ok {
		return nil, err
	}
	if next, found := f.fields.Higher(pk.RawField); found {
		return seekTo(fieldStartKey(current, next), true, end, endInclusive), nil
	}
	return rollover(current, end, endInclusive), nil
}

func (f *FieldFilter) Clone() Filter {
	return &FieldFilter{fields: f.fields, maxNextCount: f.maxNextCount, provider: f.provider}
}
