// Package rangeprovider computes the key range covering the document a key
// belongs to. Field index and term frequency keys are mapped onto the event
// keys of the same document.
package rangeprovider

import (
	"fmt"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/keyparser"
)

// Provider computes the boundaries of the document containing a key. The
// start key is identical for every key sharing the provider's boundary, and
// the range is [start, stop).
type Provider interface {
	StartKey(k core.Key) (core.Key, error)
	StopKey(k core.Key) (core.Key, error)
	Range(k core.Key) (core.Range, error)
}

func documentKey(row []byte, family string) core.Key {
	return core.NewKeyBytes(row, []byte(family), nil)
}

func makeRange(p Provider, k core.Key) (core.Range, error) {
	start, err := p.StartKey(k)
	if err != nil {
		return core.Range{}, fmt.Errorf("failed to compute start key: %w", err)
	}
	stop, err := p.StopKey(k)
	if err != nil {
		return core.Range{}, fmt.Errorf("failed to compute stop key: %w", err)
	}
	return core.Range{Start: &start, StartInclusive: true, End: &stop, EndInclusive: false}, nil
}

// Document bounds exactly one UID. Descendants fall outside the range.
type Document struct{}

// NewDocument returns a provider scoped to a single document.
func NewDocument() *Document { return &Document{} }

func (d *Document) StartKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return documentKey(k.Row, dt+"\x00"+uid), nil
}

func (d *Document) StopKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return documentKey(k.Row, dt+"\x00"+uid+"\x00"), nil
}

func (d *Document) Range(k core.Key) (core.Range, error) { return makeRange(d, k) }

// TLD bounds a root document together with all of its descendants.
type TLD struct {
	format core.UIDFormat
}

// NewTLD returns a provider scoped to the top level document of a key.
func NewTLD(format core.UIDFormat) *TLD { return &TLD{format: format} }

func (t *TLD) StartKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return documentKey(k.Row, dt+"\x00"+t.format.Root(uid)), nil
}

func (t *TLD) StopKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return documentKey(k.Row, dt+"\x00"+t.format.Root(uid)+"\xff"), nil
}

func (t *TLD) Range(k core.Key) (core.Range, error) { return makeRange(t, k) }

// Ancestor starts at the root document and stops just after the key's own
// document, so the ancestors of a key are covered and its descendants are not.
type Ancestor struct {
	format core.UIDFormat
}

// NewAncestor returns a provider covering a document and its ancestors.
func NewAncestor(format core.UIDFormat) *Ancestor { return &Ancestor{format: format} }

func (a *Ancestor) StartKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return documentKey(k.Row, dt+"\x00"+a.format.Root(uid)), nil
}

func (a *Ancestor) StopKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return documentKey(k.Row, dt+"\x00"+uid+"\x00"), nil
}

func (a *Ancestor) Range(k core.Key) (core.Range, error) { return makeRange(a, k) }
