package filter

import (
	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/keyparser"
)

// Configurable evaluates with either an expression filter or a field filter,
// chosen when it is built. Document ranges are computed here rather than by
// the selected filter, and it never suggests seeks or transformations.
type Configurable struct {
	filter        Filter
	useExpression bool
}

// NewConfigurable selects expression when useExpression is set and fields
// otherwise. The selected filter must not be nil.
func NewConfigurable(useExpression bool, expression *ExpressionFilter, fields *FieldFilter) (*Configurable, error) {
	var selected Filter
	switch {
	case useExpression && expression != nil:
		selected = expression
	case !useExpression && fields != nil:
		selected = fields
	default:
		return nil, &core.ConfigurationConflictError{Setting: "configurable", Message: "the selected filter is not configured"}
	}
	return &Configurable{filter: selected, useExpression: useExpression}, nil
}

// UsesExpression reports which filter was selected.
func (c *Configurable) UsesExpression() bool { return c.useExpression }

func (c *Configurable) Apply(e core.Entry) (bool, error) { return c.filter.Apply(e) }

func (c *Configurable) Peek(e core.Entry) (bool, error) { return c.filter.Peek(e) }

func (c *Configurable) Keep(k core.Key) (bool, error) { return c.filter.Keep(k) }

func (c *Configurable) StartNewDocument(documentKey core.Key) error {
	return c.filter.StartNewDocument(documentKey)
}

// StartKey is the first key of the key's own document.
func (c *Configurable) StartKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return core.NewKeyBytes(k.Row, []byte(dt+"\x00"+uid), nil), nil
}

// StopKey excludes the descendants of the key's document.
func (c *Configurable) StopKey(k core.Key) (core.Key, error) {
	dt, uid, err := keyparser.ParseDocument(k)
	if err != nil {
		return core.Key{}, err
	}
	return core.NewKeyBytes(k.Row, []byte(dt+"\x00"+uid+"\x00"), nil), nil
}

func (c *Configurable) KeyRange(k core.Key) (core.Range, error) {
	start, err := c.StartKey(k)
	if err != nil {
		return core.Range{}, err
	}
	stop, err := c.StopKey(k)
	if err != nil {
		return core.Range{}, err
	}
	return core.NewRange(&start, true, &stop, false), nil
}

func (c *Configurable) SeekRange(core.Key, *core.Key, bool) (*core.Range, error) { return nil, nil }

func (c *Configurable) MaxNextCount() int { return -1 }

func (c *Configurable) Transform(core.Key) (*core.Key, error) { return nil, nil }

func (c *Configurable) Clone() Filter {
	return &Configurable{filter: c.filter.Clone(), useExpression: c.useExpression}
}
