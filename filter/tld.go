package filter

import (
	"io"
	"log/slog"

	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/keyparser"
	"github.com/INLOpen/docseek/rangeprovider"
)

// TLDOptions configures the hierarchical filters. Field lists hold base field
// names. Use DefaultTLDOptions as a starting point: a zero threshold seeks
// eagerly, -1 disables it.
type TLDOptions struct {
	// QueryFields are the fields the query evaluates. When predicates are
	// also supplied only fields present in both are used.
	QueryFields []string
	// Allowlist restricts the root document fields that are evaluated and
	// returned. Mutually exclusive with Disallowlist.
	Allowlist    []string
	Disallowlist []string
	// NonEventFields are index-only fields; descendant keys are only ever
	// returned for these.
	NonEventFields []string
	// FieldLimits caps the occurrences of a field per document. The
	// core.ANY_FIELD entry applies to fields without a limit of their own.
	// Query fields are never limited.
	FieldLimits map[string]int
	// LimitField names the marker field emitted for keys dropped by a limit.
	LimitField string

	MaxFieldsBeforeSeek int
	MaxKeysBeforeSeek   int

	UIDFormat core.UIDFormat
	Logger    *slog.Logger
}

// DefaultTLDOptions disables seeking and uses the default UID format.
func DefaultTLDOptions() TLDOptions {
	return TLDOptions{
		MaxFieldsBeforeSeek: -1,
		MaxKeysBeforeSeek:   -1,
		UIDFormat:           core.DefaultUIDFormat,
	}
}

// tldConfig is immutable once built and shared by every clone.
type tldConfig struct {
	queryFields    *core.FieldSet
	allowlist      *core.FieldSet
	disallowlist   *core.FieldSet
	nonEventFields *core.FieldSet
	fieldLimits    map[string]int
	anyFieldLimit  int
	limitField     string
	maxFields      int
	maxKeys        int
	format         core.UIDFormat
	provider       *rangeprovider.TLD
	logger         *slog.Logger
}

type fieldHits struct {
	count int
	last  core.Key
}

type parseInfo struct {
	key   core.Key
	valid bool
	pk    keyparser.ParsedKey
	root  bool
}

// TLDFilter filters a top level document and all of its descendants. Root
// keys follow the allow/disallow policy; descendant keys only feed the
// evaluation of query fields and are returned only for non-event fields.
type TLDFilter struct {
	cfg  *tldConfig
	expr *ExpressionFilter

	lastField         string
	fieldCount        int
	lastListSeekIndex int
	keyMissCount      int
	hits              map[string]*fieldHits
	parsed            parseInfo
}

// NewTLDFilter validates opts and builds the filter. Query fields are merged
// into the allowlist and removed from the disallowlist.
func NewTLDFilter(predicates Predicates, opts TLDOptions) (*TLDFilter, error) {
	cfg, err := newTLDConfig(predicates, opts)
	if err != nil {
		return nil, err
	}
	return &TLDFilter{
		cfg:               cfg,
		expr:              NewExpressionFilter(predicates, cfg.provider),
		lastListSeekIndex: -1,
		hits:              make(map[string]*fieldHits),
	}, nil
}

func newTLDConfig(predicates Predicates, opts TLDOptions) (*tldConfig, error) {
	if opts.MaxFieldsBeforeSeek < -1 {
		return nil, &core.ConfigurationConflictError{Setting: "max_fields_before_seek", Message: "must be -1 or greater"}
	}
	if opts.MaxKeysBeforeSeek < -1 {
		return nil, &core.ConfigurationConflictError{Setting: "max_keys_before_seek", Message: "must be -1 or greater"}
	}
	if len(opts.Allowlist) > 0 && len(opts.Disallowlist) > 0 {
		return nil, &core.ConfigurationConflictError{Setting: "allowlist", Message: "allowlist and disallowlist are mutually exclusive"}
	}
	for field, limit := range opts.FieldLimits {
		if limit < 0 {
			return nil, &core.ConfigurationConflictError{Setting: "field_limits", Message: "negative limit for " + field}
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "TLDFilter")

	format := opts.UIDFormat
	if format.RootSegments == 0 {
		format = core.DefaultUIDFormat
	}

	queryFields := core.NewFieldSet(opts.QueryFields...)
	if exprFields := predicates.Fields(); queryFields.Len() == 0 {
		queryFields = exprFields
	} else if exprFields.Len() > 0 {
		queryFields = queryFields.Intersect(exprFields)
	}

	cfg := &tldConfig{
		queryFields:    queryFields,
		nonEventFields: core.NewFieldSet(opts.NonEventFields...),
		fieldLimits:    make(map[string]int, len(opts.FieldLimits)),
		anyFieldLimit:  -1,
		limitField:     opts.LimitField,
		maxFields:      opts.MaxFieldsBeforeSeek,
		maxKeys:        opts.MaxKeysBeforeSeek,
		format:         format,
		provider:       rangeprovider.NewTLD(format),
		logger:         logger,
	}
	for field, limit := range opts.FieldLimits {
		if field == core.ANY_FIELD {
			cfg.anyFieldLimit = limit
			continue
		}
		cfg.fieldLimits[field] = limit
	}

	if len(opts.Allowlist) > 0 {
		cfg.allowlist = core.NewFieldSet(opts.Allowlist...).Union(queryFields)
		if added := queryFields.Minus(core.NewFieldSet(opts.Allowlist...)); added.Len() > 0 {
			logger.Debug("Merged query fields into allowlist", "fields", added.Sorted())
		}
	}
	if len(opts.Disallowlist) > 0 {
		disallow := core.NewFieldSet(opts.Disallowlist...)
		cfg.disallowlist = disallow.Minus(queryFields)
		if removed := disallow.Intersect(queryFields); removed.Len() > 0 {
			logger.Debug("Removed query fields from disallowlist", "fields", removed.Sorted())
		}
	}
	return cfg, nil
}

// parse reuses the previous parse when the same key is seen again.
func (f *TLDFilter) parse(k core.Key) (keyparser.ParsedKey, bool, error) {
	if f.parsed.valid && f.parsed.key.Equal(k) {
		return f.parsed.pk, f.parsed.root, nil
	}
	pk, err := keyparser.Parse(k)
	if err != nil {
		f.parsed.valid = false
		return keyparser.ParsedKey{}, false, err
	}
	root, err := keyparser.IsRootPointer(k, f.cfg.format)
	if err != nil {
		f.parsed.valid = false
		return keyparser.ParsedKey{}, false, err
	}
	f.parsed = parseInfo{key: k.Clone(), valid: true, pk: pk, root: root}
	return pk, f.parsed.root, nil
}

func (f *TLDFilter) limitFor(field string) (int, bool) {
	if limit, ok := f.cfg.fieldLimits[field]; ok {
		return limit, true
	}
	if f.cfg.anyFieldLimit >= 0 {
		return f.cfg.anyFieldLimit, true
	}
	return 0, false
}

// overLimit reports whether k is beyond its field's limit in this document,
// counting k itself even before it has been applied.
func (f *TLDFilter) overLimit(field string, k core.Key) bool {
	limit, ok := f.limitFor(field)
	if !ok || f.cfg.queryFields.Contains(field) {
		return false
	}
	n := 1
	if h, ok := f.hits[field]; ok {
		n = h.count
		if !h.last.Equal(k) {
			n++
		}
	}
	return n > limit
}

// countField records an applied occurrence of a limited field. Applying the
// same key twice counts once.
func (f *TLDFilter) countField(field string, k core.Key) {
	if _, ok := f.limitFor(field); !ok || f.cfg.queryFields.Contains(field) {
		return
	}
	h, ok := f.hits[field]
	if !ok {
		h = &fieldHits{}
		f.hits[field] = h
	} else if h.last.Equal(k) {
		return
	}
	h.count++
	h.last = k.Clone()
}

func (f *TLDFilter) keepField(field string, root bool, k core.Key) bool {
	if f.overLimit(field, k) {
		return false
	}
	if !root {
		return f.cfg.queryFields.Contains(field)
	}
	switch {
	case f.cfg.allowlist != nil:
		return f.cfg.allowlist.Contains(field)
	case f.cfg.disallowlist != nil:
		return !f.cfg.disallowlist.Contains(field)
	}
	return true
}

func (f *TLDFilter) evaluate(e core.Entry, update bool) (bool, error) {
	pk, root, err := f.parse(e.Key)
	if err != nil {
		return false, err
	}
	if update && len(e.Key.ColumnQualifier) > 0 {
		f.countField(pk.Field, e.Key)
	}
	var result bool
	switch {
	case root && len(e.Key.ColumnQualifier) == 0:
		result = true
	case root:
		result = f.keepField(pk.Field, true, e.Key)
	default:
		result = f.keepField(pk.Field, false, e.Key) && f.expr.evaluateParsed(e.Key, pk, update)
	}
	if update {
		f.updateSeekCounters(pk.Field, result)
	}
	return result, nil
}

func (f *TLDFilter) updateSeekCounters(field string, result bool) {
	if field == f.lastField {
		f.fieldCount++
	} else {
		f.lastField, f.fieldCount = field, 1
	}
	if result {
		f.keyMissCount = 0
	} else {
		f.keyMissCount++
	}
}

func (f *TLDFilter) Apply(e core.Entry) (bool, error) { return f.evaluate(e, true) }

func (f *TLDFilter) Peek(e core.Entry) (bool, error) { return f.evaluate(e, false) }

func (f *TLDFilter) Keep(k core.Key) (bool, error) {
	pk, root, err := f.parse(k)
	if err != nil {
		return false, err
	}
	if root {
		return len(k.ColumnQualifier) == 0 || f.keepField(pk.Field, true, k), nil
	}
	if !f.cfg.nonEventFields.Contains(pk.Field) || !f.keepField(pk.Field, false, k) {
		return false, nil
	}
	return f.expr.evaluateParsed(k, pk, false), nil
}

func (f *TLDFilter) StartNewDocument(documentKey core.Key) error {
	f.lastField, f.fieldCount = "", 0
	f.lastListSeekIndex = -1
	f.keyMissCount = 0
	clear(f.hits)
	return f.expr.StartNewDocument(documentKey)
}

func (f *TLDFilter) StartKey(k core.Key) (core.Key, error) { return f.cfg.provider.StartKey(k) }

func (f *TLDFilter) StopKey(k core.Key) (core.Key, error) { return f.cfg.provider.StopKey(k) }

func (f *TLDFilter) KeyRange(k core.Key) (core.Range, error) { return f.cfg.provider.Range(k) }

func (f *TLDFilter) bypassSeek() bool {
	return (f.cfg.maxFields == -1 || f.fieldCount < f.cfg.maxFields) &&
		(f.cfg.maxKeys == -1 || f.keyMissCount < f.cfg.maxKeys)
}

func (f *TLDFilter) MaxNextCount() int {
	switch {
	case f.cfg.maxFields == -1:
		return f.cfg.maxKeys
	case f.cfg.maxKeys == -1:
		return f.cfg.maxFields
	}
	return min(f.cfg.maxFields, f.cfg.maxKeys)
}

func (f *TLDFilter) SeekRange(current core.Key, end *core.Key, endInclusive bool) (*core.Range, error) {
	pk, root, err := f.parse(current)
	if err != nil {
		return nil, err
	}
	if f.bypassSeek() {
		return nil, nil
	}
	var r *core.Range
	switch {
	case root && len(current.ColumnQualifier) == 0:
		return nil, nil
	case root:
		r = f.listSeek(current, pk, end, endInclusive)
	default:
		idx := -1
		r = allowlistSeek(current, pk, f.cfg.queryFields.Sorted(), &idx, end, endInclusive)
	}
	if r != nil {
		f.cfg.logger.Debug("Suggesting seek", "current", current, "range", r, "field", pk.Field, "root", root)
	}
	return r, nil
}

func (f *TLDFilter) listSeek(current core.Key, pk keyparser.ParsedKey, end *core.Key, endInclusive bool) *core.Range {
	if f.overLimit(pk.Field, current) {
		return seekTo(pastFieldKey(current, pk.RawField), false, end, endInclusive)
	}
	switch {
	case f.cfg.allowlist != nil:
		return allowlistSeek(current, pk, f.cfg.allowlist.Sorted(), &f.lastListSeekIndex, end, endInclusive)
	case f.cfg.disallowlist != nil:
		return disallowlistSeek(current, pk, f.cfg.disallowlist.Sorted(), &f.lastListSeekIndex, end, endInclusive)
	}
	return nil
}

// listStart resumes a list scan at the cached index unless the field moved
// back before it, as happens when a new document starts.
func listStart(list []string, field string, idx int) int {
	if idx >= 0 && idx < len(list) && field >= list[idx] {
		return idx
	}
	return 0
}

// allowlistSeek returns nil when the field is listed, seeks to the next
// listed field, or rolls over to the next column family when none remains.
func allowlistSeek(current core.Key, pk keyparser.ParsedKey, list []string, idx *int, end *core.Key, endInclusive bool) *core.Range {
	for i := listStart(list, pk.Field, *idx); i < len(list); i++ {
		if list[i] == pk.Field {
			*idx = i
			return nil
		}
		if pk.RawField < list[i] {
			*idx = i
			return seekTo(fieldStartKey(current, list[i]), true, end, endInclusive)
		}
	}
	*idx = -1
	return rollover(current, end, endInclusive)
}

// disallowlistSeek skips the rest of a disallowed field and returns nil for
// any other field.
func disallowlistSeek(current core.Key, pk keyparser.ParsedKey, list []string, idx *int, end *core.Key, endInclusive bool) *core.Range {
	for i := listStart(list, pk.Field, *idx); i < len(list); i++ {
		if list[i] == pk.Field {
			*idx = i
			return seekTo(pastFieldKey(current, pk.RawField), false, end, endInclusive)
		}
		if pk.Field < list[i] {
			*idx = i
			return nil
		}
	}
	return nil
}

// Transform replaces a key dropped by a field limit with a marker key
// carrying the limited field's name.
func (f *TLDFilter) Transform(k core.Key) (*core.Key, error) {
	if f.cfg.limitField == "" {
		return nil, nil
	}
	pk, _, err := f.parse(k)
	if err != nil {
		return nil, err
	}
	if !f.overLimit(pk.Field, k) {
		return nil, nil
	}
	marker := core.NewKeyBytes(k.Row, k.ColumnFamily, []byte(f.cfg.limitField+"\x00"+pk.Field))
	return &marker, nil
}

func (f *TLDFilter) Clone() Filter { return f.clone() }

func (f *TLDFilter) clone() *TLDFilter {
	return &TLDFilter{
		cfg:               f.cfg,
		expr:              f.expr.clone(),
		lastListSeekIndex: -1,
		hits:              make(map[string]*fieldHits),
	}
}

// QueryFields returns the fields evaluated for descendant documents.
func (f *TLDFilter) QueryFields() *core.FieldSet { return f.cfg.queryFields }
