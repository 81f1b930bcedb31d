package filter

import (
	"log/slog"

	"github.com/INLOpen/docseek/config"
	"github.com/INLOpen/docseek/core"
	"github.com/INLOpen/docseek/rangeprovider"
)

// Build constructs the filter selected by cfg.Mode. Predicates come from the
// expression evaluator and may be nil for the field mode.
func Build(cfg config.FilterConfig, predicates Predicates, logger *slog.Logger) (Filter, error) {
	format := core.UIDFormat{RootSegments: cfg.UIDRootSegments}
	if format.RootSegments == 0 {
		format = core.DefaultUIDFormat
	}
	if cfg.UIDRootSegments < 0 {
		return nil, &core.ConfigurationConflictError{Setting: "uid_root_segments", Message: "must not be negative"}
	}

	tldOpts := TLDOptions{
		QueryFields:         cfg.QueryFields,
		Allowlist:           cfg.Allowlist,
		Disallowlist:        cfg.Disallowlist,
		NonEventFields:      cfg.NonEventFields,
		FieldLimits:         cfg.FieldLimits,
		LimitField:          cfg.LimitField,
		MaxFieldsBeforeSeek: cfg.MaxFieldsBeforeSeek,
		MaxKeysBeforeSeek:   cfg.MaxKeysBeforeSeek,
		UIDFormat:           format,
		Logger:              logger,
	}

	var (
		f   Filter
		err error
	)
	switch cfg.Mode {
	case "field":
		f, err = fieldFilter(cfg)
	case "expression":
		f = NewExpressionFilter(predicates, rangeprovider.NewDocument())
	case "configurable":
		f, err = configurableFilter(cfg, predicates)
	case "ancestor":
		f = NewAncestorFilter(predicates, format)
	case "parent":
		f = NewParentFilter(predicates, rangeprovider.NewDocument())
	case "term_frequency":
		f = NewTermFrequencyFilter(predicates, rangeprovider.NewDocument())
	case "tld", "":
		f, err = checked(NewTLDFilter(predicates, tldOpts))
	case "tld_field_index":
		f, err = checked(NewTLDFieldIndexFilter(predicates, tldOpts))
	case "tld_term_frequency":
		f, err = checked(NewTLDTermFrequencyFilter(predicates, tldOpts))
	default:
		err = &core.ConfigurationConflictError{Setting: "mode", Message: "unknown filter mode " + cfg.Mode}
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// checked drops the typed nil a failed constructor returns.
func checked[T Filter](f T, err error) (Filter, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}

func fieldFilter(cfg config.FilterConfig) (Filter, error) {
	return checked(NewFieldFilter(core.NewFieldSet(cfg.Fields...), cfg.MaxNextCount))
}

func configurableFilter(cfg config.FilterConfig, predicates Predicates) (Filter, error) {
	fields, err := NewFieldFilter(core.NewFieldSet(cfg.Fields...), cfg.MaxNextCount)
	if err != nil {
		return nil, err
	}
	return checked(NewConfigurable(cfg.UseExpression, NewExpressionFilter(predicates, nil), fields))
}
