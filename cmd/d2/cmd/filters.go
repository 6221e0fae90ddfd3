package cmd

import (
	"strings"

	"github.com/nagyist/d2/pkg/model"
	"github.com/pkg/errors"
)

type filterOp func(ff *model.FilterField, value string) model.Definition

var valueOps = map[string]filterOp{
	"eq":    func(ff *model.FilterField, v string) model.Definition { return ff.Eq(v) },
	"!eq":   func(ff *model.FilterField, v string) model.Definition { return ff.NotEquals(v) },
	"like":  func(ff *model.FilterField, v string) model.Definition { return ff.Like(v) },
	"!like": func(ff *model.FilterField, v string) model.Definition { return ff.NotLike(v) },
	"ilike": func(ff *model.FilterField, v string) model.Definition { return ff.ILike(v) },
	"$like": func(ff *model.FilterField, v string) model.Definition { return ff.StartsWith(v) },
	"like$": func(ff *model.FilterField, v string) model.Definition { return ff.EndsWith(v) },
	"gt":    func(ff *model.FilterField, v string) model.Definition { return ff.Gt(v) },
	"ge":    func(ff *model.FilterField, v string) model.Definition { return ff.Ge(v) },
	"lt":    func(ff *model.FilterField, v string) model.Definition { return ff.Lt(v) },
	"le":    func(ff *model.FilterField, v string) model.Definition { return ff.Le(v) },
	"in":    func(ff *model.FilterField, v string) model.Definition { return ff.In(splitList(v)) },
	"!in":   func(ff *model.FilterField, v string) model.Definition { return ff.NotIn(splitList(v)) },
}

var unaryOps = map[string]func(ff *model.FilterField) model.Definition{
	"null":  (*model.FilterField).Null,
	"!null": (*model.FilterField).NotNull,
	"empty": (*model.FilterField).Empty,
}

// applyFilters adds each "field:operator[:value]" expression to the filter chain
// of a clone of def.
func applyFilters(def model.Definition, exprs []string) (model.Definition, error) {
	for _, expr := range exprs {
		parts := strings.SplitN(expr, ":", 3)
		if len(parts) < 2 || parts[0] == "" {
			return nil, errors.Errorf("invalid filter %q, expected field:operator:value", expr)
		}

		field, op := parts[0], parts[1]
		if unary, ok := unaryOps[op]; ok {
			def = unary(def.Filter().On(field))
			continue
		}

		valueOp, ok := valueOps[op]
		if !ok {
			return nil, errors.Errorf("unknown filter operator %q in %q", op, expr)
		}

		if len(parts) != 3 {
			return nil, errors.Errorf("filter %q has no value", expr)
		}
		def = valueOp(def.Filter().On(field), parts[2])
	}

	return def, nil
}

// splitList accepts "a,b" and "[a,b]".
func splitList(v string) []string {
	v = strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
