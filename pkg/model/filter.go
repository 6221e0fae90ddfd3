package model

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Filter operators as the server spells them.
const (
	opEq         = "eq"
	opNotEq      = "!eq"
	opLike       = "like"
	opNotLike    = "!like"
	opILike      = "ilike"
	opStartsWith = "$like"
	opEndsWith   = "like$"
	opGt         = "gt"
	opGe         = "ge"
	opLt         = "lt"
	opLe         = "le"
	opIn         = "in"
	opNotIn      = "!in"
	opNull       = "null"
	opNotNull    = "!null"
	opEmpty      = "empty"
)

// Filter appends one clause to the filter chain of a cloned definition:
//
//	users, err := def.Filter().On("name").Like("John").List(ctx)
//
// Values are rendered as they are; colons and commas inside them are not escaped.
type Filter struct {
	def Definition
}

func newFilter(def Definition) *Filter {
	return &Filter{def: def}
}

// On selects the field the next operator applies to.
func (f *Filter) On(field string) *FilterField {
	return &FilterField{def: f.def, field: field}
}

// FilterField is a Filter with its target field chosen.
type FilterField struct {
	def   Definition
	field string
}

func (ff *FilterField) Equals(v any) Definition { return ff.add(opEq, v) }
func (ff *FilterField) Eq(v any) Definition { return ff.add(opEq, v) }
func (ff *FilterField) NotEquals(v any) Definition { return ff.add(opNotEq, v) }
func (ff *FilterField) Like(v any) Definition { return ff.add(opLike, v) }
func (ff *FilterField) NotLike(v any) Definition { return ff.add(opNotLike, v) }
func (ff *FilterField) ILike(v any) Definition { return ff.add(opILike, v) }
func (ff *FilterField) StartsWith(v any) Definition { return ff.add(opStartsWith, v) }
func (ff *FilterField) EndsWith(v any) Definition { return ff.add(opEndsWith, v) }
func (ff *FilterField) Gt(v any) Definition { return ff.add(opGt, v) }
func (ff *FilterField) Ge(v any) Definition { return ff.add(opGe, v) }
func (ff *FilterField) Lt(v any) Definition { return ff.add(opLt, v) }
func (ff *FilterField) Le(v any) Definition { return ff.add(opLe, v) }

// In matches any of values, rendered as "field:in:[a,b]".
func (ff *FilterField) In(values ...any) Definition { return ff.add(opIn, values) }
func (ff *FilterField) NotIn(values ...any) Definition { return ff.add(opNotIn, values) }

func (ff *FilterField) Null() Definition { return ff.add(opNull, nil) }
func (ff *FilterField) NotNull() Definition { return ff.add(opNotNull, nil) }
func (ff *FilterField) Empty() Definition { return ff.add(opEmpty, nil) }

// add returns a clone carrying the new clause, so a Filter or FilterField can be
// reused for several operators.
func (ff *FilterField) add(op string, v any) Definition {
	def := ff.def.Clone()
	md := def.modelDefinition()
	md.filters = append(md.filters, clause(ff.field, op, v))
	return def
}

// clause renders one filter clause. Operators without an operand render as
// "field:op".
func clause(field, op string, v any) string {
	switch op {
	case opNull, opNotNull, opEmpty:
		return field + ":" + op
	case opIn, opNotIn:
		return fmt.Sprintf("%s:%s:[%s]", field, op, strings.Join(listValues(v), ","))
	default:
		return fmt.Sprintf("%s:%s:%s", field, op, cast.ToString(v))
	}
}

func listValues(v any) []string {
	switch values := v.(type) {
	case []string:
		return values
	case []any:
		// In(ids) with a single []string argument.
		if len(values) == 1 {
			if nested, ok := values[0].([]string); ok {
				return nested
			}
		}

		out := make([]string, 0, len(values))
		for _, value := range values {
			out = append(out, cast.ToString(value))
		}
		return out
	default:
		return cast.ToStringSlice(v)
	}
}
