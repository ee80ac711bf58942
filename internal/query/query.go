// Package query turns client-supplied list parameters (filters, sort, field
// projection, pagination) into GORM scopes. Every filterable field and every
// comparison operator is declared up front in a Spec; anything outside the
// whitelist never reaches the storage layer.
package query

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/projectpulse/tracker/internal/constants"
	"gorm.io/gorm"
)

// Reserved control keys, never treated as filters.
var reservedKeys = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
}

// Kind describes how a field's values are parsed and compared.
type Kind int

const (
	KindString Kind = iota
	KindEnum
	KindNumber
	KindDate
)

// Field declares one filterable/sortable field of an entity.
type Field struct {
	Column    string
	Kind      Kind
	Enum      []string // allowed values when Kind == KindEnum
	Orderable bool     // range operators and sorting permitted
}

// SortKey is one key of a multi-key sort.
type SortKey struct {
	Column string
	Desc   bool
}

// Spec is the per-entity whitelist the parser works against.
type Spec struct {
	Fields       map[string]Field // query param name -> field
	Reserved     []string         // extra control keys handled by the caller
	DefaultSort  []SortKey
	DefaultLimit int
}

// Condition is a single parsed filter constraint.
type Condition struct {
	Column string
	Op     string // "=", ">", ">=", "<", "<="
	Value  interface{}
}

// Options is the parsed, validated form of a list request.
type Options struct {
	Conditions []Condition
	Sort       []SortKey
	Columns    []string // projection; empty means all columns
	Page       int
	Limit      int
}

// ValidationError reports a recognized field used with an incompatible
// operator or an unparseable value.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

var comparisonOps = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

// Parse validates the raw query values against the spec. Unknown filter
// fields are ignored; known fields with invalid operators or values fail
// with a ValidationError. Non-numeric page/limit fall back to defaults.
func Parse(values url.Values, spec Spec) (Options, error) {
	opts := Options{
		Page:  constants.MinPage,
		Limit: spec.DefaultLimit,
	}

	reserved := make(map[string]bool, len(reservedKeys)+len(spec.Reserved))
	for k := range reservedKeys {
		reserved[k] = true
	}
	for _, k := range spec.Reserved {
		reserved[k] = true
	}

	for rawKey, vals := range values {
		if len(vals) == 0 {
			continue
		}
		name, opSuffix := splitKey(rawKey)
		if reserved[name] {
			continue
		}

		field, known := spec.Fields[name]
		if !known {
			continue
		}

		op := "="
		if opSuffix != "" {
			sqlOp, ok := comparisonOps[opSuffix]
			if !ok {
				return Options{}, &ValidationError{Msg: fmt.Sprintf("unknown operator %q on field %q", opSuffix, name)}
			}
			if !field.Orderable {
				return Options{}, &ValidationError{Msg: fmt.Sprintf("field %q does not support range operators", name)}
			}
			op = sqlOp
		}

		value, err := parseValue(name, field, vals[0])
		if err != nil {
			return Options{}, err
		}

		opts.Conditions = append(opts.Conditions, Condition{
			Column: field.Column,
			Op:     op,
			Value:  value,
		})
	}

	opts.Sort = parseSort(values.Get("sort"), spec)
	opts.Columns = parseFields(values.Get("fields"), spec)

	if page, err := strconv.Atoi(values.Get("page")); err == nil && page >= constants.MinPage {
		opts.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil && limit >= 1 && limit <= constants.MaxPageSize {
		opts.Limit = limit
	}

	return opts, nil
}

// splitKey separates "due_date[gte]" into ("due_date", "gte").
func splitKey(key string) (name, op string) {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.HasSuffix(key, "]") {
		return key, ""
	}
	return key[:open], key[open+1 : len(key)-1]
}

func parseValue(name string, field Field, raw string) (interface{}, error) {
	switch field.Kind {
	case KindEnum:
		for _, allowed := range field.Enum {
			if raw == allowed {
				return raw, nil
			}
		}
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid value %q for field %q", raw, name)}
	case KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("field %q expects a numeric value", name)}
		}
		return n, nil
	case KindDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t, nil
		}
		return nil, &ValidationError{Msg: fmt.Sprintf("field %q expects a date value", name)}
	default:
		return raw, nil
	}
}

func parseSort(raw string, spec Spec) []SortKey {
	if raw == "" {
		return spec.DefaultSort
	}

	var keys []SortKey
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		desc := strings.HasPrefix(part, "-")
		name := strings.TrimPrefix(part, "-")
		field, known := spec.Fields[name]
		if !known {
			continue
		}
		keys = append(keys, SortKey{Column: field.Column, Desc: desc})
	}

	if len(keys) == 0 {
		return spec.DefaultSort
	}
	return keys
}

func parseFields(raw string, spec Spec) []string {
	if raw == "" {
		return nil
	}

	columns := []string{"id"}
	seen := map[string]bool{"id": true}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		field, known := spec.Fields[part]
		if !known || seen[field.Column] {
			continue
		}
		seen[field.Column] = true
		columns = append(columns, field.Column)
	}

	// Only the id survived: nothing recognized, fall back to all columns.
	if len(columns) == 1 {
		return nil
	}
	return columns
}

// Filters applies the parsed filter conditions to a GORM query. It is kept
// separate from ordering and projection so the same scope serves both the
// count query and the page query.
func (o Options) Filters() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, cond := range o.Conditions {
			db = db.Where(fmt.Sprintf("%s %s ?", cond.Column, cond.Op), cond.Value)
		}
		return db
	}
}

// Ordering applies the multi-key sort to a GORM query.
func (o Options) Ordering() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, key := range o.Sort {
			dir := "ASC"
			if key.Desc {
				dir = "DESC"
			}
			db = db.Order(fmt.Sprintf("%s %s", key.Column, dir))
		}
		return db
	}
}

// Projection restricts the selected columns when a field list was given.
func (o Options) Projection() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(o.Columns) > 0 {
			db = db.Select(o.Columns)
		}
		return db
	}
}

// Paginate applies the offset/limit slice to a GORM query.
func (o Options) Paginate() func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		offset := (o.Page - 1) * o.Limit
		return db.Offset(offset).Limit(o.Limit)
	}
}
