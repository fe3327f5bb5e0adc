// Package query defines a small typed filter language evaluated by the
// storage backends. The in-memory backend interprets it directly; the
// postgres backend translates it to SQL. All conditions on a query AND
// together.
package query

import (
	"regexp"
	"strings"
)

// Op is the kind of a condition.
type Op int

const (
	OpEquals Op = iota
	OpNotEquals
	OpRange
	OpPattern
)

// Condition constrains one field.
type Condition struct {
	Field   string
	Op      Op
	Value   any            // OpEquals / OpNotEquals
	GTE     *float64       // OpRange, inclusive lower bound
	LTE     *float64       // OpRange, inclusive upper bound
	Pattern *regexp.Regexp // OpPattern
}

// Query is a conjunction of field conditions plus an optional full-text
// term. The full-text term matches case-insensitively as a substring over
// the searchable fields of an entity (title, description, brand, tags for
// products).
type Query struct {
	Conditions []Condition
	Search     string
}

// New returns an empty query matching everything.
func New() *Query {
	return &Query{}
}

// Where adds an exact-equality condition.
func (q *Query) Where(field string, value any) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpEquals, Value: value})
	return q
}

// WhereNot adds an exclusion condition, used to exclude an identity.
func (q *Query) WhereNot(field string, value any) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpNotEquals, Value: value})
	return q
}

// WhereRange adds an inclusive numeric range. Either bound may be nil.
func (q *Query) WhereRange(field string, gte, lte *float64) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpRange, GTE: gte, LTE: lte})
	return q
}

// WherePattern adds a case-insensitive substring pattern on a string field.
// The value is quoted, so user input cannot inject regexp syntax.
func (q *Query) WherePattern(field, value string) *Query {
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(value))
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpPattern, Pattern: re})
	return q
}

// WhereRegexp adds a pre-compiled pattern condition.
func (q *Query) WhereRegexp(field string, re *regexp.Regexp) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Op: OpPattern, Pattern: re})
	return q
}

// FullText sets the full-text search term.
func (q *Query) FullText(term string) *Query {
	q.Search = term
	return q
}

// Doc is the storage-side view of an entity the matcher evaluates against.
// Field returns the named field's comparable value and whether the field is
// present; SearchText returns the searchable text fields.
type Doc interface {
	Field(name string) (value any, present bool)
	SearchText() []string
}

// Matches evaluates the query against one document. Absent fields never
// match a non-absent constraint.
func (q *Query) Matches(d Doc) bool {
	for _, c := range q.Conditions {
		if !c.matches(d) {
			return false
		}
	}
	if q.Search != "" && !searchMatches(q.Search, d.SearchText()) {
		return false
	}
	return true
}

func (c Condition) matches(d Doc) bool {
	v, present := d.Field(c.Field)
	switch c.Op {
	case OpEquals:
		return present && equal(v, c.Value)
	case OpNotEquals:
		// Excluding a value also matches documents without the field.
		return !present || !equal(v, c.Value)
	case OpRange:
		if !present {
			return false
		}
		n, ok := toFloat(v)
		if !ok {
			return false
		}
		if c.GTE != nil && n < *c.GTE {
			return false
		}
		if c.LTE != nil && n > *c.LTE {
			return false
		}
		return true
	case OpPattern:
		if !present {
			return false
		}
		s, ok := v.(string)
		return ok && c.Pattern.MatchString(s)
	}
	return false
}

func searchMatches(term string, texts []string) bool {
	term = strings.ToLower(term)
	for _, t := range texts {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

// equal compares with numeric widening so an int64 field matches an int
// constraint and vice versa.
func equal(a, b any) bool {
	if af, ok := toFloat(a); ok {
		if bf, ok2 := toFloat(b); ok2 {
			return af == bf
		}
		return false
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
