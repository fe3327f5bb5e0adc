package query

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoc struct {
	fields map[string]any
	texts  []string
}

func (d fakeDoc) Field(name string) (any, bool) {
	v, ok := d.fields[name]
	return v, ok
}

func (d fakeDoc) SearchText() []string { return d.texts }

func doc(fields map[string]any, texts ...string) fakeDoc {
	return fakeDoc{fields: fields, texts: texts}
}

func TestEmptyQueryMatchesEverything(t *testing.T) {
	require.True(t, New().Matches(doc(nil)))
	require.True(t, New().Matches(doc(map[string]any{"status": "available"})))
}

func TestWhereEquals(t *testing.T) {
	d := doc(map[string]any{"category": "shoes", "views": int64(7)})

	assert.True(t, New().Where("category", "shoes").Matches(d))
	assert.False(t, New().Where("category", "bags").Matches(d))
	assert.False(t, New().Where("missing", "anything").Matches(d), "absent field never matches equality")

	// numeric widening: int constraint against int64 field
	assert.True(t, New().Where("views", 7).Matches(d))
	assert.True(t, New().Where("views", float64(7)).Matches(d))
	assert.False(t, New().Where("views", 8).Matches(d))
}

func TestWhereNot(t *testing.T) {
	d := doc(map[string]any{"id": int64(3)})

	assert.True(t, New().WhereNot("id", int64(4)).Matches(d))
	assert.False(t, New().WhereNot("id", int64(3)).Matches(d))
	assert.True(t, New().WhereNot("brand", "nike").Matches(d), "exclusion matches documents without the field")
}

func TestWhereRange(t *testing.T) {
	d := doc(map[string]any{"price": 49.99})
	lo, hi := 10.0, 50.0

	assert.True(t, New().WhereRange("price", &lo, &hi).Matches(d))
	assert.True(t, New().WhereRange("price", &lo, nil).Matches(d))
	assert.True(t, New().WhereRange("price", nil, &hi).Matches(d))

	tight := 49.999
	assert.False(t, New().WhereRange("price", &tight, nil).Matches(d))
	assert.False(t, New().WhereRange("price", nil, &lo).Matches(d))
	assert.False(t, New().WhereRange("missing", &lo, &hi).Matches(d))

	// bounds are inclusive
	exact := 49.99
	assert.True(t, New().WhereRange("price", &exact, &exact).Matches(d))
}

func TestWherePattern(t *testing.T) {
	d := doc(map[string]any{"brand": "Levi Strauss"})

	assert.True(t, New().WherePattern("brand", "levi").Matches(d))
	assert.True(t, New().WherePattern("brand", "STRAUSS").Matches(d))
	assert.False(t, New().WherePattern("brand", "wrangler").Matches(d))

	// user input is quoted, not interpreted as regexp
	assert.False(t, New().WherePattern("brand", ".*").Matches(d))
	assert.True(t, New().WhereRegexp("brand", regexp.MustCompile(`(?i)^levi`)).Matches(d))
}

func TestFullText(t *testing.T) {
	d := doc(nil, "Vintage denim jacket", "Lightly faded, oversized fit", "levis")

	assert.True(t, New().FullText("DENIM").Matches(d))
	assert.True(t, New().FullText("oversized").Matches(d))
	assert.True(t, New().FullText("levis").Matches(d))
	assert.False(t, New().FullText("corduroy").Matches(d))
}

func TestConditionsAndTogether(t *testing.T) {
	d := doc(map[string]any{"category": "shoes", "price": 30.0}, "leather boots")

	q := New().Where("category", "shoes").FullText("boots")
	assert.True(t, q.Matches(d))

	q = New().Where("category", "shoes").FullText("sandals")
	assert.False(t, q.Matches(d), "every condition plus the search term must hold")
}
