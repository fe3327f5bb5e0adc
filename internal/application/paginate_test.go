package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thriftly/thriftly/internal/domain/entity"
)

func sampleProducts() []*entity.Product {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(title string, age time.Duration, price float64, views int64) *entity.Product {
		p := entity.NewProduct(entity.ProductData{Title: title, Price: price}, 1)
		p.CreatedAt = base.Add(-age)
		p.Views = views
		return p
	}
	return []*entity.Product{
		mk("mid", 2*time.Hour, 25, 10),
		mk("old", 48*time.Hour, 5, 300),
		mk("new", 0, 90, 40),
	}
}

func titles(items []*entity.Product) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Title
	}
	return out
}

func TestParseSortKey(t *testing.T) {
	assert.Equal(t, SortPriceLow, ParseSortKey("price_low"))
	assert.Equal(t, SortPopular, ParseSortKey("popular"))
	assert.Equal(t, SortNewest, ParseSortKey(""))
	assert.Equal(t, SortNewest, ParseSortKey("cheapest"))
}

func TestSortProducts(t *testing.T) {
	cases := []struct {
		key  SortKey
		want []string
	}{
		{SortNewest, []string{"new", "mid", "old"}},
		{SortOldest, []string{"old", "mid", "new"}},
		{SortPriceLow, []string{"old", "mid", "new"}},
		{SortPriceHigh, []string{"new", "mid", "old"}},
		{SortPopular, []string{"old", "new", "mid"}},
	}
	for _, tc := range cases {
		items := sampleProducts()
		SortProducts(items, tc.key)
		assert.Equal(t, tc.want, titles(items), "key %s", tc.key)
	}
}

func TestSortProductsIsStable(t *testing.T) {
	items := sampleProducts()
	for _, p := range items {
		p.Price = 10
	}
	SortProducts(items, SortPriceLow)
	assert.Equal(t, []string{"mid", "old", "new"}, titles(items))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	page, total := Paginate(items, 1, 2)
	assert.Equal(t, []int{1, 2}, page)
	assert.Equal(t, 3, total)

	page, total = Paginate(items, 3, 2)
	assert.Equal(t, []int{5}, page)
	assert.Equal(t, 3, total)

	// past the end is empty, not an error
	page, total = Paginate(items, 9, 2)
	assert.Empty(t, page)
	assert.Equal(t, 3, total)

	// page 0 and negatives collapse to page 1
	page, _ = Paginate(items, 0, 2)
	assert.Equal(t, []int{1, 2}, page)
	page, _ = Paginate(items, -4, 2)
	assert.Equal(t, []int{1, 2}, page)
}

func TestPaginateDefaultSize(t *testing.T) {
	items := make([]int, 30)
	page, total := Paginate(items, 1, 0)
	assert.Len(t, page, 12)
	assert.Equal(t, 3, total)
}

func TestPaginateEmptyInput(t *testing.T) {
	page, total := Paginate([]int{}, 1, 12)
	assert.Empty(t, page)
	assert.Zero(t, total)
}
