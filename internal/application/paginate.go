package application

import (
	"sort"

	"github.com/thriftly/thriftly/internal/domain/entity"
)

// SortKey selects a product ordering.
type SortKey string

const (
	SortNewest    SortKey = "newest"     // createdAt descending (default)
	SortOldest    SortKey = "oldest"     // createdAt ascending
	SortPriceLow  SortKey = "price_low"  // price ascending
	SortPriceHigh SortKey = "price_high" // price descending
	SortPopular   SortKey = "popular"    // views descending
)

// ParseSortKey maps a request parameter to a sort key, defaulting to
// newest for unknown values.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortOldest, SortPriceLow, SortPriceHigh, SortPopular:
		return SortKey(s)
	}
	return SortNewest
}

// SortProducts orders products in place. The sort is stable: elements
// comparing equal keep their original relative order.
func SortProducts(items []*entity.Product, key SortKey) {
	var less func(a, b *entity.Product) bool
	switch key {
	case SortOldest:
		less = func(a, b *entity.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceLow:
		less = func(a, b *entity.Product) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b *entity.Product) bool { return a.Price > b.Price }
	case SortPopular:
		less = func(a, b *entity.Product) bool { return a.Views > b.Views }
	default:
		less = func(a, b *entity.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}

// Paginate slices the 1-indexed page window out of items and returns it
// with the total page count, ceil(len/size). Pages below 1 are treated as
// page 1; pages past the end come back empty.
func Paginate[T any](items []T, page, size int) ([]T, int) {
	if size <= 0 {
		size = 12
	}
	if page < 1 {
		page = 1
	}
	totalPages := (len(items) + size - 1) / size
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}, totalPages
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}
