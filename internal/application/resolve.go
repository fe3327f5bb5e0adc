package application

import (
	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/repository"
)

// ProductView is a product with its seller reference optionally resolved.
// Seller holds either the raw int64 identity or, after resolution, a
// *entity.SellerSnapshot value copy. A dangling reference stays the raw
// identity, which is the signal for detecting orphaned references.
type ProductView struct {
	entity.Product
	Seller    any `json:"seller"`
	LikeCount int `json:"like_count"`
}

func newView(p *entity.Product) ProductView {
	return ProductView{Product: *p, Seller: p.Seller, LikeCount: len(p.Likes)}
}

// resolver attaches denormalized seller snapshots to products. Resolution
// is read-only and batched: one repository round trip per product set.
type resolver struct {
	users repository.UserRepository
}

// resolveOne resolves a single product's seller; detail selects the wider
// detail-view projection.
func (r resolver) resolveOne(p *entity.Product, detail bool) (ProductView, error) {
	views, err := r.resolve([]*entity.Product{p}, detail)
	if err != nil {
		return ProductView{}, err
	}
	return views[0], nil
}

// resolve resolves seller references for a product sequence.
func (r resolver) resolve(products []*entity.Product, detail bool) ([]ProductView, error) {
	ids := make([]int64, 0, len(products))
	seen := make(map[int64]struct{}, len(products))
	for _, p := range products {
		if _, ok := seen[p.Seller]; !ok {
			seen[p.Seller] = struct{}{}
			ids = append(ids, p.Seller)
		}
	}
	sellers, err := r.users.GetMany(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*entity.User, len(sellers))
	for _, u := range sellers {
		byID[u.ID] = u
	}
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		v := newView(p)
		if u, ok := byID[p.Seller]; ok {
			v.Seller = u.Snapshot(detail)
		}
		out = append(out, v)
	}
	return out, nil
}

// unresolved wraps products without touching the seller reference.
func unresolved(products []*entity.Product) []ProductView {
	out := make([]ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, newView(p))
	}
	return out
}
