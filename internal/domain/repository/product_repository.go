package repository

import (
	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/query"
)

// ProductRepository defines product persistence and the like relation.
// GetByID and Delete return (nil, nil) when no record matches.
type ProductRepository interface {
	// Create assigns the next identity and stores the product.
	Create(p *entity.Product) error
	GetByID(id int64) (*entity.Product, error)
	// Find returns all products matching q in insertion order.
	Find(q *query.Query) ([]*entity.Product, error)
	// Count returns the number of matches using the same semantics as
	// Find, without materializing relations.
	Count(q *query.Query) (int, error)
	// Update saves the product by identity (upsert, preserving position)
	// and refreshes UpdatedAt.
	Update(p *entity.Product) error
	// Delete removes the product and returns the removed record, or
	// (nil, nil) if the id does not exist. Stale references to the id in
	// user favorites are left in place.
	Delete(id int64) (*entity.Product, error)
	// ToggleLike atomically flips the userID's membership in the
	// product's like set and the user's favorites. Returns the new liked
	// state and like count. Fails with ErrNotFound when either side is
	// missing.
	ToggleLike(productID, userID int64) (liked bool, likeCount int, err error)
	// IncrementViews adds exactly 1 to the view counter and refreshes
	// UpdatedAt.
	IncrementViews(id int64) error
}
