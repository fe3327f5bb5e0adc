package memory

import (
	"time"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/query"
	"github.com/thriftly/thriftly/internal/domain/repository"
)

// ProductRepository is the in-memory implementation of
// repository.ProductRepository. All returned records are detached copies.
type ProductRepository struct {
	store *Store
}

func (r *ProductRepository) Create(p *entity.Product) error {
	r.store.createProduct(p)
	return nil
}

func (r *ProductRepository) GetByID(id int64) (*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if i := r.store.productIndex(id); i >= 0 {
		return r.store.products[i].Clone(), nil
	}
	return nil, nil
}

func (r *ProductRepository) Find(q *query.Query) ([]*entity.Product, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*entity.Product
	for _, p := range r.store.products {
		if q == nil || q.Matches(p) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *ProductRepository) Count(q *query.Query) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := 0
	for _, p := range r.store.products {
		if q == nil || q.Matches(p) {
			n++
		}
	}
	return n, nil
}

func (r *ProductRepository) Update(p *entity.Product) error {
	r.store.saveProduct(p)
	return nil
}

func (r *ProductRepository) Delete(id int64) (*entity.Product, error) {
	return r.store.deleteProduct(id), nil
}

// ToggleLike flips membership in product.Likes and user.Favorites under a
// single critical section so both sides update or neither does.
func (r *ProductRepository) ToggleLike(productID, userID int64) (bool, int, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	pi := s.productIndex(productID)
	ui := s.userIndex(userID)
	if pi < 0 || ui < 0 {
		return false, 0, repository.ErrNotFound
	}
	p, u := s.products[pi], s.users[ui]

	if p.LikedBy(userID) {
		p.Likes = removeID(p.Likes, userID)
		u.Favorites = removeID(u.Favorites, productID)
		p.UpdatedAt = time.Now()
		return false, len(p.Likes), nil
	}
	p.Likes = append(p.Likes, userID)
	if !u.HasFavorite(productID) {
		u.Favorites = append(u.Favorites, productID)
	}
	p.UpdatedAt = time.Now()
	return true, len(p.Likes), nil
}

func (r *ProductRepository) IncrementViews(id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		return repository.ErrNotFound
	}
	s.products[i].Views++
	s.products[i].UpdatedAt = time.Now()
	return nil
}

func removeID(ids []int64, id int64) []int64 {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
