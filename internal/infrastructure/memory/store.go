// Package memory implements the repositories over an in-process store.
// It backs tests, demos, and single-node deployments; the postgres package
// is the production backend. Both are selected via STORAGE_BACKEND.
package memory

import (
	"sync"
	"time"

	"github.com/thriftly/thriftly/internal/domain/entity"
)

// Store owns both collections behind one mutex so that cross-collection
// mutations (like toggling) are atomic and readers never observe a torn
// write. Identity counters are per collection, monotonic, and never reused
// after deletion. Backing order is insertion order.
type Store struct {
	mu sync.RWMutex

	users      []*entity.User
	nextUserID int64

	products      []*entity.Product
	nextProductID int64
}

// NewStore returns an empty store with counters starting at 1.
func NewStore() *Store {
	return &Store{nextUserID: 1, nextProductID: 1}
}

// Users returns the user repository view of the store.
func (s *Store) Users() *UserRepository { return &UserRepository{store: s} }

// Products returns the product repository view of the store.
func (s *Store) Products() *ProductRepository { return &ProductRepository{store: s} }

func (s *Store) createUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.ID = s.nextUserID
	s.nextUserID++
	s.users = append(s.users, u.Clone())
}

func (s *Store) createProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextProductID
	s.nextProductID++
	s.products = append(s.products, p.Clone())
}

func (s *Store) userIndex(id int64) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) productIndex(id int64) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// saveUser upserts by identity: replace in place when the id exists,
// append otherwise. Favorites belong to the like relation and only
// ToggleLike may change them, so a whole-record save keeps the stored
// value instead of writing back a possibly stale copy.
func (s *Store) saveUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := u.Clone()
	if i := s.userIndex(u.ID); i >= 0 {
		cp.Favorites = append([]int64{}, s.users[i].Favorites...)
		s.users[i] = cp
		return
	}
	s.users = append(s.users, cp)
}

// saveProduct upserts by identity and refreshes UpdatedAt on every save.
// Likes are owned by the like relation, same as user favorites.
func (s *Store) saveProduct(p *entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.UpdatedAt = time.Now()
	cp := p.Clone()
	if i := s.productIndex(p.ID); i >= 0 {
		cp.Likes = append([]int64{}, s.products[i].Likes...)
		s.products[i] = cp
		return
	}
	s.products = append(s.products, cp)
}

func (s *Store) deleteProduct(id int64) *entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.productIndex(id)
	if i < 0 {
		return nil
	}
	removed := s.products[i]
	s.products = append(s.products[:i], s.products[i+1:]...)
	return removed
}
