package memory

import (
	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/repository"
)

// UserRepository is the in-memory implementation of
// repository.UserRepository. All returned records are detached copies.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(u *entity.User) error {
	r.store.createUser(u)
	return nil
}

func (r *UserRepository) GetByID(id int64) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if i := r.store.userIndex(id); i >= 0 {
		return r.store.users[i].Clone(), nil
	}
	return nil, nil
}

func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Email == email {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByUsername(username string) (*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, u := range r.store.users {
		if u.Username == username {
			return u.Clone(), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetMany(ids []int64) ([]*entity.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		if i := r.store.userIndex(id); i >= 0 {
			out = append(out, r.store.users[i].Clone())
		}
	}
	return out, nil
}

func (r *UserRepository) Update(u *entity.User) error {
	r.store.saveUser(u)
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
