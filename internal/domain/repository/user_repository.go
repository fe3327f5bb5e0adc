package repository

import (
	"errors"

	"github.com/thriftly/thriftly/internal/domain/entity"
)

// ErrNotFound is returned by mutating operations whose target record does
// not exist. Lookups signal absence with a nil record instead.
var ErrNotFound = errors.New("record not found")

// UserRepository defines user persistence. Get* methods return (nil, nil)
// when no record matches; absence is a normal result, not an error.
type UserRepository interface {
	// Create assigns the next identity and stores the user.
	Create(u *entity.User) error
	GetByID(id int64) (*entity.User, error)
	// GetByEmail matches against the normalized (lowercased) email.
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	// GetMany returns the users for the given ids in id order, skipping
	// ids that no longer resolve.
	GetMany(ids []int64) ([]*entity.User, error)
	// Update saves the user by identity (upsert, preserving position).
	Update(u *entity.User) error
}
