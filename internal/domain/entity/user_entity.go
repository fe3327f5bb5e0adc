package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for the user domain.
// Passwords are stored as bcrypt hashes in Password and are never
// serialized outward; use Public for API responses.
type User struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	Password   string    `json:"-"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Avatar     string    `json:"avatar,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Location   string    `json:"location,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	IsVerified bool      `json:"is_verified"`
	Rating     Rating    `json:"rating"`
	Favorites  []int64   `json:"favorites"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Rating is the aggregate seller rating.
type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// NewUser builds a user with normalized email and zeroed rating.
// Identity is assigned by the repository on create.
func NewUser(username, email, password, firstName, lastName string) *User {
	now := time.Now()
	return &User{
		Username:   username,
		Email:      NormalizeEmail(email),
		Password:   password,
		FirstName:  firstName,
		LastName:   lastName,
		Favorites:  []int64{},
		CreatedAt:  now,
		LastActive: now,
	}
}

// NormalizeEmail lowercases and trims an email for uniqueness comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// HasFavorite reports whether the product id is in the user's favorites.
func (u *User) HasFavorite(productID int64) bool {
	for _, id := range u.Favorites {
		if id == productID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out detached records.
func (u *User) Clone() *User {
	cp := *u
	cp.Favorites = make([]int64, len(u.Favorites))
	copy(cp.Favorites, u.Favorites)
	return &cp
}

// PublicProfile is the outward representation of a user. It never carries
// the password hash.
type PublicProfile struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	FullName   string    `json:"full_name"`
	Avatar     string    `json:"avatar,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	Location   string    `json:"location,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	IsVerified bool      `json:"is_verified"`
	Rating     Rating    `json:"rating"`
	Favorites  []int64   `json:"favorites"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Public returns the serializable projection of the user.
func (u *User) Public() PublicProfile {
	favs := make([]int64, len(u.Favorites))
	copy(favs, u.Favorites)
	return PublicProfile{
		ID:         u.ID,
		Username:   u.Username,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		FullName:   u.FullName(),
		Avatar:     u.Avatar,
		Bio:        u.Bio,
		Location:   u.Location,
		Phone:      u.Phone,
		IsVerified: u.IsVerified,
		Rating:     u.Rating,
		Favorites:  favs,
		CreatedAt:  u.CreatedAt,
		LastActive: u.LastActive,
	}
}

// SellerSnapshot is the denormalized projection attached to products when
// the seller relation is resolved. Location and MemberSince are only set
// for the product detail view.
type SellerSnapshot struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Avatar      string     `json:"avatar,omitempty"`
	Rating      Rating     `json:"rating"`
	Location    string     `json:"location,omitempty"`
	MemberSince *time.Time `json:"member_since,omitempty"`
}

// Snapshot copies the public seller fields. detail adds the fields shown on
// the single-product page.
func (u *User) Snapshot(detail bool) *SellerSnapshot {
	s := &SellerSnapshot{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Rating:    u.Rating,
	}
	if detail {
		s.Location = u.Location
		created := u.CreatedAt
		s.MemberSince = &created
	}
	return s
}
