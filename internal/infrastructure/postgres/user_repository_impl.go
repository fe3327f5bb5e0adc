package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/repository"
)

// UserRepository is the pgx implementation of repository.UserRepository.
// Favorites live in the product_likes join table, which is the single
// source of truth for the like relation on this backend.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, first_name, last_name,
	avatar, bio, location, phone, is_verified, rating_average, rating_count,
	created_at, last_active`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName,
		&u.LastName, &u.Avatar, &u.Bio, &u.Location, &u.Phone, &u.IsVerified,
		&u.Rating.Average, &u.Rating.Count, &u.CreatedAt, &u.LastActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) loadFavorites(ctx context.Context, u *entity.User) error {
	rows, err := r.pool.Query(ctx, `
		SELECT product_id FROM product_likes
		WHERE user_id = $1
		ORDER BY created_at, product_id
	`, u.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	u.Favorites = []int64{}
	for rows.Next() {
		var pid int64
		if err := rows.Scan(&pid); err != nil {
			return err
		}
		u.Favorites = append(u.Favorites, pid)
	}
	return rows.Err()
}

func (r *UserRepository) Create(u *entity.User) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, first_name, last_name,
			avatar, bio, location, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, last_active
	`, u.Username, u.Email, u.Password, u.FirstName, u.LastName,
		u.Avatar, u.Bio, u.Location, u.Phone)
	return row.Scan(&u.ID, &u.CreatedAt, &u.LastActive)
}

func (r *UserRepository) getBy(where string, arg any) (*entity.User, error) {
	ctx := context.Background()
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil || u == nil {
		return nil, err
	}
	if err := r.loadFavorites(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *UserRepository) GetByID(id int64) (*entity.User, error) {
	return r.getBy("id = $1", id)
}

func (r *UserRepository) GetByEmail(email string) (*entity.User, error) {
	return r.getBy("email = $1", entity.NormalizeEmail(email))
}

func (r *UserRepository) GetByUsername(username string) (*entity.User, error) {
	return r.getBy("username = $1", username)
}

func (r *UserRepository) GetMany(ids []int64) ([]*entity.User, error) {
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[int64]*entity.User)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		byID[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			if err := r.loadFavorites(ctx, u); err != nil {
				return nil, err
			}
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) Update(u *entity.User) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, first_name = $4,
			last_name = $5, avatar = $6, bio = $7, location = $8, phone = $9,
			is_verified = $10, rating_average = $11, rating_count = $12,
			last_active = $13
		WHERE id = $14
	`, u.Username, u.Email, u.Password, u.FirstName, u.LastName, u.Avatar,
		u.Bio, u.Location, u.Phone, u.IsVerified, u.Rating.Average,
		u.Rating.Count, u.LastActive, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
