package application

import (
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/query"
	repo "github.com/thriftly/thriftly/internal/domain/repository"
	"github.com/thriftly/thriftly/pkg/blob"
	"github.com/thriftly/thriftly/pkg/helpers"
	"github.com/thriftly/thriftly/pkg/mailer"
)

// PasswordHasher is the hashing capability the services delegate to.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// UserService covers registration, authentication, sessions, profiles,
// favorites, and the seller dashboard.
type UserService struct {
	Repo     repo.UserRepository
	Products repo.ProductRepository
	Hasher   PasswordHasher
	JWT      *helpers.JWTManager
	Blobs    blob.Store
	Redis    *redis.Client
	Logger   *logrus.Logger
	Pub      *helpers.RabbitPublisher
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func sessionKey(userID int64) string {
	return "user:session:" + strconv.FormatInt(userID, 10)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a user after checking email and username uniqueness.
// Email is case-normalized before the comparison.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, invalidField("username", "is required")
	}
	email := entity.NormalizeEmail(in.Email)
	if email == "" {
		return nil, invalidField("email", "is required")
	}

	if existing, err := s.Repo.GetByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDuplicateUser
	}
	if existing, err := s.Repo.GetByUsername(in.Username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrDuplicateUser
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := entity.NewUser(in.Username, email, hash, in.FirstName, in.LastName)
	if err := s.Repo.Create(u); err != nil {
		return nil, err
	}

	if s.Pub != nil {
		job := mailer.EmailJob{
			To:       u.Email,
			Template: mailer.TemplateWelcome,
			Data:     map[string]any{"Username": u.Username, "FirstName": u.FirstName},
		}
		if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email publish failed")
		}
	}
	return u, nil
}

// Authenticate validates email/password and refreshes LastActive.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil || !s.Hasher.Verify(password, u.Password) {
		return nil, ErrInvalidCredentials
	}
	u.LastActive = time.Now()
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	uid := strconv.FormatInt(u.ID, 10)
	access, aexp, err := s.JWT.GenerateAccessToken(uid, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(uid, sid)
	if err != nil {
		return TokenPair{}, err
	}

	if s.Redis != nil {
		key := sessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"user_id":    uid,
			"email":      u.Email,
			"username":   u.Username,
			"avatar":     u.Avatar,
			"sid":        sid,
			"created_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, 24*time.Hour)
		if _, rErr := pipe.Exec(ctx); rErr != nil && s.Logger != nil {
			s.Logger.WithError(rErr).WithField("key", key).Warn("redis pipeline failed")
		}
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh validates the refresh token against the active session and
// rotates the session id plus both tokens.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	id, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(id)
	if err != nil || u == nil {
		return TokenPair{}, ErrInvalidCredentials
	}
	if s.Redis != nil {
		data, rErr := s.Redis.HGetAll(ctx, sessionKey(u.ID)).Result()
		if rErr != nil || len(data) == 0 || data["sid"] != claims.SessionID {
			return TokenPair{}, ErrInvalidCredentials
		}
	}
	return s.IssueTokens(ctx, u)
}

// Logout drops the Redis session.
func (s *UserService) Logout(ctx context.Context, userID int64) {
	if s.Redis != nil {
		if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("session delete failed")
		}
	}
}

func (s *UserService) GetProfile(userID int64) (*entity.User, error) {
	u, err := s.Repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// UpdateProfileInput carries pointer fields so absent fields are left
// untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Bio       *string
	Location  *string
	Phone     *string
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, in UpdateProfileInput) (*entity.User, error) {
	u, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Location != nil {
		u.Location = *in.Location
	}
	if in.Phone != nil {
		u.Phone = *in.Phone
	}
	if err := s.Repo.Update(u); err != nil {
		return nil, err
	}
	s.dropPublicProfileCache(ctx, userID)
	return u, nil
}

// UploadAvatar stores the image in the blob store and points the profile
// at the returned URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID int64, r io.Reader, filename, contentType string) (string, error) {
	u, err := s.GetProfile(userID)
	if err != nil {
		return "", err
	}
	url, err := s.Blobs.Put(ctx, r, "avatars/"+strconv.FormatInt(userID, 10), filename, contentType)
	if err != nil {
		return "", err
	}
	u.Avatar = url
	if err := s.Repo.Update(u); err != nil {
		return "", err
	}
	if s.Redis != nil {
		s.Redis.HSet(ctx, sessionKey(u.ID), map[string]any{
			"avatar":     u.Avatar,
			"updated_at": nowRFC3339(),
		})
	}
	s.dropPublicProfileCache(ctx, userID)
	return url, nil
}

// Favorites resolves the user's favorite products with seller snapshots.
// Ids whose product was deleted resolve to absent and are skipped; the
// stale reference itself stays on the user record.
func (s *UserService) Favorites(ctx context.Context, userID int64) ([]ProductView, error) {
	u, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	products := make([]*entity.Product, 0, len(u.Favorites))
	for _, pid := range u.Favorites {
		p, err := s.Products.GetByID(pid)
		if err != nil {
			return nil, err
		}
		if p != nil {
			products = append(products, p)
		}
	}
	return resolver{users: s.Repo}.resolve(products, false)
}

// PublicProfileView is the public seller page: the profile projection plus
// the seller's available listings.
type PublicProfileView struct {
	User         entity.PublicProfile `json:"user"`
	Products     []ProductView        `json:"products"`
	ProductCount int                  `json:"product_count"`
}

func publicProfileKey(userID int64) string {
	return "user:public:" + strconv.FormatInt(userID, 10)
}

// PublicProfile builds the public seller page. The rendered page is cached
// in Redis with a short TTL; profile edits invalidate it eagerly, listing
// changes ride out the TTL.
func (s *UserService) PublicProfile(ctx context.Context, userID int64) (*PublicProfileView, error) {
	if s.Redis != nil {
		var cached PublicProfileView
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, publicProfileKey(userID), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	u, err := s.GetProfile(userID)
	if err != nil {
		return nil, err
	}
	listings, err := s.Products.Find(query.New().
		Where("seller", userID).
		Where("status", string(entity.StatusAvailable)))
	if err != nil {
		return nil, err
	}
	SortProducts(listings, SortNewest)
	items, err := resolver{users: s.Repo}.resolve(listings, false)
	if err != nil {
		return nil, err
	}

	view := &PublicProfileView{User: u.Public(), Products: items, ProductCount: len(items)}
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, publicProfileKey(userID), view, 5*time.Minute); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Warn("public profile cache write failed")
		}
	}
	return view, nil
}

func (s *UserService) dropPublicProfileCache(ctx context.Context, userID int64) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, publicProfileKey(userID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("public profile cache drop failed")
	}
}

// DashboardStats summarize a seller's listings.
type DashboardStats struct {
	TotalProducts  int   `json:"total_products"`
	ActiveProducts int   `json:"active_products"`
	SoldProducts   int   `json:"sold_products"`
	TotalViews     int64 `json:"total_views"`
	TotalLikes     int   `json:"total_likes"`
}

// Dashboard builds the seller dashboard: stats over all listings plus the
// latest 6 products and favorites.
func (s *UserService) Dashboard(ctx context.Context, userID int64) (*entity.User, []ProductView, []ProductView, DashboardStats, error) {
	u, err := s.GetProfile(userID)
	if err != nil {
		return nil, nil, nil, DashboardStats{}, err
	}
	mine, err := s.Products.Find(query.New().Where("seller", userID))
	if err != nil {
		return nil, nil, nil, DashboardStats{}, err
	}
	SortProducts(mine, SortNewest)

	stats := DashboardStats{TotalProducts: len(mine)}
	for _, p := range mine {
		switch p.Status {
		case entity.StatusAvailable:
			stats.ActiveProducts++
		case entity.StatusSold:
			stats.SoldProducts++
		}
		stats.TotalViews += p.Views
		stats.TotalLikes += len(p.Likes)
	}

	latest, _ := Paginate(mine, 1, 6)
	favorites, err := s.Favorites(ctx, userID)
	if err != nil {
		return nil, nil, nil, DashboardStats{}, err
	}
	if len(favorites) > 6 {
		favorites = favorites[:6]
	}
	return u, unresolved(latest), favorites, stats, nil
}
