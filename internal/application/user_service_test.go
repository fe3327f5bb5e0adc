package application

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/infrastructure/memory"
	"github.com/thriftly/thriftly/pkg/blob"
	"github.com/thriftly/thriftly/pkg/helpers"
)

func newUserService(t *testing.T) (*UserService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := &UserService{
		Repo:     store.Users(),
		Products: store.Products(),
		Hasher:   helpers.NewBcryptHasher(),
		Blobs:    blob.NewMemory(),
	}
	return svc, store
}

func register(t *testing.T, svc *UserService, username, email string) *entity.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func TestRegisterNormalizesEmail(t *testing.T) {
	svc, _ := newUserService(t)
	u := register(t, svc, "ana", "  Ana@Example.COM ")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "password123", u.Password, "stored password must be a hash")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newUserService(t)
	register(t, svc, "ana", "ana@example.com")

	// same email, different case
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "other", Email: "ANA@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrDuplicateUser)

	// same username, different email
	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "ana", Email: "second@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestRegisterRequiredFields(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "  ", Email: "x@example.com", Password: "password123",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "username", ve.Field)

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "ana", Password: "password123",
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newUserService(t)
	register(t, svc, "ana", "ana@example.com")

	u, err := svc.Authenticate(context.Background(), "ana@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.False(t, u.LastActive.IsZero())

	_, err = svc.Authenticate(context.Background(), "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestGetProfileMissing(t *testing.T) {
	svc, _ := newUserService(t)
	_, err := svc.GetProfile(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfilePatchesOnlyProvidedFields(t *testing.T) {
	svc, _ := newUserService(t)
	u := register(t, svc, "ana", "ana@example.com")

	bio := "Selling my closet"
	got, err := svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "Selling my closet", got.Bio)
	assert.Equal(t, "ana", got.Username)

	// absent pointers leave the previous values alone
	loc := "Berlin"
	got, err = svc.UpdateProfile(context.Background(), u.ID, UpdateProfileInput{Location: &loc})
	require.NoError(t, err)
	assert.Equal(t, "Selling my closet", got.Bio)
	assert.Equal(t, "Berlin", got.Location)
}

func TestUploadAvatar(t *testing.T) {
	svc, _ := newUserService(t)
	u := register(t, svc, "ana", "ana@example.com")

	url, err := svc.UploadAvatar(context.Background(), u.ID, strings.NewReader("png-bytes"), "me.png", "image/png")
	require.NoError(t, err)
	assert.NotEmpty(t, url)

	got, err := svc.GetProfile(u.ID)
	require.NoError(t, err)
	assert.Equal(t, url, got.Avatar)
}

func TestFavoritesSkipsDeletedProducts(t *testing.T) {
	svc, store := newUserService(t)
	seller := register(t, svc, "seller", "seller@example.com")
	buyer := register(t, svc, "buyer", "buyer@example.com")

	keep := entity.NewProduct(entity.ProductData{Title: "keep", Price: 5}, seller.ID)
	gone := entity.NewProduct(entity.ProductData{Title: "gone", Price: 5}, seller.ID)
	require.NoError(t, store.Products().Create(keep))
	require.NoError(t, store.Products().Create(gone))

	_, _, err := store.Products().ToggleLike(keep.ID, buyer.ID)
	require.NoError(t, err)
	_, _, err = store.Products().ToggleLike(gone.ID, buyer.ID)
	require.NoError(t, err)

	_, err = store.Products().Delete(gone.ID)
	require.NoError(t, err)

	favs, err := svc.Favorites(context.Background(), buyer.ID)
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "keep", favs[0].Title)

	// the stale reference itself is preserved on the record
	got, err := svc.GetProfile(buyer.ID)
	require.NoError(t, err)
	assert.True(t, got.HasFavorite(gone.ID))
}

func TestPublicProfileShowsOnlyAvailableListings(t *testing.T) {
	svc, store := newUserService(t)
	seller := register(t, svc, "seller", "seller@example.com")

	active := entity.NewProduct(entity.ProductData{Title: "active", Price: 5}, seller.ID)
	require.NoError(t, store.Products().Create(active))
	sold := entity.NewProduct(entity.ProductData{Title: "sold", Price: 5}, seller.ID)
	require.NoError(t, store.Products().Create(sold))
	sold.Status = entity.StatusSold
	require.NoError(t, store.Products().Update(sold))

	view, err := svc.PublicProfile(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "seller", view.User.Username)
	require.Len(t, view.Products, 1)
	assert.Equal(t, "active", view.Products[0].Title)
	assert.Equal(t, 1, view.ProductCount)

	_, err = svc.PublicProfile(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDashboard(t *testing.T) {
	svc, store := newUserService(t)
	seller := register(t, svc, "seller", "seller@example.com")
	buyer := register(t, svc, "buyer", "buyer@example.com")

	sold := entity.NewProduct(entity.ProductData{Title: "sold", Price: 5}, seller.ID)
	require.NoError(t, store.Products().Create(sold))
	sold.Status = entity.StatusSold
	sold.Views = 10
	require.NoError(t, store.Products().Update(sold))

	active := entity.NewProduct(entity.ProductData{Title: "active", Price: 5}, seller.ID)
	require.NoError(t, store.Products().Create(active))
	active.Views = 3
	require.NoError(t, store.Products().Update(active))

	_, _, err := store.Products().ToggleLike(active.ID, buyer.ID)
	require.NoError(t, err)

	u, latest, favorites, stats, err := svc.Dashboard(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "seller", u.Username)
	assert.Len(t, latest, 2)
	assert.Empty(t, favorites)
	assert.Equal(t, DashboardStats{
		TotalProducts:  2,
		ActiveProducts: 1,
		SoldProducts:   1,
		TotalViews:     13,
		TotalLikes:     1,
	}, stats)
}
