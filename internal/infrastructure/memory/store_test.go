package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/query"
	repo "github.com/thriftly/thriftly/internal/domain/repository"
)

func newSeller(t *testing.T, s *Store, username string) *entity.User {
	t.Helper()
	u := entity.NewUser(username, username+"@example.com", "hash", "", "")
	require.NoError(t, s.Users().Create(u))
	return u
}

func newListing(t *testing.T, s *Store, sellerID int64, title string) *entity.Product {
	t.Helper()
	p := entity.NewProduct(entity.ProductData{
		Title: title, Description: "d", Price: 10,
		Category: "tops", Size: "M", Condition: "good",
	}, sellerID)
	require.NoError(t, s.Products().Create(p))
	return p
}

func TestIDsAreAssignedAndNeverReused(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")

	p1 := newListing(t, s, seller.ID, "one")
	p2 := newListing(t, s, seller.ID, "two")
	assert.Equal(t, int64(1), p1.ID)
	assert.Equal(t, int64(2), p2.ID)

	removed, err := s.Products().Delete(p2.ID)
	require.NoError(t, err)
	require.NotNil(t, removed)

	p3 := newListing(t, s, seller.ID, "three")
	assert.Equal(t, int64(3), p3.ID, "deleted ids must not be reused")
}

func TestGetReturnsDetachedCopies(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	p := newListing(t, s, seller.ID, "original")

	got, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	got.Title = "mutated"
	got.Tags = append(got.Tags, "sneaky")

	again, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
	assert.Empty(t, again.Tags)
}

func TestGetAbsentIsNilNil(t *testing.T) {
	s := NewStore()

	p, err := s.Products().GetByID(42)
	require.NoError(t, err)
	assert.Nil(t, p)

	u, err := s.Users().GetByID(42)
	require.NoError(t, err)
	assert.Nil(t, u)

	removed, err := s.Products().Delete(42)
	require.NoError(t, err)
	assert.Nil(t, removed)
}

func TestMutationsOnMissingTargetsFail(t *testing.T) {
	s := NewStore()

	err := s.Products().IncrementViews(42)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestGetByEmailNormalizes(t *testing.T) {
	s := NewStore()
	newSeller(t, s, "ana")

	u, err := s.Users().GetByEmail("  ANA@Example.Com ")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ana", u.Username)
}

func TestGetManyPreservesOrderAndSkipsMissing(t *testing.T) {
	s := NewStore()
	a := newSeller(t, s, "ana")
	b := newSeller(t, s, "bob")

	got, err := s.Users().GetMany([]int64{b.ID, 99, a.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bob", got[0].Username)
	assert.Equal(t, "ana", got[1].Username)
}

func TestFindInsertionOrderAndCount(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	newListing(t, s, seller.ID, "first")
	newListing(t, s, seller.ID, "second")

	all, err := s.Products().Find(nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Title)
	assert.Equal(t, "second", all[1].Title)

	n, err := s.Products().Count(query.New().Where("title", "second"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestToggleLikeKeepsBothSidesInAgreement(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	buyer := newSeller(t, s, "bob")
	p := newListing(t, s, seller.ID, "jacket")

	liked, count, err := s.Products().ToggleLike(p.ID, buyer.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	gotP, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	gotU, err := s.Users().GetByID(buyer.ID)
	require.NoError(t, err)
	assert.True(t, gotP.LikedBy(buyer.ID))
	assert.True(t, gotU.HasFavorite(p.ID))

	// second toggle is the exact inverse
	liked, count, err = s.Products().ToggleLike(p.ID, buyer.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 0, count)

	gotP, err = s.Products().GetByID(p.ID)
	require.NoError(t, err)
	gotU, err = s.Users().GetByID(buyer.ID)
	require.NoError(t, err)
	assert.False(t, gotP.LikedBy(buyer.ID))
	assert.False(t, gotU.HasFavorite(p.ID))
}

func TestToggleLikeMissingEitherSideChangesNothing(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	p := newListing(t, s, seller.ID, "jacket")

	_, _, err := s.Products().ToggleLike(p.ID, 99)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	_, _, err = s.Products().ToggleLike(99, seller.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	gotP, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	assert.Empty(t, gotP.Likes)
	gotU, err := s.Users().GetByID(seller.ID)
	require.NoError(t, err)
	assert.Empty(t, gotU.Favorites)
}

func TestUserSavePreservesFavorites(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	buyer := newSeller(t, s, "bob")
	p := newListing(t, s, seller.ID, "jacket")

	// read-modify-write that races a toggle: the detached copy predates the
	// like and must not clobber it on save
	detached, err := s.Users().GetByID(buyer.ID)
	require.NoError(t, err)

	_, _, err = s.Products().ToggleLike(p.ID, buyer.ID)
	require.NoError(t, err)

	detached.Bio = "updated elsewhere"
	require.NoError(t, s.Users().Update(detached))

	gotU, err := s.Users().GetByID(buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated elsewhere", gotU.Bio)
	assert.True(t, gotU.HasFavorite(p.ID), "favorites belong to the like relation and must survive a profile save")
	gotP, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	assert.True(t, gotP.LikedBy(buyer.ID))
}

func TestProductSavePreservesLikes(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	buyer := newSeller(t, s, "bob")
	p := newListing(t, s, seller.ID, "jacket")

	detached, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)

	_, _, err = s.Products().ToggleLike(p.ID, buyer.ID)
	require.NoError(t, err)

	detached.Title = "renamed"
	require.NoError(t, s.Products().Update(detached))

	gotP, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", gotP.Title)
	assert.True(t, gotP.LikedBy(buyer.ID), "likes must survive a whole-record save")
	gotU, err := s.Users().GetByID(buyer.ID)
	require.NoError(t, err)
	assert.True(t, gotU.HasFavorite(p.ID))
}

func TestDeleteLeavesStaleFavoriteReferences(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	buyer := newSeller(t, s, "bob")
	p := newListing(t, s, seller.ID, "jacket")

	_, _, err := s.Products().ToggleLike(p.ID, buyer.ID)
	require.NoError(t, err)

	_, err = s.Products().Delete(p.ID)
	require.NoError(t, err)

	// no cascade: the dangling id stays on the user record
	gotU, err := s.Users().GetByID(buyer.ID)
	require.NoError(t, err)
	assert.True(t, gotU.HasFavorite(p.ID))

	gone, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestConcurrentTogglesStayConsistent(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	p := newListing(t, s, seller.ID, "jacket")

	const buyers = 16
	ids := make([]int64, 0, buyers)
	for i := 0; i < buyers; i++ {
		u := entity.NewUser(
			"buyer"+string(rune('a'+i)),
			"buyer"+string(rune('a'+i))+"@example.com",
			"hash", "", "",
		)
		require.NoError(t, s.Users().Create(u))
		ids = append(ids, u.ID)
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			// like, unlike, like again: net effect one like per buyer
			for i := 0; i < 3; i++ {
				_, _, err := s.Products().ToggleLike(p.ID, uid)
				assert.NoError(t, err)
			}
		}(id)
	}
	wg.Wait()

	got, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Likes, buyers)
	for _, uid := range ids {
		u, err := s.Users().GetByID(uid)
		require.NoError(t, err)
		assert.True(t, u.HasFavorite(p.ID))
	}
}

func TestUpdateRefreshesUpdatedAt(t *testing.T) {
	s := NewStore()
	seller := newSeller(t, s, "ana")
	p := newListing(t, s, seller.ID, "jacket")
	created := p.UpdatedAt

	p.Title = "renamed"
	require.NoError(t, s.Products().Update(p))

	got, err := s.Products().GetByID(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.False(t, got.UpdatedAt.Before(created))
}
