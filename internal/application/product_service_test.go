package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/infrastructure/memory"
)

func newProductService(t *testing.T) (*ProductService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return &ProductService{Repo: store.Products(), Users: store.Users()}, store
}

func addUser(t *testing.T, store *memory.Store, username string) *entity.User {
	t.Helper()
	u := entity.NewUser(username, username+"@example.com", "hash", "", "")
	require.NoError(t, store.Users().Create(u))
	return u
}

func validData(title string) entity.ProductData {
	return entity.ProductData{
		Title:       title,
		Description: "lightly worn",
		Price:       25,
		Category:    "tops",
		Size:        "M",
		Condition:   "good",
	}
}

func TestCreateProduct(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")

	v, err := svc.Create(context.Background(), validData("Denim jacket"), seller.ID)
	require.NoError(t, err)
	assert.NotZero(t, v.ID)
	assert.Equal(t, entity.StatusAvailable, v.Status)
	assert.True(t, v.Negotiable)
	snap, ok := v.Seller.(*entity.SellerSnapshot)
	require.True(t, ok)
	assert.Equal(t, "ana", snap.Username)
}

func TestCreateProductUnknownSeller(t *testing.T) {
	svc, _ := newProductService(t)
	_, err := svc.Create(context.Background(), validData("Jacket"), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateProductValidation(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")

	cases := []struct {
		field  string
		mutate func(*entity.ProductData)
	}{
		{"title", func(d *entity.ProductData) { d.Title = "  " }},
		{"description", func(d *entity.ProductData) { d.Description = "" }},
		{"price", func(d *entity.ProductData) { d.Price = -1 }},
		{"category", func(d *entity.ProductData) { d.Category = "electronics" }},
		{"size", func(d *entity.ProductData) { d.Size = "44" }},
		{"condition", func(d *entity.ProductData) { d.Condition = "broken" }},
		{"status", func(d *entity.ProductData) { d.Status = entity.Status("archived") }},
	}
	for _, tc := range cases {
		data := validData("Jacket")
		tc.mutate(&data)
		_, err := svc.Create(context.Background(), data, seller.ID)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "case %s", tc.field)
		assert.Equal(t, tc.field, ve.Field)
	}
}

func TestGetIncrementsViews(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")
	created, err := svc.Create(context.Background(), validData("Jacket"), seller.ID)
	require.NoError(t, err)

	v, err := svc.Get(context.Background(), created.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Views)
	snap, ok := v.Seller.(*entity.SellerSnapshot)
	require.True(t, ok, "detail fetch resolves the seller")
	assert.NotNil(t, snap.MemberSince)

	v, err = svc.Get(context.Background(), created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v.Views)
	assert.Equal(t, seller.ID, v.Seller, "summary fetch keeps the raw reference")

	_, err = svc.Get(context.Background(), 99, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateOwnershipIsCheckedFirst(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")
	stranger := addUser(t, store, "bob")
	created, err := svc.Create(context.Background(), validData("Jacket"), seller.ID)
	require.NoError(t, err)

	title := "hijacked"
	_, err = svc.Update(context.Background(), created.ID, stranger.ID, UpdateProductInput{Title: &title})
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := store.Products().GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jacket", got.Title, "rejected update must not modify the product")
}

func TestUpdatePatchesProvidedFields(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")
	created, err := svc.Create(context.Background(), validData("Jacket"), seller.ID)
	require.NoError(t, err)

	price := 19.5
	tags := "Vintage, Denim"
	v, err := svc.Update(context.Background(), created.ID, seller.ID, UpdateProductInput{
		Price: &price,
		Tags:  &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, 19.5, v.Price)
	assert.Equal(t, []string{"vintage", "denim"}, v.Tags)
	assert.Equal(t, "Jacket", v.Title, "untouched fields survive the patch")

	bad := "spandex"
	_, err = svc.Update(context.Background(), created.ID, seller.ID, UpdateProductInput{Size: &bad})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "size", ve.Field)

	// clearing tags keeps the empty-slice shape the create path uses
	blank := "  "
	v, err = svc.Update(context.Background(), created.ID, seller.ID, UpdateProductInput{Tags: &blank})
	require.NoError(t, err)
	assert.NotNil(t, v.Tags)
	assert.Empty(t, v.Tags)
}

func TestUpdateStatusTransitionToSold(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")
	created, err := svc.Create(context.Background(), validData("Jacket"), seller.ID)
	require.NoError(t, err)

	sold := entity.StatusSold
	v, err := svc.Update(context.Background(), created.ID, seller.ID, UpdateProductInput{Status: &sold})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSold, v.Status)

	got, err := store.Products().GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSold, got.Status)
}

func TestDelete(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")
	buyer := addUser(t, store, "bob")
	created, err := svc.Create(context.Background(), validData("Jacket"), seller.ID)
	require.NoError(t, err)

	_, err = svc.ToggleLike(context.Background(), created.ID, buyer.ID)
	require.NoError(t, err)

	_, err = svc.Delete(context.Background(), created.ID, buyer.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	removed, err := svc.Delete(context.Background(), created.ID, seller.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jacket", removed.Title)

	_, err = svc.Get(context.Background(), created.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)

	// the buyer's favorite reference dangles on purpose
	gotBuyer, err := store.Users().GetByID(buyer.ID)
	require.NoError(t, err)
	assert.True(t, gotBuyer.HasFavorite(created.ID))

	_, err = svc.Delete(context.Background(), created.ID, seller.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleLikeRoundTrip(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")
	buyer := addUser(t, store, "bob")
	created, err := svc.Create(context.Background(), validData("Jacket"), seller.ID)
	require.NoError(t, err)

	res, err := svc.ToggleLike(context.Background(), created.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: true, LikeCount: 1}, res)

	res, err = svc.ToggleLike(context.Background(), created.ID, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, LikeResult{Liked: false, LikeCount: 0}, res)

	_, err = svc.ToggleLike(context.Background(), 99, buyer.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersSortsAndPaginates(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")

	mk := func(title, category string, price float64) *ProductView {
		data := validData(title)
		data.Category = category
		data.Price = price
		v, err := svc.Create(context.Background(), data, seller.ID)
		require.NoError(t, err)
		return v
	}
	mk("cheap top", "tops", 5)
	mk("pricey top", "tops", 95)
	mk("boots", "shoes", 40)

	soldData := validData("sold top")
	soldData.Category = "tops"
	soldV, err := svc.Create(context.Background(), soldData, seller.ID)
	require.NoError(t, err)
	sold := entity.StatusSold
	_, err = svc.Update(context.Background(), soldV.ID, seller.ID, UpdateProductInput{Status: &sold})
	require.NoError(t, err)

	// default listing hides non-available products
	res, err := svc.List(context.Background(), ListFilters{}, SortNewest, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalProducts)

	res, err = svc.List(context.Background(), ListFilters{Category: "tops"}, SortPriceLow, 1, 12)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "cheap top", res.Items[0].Title)
	assert.Equal(t, "pricey top", res.Items[1].Title)

	min := 30.0
	res, err = svc.List(context.Background(), ListFilters{MinPrice: &min}, SortNewest, 1, 12)
	require.NoError(t, err)
	require.Len(t, res.Items, 2)

	res, err = svc.List(context.Background(), ListFilters{}, SortNewest, 2, 2)
	require.NoError(t, err)
	assert.Len(t, res.Items, 1)
	assert.Equal(t, 2, res.TotalPages)
	assert.Equal(t, 2, res.CurrentPage)
	assert.Equal(t, 3, res.TotalProducts)
}

func TestListFullTextFilter(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")

	data := validData("Corduroy blazer")
	_, err := svc.Create(context.Background(), data, seller.ID)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validData("Plain tee"), seller.ID)
	require.NoError(t, err)

	res, err := svc.List(context.Background(), ListFilters{Search: "corduroy"}, SortNewest, 1, 12)
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Corduroy blazer", res.Items[0].Title)
}

func TestRelated(t *testing.T) {
	svc, store := newProductService(t)
	seller := addUser(t, store, "ana")

	var anchor *entity.Product
	for i := 0; i < 6; i++ {
		data := validData("top")
		v, err := svc.Create(context.Background(), data, seller.ID)
		require.NoError(t, err)
		if i == 0 {
			got, err := store.Products().GetByID(v.ID)
			require.NoError(t, err)
			anchor = got
		}
	}
	other := validData("boots")
	other.Category = "shoes"
	_, err := svc.Create(context.Background(), other, seller.ID)
	require.NoError(t, err)

	related, err := svc.Related(context.Background(), anchor)
	require.NoError(t, err)
	require.Len(t, related, 4, "capped at four")
	for _, v := range related {
		assert.NotEqual(t, anchor.ID, v.ID, "the product itself is excluded")
		assert.Equal(t, "tops", v.Category)
	}
}

func TestListBySeller(t *testing.T) {
	svc, store := newProductService(t)
	ana := addUser(t, store, "ana")
	bob := addUser(t, store, "bob")

	_, err := svc.Create(context.Background(), validData("ana's top"), ana.ID)
	require.NoError(t, err)
	soldV, err := svc.Create(context.Background(), validData("ana's sold top"), ana.ID)
	require.NoError(t, err)
	sold := entity.StatusSold
	_, err = svc.Update(context.Background(), soldV.ID, ana.ID, UpdateProductInput{Status: &sold})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validData("bob's top"), bob.ID)
	require.NoError(t, err)

	all, err := svc.ListBySeller(context.Background(), ana.ID, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	available, err := svc.ListBySeller(context.Background(), ana.ID, true)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, "ana's top", available[0].Title)
}

func TestSearchWithoutElasticsearch(t *testing.T) {
	svc, _ := newProductService(t)
	hits, err := svc.Search(context.Background(), "denim", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
