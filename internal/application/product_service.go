package application

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/query"
	repo "github.com/thriftly/thriftly/internal/domain/repository"
	"github.com/thriftly/thriftly/pkg/helpers"
	"github.com/thriftly/thriftly/pkg/mailer"
)

// ProductService covers listing CRUD, browsing, likes, and view counting.
// Blob upload/delete stays with the HTTP layer; this service works with
// already-uploaded image references.
type ProductService struct {
	Repo    repo.ProductRepository
	Users   repo.UserRepository
	Logger  *logrus.Logger
	Pub     *helpers.RabbitPublisher
	ES      *elasticsearch.Client
	ESIndex string
}

// ListFilters are the browse-page filters. Brand and color match as
// case-insensitive substrings; the price bounds are inclusive.
type ListFilters struct {
	Category  string
	Size      string
	Condition string
	Brand     string
	Color     string
	MinPrice  *float64
	MaxPrice  *float64
	Search    string
	Featured  *bool
	Seller    *int64
	Status    entity.Status
}

func (f ListFilters) build() *query.Query {
	q := query.New()
	status := f.Status
	if status == "" {
		status = entity.StatusAvailable
	}
	q.Where("status", string(status))
	if f.Category != "" {
		q.Where("category", f.Category)
	}
	if f.Size != "" {
		q.Where("size", f.Size)
	}
	if f.Condition != "" {
		q.Where("condition", f.Condition)
	}
	if f.Brand != "" {
		q.WherePattern("brand", f.Brand)
	}
	if f.Color != "" {
		q.WherePattern("color", f.Color)
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		q.WhereRange("price", f.MinPrice, f.MaxPrice)
	}
	if f.Featured != nil {
		q.Where("featured", *f.Featured)
	}
	if f.Seller != nil {
		q.Where("seller", *f.Seller)
	}
	if f.Search != "" {
		q.FullText(f.Search)
	}
	return q
}

// ListResult is one page of resolved products.
type ListResult struct {
	Items         []ProductView `json:"products"`
	TotalPages    int           `json:"total_pages"`
	CurrentPage   int           `json:"current_page"`
	TotalProducts int           `json:"total_products"`
}

// List filters, sorts, paginates, and resolves seller snapshots.
func (s *ProductService) List(ctx context.Context, f ListFilters, sortBy SortKey, page, limit int) (*ListResult, error) {
	if limit <= 0 {
		limit = 12
	}
	if page < 1 {
		page = 1
	}
	matches, err := s.Repo.Find(f.build())
	if err != nil {
		return nil, err
	}
	SortProducts(matches, sortBy)
	pageItems, totalPages := Paginate(matches, page, limit)
	items, err := resolver{users: s.Users}.resolve(pageItems, false)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items:         items,
		TotalPages:    totalPages,
		CurrentPage:   page,
		TotalProducts: len(matches),
	}, nil
}

// Get fetches one product, bumping the view counter. resolveRelations
// selects the detail seller projection.
func (s *ProductService) Get(ctx context.Context, id int64, resolveRelations bool) (*ProductView, error) {
	if err := s.Repo.IncrementViews(id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if !resolveRelations {
		v := newView(p)
		return &v, nil
	}
	v, err := resolver{users: s.Users}.resolveOne(p, true)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Related returns up to four newest available products in the same
// category, excluding the product itself.
func (s *ProductService) Related(ctx context.Context, p *entity.Product) ([]ProductView, error) {
	q := query.New().
		Where("status", string(entity.StatusAvailable)).
		Where("category", p.Category).
		WhereNot("id", p.ID)
	matches, err := s.Repo.Find(q)
	if err != nil {
		return nil, err
	}
	SortProducts(matches, SortNewest)
	related, _ := Paginate(matches, 1, 4)
	return resolver{users: s.Users}.resolve(related, false)
}

func validateProductData(data *entity.ProductData) error {
	if strings.TrimSpace(data.Title) == "" {
		return invalidField("title", "is required")
	}
	if strings.TrimSpace(data.Description) == "" {
		return invalidField("description", "is required")
	}
	if data.Price < 0 {
		return invalidField("price", "must be greater than or equal to 0")
	}
	if data.OriginalPrice != nil && *data.OriginalPrice < 0 {
		return invalidField("original_price", "must be greater than or equal to 0")
	}
	if !entity.ValidCategory(data.Category) {
		return invalidField("category", "must be one of: "+strings.Join(entity.Categories, ", "))
	}
	if !entity.ValidSize(data.Size) {
		return invalidField("size", "must be one of: "+strings.Join(entity.Sizes, ", "))
	}
	if !entity.ValidCondition(data.Condition) {
		return invalidField("condition", "must be one of: "+strings.Join(entity.Conditions, ", "))
	}
	if data.Status != "" && !entity.ValidStatus(data.Status) {
		return invalidField("status", "must be one of: available, sold, reserved, inactive")
	}
	if data.ShippingOptions != nil && data.ShippingOptions.ShippingCost < 0 {
		return invalidField("shipping_cost", "must be greater than or equal to 0")
	}
	return nil
}

// Create validates and stores a new listing for sellerID. Images must
// already be uploaded; the refs travel in data.Images.
func (s *ProductService) Create(ctx context.Context, data entity.ProductData, sellerID int64) (*ProductView, error) {
	seller, err := s.Users.GetByID(sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, ErrNotFound
	}
	if err := validateProductData(&data); err != nil {
		return nil, err
	}
	p := entity.NewProduct(data, sellerID)
	if err := s.Repo.Create(p); err != nil {
		return nil, err
	}
	s.indexProduct(ctx, p)
	v := ProductView{Product: *p, Seller: seller.Snapshot(false), LikeCount: 0}
	return &v, nil
}

// UpdateProductInput patches a listing. Pointer fields distinguish absent
// from zero; NewImages are appended to the existing sequence.
type UpdateProductInput struct {
	Title         *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	Category      *string
	Subcategory   *string
	Brand         *string
	Size          *string
	Condition     *string
	Color         *string
	Material      *string
	Status        *entity.Status
	Tags          *string // comma-separated, re-split like the create form
	Negotiable    *bool
	Featured      *bool
	Measurements  *entity.Measurements
	Shipping      *entity.ShippingOptions
	NewImages     []entity.Image
}

// Update applies the patch after the ownership check. A non-owner request
// fails with ErrForbidden and leaves the product unmodified. A status
// transition to sold notifies the seller by email.
func (s *ProductService) Update(ctx context.Context, id, requesterID int64, in UpdateProductInput) (*ProductView, error) {
	p, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.Seller != requesterID {
		return nil, ErrForbidden
	}

	wasSold := p.Status == entity.StatusSold
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, invalidField("price", "must be greater than or equal to 0")
		}
		p.Price = *in.Price
	}
	if in.OriginalPrice != nil {
		if *in.OriginalPrice < 0 {
			return nil, invalidField("original_price", "must be greater than or equal to 0")
		}
		p.OriginalPrice = in.OriginalPrice
	}
	if in.Category != nil {
		if !entity.ValidCategory(*in.Category) {
			return nil, invalidField("category", "must be one of: "+strings.Join(entity.Categories, ", "))
		}
		p.Category = *in.Category
	}
	if in.Subcategory != nil {
		p.Subcategory = *in.Subcategory
	}
	if in.Brand != nil {
		p.Brand = *in.Brand
	}
	if in.Size != nil {
		if !entity.ValidSize(*in.Size) {
			return nil, invalidField("size", "must be one of: "+strings.Join(entity.Sizes, ", "))
		}
		p.Size = *in.Size
	}
	if in.Condition != nil {
		if !entity.ValidCondition(*in.Condition) {
			return nil, invalidField("condition", "must be one of: "+strings.Join(entity.Conditions, ", "))
		}
		p.Condition = *in.Condition
	}
	if in.Color != nil {
		p.Color = *in.Color
	}
	if in.Material != nil {
		p.Material = *in.Material
	}
	if in.Status != nil {
		if !entity.ValidStatus(*in.Status) {
			return nil, invalidField("status", "must be one of: available, sold, reserved, inactive")
		}
		p.Status = *in.Status
	}
	if in.Tags != nil {
		tags := entity.SplitTags(*in.Tags)
		if tags == nil {
			tags = []string{}
		}
		p.Tags = tags
	}
	if in.Negotiable != nil {
		p.Negotiable = *in.Negotiable
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
	if in.Measurements != nil {
		p.Measurements = *in.Measurements
	}
	if in.Shipping != nil {
		if in.Shipping.ShippingCost < 0 {
			return nil, invalidField("shipping_cost", "must be greater than or equal to 0")
		}
		p.ShippingOptions = *in.Shipping
	}
	if len(in.NewImages) > 0 {
		p.Images = append(p.Images, in.NewImages...)
	}

	if err := s.Repo.Update(p); err != nil {
		return nil, err
	}
	s.indexProduct(ctx, p)

	if !wasSold && p.Status == entity.StatusSold {
		s.notifySold(ctx, p)
	}

	v, err := resolver{users: s.Users}.resolveOne(p, false)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete removes the listing after the ownership check and returns the
// removed record so the HTTP layer can delete the image blobs. Stale
// favorite references to the id are left in place.
func (s *ProductService) Delete(ctx context.Context, id, requesterID int64) (*entity.Product, error) {
	p, err := s.Repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNotFound
	}
	if p.Seller != requesterID {
		return nil, ErrForbidden
	}
	removed, err := s.Repo.Delete(id)
	if err != nil {
		return nil, err
	}
	s.deindexProduct(ctx, id)
	return removed, nil
}

// LikeResult is the outcome of a toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// ToggleLike flips the like state for the product/user pair. Both sides of
// the relation update atomically or not at all.
func (s *ProductService) ToggleLike(ctx context.Context, productID, userID int64) (LikeResult, error) {
	liked, count, err := s.Repo.ToggleLike(productID, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return LikeResult{}, ErrNotFound
		}
		return LikeResult{}, err
	}
	return LikeResult{Liked: liked, LikeCount: count}, nil
}

// ListBySeller returns a seller's listings, newest first, un-paginated.
func (s *ProductService) ListBySeller(ctx context.Context, sellerID int64, onlyAvailable bool) ([]ProductView, error) {
	q := query.New().Where("seller", sellerID)
	if onlyAvailable {
		q.Where("status", string(entity.StatusAvailable))
	}
	matches, err := s.Repo.Find(q)
	if err != nil {
		return nil, err
	}
	SortProducts(matches, SortNewest)
	return resolver{users: s.Users}.resolve(matches, false)
}

func (s *ProductService) notifySold(ctx context.Context, p *entity.Product) {
	if s.Pub == nil {
		return
	}
	seller, err := s.Users.GetByID(p.Seller)
	if err != nil || seller == nil {
		return
	}
	job := mailer.EmailJob{
		To:       seller.Email,
		Template: mailer.TemplateProductSold,
		Data: map[string]any{
			"Username": seller.Username,
			"Title":    p.Title,
			"Price":    p.Price,
		},
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("product_id", p.ID).Warn("sold email publish failed")
	}
}

func (s *ProductService) indexProduct(ctx context.Context, p *entity.Product) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":          p.ID,
		"title":       p.Title,
		"description": p.Description,
		"brand":       p.Brand,
		"category":    p.Category,
		"tags":        p.Tags,
		"price":       p.Price,
		"status":      string(p.Status),
		"created_at":  p.CreatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{
		Index:      s.ESIndex,
		DocumentID: strconv.FormatInt(p.ID, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("product_id", p.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("product_id", p.ID).Warn("es index response error")
	}
}

func (s *ProductService) deindexProduct(ctx context.Context, id int64) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: strconv.FormatInt(id, 10)}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("product_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search runs a multi_match query against the product index. It returns
// empty results when Elasticsearch is not configured.
func (s *ProductService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 12
	}
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "description", "brand", "tags"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(body)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
