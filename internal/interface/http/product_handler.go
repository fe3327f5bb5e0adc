package handlers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/thriftly/thriftly/internal/application"
	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/interface/middleware"
	"github.com/thriftly/thriftly/pkg/blob"
	"github.com/thriftly/thriftly/pkg/response"
)

const (
	maxImageBytes     = 10 << 20
	maxImagesPerParse = 5
)

type ProductHandler struct {
	Svc    *application.ProductService
	Blobs  blob.Store
	Logger *logrus.Logger
}

func NewProductHandler(svc *application.ProductService, blobs blob.Store, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{Svc: svc, Blobs: blobs, Logger: logger}
}

func parseFloatField(c *gin.Context, name string) (*float64, bool) {
	v, ok := c.GetPostForm(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{name: "must be numeric"})
		return nil, false
	}
	return &f, true
}

func parseBoolField(c *gin.Context, name string) (*bool, bool) {
	v, ok := c.GetPostForm(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{name: "must be a boolean value"})
		return nil, false
	}
	return &b, true
}

// uploadImages stores each uploaded file and returns blob references. On a
// failed upload the already-stored blobs are removed again.
func (h *ProductHandler) uploadImages(ctx context.Context, files []*multipart.FileHeader, alt string) ([]entity.Image, error) {
	images := make([]entity.Image, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			h.cleanupImages(ctx, images)
			return nil, err
		}
		url, err := h.Blobs.Put(ctx, f, "products", fh.Filename, fh.Header.Get("Content-Type"))
		_ = f.Close()
		if err != nil {
			h.cleanupImages(ctx, images)
			return nil, err
		}
		images = append(images, entity.Image{URL: url, Alt: alt})
	}
	return images, nil
}

func (h *ProductHandler) cleanupImages(ctx context.Context, images []entity.Image) {
	for _, img := range images {
		if err := h.Blobs.Delete(ctx, img.URL); err != nil && h.Logger != nil {
			h.Logger.WithError(err).WithField("url", img.URL).Warn("image cleanup failed")
		}
	}
}

func imageFiles(c *gin.Context) ([]*multipart.FileHeader, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, true
	}
	files := form.File["images"]
	if len(files) > maxImagesPerParse {
		response.Error[any](c, http.StatusBadRequest, "too many images", nil)
		return nil, false
	}
	for _, fh := range files {
		if fh.Size > maxImageBytes {
			response.Error[any](c, http.StatusBadRequest, "image too large", nil)
			return nil, false
		}
	}
	return files, true
}

// Create POST /api/products (auth required, multipart)
func (h *ProductHandler) Create(c *gin.Context) {
	price, ok := parseFloatField(c, "price")
	if !ok {
		return
	}
	if price == nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"price": "is required"})
		return
	}
	originalPrice, ok := parseFloatField(c, "original_price")
	if !ok {
		return
	}
	negotiable, ok := parseBoolField(c, "negotiable")
	if !ok {
		return
	}

	data := entity.ProductData{
		Title:         c.PostForm("title"),
		Description:   c.PostForm("description"),
		OriginalPrice: originalPrice,
		Category:      c.PostForm("category"),
		Subcategory:   c.PostForm("subcategory"),
		Brand:         c.PostForm("brand"),
		Size:          c.PostForm("size"),
		Condition:     c.PostForm("condition"),
		Color:         c.PostForm("color"),
		Material:      c.PostForm("material"),
		Status:        entity.Status(c.PostForm("status")),
		Tags:          entity.SplitTags(c.PostForm("tags")),
		Negotiable:    negotiable,
	}
	if price != nil {
		data.Price = *price
	}
	if raw := c.PostForm("measurements"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &data.Measurements); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"measurements": "must be valid JSON"})
			return
		}
	}
	if raw := c.PostForm("shipping_options"); raw != "" {
		var so entity.ShippingOptions
		if err := json.Unmarshal([]byte(raw), &so); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"shipping_options": "must be valid JSON"})
			return
		}
		data.ShippingOptions = &so
	}

	files, ok := imageFiles(c)
	if !ok {
		return
	}
	images, err := h.uploadImages(c.Request.Context(), files, data.Title)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "image upload failed", nil)
		return
	}
	data.Images = images

	v, err := h.Svc.Create(c.Request.Context(), data, middleware.UserID(c))
	if err != nil {
		h.cleanupImages(c.Request.Context(), images)
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, v, "product created", nil)
}

// List GET /api/products
func (h *ProductHandler) List(c *gin.Context) {
	f := application.ListFilters{
		Category:  c.Query("category"),
		Size:      c.Query("size"),
		Condition: c.Query("condition"),
		Brand:     c.Query("brand"),
		Color:     c.Query("color"),
		Search:    c.Query("search"),
	}
	if v := c.Query("min_price"); v != "" {
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &fv
		}
	}
	if v := c.Query("max_price"); v != "" {
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &fv
		}
	}
	if v := c.Query("featured"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.Featured = &b
		}
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	sortBy := application.ParseSortKey(c.Query("sort"))

	res, err := h.Svc.List(c.Request.Context(), f, sortBy, page, limit)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res.Items, "products", map[string]any{
		"total_pages":    res.TotalPages,
		"current_page":   res.CurrentPage,
		"total_products": res.TotalProducts,
	})
}

// Get GET /api/products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid product id", nil)
		return
	}
	v, err := h.Svc.Get(c.Request.Context(), id, true)
	if err != nil {
		writeAppError(c, err)
		return
	}
	related, err := h.Svc.Related(c.Request.Context(), &v.Product)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"product": v,
		"related": related,
	}, "product", nil)
}

// Update PUT /api/products/:id (auth required, multipart)
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid product id", nil)
		return
	}

	var in application.UpdateProductInput
	strField := func(name string) *string {
		if v, ok := c.GetPostForm(name); ok {
			return &v
		}
		return nil
	}
	in.Title = strField("title")
	in.Description = strField("description")
	in.Subcategory = strField("subcategory")
	in.Brand = strField("brand")
	in.Color = strField("color")
	in.Material = strField("material")
	in.Category = strField("category")
	in.Size = strField("size")
	in.Condition = strField("condition")
	in.Tags = strField("tags")

	var ok bool
	if in.Price, ok = parseFloatField(c, "price"); !ok {
		return
	}
	if in.OriginalPrice, ok = parseFloatField(c, "original_price"); !ok {
		return
	}
	if in.Negotiable, ok = parseBoolField(c, "negotiable"); !ok {
		return
	}
	if in.Featured, ok = parseBoolField(c, "featured"); !ok {
		return
	}
	if v, present := c.GetPostForm("status"); present {
		st := entity.Status(v)
		in.Status = &st
	}
	if raw := c.PostForm("measurements"); raw != "" {
		var m entity.Measurements
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"measurements": "must be valid JSON"})
			return
		}
		in.Measurements = &m
	}
	if raw := c.PostForm("shipping_options"); raw != "" {
		var so entity.ShippingOptions
		if err := json.Unmarshal([]byte(raw), &so); err != nil {
			response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"shipping_options": "must be valid JSON"})
			return
		}
		in.Shipping = &so
	}

	files, ok := imageFiles(c)
	if !ok {
		return
	}
	alt := ""
	if in.Title != nil {
		alt = *in.Title
	}
	images, err := h.uploadImages(c.Request.Context(), files, alt)
	if err != nil {
		response.Error[any](c, http.StatusInternalServerError, "image upload failed", nil)
		return
	}
	in.NewImages = images

	v, err := h.Svc.Update(c.Request.Context(), id, middleware.UserID(c), in)
	if err != nil {
		h.cleanupImages(c.Request.Context(), images)
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, v, "product updated", nil)
}

// Delete DELETE /api/products/:id (auth required)
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid product id", nil)
		return
	}
	removed, err := h.Svc.Delete(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	if removed != nil {
		h.cleanupImages(c.Request.Context(), removed.Images)
	}
	response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "product deleted", nil)
}

// ToggleLike POST /api/products/:id/like (auth required)
func (h *ProductHandler) ToggleLike(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid product id", nil)
		return
	}
	res, err := h.Svc.ToggleLike(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "like toggled", nil)
}

// Search GET /api/products/search?q=
func (h *ProductHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("limit", "12"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		writeAppError(c, err)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", nil)
}
