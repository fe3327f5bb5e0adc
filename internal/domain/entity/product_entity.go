package entity

import (
	"strings"
	"time"
)

// Product status lifecycle.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusReserved  Status = "reserved"
	StatusInactive  Status = "inactive"
)

// ValidStatus reports whether s is one of the known statuses.
func ValidStatus(s Status) bool {
	switch s {
	case StatusAvailable, StatusSold, StatusReserved, StatusInactive:
		return true
	}
	return false
}

// Categories, sizes and conditions form the fixed enums a listing must
// pick from.
var (
	Categories = []string{"tops", "bottoms", "dresses", "outerwear", "shoes", "accessories", "bags", "jewelry"}
	Sizes      = []string{"XXS", "XS", "S", "M", "L", "XL", "XXL", "one-size"}
	Conditions = []string{"new-with-tags", "like-new", "good", "fair", "worn"}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}

func ValidCategory(v string) bool  { return oneOf(v, Categories) }
func ValidSize(v string) bool      { return oneOf(v, Sizes) }
func ValidCondition(v string) bool { return oneOf(v, Conditions) }

// Image is one product photo.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Measurements are optional garment dimensions in centimeters.
type Measurements struct {
	Bust   *float64 `json:"bust,omitempty"`
	Waist  *float64 `json:"waist,omitempty"`
	Hips   *float64 `json:"hips,omitempty"`
	Length *float64 `json:"length,omitempty"`
	Sleeve *float64 `json:"sleeve,omitempty"`
	Inseam *float64 `json:"inseam,omitempty"`
}

// ShippingOptions describe how a product ships.
type ShippingOptions struct {
	FreeShipping       bool    `json:"free_shipping"`
	ShippingCost       float64 `json:"shipping_cost"`
	ExpeditedAvailable bool    `json:"expedited_available"`
}

// Product is a marketplace listing. Seller holds only the user identity;
// resolution to a SellerSnapshot happens in the application layer.
type Product struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	Price           float64         `json:"price"`
	OriginalPrice   *float64        `json:"original_price,omitempty"`
	Category        string          `json:"category"`
	Subcategory     string          `json:"subcategory,omitempty"`
	Brand           string          `json:"brand,omitempty"`
	Size            string          `json:"size"`
	Condition       string          `json:"condition"`
	Color           string          `json:"color,omitempty"`
	Material        string          `json:"material,omitempty"`
	Images          []Image         `json:"images"`
	Seller          int64           `json:"seller"`
	Status          Status          `json:"status"`
	Measurements    Measurements    `json:"measurements"`
	Tags            []string        `json:"tags"`
	Likes           []int64         `json:"likes"`
	Views           int64           `json:"views"`
	Featured        bool            `json:"featured"`
	Negotiable      bool            `json:"negotiable"`
	ShippingOptions ShippingOptions `json:"shipping_options"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProductData carries the caller-supplied fields for a new listing.
// Negotiable is a pointer so that an absent field defaults to true while an
// explicit false is preserved.
type ProductData struct {
	Title           string
	Description     string
	Price           float64
	OriginalPrice   *float64
	Category        string
	Subcategory     string
	Brand           string
	Size            string
	Condition       string
	Color           string
	Material        string
	Images          []Image
	Status          Status
	Measurements    Measurements
	Tags            []string
	Negotiable      *bool
	ShippingOptions *ShippingOptions
}

// NewProduct builds a product with defaults applied. Identity is assigned
// by the repository on create.
func NewProduct(data ProductData, sellerID int64) *Product {
	now := time.Now()
	p := &Product{
		Title:         data.Title,
		Description:   data.Description,
		Price:         data.Price,
		OriginalPrice: data.OriginalPrice,
		Category:      data.Category,
		Subcategory:   data.Subcategory,
		Brand:         data.Brand,
		Size:          data.Size,
		Condition:     data.Condition,
		Color:         data.Color,
		Material:      data.Material,
		Images:        data.Images,
		Seller:        sellerID,
		Status:        data.Status,
		Measurements:  data.Measurements,
		Tags:          NormalizeTags(data.Tags),
		Likes:         []int64{},
		Negotiable:    true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.Images == nil {
		p.Images = []Image{}
	}
	if p.Status == "" {
		p.Status = StatusAvailable
	}
	if data.Negotiable != nil {
		p.Negotiable = *data.Negotiable
	}
	if data.ShippingOptions != nil {
		p.ShippingOptions = *data.ShippingOptions
	}
	return p
}

// NormalizeTags trims and lowercases tags, dropping empties and duplicates.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag list from a form field.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeTags(strings.Split(s, ","))
}

// LikedBy reports whether the user id is in the product's like set.
func (p *Product) LikedBy(userID int64) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out detached records.
func (p *Product) Clone() *Product {
	cp := *p
	cp.Images = make([]Image, len(p.Images))
	copy(cp.Images, p.Images)
	cp.Tags = make([]string, len(p.Tags))
	copy(cp.Tags, p.Tags)
	cp.Likes = make([]int64, len(p.Likes))
	copy(cp.Likes, p.Likes)
	if p.OriginalPrice != nil {
		op := *p.OriginalPrice
		cp.OriginalPrice = &op
	}
	return &cp
}
