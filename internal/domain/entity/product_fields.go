package entity

// Field exposes product fields to the query matcher by name. Optional
// fields report absence instead of a zero value so that a constraint on a
// missing field never matches.
func (p *Product) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "title":
		return p.Title, true
	case "description":
		return p.Description, true
	case "price":
		return p.Price, true
	case "original_price":
		if p.OriginalPrice == nil {
			return nil, false
		}
		return *p.OriginalPrice, true
	case "category":
		return p.Category, true
	case "subcategory":
		if p.Subcategory == "" {
			return nil, false
		}
		return p.Subcategory, true
	case "brand":
		if p.Brand == "" {
			return nil, false
		}
		return p.Brand, true
	case "size":
		return p.Size, true
	case "condition":
		return p.Condition, true
	case "color":
		if p.Color == "" {
			return nil, false
		}
		return p.Color, true
	case "material":
		if p.Material == "" {
			return nil, false
		}
		return p.Material, true
	case "seller":
		return p.Seller, true
	case "status":
		return string(p.Status), true
	case "views":
		return p.Views, true
	case "featured":
		return p.Featured, true
	case "negotiable":
		return p.Negotiable, true
	}
	return nil, false
}

// SearchText lists the fields covered by full-text search: title,
// description, brand, and tags.
func (p *Product) SearchText() []string {
	texts := make([]string, 0, 3+len(p.Tags))
	texts = append(texts, p.Title, p.Description)
	if p.Brand != "" {
		texts = append(texts, p.Brand)
	}
	texts = append(texts, p.Tags...)
	return texts
}
