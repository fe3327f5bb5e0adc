package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/thriftly/thriftly/internal/domain/entity"
	"github.com/thriftly/thriftly/internal/domain/query"
	"github.com/thriftly/thriftly/internal/domain/repository"
)

// ProductRepository is the pgx implementation of
// repository.ProductRepository. The query AST is translated to SQL with
// the same matching semantics the memory backend evaluates in process.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// queryColumns maps AST field names to table columns. Fields outside this
// map cannot be filtered on the SQL backend.
var queryColumns = map[string]string{
	"id":             "p.id",
	"title":          "p.title",
	"description":    "p.description",
	"price":          "p.price",
	"original_price": "p.original_price",
	"category":       "p.category",
	"subcategory":    "p.subcategory",
	"brand":          "p.brand",
	"size":           "p.size",
	"condition":      "p.condition",
	"color":          "p.color",
	"material":       "p.material",
	"seller":         "p.seller_id",
	"status":         "p.status",
	"views":          "p.views",
	"featured":       "p.featured",
	"negotiable":     "p.negotiable",
}

// optionalColumns are stored as empty string / NULL when absent; absent
// fields must not match non-absent constraints.
var optionalColumns = map[string]bool{
	"subcategory":    true,
	"brand":          true,
	"color":          true,
	"material":       true,
	"original_price": true,
}

func buildWhere(q *query.Query) (string, []any, error) {
	var parts []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q != nil {
		for _, c := range q.Conditions {
			col, ok := queryColumns[c.Field]
			if !ok {
				return "", nil, fmt.Errorf("cannot filter on field %q", c.Field)
			}
			presence := ""
			if optionalColumns[c.Field] {
				if c.Field == "original_price" {
					presence = col + " IS NOT NULL AND "
				} else {
					presence = col + " <> '' AND "
				}
			}
			switch c.Op {
			case query.OpEquals:
				parts = append(parts, "("+presence+col+" = "+arg(c.Value)+")")
			case query.OpNotEquals:
				parts = append(parts, "("+col+" IS DISTINCT FROM "+arg(c.Value)+")")
			case query.OpRange:
				var bounds []string
				if c.GTE != nil {
					bounds = append(bounds, col+" >= "+arg(*c.GTE))
				}
				if c.LTE != nil {
					bounds = append(bounds, col+" <= "+arg(*c.LTE))
				}
				if len(bounds) > 0 {
					parts = append(parts, "("+presence+strings.Join(bounds, " AND ")+")")
				}
			case query.OpPattern:
				pat := strings.TrimPrefix(c.Pattern.String(), "(?i)")
				parts = append(parts, "("+presence+col+" ~* "+arg(pat)+")")
			}
		}
		if q.Search != "" {
			term := arg("%" + q.Search + "%")
			parts = append(parts, `(p.title ILIKE `+term+
				` OR p.description ILIKE `+term+
				` OR p.brand ILIKE `+term+
				` OR EXISTS (SELECT 1 FROM unnest(p.tags) tag WHERE tag ILIKE `+term+`))`)
		}
	}
	if len(parts) == 0 {
		return "", args, nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

const productSelect = `
	SELECT p.id, p.title, p.description, p.price, p.original_price,
		p.category, p.subcategory, p.brand, p.size, p.condition, p.color,
		p.material, p.images, p.seller_id, p.status, p.measurements, p.tags,
		p.views, p.featured, p.negotiable, p.shipping_options, p.created_at,
		p.updated_at,
		COALESCE((SELECT array_agg(l.user_id ORDER BY l.created_at, l.user_id)
			FROM product_likes l WHERE l.product_id = p.id), '{}') AS likes
	FROM products p`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	p := &entity.Product{}
	var images, measurements, shipping []byte
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.OriginalPrice,
		&p.Category, &p.Subcategory, &p.Brand, &p.Size, &p.Condition, &p.Color,
		&p.Material, &images, &p.Seller, &p.Status, &measurements, &p.Tags,
		&p.Views, &p.Featured, &p.Negotiable, &shipping, &p.CreatedAt,
		&p.UpdatedAt, &p.Likes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(images, &p.Images); err != nil {
		return nil, err
	}
	if len(measurements) > 0 {
		if err := json.Unmarshal(measurements, &p.Measurements); err != nil {
			return nil, err
		}
	}
	if len(shipping) > 0 {
		if err := json.Unmarshal(shipping, &p.ShippingOptions); err != nil {
			return nil, err
		}
	}
	if p.Images == nil {
		p.Images = []entity.Image{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if p.Likes == nil {
		p.Likes = []int64{}
	}
	return p, nil
}

func marshalJSONB(v any) ([]byte, error) { return json.Marshal(v) }

func (r *ProductRepository) Create(p *entity.Product) error {
	ctx := context.Background()
	images, err := marshalJSONB(p.Images)
	if err != nil {
		return err
	}
	measurements, err := marshalJSONB(p.Measurements)
	if err != nil {
		return err
	}
	shipping, err := marshalJSONB(p.ShippingOptions)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO products (title, description, price, original_price,
			category, subcategory, brand, size, condition, color, material,
			images, seller_id, status, measurements, tags, featured,
			negotiable, shipping_options)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19)
		RETURNING id, views, created_at, updated_at
	`, p.Title, p.Description, p.Price, p.OriginalPrice, p.Category,
		p.Subcategory, p.Brand, p.Size, p.Condition, p.Color, p.Material,
		images, p.Seller, p.Status, measurements, p.Tags, p.Featured,
		p.Negotiable, shipping)
	return row.Scan(&p.ID, &p.Views, &p.CreatedAt, &p.UpdatedAt)
}

func (r *ProductRepository) GetByID(id int64) (*entity.Product, error) {
	ctx := context.Background()
	return scanProduct(r.pool.QueryRow(ctx, productSelect+" WHERE p.id = $1", id))
}

func (r *ProductRepository) Find(q *query.Query) ([]*entity.Product, error) {
	ctx := context.Background()
	where, args, err := buildWhere(q)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, productSelect+where+" ORDER BY p.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepository) Count(q *query.Query) (int, error) {
	ctx := context.Background()
	where, args, err := buildWhere(q)
	if err != nil {
		return 0, err
	}
	var n int
	err = r.pool.QueryRow(ctx, "SELECT count(*) FROM products p"+where, args...).Scan(&n)
	return n, err
}

func (r *ProductRepository) Update(p *entity.Product) error {
	ctx := context.Background()
	images, err := marshalJSONB(p.Images)
	if err != nil {
		return err
	}
	measurements, err := marshalJSONB(p.Measurements)
	if err != nil {
		return err
	}
	shipping, err := marshalJSONB(p.ShippingOptions)
	if err != nil {
		return err
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE products
		SET title = $1, description = $2, price = $3, original_price = $4,
			category = $5, subcategory = $6, brand = $7, size = $8,
			condition = $9, color = $10, material = $11, images = $12,
			status = $13, measurements = $14, tags = $15, views = $16,
			featured = $17, negotiable = $18, shipping_options = $19,
			updated_at = now()
		WHERE id = $20
		RETURNING updated_at
	`, p.Title, p.Description, p.Price, p.OriginalPrice, p.Category,
		p.Subcategory, p.Brand, p.Size, p.Condition, p.Color, p.Material,
		images, p.Status, measurements, p.Tags, p.Views, p.Featured,
		p.Negotiable, shipping, p.ID)
	if err := row.Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *ProductRepository) Delete(id int64) (*entity.Product, error) {
	removed, err := r.GetByID(id)
	if err != nil || removed == nil {
		return nil, err
	}
	ctx := context.Background()
	// product_likes rows go with the product; user favorites are the same
	// rows on this backend, so there is nothing stale to clean up.
	if _, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return removed, nil
}

// ToggleLike flips the single product_likes row for the pair inside a
// transaction. Both "sides" of the relation are that one row, so the
// bidirectional invariant holds by construction.
func (r *ProductRepository) ToggleLike(productID, userID int64) (bool, int, error) {
	ctx := context.Background()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)
			AND EXISTS (SELECT 1 FROM users WHERE id = $2)
	`, productID, userID).Scan(&exists)
	if err != nil {
		return false, 0, err
	}
	if !exists {
		return false, 0, repository.ErrNotFound
	}

	tag, err := tx.Exec(ctx, `
		DELETE FROM product_likes WHERE product_id = $1 AND user_id = $2
	`, productID, userID)
	if err != nil {
		return false, 0, err
	}
	liked := tag.RowsAffected() == 0
	if liked {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_likes (product_id, user_id) VALUES ($1, $2)
		`, productID, userID); err != nil {
			return false, 0, err
		}
	}
	if _, err := tx.Exec(ctx, `UPDATE products SET updated_at = now() WHERE id = $1`, productID); err != nil {
		return false, 0, err
	}
	var count int
	if err := tx.QueryRow(ctx, `
		SELECT count(*) FROM product_likes WHERE product_id = $1
	`, productID).Scan(&count); err != nil {
		return false, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, 0, err
	}
	return liked, count, nil
}

func (r *ProductRepository) IncrementViews(id int64) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx, `
		UPDATE products SET views = views + 1, updated_at = now() WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.ProductRepository = (*ProductRepository)(nil)
