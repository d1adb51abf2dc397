package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pedeja/chat-server-go/internal/model"
)

type CatalogRepository interface {
	FindActiveProducts(ctx context.Context, tenantID string) ([]model.Product, error)
	FindTopSellers(ctx context.Context, tenantID string, limit int) ([]model.TopSeller, error)
}

type catalogRepo struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) FindActiveProducts(ctx context.Context, tenantID string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.SelectContext(ctx, &products, `
		SELECT p.id, p.tenant_id, p.category_id, c.name AS category_name,
		       p.name, p.description, p.price_cents, p.active
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.tenant_id = $1 AND p.active = TRUE
		ORDER BY c.name NULLS LAST, p.name
	`, tenantID)
	return products, err
}

func (r *catalogRepo) FindTopSellers(ctx context.Context, tenantID string, limit int) ([]model.TopSeller, error) {
	var sellers []model.TopSeller
	err := r.db.SelectContext(ctx, &sellers, `
		SELECT oi.product_name AS name,
		       SUM(oi.quantity)::int AS units_sold
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.tenant_id = $1
		GROUP BY oi.product_name
		ORDER BY units_sold DESC
		LIMIT $2
	`, tenantID, limit)
	return sellers, err
}
