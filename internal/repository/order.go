package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pedeja/chat-server-go/internal/model"
)

type OrderRepository interface {
	FindRecentByPhoneVariants(ctx context.Context, tenantID string, variants []string, limit int) ([]model.Order, error)
}

type orderRepo struct {
	db *sqlx.DB
}

func NewOrderRepository(db *sqlx.DB) OrderRepository {
	return &orderRepo{db: db}
}

// FindRecentByPhoneVariants returns the most recent orders placed from any
// stored format of the phone, newest first, with line items attached.
func (r *orderRepo) FindRecentByPhoneVariants(ctx context.Context, tenantID string, variants []string, limit int) ([]model.Order, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, tenant_id, customer_id, phone, status, total_cents, created_at
		FROM orders
		WHERE tenant_id = ? AND phone IN (?)
		ORDER BY created_at DESC
		LIMIT ?
	`, tenantID, variants, limit)
	if err != nil {
		return nil, err
	}

	var orders []model.Order
	if err := r.db.SelectContext(ctx, &orders, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	orderIDs := make([]string, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
	}

	query, args, err = sqlx.In(`
		SELECT id, order_id, product_name, quantity, price_cents
		FROM order_items
		WHERE order_id IN (?)
	`, orderIDs)
	if err != nil {
		return nil, err
	}

	var items []model.OrderItem
	if err := r.db.SelectContext(ctx, &items, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}

	byOrder := make(map[string][]model.OrderItem, len(orders))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}

	return orders, nil
}
