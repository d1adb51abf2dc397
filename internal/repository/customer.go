package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pedeja/chat-server-go/internal/model"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*model.Customer, error)
	FindByPhoneVariants(ctx context.Context, tenantID string, variants []string) (*model.Customer, error)
}

type customerRepo struct {
	db *sqlx.DB
}

func NewCustomerRepository(db *sqlx.DB) CustomerRepository {
	return &customerRepo{db: db}
}

func (r *customerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	var customer model.Customer
	err := r.db.GetContext(ctx, &customer, `
		SELECT * FROM customers WHERE id = $1
	`, id)
	return HandleNotFound(&customer, err)
}

// FindByPhoneVariants matches a customer against any historically valid
// format of the same phone number.
func (r *customerRepo) FindByPhoneVariants(ctx context.Context, tenantID string, variants []string) (*model.Customer, error) {
	if len(variants) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT * FROM customers
		WHERE tenant_id = ? AND phone IN (?)
		ORDER BY last_order_at DESC NULLS LAST
		LIMIT 1
	`, tenantID, variants)
	if err != nil {
		return nil, err
	}

	var customer model.Customer
	err = r.db.GetContext(ctx, &customer, r.db.Rebind(query), args...)
	return HandleNotFound(&customer, err)
}
