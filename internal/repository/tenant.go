package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/pedeja/chat-server-go/internal/model"
)

type TenantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindByInstanceName(ctx context.Context, instanceName string) (*model.Tenant, error)
	FindByIDPrefix(ctx context.Context, prefix string) (*model.Tenant, error)
	UpdateInstanceState(ctx context.Context, id string, state model.ConnectionState) error
	UpdateInstance(ctx context.Context, id, instanceName string, token *string) error
}

type tenantRepo struct {
	db *sqlx.DB
}

func NewTenantRepository(db *sqlx.DB) TenantRepository {
	return &tenantRepo{db: db}
}

func (r *tenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, `
		SELECT * FROM tenants WHERE id = $1
	`, id)
	return HandleNotFound(&tenant, err)
}

func (r *tenantRepo) FindByInstanceName(ctx context.Context, instanceName string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, `
		SELECT * FROM tenants WHERE instance_name = $1
	`, instanceName)
	return HandleNotFound(&tenant, err)
}

// FindByIDPrefix matches a truncated tenant id against full ids. Used by the
// legacy-compatibility path of tenant resolution.
func (r *tenantRepo) FindByIDPrefix(ctx context.Context, prefix string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.GetContext(ctx, &tenant, `
		SELECT * FROM tenants WHERE id::text LIKE $1 || '%' LIMIT 1
	`, prefix)
	return HandleNotFound(&tenant, err)
}

func (r *tenantRepo) UpdateInstanceState(ctx context.Context, id string, state model.ConnectionState) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tenants SET instance_state = $2, updated_at = NOW() WHERE id = $1
	`, id, state)
	return err
}

func (r *tenantRepo) UpdateInstance(ctx context.Context, id, instanceName string, token *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tenants SET
			instance_name = $2,
			instance_token = COALESCE($3, instance_token),
			updated_at = NOW()
		WHERE id = $1
	`, id, instanceName, token)
	return err
}
