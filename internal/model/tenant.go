package model

import "time"

type Tenant struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Description   *string         `db:"description" json:"description,omitempty"`
	Phone         *string         `db:"phone" json:"phone,omitempty"`
	InstanceName  *string         `db:"instance_name" json:"instanceName,omitempty"`
	InstanceToken *string         `db:"instance_token" json:"-"`
	InstanceState ConnectionState `db:"instance_state" json:"instanceState"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updatedAt"`
}

type Customer struct {
	ID          string     `db:"id" json:"id"`
	TenantID    string     `db:"tenant_id" json:"tenantId"`
	Name        string     `db:"name" json:"name"`
	Phone       string     `db:"phone" json:"phone"`
	Address     *string    `db:"address" json:"address,omitempty"`
	LastOrderAt *time.Time `db:"last_order_at" json:"lastOrderAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}
