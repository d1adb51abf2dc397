package model

import "time"

type Category struct {
	ID       string `db:"id" json:"id"`
	TenantID string `db:"tenant_id" json:"tenantId"`
	Name     string `db:"name" json:"name"`
}

// Product carries the category name denormalized for prompt rendering.
type Product struct {
	ID           string  `db:"id" json:"id"`
	TenantID     string  `db:"tenant_id" json:"tenantId"`
	CategoryID   *string `db:"category_id" json:"categoryId,omitempty"`
	CategoryName *string `db:"category_name" json:"categoryName,omitempty"`
	Name         string  `db:"name" json:"name"`
	Description  *string `db:"description" json:"description,omitempty"`
	PriceCents   int64   `db:"price_cents" json:"priceCents"`
	Active       bool    `db:"active" json:"active"`
}

// TopSeller is a product ranked by units sold.
type TopSeller struct {
	Name      string `db:"name" json:"name"`
	UnitsSold int    `db:"units_sold" json:"unitsSold"`
}

type Order struct {
	ID         string      `db:"id" json:"id"`
	TenantID   string      `db:"tenant_id" json:"tenantId"`
	CustomerID *string     `db:"customer_id" json:"customerId,omitempty"`
	Phone      string      `db:"phone" json:"phone"`
	Status     string      `db:"status" json:"status"`
	TotalCents int64       `db:"total_cents" json:"totalCents"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
	Items      []OrderItem `db:"-" json:"items"`
}

type OrderItem struct {
	ID          string `db:"id" json:"id"`
	OrderID     string `db:"order_id" json:"orderId"`
	ProductName string `db:"product_name" json:"productName"`
	Quantity    int    `db:"quantity" json:"quantity"`
	PriceCents  int64  `db:"price_cents" json:"priceCents"`
}
