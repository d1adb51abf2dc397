package model

import "time"

// Conversation is a stateful dialogue between one tenant and one phone number.
// At most one active conversation should exist per (tenant, canonical phone);
// this is not enforced by a storage constraint.
type Conversation struct {
	ID                string     `db:"id" json:"id"`
	TenantID          string     `db:"tenant_id" json:"tenantId"`
	CanonicalPhone    string     `db:"canonical_phone" json:"canonicalPhone"`
	CustomerID        *string    `db:"customer_id" json:"customerId,omitempty"`
	IsActive          bool       `db:"is_active" json:"isActive"`
	NeedsFollowUp     bool       `db:"needs_follow_up" json:"needsFollowUp"`
	FollowUpSentAt    *time.Time `db:"follow_up_sent_at" json:"followUpSentAt,omitempty"`
	LastInteractionAt time.Time  `db:"last_interaction_at" json:"lastInteractionAt"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`

	// Ephemeral marks a stand-in session for an unresolvable tenant.
	// Ephemeral conversations are never persisted.
	Ephemeral bool `db:"-" json:"-"`
}

type CreateConversationParams struct {
	TenantID       string
	CanonicalPhone string
	CustomerID     *string
}
