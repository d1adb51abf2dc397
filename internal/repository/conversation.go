package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pedeja/chat-server-go/internal/model"
)

type ConversationRepository interface {
	FindByID(ctx context.Context, id string) (*model.Conversation, error)
	FindActive(ctx context.Context, tenantID, canonicalPhone string) (*model.Conversation, error)
	Create(ctx context.Context, params model.CreateConversationParams) (*model.Conversation, error)
	RecordInbound(ctx context.Context, id string) (*model.Conversation, error)
	FindIdle(ctx context.Context, idleBefore time.Time) ([]model.Conversation, error)
	MarkFollowUpPending(ctx context.Context, id string) error
	MarkFollowUpSent(ctx context.Context, id string, sentAt time.Time) error
}

type conversationRepo struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) ConversationRepository {
	return &conversationRepo{db: db}
}

func (r *conversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations WHERE id = $1
	`, id)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) FindActive(ctx context.Context, tenantID, canonicalPhone string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		SELECT * FROM conversations
		WHERE tenant_id = $1 AND canonical_phone = $2 AND is_active = TRUE
		ORDER BY last_interaction_at DESC
		LIMIT 1
	`, tenantID, canonicalPhone)
	return HandleNotFound(&conv, err)
}

func (r *conversationRepo) Create(ctx context.Context, params model.CreateConversationParams) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		INSERT INTO conversations
			(tenant_id, canonical_phone, customer_id, is_active, needs_follow_up, last_interaction_at)
		VALUES ($1, $2, $3, TRUE, FALSE, NOW())
		RETURNING *
	`, params.TenantID, params.CanonicalPhone, params.CustomerID)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// RecordInbound refreshes the interaction timestamp and clears any pending
// follow-up, returning the updated snapshot.
func (r *conversationRepo) RecordInbound(ctx context.Context, id string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.GetContext(ctx, &conv, `
		UPDATE conversations SET
			last_interaction_at = NOW(),
			needs_follow_up = FALSE,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, id)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindIdle selects conversations eligible for a follow-up: active, not yet
// marked, and untouched since the cutoff.
func (r *conversationRepo) FindIdle(ctx context.Context, idleBefore time.Time) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.SelectContext(ctx, &convs, `
		SELECT * FROM conversations
		WHERE is_active = TRUE
		  AND needs_follow_up = FALSE
		  AND follow_up_sent_at IS NULL
		  AND last_interaction_at < $1
		ORDER BY last_interaction_at ASC
	`, idleBefore)
	return convs, err
}

func (r *conversationRepo) MarkFollowUpPending(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET needs_follow_up = TRUE, updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

func (r *conversationRepo) MarkFollowUpSent(ctx context.Context, id string, sentAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE conversations SET
			needs_follow_up = FALSE,
			follow_up_sent_at = $2,
			last_interaction_at = $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, sentAt)
	return err
}
