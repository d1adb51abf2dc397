package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/pedeja/chat-server-go/internal/model"
)

type MessageRepository interface {
	Append(ctx context.Context, conversationID string, role model.MessageRole, content string) (*model.Message, error)
	FindRecent(ctx context.Context, conversationID string, since time.Time, limit int) ([]model.Message, error)
	FindRecentAssistantByKeyword(ctx context.Context, tenantID, keyword string, limit int) ([]model.Message, error)
}

type messageRepo struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) Append(ctx context.Context, conversationID string, role model.MessageRole, content string) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg, `
		INSERT INTO messages (conversation_id, role, content)
		VALUES ($1, $2, $3)
		RETURNING *
	`, conversationID, role, content)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindRecent returns the newest messages inside the window in ascending
// creation order, ready to feed into a prompt.
func (r *messageRepo) FindRecent(ctx context.Context, conversationID string, since time.Time, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT * FROM (
			SELECT * FROM messages
			WHERE conversation_id = $1 AND created_at >= $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at ASC
	`, conversationID, since, limit)
	return msgs, err
}

// FindRecentAssistantByKeyword returns the tenant's own most recent outbound
// messages mentioning the keyword, newest first. Used to give the assistant
// continuity about notifications it already sent.
func (r *messageRepo) FindRecentAssistantByKeyword(ctx context.Context, tenantID, keyword string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.SelectContext(ctx, &msgs, `
		SELECT m.* FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.tenant_id = $1
		  AND m.role = 'assistant'
		  AND m.content ILIKE '%' || $2 || '%'
		ORDER BY m.created_at DESC
		LIMIT $3
	`, tenantID, keyword, limit)
	return msgs, err
}
