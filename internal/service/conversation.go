package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/config"
	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/phone"
	"github.com/pedeja/chat-server-go/internal/repository"
)

// ConversationService owns find-or-create and mutation of conversation state
// keyed by (tenant, canonical phone).
type ConversationService struct {
	convRepo     repository.ConversationRepository
	customerRepo repository.CustomerRepository
	msgRepo      repository.MessageRepository
}

func NewConversationService(
	convRepo repository.ConversationRepository,
	customerRepo repository.CustomerRepository,
	msgRepo repository.MessageRepository,
) *ConversationService {
	return &ConversationService{
		convRepo:     convRepo,
		customerRepo: customerRepo,
		msgRepo:      msgRepo,
	}
}

// FindOrCreate returns the active conversation for (tenant, phone), creating
// one when none exists. When the tenant could not be verified it returns an
// ephemeral stand-in that is never persisted, so the rest of the pipeline
// still runs and the user is not left unanswered.
func (s *ConversationService) FindOrCreate(ctx context.Context, resolved ResolvedTenant, rawPhone string) (*model.Conversation, error) {
	canonical := phone.Canonicalize(rawPhone)
	if canonical == "" {
		return nil, fmt.Errorf("phone %q has no digits", rawPhone)
	}

	if resolved.Tenant == nil {
		now := time.Now()
		log.Info().
			Str("tenantId", resolved.TenantID).
			Str("phone", canonical).
			Msg("tenant not verified, using ephemeral session")
		return &model.Conversation{
			ID:                uuid.NewString(),
			TenantID:          resolved.TenantID,
			CanonicalPhone:    canonical,
			IsActive:          true,
			NeedsFollowUp:     false,
			LastInteractionAt: now,
			CreatedAt:         now,
			UpdatedAt:         now,
			Ephemeral:         true,
		}, nil
	}

	tenantID := resolved.Tenant.ID

	conv, err := s.convRepo.FindActive(ctx, tenantID, canonical)
	if err != nil {
		return nil, fmt.Errorf("find active conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	// Link a known customer so context assembly can greet them by name.
	var customerID *string
	customer, err := s.customerRepo.FindByPhoneVariants(ctx, tenantID, phone.Variants(rawPhone))
	if err != nil {
		log.Warn().Err(err).Str("phone", canonical).Msg("customer lookup failed, creating unlinked conversation")
	} else if customer != nil {
		customerID = &customer.ID
	}

	conv, err = s.convRepo.Create(ctx, model.CreateConversationParams{
		TenantID:       tenantID,
		CanonicalPhone: canonical,
		CustomerID:     customerID,
	})
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	log.Info().
		Str("conversationId", conv.ID).
		Str("tenantId", tenantID).
		Bool("linkedCustomer", customerID != nil).
		Msg("conversation created")

	return conv, nil
}

// RecordInbound refreshes the interaction timestamp and clears any pending
// follow-up, returning a new snapshot. Ephemeral sessions are updated in
// value only.
func (s *ConversationService) RecordInbound(ctx context.Context, conv *model.Conversation) (*model.Conversation, error) {
	if conv.Ephemeral {
		updated := *conv
		updated.LastInteractionAt = time.Now()
		updated.NeedsFollowUp = false
		return &updated, nil
	}

	updated, err := s.convRepo.RecordInbound(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("record inbound: %w", err)
	}
	return updated, nil
}

// AppendMessage appends one immutable turn. For ephemeral sessions nothing is
// persisted; a value-only message is returned so the pipeline can still build
// history for the current request.
func (s *ConversationService) AppendMessage(ctx context.Context, conv *model.Conversation, role model.MessageRole, content string) (*model.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid message role %q", role)
	}

	if conv.Ephemeral {
		return &model.Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Role:           role,
			Content:        content,
			CreatedAt:      time.Now(),
		}, nil
	}

	msg, err := s.msgRepo.Append(ctx, conv.ID, role, content)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return msg, nil
}

// History returns the prompt-bounded conversation history: messages from the
// last 24 hours, most recent 50, in ascending order.
func (s *ConversationService) History(ctx context.Context, conv *model.Conversation) ([]model.Message, error) {
	if conv.Ephemeral {
		return nil, nil
	}
	since := time.Now().Add(-config.HistoryWindow)
	return s.msgRepo.FindRecent(ctx, conv.ID, since, config.HistoryMaxTurns)
}
