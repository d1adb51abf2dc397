package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/assistant"
	apperrors "github.com/pedeja/chat-server-go/internal/errors"
	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/webhook"
)

// AssistantClient produces one reply per inbound message.
type AssistantClient interface {
	Reply(ctx context.Context, promptCtx assistant.PromptContext, history []model.Message, userMessage string) (string, error)
}

// Deliverer sends outbound text through a tenant's channel instance.
type Deliverer interface {
	SendText(ctx context.Context, tenant *model.Tenant, phone, text string) error
	SendTextDirect(ctx context.Context, instanceName, phone, text string) error
}

// InboundPipeline runs the full handling of one inbound text message:
// resolve tenant → resolve identity → session → context → assistant →
// persist reply → deliver. Fully synchronous, no internal parallelism.
type InboundPipeline struct {
	resolver      *TenantResolver
	conversations *ConversationService
	contexts      *ContextBuilder
	assistant     AssistantClient
	delivery      Deliverer
}

func NewInboundPipeline(
	resolver *TenantResolver,
	conversations *ConversationService,
	contexts *ContextBuilder,
	assistantClient AssistantClient,
	delivery Deliverer,
) *InboundPipeline {
	return &InboundPipeline{
		resolver:      resolver,
		conversations: conversations,
		contexts:      contexts,
		assistant:     assistantClient,
		delivery:      delivery,
	}
}

// HandleText processes one normalized inbound message end to end. Assistant
// and delivery failures propagate so the webhook handler can report them in
// its acknowledgement envelope; tenant-resolution failure degrades to an
// ephemeral session instead of failing.
func (p *InboundPipeline) HandleText(ctx context.Context, msg webhook.TextMessage) error {
	resolved, err := p.resolver.Resolve(ctx, msg.InstanceID)
	if err != nil {
		if apperrors.GetCode(err) != apperrors.ErrCodeTenantNotResolved {
			return err
		}
		// Unresolvable instance identifiers degrade to an ephemeral
		// session; the user still gets an answer.
		log.Warn().
			Str("instance", msg.InstanceID).
			Msg("tenant not resolved, continuing with ephemeral session")
		resolved = ResolvedTenant{}
	}

	conv, err := p.conversations.FindOrCreate(ctx, resolved, msg.SenderPhoneRaw)
	if err != nil {
		return fmt.Errorf("find or create conversation: %w", err)
	}

	conv, err = p.conversations.RecordInbound(ctx, conv)
	if err != nil {
		return err
	}

	history, err := p.conversations.History(ctx, conv)
	if err != nil {
		log.Warn().Err(err).Str("conversationId", conv.ID).Msg("history lookup failed, continuing without it")
		history = nil
	}

	if _, err := p.conversations.AppendMessage(ctx, conv, model.RoleUser, msg.Text); err != nil {
		return err
	}

	promptCtx := p.contexts.Build(ctx, resolved.Tenant, msg.SenderPhoneRaw, history)

	reply, err := p.assistant.Reply(ctx, promptCtx, history, msg.Text)
	if err != nil {
		return err
	}

	if _, err := p.conversations.AppendMessage(ctx, conv, model.RoleAssistant, reply); err != nil {
		return err
	}

	if resolved.Tenant != nil {
		err = p.delivery.SendText(ctx, resolved.Tenant, conv.CanonicalPhone, reply)
	} else {
		err = p.delivery.SendTextDirect(ctx, msg.InstanceID, conv.CanonicalPhone, reply)
	}
	if err != nil {
		return err
	}

	log.Info().
		Str("conversationId", conv.ID).
		Str("tenantId", conv.TenantID).
		Bool("ephemeral", conv.Ephemeral).
		Msg("inbound message handled")

	return nil
}
