// Package jobs holds the background sweeps that run alongside the HTTP
// service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/repository"
	"github.com/pedeja/chat-server-go/internal/service"
	"github.com/pedeja/chat-server-go/internal/util"
)

const (
	discountCodePrefix = "VOLTA10-"
	discountCodeLen    = 5

	sweepTimeout = 2 * time.Minute
)

// Clock abstracts time so sweeps are testable without real time passing.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production Clock.
var SystemClock Clock = systemClock{}

// FollowUpJob periodically re-engages idle conversations exactly once with a
// single-use discount code. Conversations are processed sequentially within a
// sweep to bound load on the delivery gateway.
type FollowUpJob struct {
	convRepo      repository.ConversationRepository
	customerRepo  repository.CustomerRepository
	tenantRepo    repository.TenantRepository
	msgRepo       repository.MessageRepository
	delivery      service.Deliverer
	interval      time.Duration
	idleThreshold time.Duration
	clock         Clock
	done          chan struct{}
}

func NewFollowUpJob(
	convRepo repository.ConversationRepository,
	customerRepo repository.CustomerRepository,
	tenantRepo repository.TenantRepository,
	msgRepo repository.MessageRepository,
	delivery service.Deliverer,
	interval time.Duration,
	idleThreshold time.Duration,
	clock Clock,
) *FollowUpJob {
	if clock == nil {
		clock = SystemClock
	}
	return &FollowUpJob{
		convRepo:      convRepo,
		customerRepo:  customerRepo,
		tenantRepo:    tenantRepo,
		msgRepo:       msgRepo,
		delivery:      delivery,
		interval:      interval,
		idleThreshold: idleThreshold,
		clock:         clock,
		done:          make(chan struct{}),
	}
}

func (j *FollowUpJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("follow-up job started")
}

func (j *FollowUpJob) Stop() {
	close(j.done)
	log.Info().Msg("follow-up job stopped")
}

func (j *FollowUpJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
			j.Sweep(ctx)
			cancel()
		}
	}
}

// Sweep selects idle conversations and sends each a follow-up. One
// conversation's failure is logged and does not abort the rest.
func (j *FollowUpJob) Sweep(ctx context.Context) {
	cutoff := j.clock.Now().Add(-j.idleThreshold)

	convs, err := j.convRepo.FindIdle(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("failed to select idle conversations")
		return
	}
	if len(convs) == 0 {
		return
	}

	log.Info().Int("count", len(convs)).Msg("idle conversations selected for follow-up")

	for i := range convs {
		if err := j.followUp(ctx, &convs[i]); err != nil {
			log.Error().
				Err(err).
				Str("conversationId", convs[i].ID).
				Msg("follow-up failed")
		}
	}
}

func (j *FollowUpJob) followUp(ctx context.Context, conv *model.Conversation) error {
	// Mark before sending: even if the send fails, the next tick will not
	// reselect this conversation.
	if err := j.convRepo.MarkFollowUpPending(ctx, conv.ID); err != nil {
		return fmt.Errorf("mark follow-up pending: %w", err)
	}

	tenant, err := j.tenantRepo.FindByID(ctx, conv.TenantID)
	if err != nil {
		return fmt.Errorf("tenant lookup: %w", err)
	}
	if tenant == nil {
		return fmt.Errorf("tenant %s not found", conv.TenantID)
	}

	name := j.customerName(ctx, conv)

	code, err := discountCode()
	if err != nil {
		return fmt.Errorf("generate discount code: %w", err)
	}

	text := followUpMessage(name, tenant.Name, code)

	if err := j.delivery.SendText(ctx, tenant, conv.CanonicalPhone, text); err != nil {
		return err
	}

	if _, err := j.msgRepo.Append(ctx, conv.ID, model.RoleAssistant, text); err != nil {
		log.Warn().Err(err).Str("conversationId", conv.ID).Msg("failed to record follow-up in history")
	}
	if err := j.convRepo.MarkFollowUpSent(ctx, conv.ID, j.clock.Now()); err != nil {
		return fmt.Errorf("mark follow-up sent: %w", err)
	}

	log.Info().
		Str("conversationId", conv.ID).
		Str("tenantId", conv.TenantID).
		Msg("follow-up sent")

	return nil
}

// customerName resolves the linked customer's first name, best-effort.
func (j *FollowUpJob) customerName(ctx context.Context, conv *model.Conversation) string {
	if conv.CustomerID == nil {
		return ""
	}
	customer, err := j.customerRepo.FindByID(ctx, *conv.CustomerID)
	if err != nil || customer == nil {
		return ""
	}
	return customer.Name
}

func discountCode() (string, error) {
	suffix, err := util.RandomCode(discountCodeLen)
	if err != nil {
		return "", err
	}
	return discountCodePrefix + suffix, nil
}

func followUpMessage(customerName, tenantName, code string) string {
	greeting := "Oi!"
	if customerName != "" {
		greeting = fmt.Sprintf("Oi, %s!", customerName)
	}
	return fmt.Sprintf(
		"%s Sentimos sua falta aqui no %s. 😊\n\n"+
			"Que tal pedir de novo? Use o cupom *%s* no seu próximo pedido e ganhe um desconto especial. "+
			"Ele é só seu, aproveite!",
		greeting, tenantName, code,
	)
}
