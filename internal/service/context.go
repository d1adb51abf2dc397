package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/assistant"
	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/phone"
	"github.com/pedeja/chat-server-go/internal/repository"
	"github.com/pedeja/chat-server-go/internal/util"
)

const (
	recentOrdersLimit      = 5
	topSellersLimit        = 5
	sentNotificationsLimit = 3

	// Keyword that marks an outbound message as order-related.
	notificationKeyword = "pedido"
)

var phoneDigitsPattern = regexp.MustCompile(`\d[\d\s().-]{8,}\d`)

// ContextBuilder gathers tenant catalog, customer profile, order history and
// recent notifications into the grounding context for one assistant call.
// Every sub-lookup is best-effort: failures degrade that section to empty
// rather than aborting the build.
type ContextBuilder struct {
	catalogRepo   repository.CatalogRepository
	customerRepo  repository.CustomerRepository
	orderRepo     repository.OrderRepository
	msgRepo       repository.MessageRepository
	publicBaseURL string
}

func NewContextBuilder(
	catalogRepo repository.CatalogRepository,
	customerRepo repository.CustomerRepository,
	orderRepo repository.OrderRepository,
	msgRepo repository.MessageRepository,
	publicBaseURL string,
) *ContextBuilder {
	return &ContextBuilder{
		catalogRepo:   catalogRepo,
		customerRepo:  customerRepo,
		orderRepo:     orderRepo,
		msgRepo:       msgRepo,
		publicBaseURL: publicBaseURL,
	}
}

// Build assembles the prompt context. A nil tenant (ephemeral session)
// produces a minimal context with no catalog, and the assistant still
// responds.
func (b *ContextBuilder) Build(ctx context.Context, tenant *model.Tenant, rawPhone string, history []model.Message) assistant.PromptContext {
	promptCtx := assistant.PromptContext{}

	if tenant == nil {
		promptCtx.TenantName = "Restaurante"
		return promptCtx
	}

	promptCtx.TenantName = tenant.Name
	if tenant.Description != nil {
		promptCtx.TenantDescription = *tenant.Description
	}
	promptCtx.MenuURL = b.menuURL(tenant)

	products, err := b.catalogRepo.FindActiveProducts(ctx, tenant.ID)
	if err != nil {
		log.Debug().Err(err).Str("tenantId", tenant.ID).Msg("catalog lookup failed, omitting section")
	} else {
		promptCtx.Products = products
	}

	sellers, err := b.catalogRepo.FindTopSellers(ctx, tenant.ID, topSellersLimit)
	if err != nil {
		log.Debug().Err(err).Str("tenantId", tenant.ID).Msg("top sellers lookup failed, omitting section")
	} else {
		promptCtx.TopSellers = sellers
	}

	customer := b.resolveCustomer(ctx, tenant.ID, rawPhone, history)
	promptCtx.Customer = customer

	orderPhone := rawPhone
	if customer != nil {
		orderPhone = customer.Phone
	}
	orders, err := b.orderRepo.FindRecentByPhoneVariants(ctx, tenant.ID, phone.Variants(orderPhone), recentOrdersLimit)
	if err != nil {
		log.Debug().Err(err).Str("tenantId", tenant.ID).Msg("order history lookup failed, omitting section")
	} else {
		promptCtx.RecentOrders = orders
	}

	sent, err := b.msgRepo.FindRecentAssistantByKeyword(ctx, tenant.ID, notificationKeyword, sentNotificationsLimit)
	if err != nil {
		log.Debug().Err(err).Str("tenantId", tenant.ID).Msg("notification lookup failed, omitting section")
	} else {
		promptCtx.SentNotifications = sent
	}

	return promptCtx
}

// resolveCustomer tries a direct phone-variant match first, then falls back
// to phone numbers the customer may have typed into the conversation.
func (b *ContextBuilder) resolveCustomer(ctx context.Context, tenantID, rawPhone string, history []model.Message) *model.Customer {
	customer, err := b.customerRepo.FindByPhoneVariants(ctx, tenantID, phone.Variants(rawPhone))
	if err != nil {
		log.Debug().Err(err).Str("tenantId", tenantID).Msg("customer lookup failed, omitting section")
		return nil
	}
	if customer != nil {
		return customer
	}

	for _, candidate := range phonesFromHistory(history) {
		customer, err = b.customerRepo.FindByPhoneVariants(ctx, tenantID, phone.Variants(candidate))
		if err == nil && customer != nil {
			return customer
		}
	}
	return nil
}

func phonesFromHistory(history []model.Message) []string {
	var out []string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role != model.RoleUser {
			continue
		}
		for _, match := range phoneDigitsPattern.FindAllString(history[i].Content, -1) {
			digits := phone.Canonicalize(match)
			if len(digits) >= 10 && len(digits) <= 13 {
				out = append(out, digits)
			}
		}
	}
	return out
}

func (b *ContextBuilder) menuURL(tenant *model.Tenant) string {
	if b.publicBaseURL == "" {
		return ""
	}
	slug := util.Slugify(tenant.Name)
	if slug == "" {
		return ""
	}
	return strings.TrimSuffix(b.publicBaseURL, "/") + "/menu/" + slug
}
