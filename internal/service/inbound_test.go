package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/pedeja/chat-server-go/internal/assistant"
	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/webhook"
)

type pipelineFixture struct {
	tenantRepo   *mockTenantRepo
	convRepo     *mockConversationRepo
	customerRepo *mockCustomerRepo
	msgRepo      *mockMessageRepo
	catalogRepo  *mockCatalogRepo
	orderRepo    *mockOrderRepo
	assistant    *mockAssistant
	delivery     *mockDeliverer
	pipeline     *InboundPipeline
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		tenantRepo:   new(mockTenantRepo),
		convRepo:     new(mockConversationRepo),
		customerRepo: new(mockCustomerRepo),
		msgRepo:      new(mockMessageRepo),
		catalogRepo:  new(mockCatalogRepo),
		orderRepo:    new(mockOrderRepo),
		assistant:    new(mockAssistant),
		delivery:     new(mockDeliverer),
	}
	f.pipeline = NewInboundPipeline(
		NewTenantResolver(f.tenantRepo, nil),
		NewConversationService(f.convRepo, f.customerRepo, f.msgRepo),
		NewContextBuilder(f.catalogRepo, f.customerRepo, f.orderRepo, f.msgRepo, "https://pedeja.app"),
		f.assistant,
		f.delivery,
	)
	return f
}

func (f *pipelineFixture) stubContextLookups(tenantID string) {
	f.catalogRepo.On("FindActiveProducts", mock.Anything, tenantID).Return(nil, nil)
	f.catalogRepo.On("FindTopSellers", mock.Anything, tenantID, topSellersLimit).Return(nil, nil)
	f.customerRepo.On("FindByPhoneVariants", mock.Anything, tenantID, mock.Anything).Return(nil, nil)
	f.orderRepo.On("FindRecentByPhoneVariants", mock.Anything, tenantID, mock.Anything, recentOrdersLimit).Return(nil, nil)
	f.msgRepo.On("FindRecentAssistantByKeyword", mock.Anything, tenantID, notificationKeyword, sentNotificationsLimit).Return(nil, nil)
}

func TestHandleText_FullFlow(t *testing.T) {
	f := newPipelineFixture()

	tenant := &model.Tenant{ID: "a1b2c3d4-0000-0000-0000-000000000001", Name: "Pizzaria São João"}
	conv := &model.Conversation{ID: "c-1", TenantID: tenant.ID, CanonicalPhone: "5511999998888", IsActive: true}
	history := []model.Message{{ID: "m-1", Role: model.RoleUser, Content: "oi"}}

	f.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	f.convRepo.On("FindActive", mock.Anything, tenant.ID, "5511999998888").Return(conv, nil)
	f.convRepo.On("RecordInbound", mock.Anything, "c-1").Return(conv, nil)
	f.msgRepo.On("FindRecent", mock.Anything, "c-1", mock.Anything, mock.Anything).Return(history, nil)
	f.msgRepo.On("Append", mock.Anything, "c-1", model.RoleUser, "quero ver o cardápio").
		Return(&model.Message{ID: "m-2"}, nil)
	f.stubContextLookups(tenant.ID)

	f.assistant.On("Reply", mock.Anything, mock.MatchedBy(func(p assistant.PromptContext) bool {
		return p.TenantName == "Pizzaria São João" &&
			p.MenuURL == "https://pedeja.app/menu/pizzaria-sao-joao"
	}), history, "quero ver o cardápio").Return("Claro! Veja o cardápio: https://pedeja.app/menu/pizzaria-sao-joao", nil)

	f.msgRepo.On("Append", mock.Anything, "c-1", model.RoleAssistant, mock.Anything).
		Return(&model.Message{ID: "m-3"}, nil)
	f.delivery.On("SendText", mock.Anything, tenant, "5511999998888", mock.Anything).Return(nil)

	err := f.pipeline.HandleText(context.Background(), webhook.TextMessage{
		InstanceID:     "tenant_" + tenant.ID,
		SenderPhoneRaw: "5511999998888",
		Text:           "quero ver o cardápio",
	})

	assert.NoError(t, err)
	f.delivery.AssertCalled(t, "SendText", mock.Anything, tenant, "5511999998888",
		"Claro! Veja o cardápio: https://pedeja.app/menu/pizzaria-sao-joao")
	f.delivery.AssertNotCalled(t, "SendTextDirect", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleText_EphemeralDeliversViaRawInstance(t *testing.T) {
	f := newPipelineFixture()

	f.tenantRepo.On("FindByInstanceName", mock.Anything, "tenant_deadbeef").Return(nil, nil)
	f.tenantRepo.On("FindByIDPrefix", mock.Anything, "deadbeef").Return(nil, nil)

	f.assistant.On("Reply", mock.Anything, mock.MatchedBy(func(p assistant.PromptContext) bool {
		return p.TenantName == "Restaurante"
	}), mock.Anything, "oi").Return("Olá! Como posso ajudar?", nil)
	f.delivery.On("SendTextDirect", mock.Anything, "tenant_deadbeef", "5511999998888", "Olá! Como posso ajudar?").Return(nil)

	err := f.pipeline.HandleText(context.Background(), webhook.TextMessage{
		InstanceID:     "tenant_deadbeef",
		SenderPhoneRaw: "5511999998888",
		Text:           "oi",
	})

	assert.NoError(t, err)
	// Nothing persisted for an ephemeral session.
	f.convRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.msgRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.delivery.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleText_UnresolvableInstanceStillAnswers(t *testing.T) {
	f := newPipelineFixture()

	// Non-hex and unregistered: every rung of the resolution ladder misses.
	f.tenantRepo.On("FindByInstanceName", mock.Anything, "my-pizzeria").Return(nil, nil)
	f.tenantRepo.On("FindByIDPrefix", mock.Anything, "my-pizzeria").Return(nil, nil)

	f.assistant.On("Reply", mock.Anything, mock.MatchedBy(func(p assistant.PromptContext) bool {
		return p.TenantName == "Restaurante"
	}), mock.Anything, "oi, vocês entregam?").Return("Olá! Entregamos sim.", nil)
	f.delivery.On("SendTextDirect", mock.Anything, "my-pizzeria", "5511999998888", "Olá! Entregamos sim.").Return(nil)

	err := f.pipeline.HandleText(context.Background(), webhook.TextMessage{
		InstanceID:     "my-pizzeria",
		SenderPhoneRaw: "5511999998888",
		Text:           "oi, vocês entregam?",
	})

	assert.NoError(t, err)
	f.assistant.AssertNumberOfCalls(t, "Reply", 1)
	f.delivery.AssertNumberOfCalls(t, "SendTextDirect", 1)
	f.convRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHandleText_AssistantErrorPropagates(t *testing.T) {
	f := newPipelineFixture()

	tenant := &model.Tenant{ID: "a1b2c3d4-0000-0000-0000-000000000001", Name: "Sushi Norte"}
	conv := &model.Conversation{ID: "c-1", TenantID: tenant.ID, CanonicalPhone: "5511999998888", IsActive: true}

	f.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	f.convRepo.On("FindActive", mock.Anything, tenant.ID, "5511999998888").Return(conv, nil)
	f.convRepo.On("RecordInbound", mock.Anything, "c-1").Return(conv, nil)
	f.msgRepo.On("FindRecent", mock.Anything, "c-1", mock.Anything, mock.Anything).Return(nil, nil)
	f.msgRepo.On("Append", mock.Anything, "c-1", model.RoleUser, "oi").Return(&model.Message{ID: "m-1"}, nil)
	f.stubContextLookups(tenant.ID)
	f.assistant.On("Reply", mock.Anything, mock.Anything, mock.Anything, "oi").Return("", assert.AnError)

	err := f.pipeline.HandleText(context.Background(), webhook.TextMessage{
		InstanceID:     "tenant_" + tenant.ID,
		SenderPhoneRaw: "5511999998888",
		Text:           "oi",
	})

	assert.Error(t, err)
	f.delivery.AssertNotCalled(t, "SendText", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.msgRepo.AssertNotCalled(t, "Append", mock.Anything, "c-1", model.RoleAssistant, mock.Anything)
}

func TestHandleText_HistoryFailureDegrades(t *testing.T) {
	f := newPipelineFixture()

	tenant := &model.Tenant{ID: "a1b2c3d4-0000-0000-0000-000000000001", Name: "Sushi Norte"}
	conv := &model.Conversation{ID: "c-1", TenantID: tenant.ID, CanonicalPhone: "5511999998888", IsActive: true, LastInteractionAt: time.Now()}

	f.tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
	f.convRepo.On("FindActive", mock.Anything, tenant.ID, "5511999998888").Return(conv, nil)
	f.convRepo.On("RecordInbound", mock.Anything, "c-1").Return(conv, nil)
	f.msgRepo.On("FindRecent", mock.Anything, "c-1", mock.Anything, mock.Anything).Return(nil, assert.AnError)
	f.msgRepo.On("Append", mock.Anything, "c-1", mock.Anything, mock.Anything).Return(&model.Message{ID: "m-1"}, nil)
	f.stubContextLookups(tenant.ID)
	f.assistant.On("Reply", mock.Anything, mock.Anything, mock.Anything, "oi").Return("olá!", nil)
	f.delivery.On("SendText", mock.Anything, tenant, "5511999998888", "olá!").Return(nil)

	err := f.pipeline.HandleText(context.Background(), webhook.TextMessage{
		InstanceID:     "tenant_" + tenant.ID,
		SenderPhoneRaw: "5511999998888",
		Text:           "oi",
	})

	assert.NoError(t, err)
}
