package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/pedeja/chat-server-go/internal/assistant"
	"github.com/pedeja/chat-server-go/internal/model"
)

type mockTenantRepo struct {
	mock.Mock
}

func (m *mockTenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindByInstanceName(ctx context.Context, instanceName string) (*model.Tenant, error) {
	args := m.Called(ctx, instanceName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}

func (m *mockTenantRepo) FindByIDPrefix(ctx context.Context, prefix string) (*model.Tenant, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tenant), args.Error(1)
}

func (m *mockTenantRepo) UpdateInstanceState(ctx context.Context, id string, state model.ConnectionState) error {
	args := m.Called(ctx, id, state)
	return args.Error(0)
}

func (m *mockTenantRepo) UpdateInstance(ctx context.Context, id, instanceName string, token *string) error {
	args := m.Called(ctx, id, instanceName, token)
	return args.Error(0)
}

type mockCustomerRepo struct {
	mock.Mock
}

func (m *mockCustomerRepo) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockCustomerRepo) FindByPhoneVariants(ctx context.Context, tenantID string, variants []string) (*model.Customer, error) {
	args := m.Called(ctx, tenantID, variants)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) FindActiveProducts(ctx context.Context, tenantID string) ([]model.Product, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *mockCatalogRepo) FindTopSellers(ctx context.Context, tenantID string, limit int) ([]model.TopSeller, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TopSeller), args.Error(1)
}

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) FindRecentByPhoneVariants(ctx context.Context, tenantID string, variants []string, limit int) ([]model.Order, error) {
	args := m.Called(ctx, tenantID, variants, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

type mockConversationRepo struct {
	mock.Mock
}

func (m *mockConversationRepo) FindByID(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) FindActive(ctx context.Context, tenantID, canonicalPhone string) (*model.Conversation, error) {
	args := m.Called(ctx, tenantID, canonicalPhone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) Create(ctx context.Context, params model.CreateConversationParams) (*model.Conversation, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) RecordInbound(ctx context.Context, id string) (*model.Conversation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) FindIdle(ctx context.Context, idleBefore time.Time) ([]model.Conversation, error) {
	args := m.Called(ctx, idleBefore)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Conversation), args.Error(1)
}

func (m *mockConversationRepo) MarkFollowUpPending(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockConversationRepo) MarkFollowUpSent(ctx context.Context, id string, sentAt time.Time) error {
	args := m.Called(ctx, id, sentAt)
	return args.Error(0)
}

type mockMessageRepo struct {
	mock.Mock
}

func (m *mockMessageRepo) Append(ctx context.Context, conversationID string, role model.MessageRole, content string) (*model.Message, error) {
	args := m.Called(ctx, conversationID, role, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindRecent(ctx context.Context, conversationID string, since time.Time, limit int) ([]model.Message, error) {
	args := m.Called(ctx, conversationID, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *mockMessageRepo) FindRecentAssistantByKeyword(ctx context.Context, tenantID, keyword string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, tenantID, keyword, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

type mockAssistant struct {
	mock.Mock
}

func (m *mockAssistant) Reply(ctx context.Context, promptCtx assistant.PromptContext, history []model.Message, userMessage string) (string, error) {
	args := m.Called(ctx, promptCtx, history, userMessage)
	return args.String(0), args.Error(1)
}

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) SendText(ctx context.Context, tenant *model.Tenant, phone, text string) error {
	args := m.Called(ctx, tenant, phone, text)
	return args.Error(0)
}

func (m *mockDeliverer) SendTextDirect(ctx context.Context, instanceName, phone, text string) error {
	args := m.Called(ctx, instanceName, phone, text)
	return args.Error(0)
}
