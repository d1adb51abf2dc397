package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pedeja/chat-server-go/internal/errors"
	"github.com/pedeja/chat-server-go/internal/model"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) CreateInstance(ctx context.Context, params CreateInstanceParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *mockAPI) ConnectInstance(ctx context.Context, instanceName, number string) error {
	args := m.Called(ctx, instanceName, number)
	return args.Error(0)
}

func (m *mockAPI) ConnectionState(ctx context.Context, instanceName string) (model.ConnectionState, error) {
	args := m.Called(ctx, instanceName)
	return args.Get(0).(model.ConnectionState), args.Error(1)
}

func (m *mockAPI) SendText(ctx context.Context, instanceName, number, text string) error {
	args := m.Called(ctx, instanceName, number, text)
	return args.Error(0)
}

func (m *mockAPI) SetWebhook(ctx context.Context, instanceName, webhookURL string) error {
	args := m.Called(ctx, instanceName, webhookURL)
	return args.Error(0)
}

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

func testTenant() *model.Tenant {
	name := "tenant_abc"
	return &model.Tenant{ID: "abc", Name: "Cantina da Nona", InstanceName: &name}
}

func TestManagerSendText(t *testing.T) {
	ctx := context.Background()
	notFound := &StatusError{StatusCode: http.StatusNotFound}

	t.Run("delivers on the first attempt", func(t *testing.T) {
		api := new(mockAPI)
		api.On("SendText", ctx, "tenant_abc", "11999998888", "oi").Return(nil).Once()

		mgr := NewManager(api, new(mockTenantRepo), "")
		err := mgr.SendText(ctx, testTenant(), "11999998888", "oi")

		require.NoError(t, err)
		api.AssertExpectations(t)
	})

	t.Run("not_found triggers exactly one create and one retried send", func(t *testing.T) {
		api := new(mockAPI)
		repo := new(mockTenantRepo)

		api.On("SendText", ctx, "tenant_abc", "11999998888", "oi").Return(notFound).Once()
		api.On("CreateInstance", ctx, mock.MatchedBy(func(p CreateInstanceParams) bool {
			return p.InstanceName == "tenant_abc" && p.Token != ""
		})).Return(nil).Once()
		api.On("SetWebhook", ctx, "tenant_abc", "https://pedeja.example/webhook/messaging").Return(nil).Once()
		api.On("ConnectInstance", ctx, "tenant_abc", "").Return(nil).Once()
		api.On("SendText", ctx, "tenant_abc", "11999998888", "oi").Return(nil).Once()
		repo.On("UpdateInstance", ctx, "abc", "tenant_abc", mock.Anything).Return(nil).Once()
		repo.On("UpdateInstanceState", ctx, "abc", model.ConnectionStateConnecting).Return(nil).Once()

		mgr := NewManager(api, repo, "https://pedeja.example/webhook/messaging")
		err := mgr.SendText(ctx, testTenant(), "11999998888", "oi")

		require.NoError(t, err)
		api.AssertExpectations(t)
		api.AssertNumberOfCalls(t, "CreateInstance", 1)
		api.AssertNumberOfCalls(t, "SendText", 2)
	})

	t.Run("second not_found propagates without a third attempt", func(t *testing.T) {
		api := new(mockAPI)
		repo := new(mockTenantRepo)

		api.On("SendText", ctx, "tenant_abc", "11999998888", "oi").Return(notFound).Twice()
		api.On("CreateInstance", ctx, mock.Anything).Return(nil).Once()
		api.On("ConnectInstance", ctx, "tenant_abc", "").Return(nil).Once()
		repo.On("UpdateInstance", ctx, "abc", "tenant_abc", mock.Anything).Return(nil).Once()
		repo.On("UpdateInstanceState", ctx, "abc", model.ConnectionStateConnecting).Return(nil).Once()

		mgr := NewManager(api, repo, "")
		err := mgr.SendText(ctx, testTenant(), "11999998888", "oi")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeChannelUnreachable, apperrors.GetCode(err))
		api.AssertNumberOfCalls(t, "SendText", 2)
		api.AssertNumberOfCalls(t, "CreateInstance", 1)
	})

	t.Run("webhook registration failure does not fail provisioning", func(t *testing.T) {
		api := new(mockAPI)
		repo := new(mockTenantRepo)

		api.On("SendText", ctx, "tenant_abc", "11999998888", "oi").Return(notFound).Once()
		api.On("CreateInstance", ctx, mock.Anything).Return(nil).Once()
		api.On("SetWebhook", ctx, "tenant_abc", "https://pedeja.example/webhook/messaging").
			Return(&StatusError{StatusCode: http.StatusBadGateway}).Once()
		api.On("ConnectInstance", ctx, "tenant_abc", "").Return(nil).Once()
		api.On("SendText", ctx, "tenant_abc", "11999998888", "oi").Return(nil).Once()
		repo.On("UpdateInstance", ctx, "abc", "tenant_abc", mock.Anything).Return(nil).Once()
		repo.On("UpdateInstanceState", ctx, "abc", model.ConnectionStateConnecting).Return(nil).Once()

		mgr := NewManager(api, repo, "https://pedeja.example/webhook/messaging")
		err := mgr.SendText(ctx, testTenant(), "11999998888", "oi")

		require.NoError(t, err)
		api.AssertExpectations(t)
	})

	t.Run("non-404 failures do not trigger provisioning", func(t *testing.T) {
		api := new(mockAPI)
		api.On("SendText", ctx, "tenant_abc", "11999998888", "oi").
			Return(&StatusError{StatusCode: http.StatusInternalServerError}).Once()

		mgr := NewManager(api, new(mockTenantRepo), "")
		err := mgr.SendText(ctx, testTenant(), "11999998888", "oi")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeDelivery, apperrors.GetCode(err))
		api.AssertNumberOfCalls(t, "SendText", 1)
	})

	t.Run("nil tenant means channel not configured", func(t *testing.T) {
		mgr := NewManager(new(mockAPI), new(mockTenantRepo), "")
		err := mgr.SendText(ctx, nil, "11999998888", "oi")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeChannelNotConfigured, apperrors.GetCode(err))
	})
}
