package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pedeja/chat-server-go/internal/errors"
	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/repository"
	"github.com/pedeja/chat-server-go/internal/util"
)

// API is the provider surface the manager drives. Satisfied by *Client.
type API interface {
	CreateInstance(ctx context.Context, params CreateInstanceParams) error
	ConnectInstance(ctx context.Context, instanceName, number string) error
	ConnectionState(ctx context.Context, instanceName string) (model.ConnectionState, error)
	SendText(ctx context.Context, instanceName, number, text string) error
	SetWebhook(ctx context.Context, instanceName, webhookURL string) error
}

// Manager owns the channel instance of each tenant: it derives the instance
// name, provisions on demand, and retries a failed call exactly once after
// provisioning.
type Manager struct {
	api        API
	tenantRepo repository.TenantRepository
	webhookURL string
}

func NewManager(api API, tenantRepo repository.TenantRepository, webhookURL string) *Manager {
	return &Manager{
		api:        api,
		tenantRepo: tenantRepo,
		webhookURL: webhookURL,
	}
}

// InstanceName derives the tenant's channel instance name. Tenants that have
// never been provisioned fall back to the conventional tenant_<id> name.
func InstanceName(tenant *model.Tenant) string {
	if tenant.InstanceName != nil && *tenant.InstanceName != "" {
		return *tenant.InstanceName
	}
	return "tenant_" + tenant.ID
}

// SendText delivers a text message through the tenant's channel instance.
// A not_found instance triggers a one-shot create-then-retry: the original
// send is attempted again exactly once after provisioning, and a second
// failure propagates.
func (m *Manager) SendText(ctx context.Context, tenant *model.Tenant, phone, text string) error {
	if tenant == nil {
		return apperrors.ChannelNotConfigured("unknown")
	}

	instanceName := InstanceName(tenant)

	err := m.api.SendText(ctx, instanceName, phone, text)
	if err == nil {
		return nil
	}
	if !isInstanceNotFound(err) {
		return apperrors.Delivery("send failed", err)
	}

	log.Info().
		Str("tenantId", tenant.ID).
		Str("instance", instanceName).
		Msg("channel instance not found, provisioning")

	if err := m.provision(ctx, tenant, instanceName); err != nil {
		return apperrors.ChannelUnreachable(instanceName, err)
	}

	if err := m.api.SendText(ctx, instanceName, phone, text); err != nil {
		return apperrors.ChannelUnreachable(instanceName, err)
	}
	return nil
}

// SendTextDirect delivers through a named instance without the
// provision-on-demand retry. Used for ephemeral sessions, where the only
// thing known about the channel is the instance identifier the inbound
// message arrived on.
func (m *Manager) SendTextDirect(ctx context.Context, instanceName, phone, text string) error {
	if instanceName == "" {
		return apperrors.ChannelNotConfigured("unknown")
	}
	if err := m.api.SendText(ctx, instanceName, phone, text); err != nil {
		return apperrors.Delivery("send failed", err)
	}
	return nil
}

// Status reports the connection state of the tenant's channel instance.
func (m *Manager) Status(ctx context.Context, tenant *model.Tenant) (model.ConnectionState, error) {
	if tenant == nil {
		return model.ConnectionStateNotFound, apperrors.ChannelNotConfigured("unknown")
	}
	return m.api.ConnectionState(ctx, InstanceName(tenant))
}

// provision creates and connects the channel instance. Registering this
// service's webhook is part of instance creation; if that part fails the
// instance is still usable, so the failure is only logged.
func (m *Manager) provision(ctx context.Context, tenant *model.Tenant, instanceName string) error {
	token, err := util.GenerateToken()
	if err != nil {
		return err
	}

	number := ""
	if tenant.Phone != nil {
		number = *tenant.Phone
	}

	if err := m.api.CreateInstance(ctx, CreateInstanceParams{
		InstanceName: instanceName,
		Token:        token,
		Number:       number,
		WebhookURL:   m.webhookURL,
	}); err != nil {
		return err
	}

	if m.webhookURL != "" {
		if err := m.api.SetWebhook(ctx, instanceName, m.webhookURL); err != nil {
			log.Warn().
				Err(err).
				Str("instance", instanceName).
				Msg("failed to register webhook on new instance")
		}
	}

	if err := m.api.ConnectInstance(ctx, instanceName, number); err != nil {
		return err
	}

	if err := m.tenantRepo.UpdateInstance(ctx, tenant.ID, instanceName, &token); err != nil {
		log.Warn().Err(err).Str("tenantId", tenant.ID).Msg("failed to persist instance credentials")
	}
	if err := m.tenantRepo.UpdateInstanceState(ctx, tenant.ID, model.ConnectionStateConnecting); err != nil {
		log.Warn().Err(err).Str("tenantId", tenant.ID).Msg("failed to persist instance state")
	}

	return nil
}

func isInstanceNotFound(err error) bool {
	var statusErr *StatusError
	return asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}
