package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/httputil"
	"github.com/pedeja/chat-server-go/internal/model"
	"github.com/pedeja/chat-server-go/internal/service"
	"github.com/pedeja/chat-server-go/internal/webhook"
)

// AckResponse is the envelope the messaging gateway receives for every
// webhook call. Always delivered with HTTP 200 so the gateway never
// retry-storms.
type AckResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// InboundHandler is what the webhook handler drives for text messages.
// Satisfied by *service.InboundPipeline.
type InboundHandler interface {
	HandleText(ctx context.Context, msg webhook.TextMessage) error
}

// WebhookHandler receives raw gateway events, normalizes them, and hands
// text messages to the pipeline.
type WebhookHandler struct {
	pipeline InboundHandler
	resolver *service.TenantResolver
	tenants  TenantStateUpdater
}

// TenantStateUpdater persists connection-state changes reported by the
// gateway.
type TenantStateUpdater interface {
	UpdateInstanceState(ctx context.Context, id string, state model.ConnectionState) error
}

func NewWebhookHandler(pipeline InboundHandler, resolver *service.TenantResolver, tenants TenantStateUpdater) *WebhookHandler {
	return &WebhookHandler{
		pipeline: pipeline,
		resolver: resolver,
		tenants:  tenants,
	}
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusOK, AckResponse{Success: false, Error: "unreadable body"})
		return
	}

	event, err := webhook.Decode(body)
	if err != nil {
		log.Warn().Err(err).Msg("malformed webhook payload")
		writeJSON(w, http.StatusOK, AckResponse{Success: false, Error: "malformed payload"})
		return
	}

	ctx := r.Context()

	switch ev := event.(type) {
	case webhook.TextMessage:
		if err := h.pipeline.HandleText(ctx, ev); err != nil {
			log.Error().
				Err(err).
				Str("instance", ev.InstanceID).
				Msg("inbound message handling failed")
			writeJSON(w, http.StatusOK, AckResponse{Success: false, Error: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, AckResponse{Success: true})

	case webhook.ConnectionUpdate:
		h.recordConnectionState(ctx, ev)
		writeJSON(w, http.StatusOK, AckResponse{Success: true})

	case webhook.Ignored:
		log.Debug().Str("reason", ev.Reason).Msg("webhook event ignored")
		writeJSON(w, http.StatusOK, AckResponse{Success: true})

	default:
		writeJSON(w, http.StatusOK, AckResponse{Success: true})
	}
}

// recordConnectionState persists the reported state against the resolved
// tenant, best-effort.
func (h *WebhookHandler) recordConnectionState(ctx context.Context, ev webhook.ConnectionUpdate) {
	resolved, err := h.resolver.Resolve(ctx, ev.InstanceID)
	if err != nil || resolved.Tenant == nil {
		log.Debug().Str("instance", ev.InstanceID).Msg("connection update for unresolved tenant")
		return
	}

	state := mapConnectionState(ev.State)
	if err := h.tenants.UpdateInstanceState(ctx, resolved.Tenant.ID, state); err != nil {
		log.Warn().Err(err).Str("tenantId", resolved.Tenant.ID).Msg("failed to persist connection state")
		return
	}

	log.Info().
		Str("tenantId", resolved.Tenant.ID).
		Str("state", string(state)).
		Msg("channel connection state updated")
}

func mapConnectionState(raw string) model.ConnectionState {
	switch raw {
	case "open":
		return model.ConnectionStateOpen
	case "connecting":
		return model.ConnectionStateConnecting
	case "close", "closed":
		return model.ConnectionStateNotFound
	default:
		return model.ConnectionStateError
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}
