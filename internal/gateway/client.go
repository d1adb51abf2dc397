// Package gateway talks to the messaging provider's HTTP API and manages the
// lifecycle of per-tenant channel instances.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pedeja/chat-server-go/internal/model"
)

const (
	requestTimeout = 15 * time.Second
	sendDelayMs    = 1200
)

// webhookEvents are the gateway events this service subscribes to when it
// registers its own webhook against a new instance.
var webhookEvents = []string{"MESSAGES_UPSERT", "CONNECTION_UPDATE"}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type CreateInstanceParams struct {
	InstanceName string
	Token        string
	Number       string
	WebhookURL   string
}

type createInstanceRequest struct {
	InstanceName string         `json:"instanceName"`
	Token        string         `json:"token,omitempty"`
	Number       string         `json:"number,omitempty"`
	Integration  string         `json:"integration"`
	RejectCall   bool           `json:"rejectCall"`
	MsgCall      string         `json:"msgCall,omitempty"`
	Webhook      *webhookConfig `json:"webhook,omitempty"`
}

type webhookConfig struct {
	Enabled bool     `json:"enabled"`
	URL     string   `json:"url"`
	Events  []string `json:"events"`
}

type setWebhookRequest struct {
	Webhook webhookConfig `json:"webhook"`
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
	Delay  int    `json:"delay"`
}

type connectionStateResponse struct {
	Instance struct {
		State string `json:"state"`
	} `json:"instance"`
}

// CreateInstance provisions a new channel instance. A webhook URL, when
// configured, is included so the gateway starts delivering events immediately.
func (c *Client) CreateInstance(ctx context.Context, params CreateInstanceParams) error {
	body := createInstanceRequest{
		InstanceName: params.InstanceName,
		Token:        params.Token,
		Number:       params.Number,
		Integration:  "WHATSAPP-BAILEYS",
		RejectCall:   true,
		MsgCall:      "Este número não atende chamadas. Envie uma mensagem de texto.",
	}
	if params.WebhookURL != "" {
		body.Webhook = &webhookConfig{
			Enabled: true,
			URL:     params.WebhookURL,
			Events:  webhookEvents,
		}
	}

	return c.do(ctx, http.MethodPost, "/instance/create", body, nil)
}

// ConnectInstance asks the gateway to open the instance's session.
func (c *Client) ConnectInstance(ctx context.Context, instanceName, number string) error {
	path := "/instance/connect/" + url.PathEscape(instanceName)
	if number != "" {
		path += "?number=" + url.QueryEscape(number)
	}
	return c.do(ctx, http.MethodGet, path, nil, nil)
}

// ConnectionState reports the instance's current lifecycle state. A 404 from
// the gateway maps to ConnectionStateNotFound rather than an error.
func (c *Client) ConnectionState(ctx context.Context, instanceName string) (model.ConnectionState, error) {
	var resp connectionStateResponse
	err := c.do(ctx, http.MethodGet, "/instance/connectionState/"+url.PathEscape(instanceName), nil, &resp)
	if err != nil {
		var statusErr *StatusError
		if asStatusError(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return model.ConnectionStateNotFound, nil
		}
		return model.ConnectionStateError, err
	}

	switch resp.Instance.State {
	case "open":
		return model.ConnectionStateOpen, nil
	case "connecting":
		return model.ConnectionStateConnecting, nil
	case "close", "closed":
		return model.ConnectionStateNotFound, nil
	default:
		return model.ConnectionStateError, nil
	}
}

// SendText delivers a text message through the instance. The destination is
// normalized to international format before sending.
func (c *Client) SendText(ctx context.Context, instanceName, number, text string) error {
	body := sendTextRequest{
		Number: NormalizeDestination(number),
		Text:   text,
		Delay:  sendDelayMs,
	}
	return c.do(ctx, http.MethodPost, "/message/sendText/"+url.PathEscape(instanceName), body, nil)
}

// SetWebhook registers a webhook URL against an existing instance.
func (c *Client) SetWebhook(ctx context.Context, instanceName, webhookURL string) error {
	body := setWebhookRequest{
		Webhook: webhookConfig{
			Enabled: true,
			URL:     webhookURL,
			Events:  webhookEvents,
		},
	}
	return c.do(ctx, http.MethodPost, "/webhook/set/"+url.PathEscape(instanceName), body, nil)
}

// DeleteInstance removes the instance from the gateway.
func (c *Client) DeleteInstance(ctx context.Context, instanceName string) error {
	return c.do(ctx, http.MethodDelete, "/instance/delete/"+url.PathEscape(instanceName), nil, nil)
}

// Logout disconnects the instance's session without deleting it.
func (c *Client) Logout(ctx context.Context, instanceName string) error {
	return c.do(ctx, http.MethodGet, "/instance/logout/"+url.PathEscape(instanceName), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("method", method).
			Str("path", path).
			Dur("elapsed", elapsed).
			Msg("gateway request error")
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Warn().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("gateway request failed")
		return &StatusError{StatusCode: resp.StatusCode, Body: string(payload)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}

	return nil
}

// NormalizeDestination forces the "55" country prefix onto a destination
// number.
func NormalizeDestination(number string) string {
	digits := onlyDigits(number)
	if strings.HasPrefix(digits, "55") && len(digits) >= 12 {
		return digits
	}
	return "55" + digits
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
