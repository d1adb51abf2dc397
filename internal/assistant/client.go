// Package assistant invokes the language-model provider with assembled
// business context to produce one reply per inbound message.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	apperrors "github.com/pedeja/chat-server-go/internal/errors"
	"github.com/pedeja/chat-server-go/internal/model"
)

const (
	requestTimeout = 60 * time.Second
	temperature    = 0.4
)

// Client is an explicit value constructed once at process start and injected
// where a reply is needed. It speaks the OpenAI-compatible chat-completions
// protocol.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewClient(baseURL, apiKey, modelName string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   modelName,
		client: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Reply makes one synchronous call to the provider: system instruction with
// the assembled context, the bounded history, then the new user message.
// No retry, no streaming, no tool calls. Provider failures come back as a
// typed ASSISTANT_ERROR so the caller decides how to acknowledge the webhook.
func (c *Client) Reply(ctx context.Context, promptCtx PromptContext, history []model.Message, userMessage string) (string, error) {
	messages := make([]chatMessage, 0, len(history)+2)
	messages = append(messages, chatMessage{Role: "system", Content: promptCtx.SystemInstruction()})
	for _, m := range history {
		messages = append(messages, chatMessage{Role: string(m.Role), Content: m.Content})
	}
	messages = append(messages, chatMessage{Role: "user", Content: userMessage})

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return "", apperrors.Assistant(fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", apperrors.Assistant(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		log.Error().Err(err).Dur("elapsed", elapsed).Msg("assistant request error")
		return "", apperrors.Assistant(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		log.Error().
			Int("status", resp.StatusCode).
			Dur("elapsed", elapsed).
			Msg("assistant request failed")
		return "", apperrors.Assistant(fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(payload)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", apperrors.Assistant(fmt.Errorf("decode response: %w", err))
	}
	if parsed.Error != nil {
		return "", apperrors.Assistant(fmt.Errorf("provider error: %s", parsed.Error.Message))
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", apperrors.Assistant(fmt.Errorf("provider returned no reply"))
	}

	reply := strings.TrimSpace(parsed.Choices[0].Message.Content)

	log.Debug().
		Dur("elapsed", elapsed).
		Int("historyTurns", len(history)).
		Msg("assistant reply produced")

	return reply, nil
}
