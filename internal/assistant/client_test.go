package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pedeja/chat-server-go/internal/errors"
	"github.com/pedeja/chat-server-go/internal/model"
)

func TestClientReply(t *testing.T) {
	t.Run("sends system instruction, history and user message", func(t *testing.T) {
		var captured chatRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chat/completions", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

			json.NewEncoder(w).Encode(map[string]any{
				"choices": []map[string]any{
					{"message": map[string]string{"role": "assistant", "content": "Olá! Veja nosso cardápio."}},
				},
			})
		}))
		defer server.Close()

		client := NewClient(server.URL, "test-key", "gpt-4o-mini")
		history := []model.Message{
			{Role: model.RoleUser, Content: "oi"},
			{Role: model.RoleAssistant, Content: "olá, como posso ajudar?"},
		}

		reply, err := client.Reply(context.Background(), PromptContext{TenantName: "Cantina da Nona"}, history, "quero ver o cardápio")

		require.NoError(t, err)
		assert.Equal(t, "Olá! Veja nosso cardápio.", reply)

		require.Len(t, captured.Messages, 4)
		assert.Equal(t, "system", captured.Messages[0].Role)
		assert.Contains(t, captured.Messages[0].Content, "Cantina da Nona")
		assert.Equal(t, "user", captured.Messages[1].Role)
		assert.Equal(t, "assistant", captured.Messages[2].Role)
		assert.Equal(t, "quero ver o cardápio", captured.Messages[3].Content)
		assert.Equal(t, "gpt-4o-mini", captured.Model)
	})

	t.Run("provider failure surfaces as typed assistant error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "gpt-4o-mini")
		_, err := client.Reply(context.Background(), PromptContext{}, nil, "oi")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeAssistant, apperrors.GetCode(err))
	})

	t.Run("empty choices is an assistant error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))
		defer server.Close()

		client := NewClient(server.URL, "", "gpt-4o-mini")
		_, err := client.Reply(context.Background(), PromptContext{}, nil, "oi")

		require.Error(t, err)
		assert.Equal(t, apperrors.ErrCodeAssistant, apperrors.GetCode(err))
	})
}

func TestSystemInstruction(t *testing.T) {
	desc := "Pizza artesanal"
	address := "Rua das Flores, 100"
	category := "Pizzas"
	lastOrder := time.Date(2026, 8, 20, 19, 0, 0, 0, time.UTC)

	ctx := PromptContext{
		TenantName:        "Cantina da Nona",
		TenantDescription: desc,
		MenuURL:           "https://pedeja.example/menu/cantina-da-nona",
		Products: []model.Product{
			{Name: "Margherita", CategoryName: &category, PriceCents: 4590},
		},
		TopSellers: []model.TopSeller{{Name: "Margherita", UnitsSold: 42}},
		Customer: &model.Customer{
			Name:        "João",
			Phone:       "5511999998888",
			Address:     &address,
			LastOrderAt: &lastOrder,
		},
		RecentOrders: []model.Order{
			{Status: "delivered", TotalCents: 9180, CreatedAt: lastOrder,
				Items: []model.OrderItem{{ProductName: "Margherita", Quantity: 2}}},
		},
		SentNotifications: []model.Message{
			{Content: "Seu pedido saiu para entrega", CreatedAt: lastOrder},
		},
	}

	text := ctx.SystemInstruction()

	assert.Contains(t, text, "Cantina da Nona")
	assert.Contains(t, text, "https://pedeja.example/menu/cantina-da-nona")
	assert.Contains(t, text, "[Pizzas] Margherita — R$ 45,90")
	assert.Contains(t, text, "Margherita (42 vendidos)")
	assert.Contains(t, text, "João")
	assert.Contains(t, text, "Rua das Flores, 100")
	assert.Contains(t, text, "2x Margherita")
	assert.Contains(t, text, "Seu pedido saiu para entrega")
}

func TestSystemInstructionOmitsEmptySections(t *testing.T) {
	text := PromptContext{TenantName: "Sem Catálogo"}.SystemInstruction()

	assert.Contains(t, text, "Sem Catálogo")
	assert.NotContains(t, text, "## Cardápio")
	assert.NotContains(t, text, "## Cliente")
	assert.NotContains(t, text, "## Pedidos recentes")
}
