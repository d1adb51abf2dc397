package assistant

import (
	"fmt"
	"strings"
	"time"

	"github.com/pedeja/chat-server-go/internal/model"
)

// PromptContext is the grounding data assembled for one assistant call.
// Every section is optional; empty sections are simply omitted from the
// rendered instruction.
type PromptContext struct {
	TenantName        string
	TenantDescription string
	MenuURL           string
	Products          []model.Product
	TopSellers        []model.TopSeller
	Customer          *model.Customer
	RecentOrders      []model.Order
	SentNotifications []model.Message
}

const systemPreamble = `Você é o atendente virtual de um restaurante. Responda em português, ` +
	`de forma curta e simpática. Use apenas as informações abaixo; nunca invente ` +
	`produtos ou preços. Quando o cliente pedir o cardápio, envie o link do cardápio.`

// SystemInstruction renders the assembled context as the structured text of a
// single system message.
func (c PromptContext) SystemInstruction() string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	b.WriteString("\n")

	b.WriteString("\n## Restaurante\n")
	b.WriteString(fmt.Sprintf("Nome: %s\n", c.TenantName))
	if c.TenantDescription != "" {
		b.WriteString(fmt.Sprintf("Descrição: %s\n", c.TenantDescription))
	}
	if c.MenuURL != "" {
		b.WriteString(fmt.Sprintf("Link do cardápio: %s\n", c.MenuURL))
	}

	if len(c.Products) > 0 {
		b.WriteString("\n## Cardápio\n")
		for _, p := range c.Products {
			category := "Outros"
			if p.CategoryName != nil && *p.CategoryName != "" {
				category = *p.CategoryName
			}
			b.WriteString(fmt.Sprintf("- [%s] %s — %s", category, p.Name, formatPrice(p.PriceCents)))
			if p.Description != nil && *p.Description != "" {
				b.WriteString(" (" + *p.Description + ")")
			}
			b.WriteString("\n")
		}
	}

	if len(c.TopSellers) > 0 {
		b.WriteString("\n## Mais pedidos\n")
		for _, s := range c.TopSellers {
			b.WriteString(fmt.Sprintf("- %s (%d vendidos)\n", s.Name, s.UnitsSold))
		}
	}

	if c.Customer != nil {
		b.WriteString("\n## Cliente\n")
		b.WriteString(fmt.Sprintf("Nome: %s\n", c.Customer.Name))
		b.WriteString(fmt.Sprintf("Telefone: %s\n", c.Customer.Phone))
		if c.Customer.Address != nil && *c.Customer.Address != "" {
			b.WriteString(fmt.Sprintf("Endereço: %s\n", *c.Customer.Address))
		}
		if c.Customer.LastOrderAt != nil {
			b.WriteString(fmt.Sprintf("Último pedido em: %s\n", c.Customer.LastOrderAt.Format("02/01/2006")))
		}
	}

	if len(c.RecentOrders) > 0 {
		b.WriteString("\n## Pedidos recentes\n")
		for _, o := range c.RecentOrders {
			b.WriteString(fmt.Sprintf("- %s, %s, %s\n",
				o.CreatedAt.Format("02/01/2006"), o.Status, formatPrice(o.TotalCents)))
			for _, item := range o.Items {
				b.WriteString(fmt.Sprintf("  - %dx %s\n", item.Quantity, item.ProductName))
			}
		}
	}

	if len(c.SentNotifications) > 0 {
		b.WriteString("\n## Notificações já enviadas ao cliente\n")
		for _, m := range c.SentNotifications {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", m.CreatedAt.Format(time.RFC3339), m.Content))
		}
	}

	return b.String()
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}
