// Package notify formats order summaries and hands them off to external
// messaging channels (a WhatsApp deep link for the customer, optionally a
// Telegram alert for the shop operator).
package notify

import (
	"fmt"
	"net/url"
	"strings"

	"storefront/internal/models"
	"storefront/internal/pricing"
)

// OrderMessage builds the plain-text summary sent on checkout: customer,
// line items with quantity and line total, frete, optional coupon line and
// grand total.
func OrderMessage(customerName, customerEmail string, items []models.OrderItem, quote pricing.Quote, coupon *models.Coupon) string {
	var b strings.Builder

	b.WriteString("NOVO PEDIDO - STG CATALOG\n")
	fmt.Fprintf(&b, "Cliente: %s\n", orDefault(customerName))
	fmt.Fprintf(&b, "Email: %s\n", orDefault(customerEmail))
	b.WriteString("PRODUTOS:\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s - Qtd: %d - R$ %.2f\n",
			item.Name, item.Quantity, item.Price*float64(item.Quantity))
	}
	fmt.Fprintf(&b, "Frete: R$ %.2f\n", quote.Shipping)
	if coupon != nil {
		fmt.Fprintf(&b, "Cupom %s: -R$ %.2f\n", coupon.Code, quote.Discount)
	}
	fmt.Fprintf(&b, "TOTAL: R$ %.2f\n", quote.Total)
	b.WriteString("---\nPedido via STG Catalog")

	return b.String()
}

// WhatsAppURL builds the messaging hand-off link the client opens to send
// the summary to the shop.
func WhatsAppURL(number, message string) string {
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(message)
}

func orDefault(s string) string {
	if s == "" {
		return "Não informado"
	}
	return s
}
