package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
)

var moneyPrinter = message.NewPrinter(language.English)

func money(amount int64) string {
	return moneyPrinter.Sprintf("%d VND", amount)
}

func orDefault(v *string, fallback string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return fallback
	}
	return *v
}

func sortedCartKeys(cart map[graph.CartKey]graph.CartLine) []graph.CartKey {
	keys := make([]graph.CartKey, 0, len(cart))
	for k := range cart {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func formatCart(state graph.ConversationState, cart map[graph.CartKey]graph.CartLine) string {
	if len(cart) == 0 {
		return "The cart is now empty.\n"
	}

	var b strings.Builder
	var total int64
	for i, key := range sortedCartKeys(cart) {
		line := cart[key]
		total += line.Subtotal
		fmt.Fprintf(&b, "Item No: %d\n", i+1)
		fmt.Fprintf(&b, "Product ID: %s\n", line.ProductID)
		fmt.Fprintf(&b, "Variant ID: %s\n", line.VarianceID)
		fmt.Fprintf(&b, "Product Name: %s\n", line.Name)
		fmt.Fprintf(&b, "Brand: %s\n", line.Brand)
		fmt.Fprintf(&b, "Variant: %s: %s\n", line.VarName, line.Value)
		fmt.Fprintf(&b, "Unit Price: %s\n", money(line.Price))
		fmt.Fprintf(&b, "Quantity: %d\n", line.Quantity)
		fmt.Fprintf(&b, "Subtotal: %s\n\n", money(line.Subtotal))
	}
	fmt.Fprintf(&b, "Cart Total: %s\n", money(total))
	b.WriteString("Shipping Fee: Free ship\n")
	fmt.Fprintf(&b, "Recipient Name: %s\n", orDefault(state.Name, "Not provided"))
	fmt.Fprintf(&b, "Recipient Phone: %s\n", orDefault(state.PhoneNumber, "Not provided"))
	fmt.Fprintf(&b, "Recipient Address: %s\n", orDefault(state.Address, "Not provided"))
	fmt.Fprintf(&b, "Recipient Email: %s\n", orDefault(state.Email, "Not provided"))
	return b.String()
}

func sortedItems(items map[uuid.UUID]graph.OrderItem) []graph.OrderItem {
	out := make([]graph.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func formatOrder(o graph.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Order ID: %s\n", o.ID)
	fmt.Fprintf(&b, "Status: %s\n\n", o.Status)
	for i, item := range sortedItems(o.Items) {
		fmt.Fprintf(&b, "No: %d\n", i+1)
		fmt.Fprintf(&b, "Item ID: %s\n", item.ID)
		fmt.Fprintf(&b, "Product name: %s\n", item.Name)
		fmt.Fprintf(&b, "Product ID: %s\n", item.ProductID)
		fmt.Fprintf(&b, "Variant ID: %s\n", item.VarianceID)
		fmt.Fprintf(&b, "Brand: %s\n", item.Brand)
		if item.Description != "" {
			fmt.Fprintf(&b, "Variation: %s\n", item.Description)
		}
		fmt.Fprintf(&b, "Unit price: %s\n", money(item.PriceAfterDiscount))
		fmt.Fprintf(&b, "Quantity: %d\n", item.Quantity)
		fmt.Fprintf(&b, "Subtotal: %s\n\n", money(item.Subtotal))
	}
	fmt.Fprintf(&b, "Cart total: %s\n", money(o.OrderTotal))
	fmt.Fprintf(&b, "Shipping fee: %s\n", money(o.ShippingFee))
	fmt.Fprintf(&b, "Grand total: %s\n", money(o.GrandTotal))
	fmt.Fprintf(&b, "Payment method: %s\n\n", o.Payment)
	fmt.Fprintf(&b, "Receiver name: %s\n", o.ReceiverName)
	fmt.Fprintf(&b, "Receiver phone: %s\n", o.ReceiverPhone)
	fmt.Fprintf(&b, "Receiver address: %s\n", o.ReceiverAddress)
	if !o.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Order date: %s\n", o.CreatedAt.Format("15:04:05 - 02/01/2006"))
	}
	return b.String()
}

func formatSeenProduct(p graph.SeenProduct) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product ID: %s\n", p.ID)
	fmt.Fprintf(&b, "Name: %s\n", p.Name)
	fmt.Fprintf(&b, "Brand: %s\n", p.Brand)
	if p.BriefDescription != "" {
		fmt.Fprintf(&b, "Summary: %s\n", p.BriefDescription)
	}
	if p.URL != "" {
		fmt.Fprintf(&b, "Image: %s\n", p.URL)
	}

	variances := make([]graph.Variance, 0, len(p.Variances))
	for _, v := range p.Variances {
		variances = append(variances, v)
	}
	sort.Slice(variances, func(i, j int) bool {
		if variances[i].Price != variances[j].Price {
			return variances[i].Price < variances[j].Price
		}
		return variances[i].ID.String() < variances[j].ID.String()
	})
	for _, v := range variances {
		fmt.Fprintf(&b, "- Variant ID: %s | %s: %s | Price: %s", v.ID, v.VarName, v.Value, money(v.Price))
		if v.Discount != nil && *v.Discount > 0 {
			fmt.Fprintf(&b, " | Discount: %d%% | Price after discount: %s", *v.Discount, money(graph.UnitPrice(v)))
		}
		b.WriteString("\n")
	}
	return b.String()
}
