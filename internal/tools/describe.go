package tools

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
)

// DescribeCart renders the cart the way cart tools report it.
func DescribeCart(state graph.ConversationState) string {
	return formatCart(state, state.Cart)
}

// DescribeOrders renders every order snapshot held in state, oldest first.
func DescribeOrders(state graph.ConversationState) string {
	if len(state.Orders) == 0 {
		return "No orders on record.\n"
	}
	orders := make([]graph.Order, 0, len(state.Orders))
	for _, o := range state.Orders {
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.Before(orders[j].CreatedAt)
		}
		return orders[i].ID.String() < orders[j].ID.String()
	})
	parts := make([]string, 0, len(orders))
	for _, o := range orders {
		parts = append(parts, formatOrder(o))
	}
	return strings.Join(parts, "\n")
}

// DescribeSeenProducts renders the products shown in this thread, sorted by name.
func DescribeSeenProducts(state graph.ConversationState) string {
	if len(state.SeenProducts) == 0 {
		return "None yet.\n"
	}
	ids := make([]uuid.UUID, 0, len(state.SeenProducts))
	for id := range state.SeenProducts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := state.SeenProducts[ids[i]], state.SeenProducts[ids[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return ids[i].String() < ids[j].String()
	})
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, formatSeenProduct(state.SeenProducts[id]))
	}
	return strings.Join(parts, "\n")
}

// DescribeCustomer renders the known profile fields.
func DescribeCustomer(state graph.ConversationState) string {
	var b strings.Builder
	b.WriteString("Name: " + orDefault(state.Name, "Not provided") + "\n")
	b.WriteString("Phone: " + orDefault(state.PhoneNumber, "Not provided") + "\n")
	b.WriteString("Address: " + orDefault(state.Address, "Not provided") + "\n")
	b.WriteString("Email: " + orDefault(state.Email, "Not provided") + "\n")
	return b.String()
}
