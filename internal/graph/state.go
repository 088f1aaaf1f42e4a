// Package graph holds the conversation state, its field reducers and the routing graph that
// drives one chat turn through the supervisor and a single specialist.
package graph

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the append-only conversation log.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToolCall records a tool invocation requested by an assistant message.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Variance is a snapshot of a purchasable product variant.
type Variance struct {
	ID                 uuid.UUID `json:"id"`
	SKU                string    `json:"sku"`
	VarName            string    `json:"var_name"`
	Value              string    `json:"value"`
	Price              int64     `json:"price"`
	Discount           *int      `json:"discount,omitempty"`
	PriceAfterDiscount *int64    `json:"price_after_discount,omitempty"`
}

// SeenProduct is a product the customer has been shown during the thread.
type SeenProduct struct {
	ID               uuid.UUID              `json:"id"`
	Name             string                 `json:"name"`
	Brand            string                 `json:"brand"`
	BriefDescription string                 `json:"brief_description"`
	Description      string                 `json:"description"`
	URL              string                 `json:"url,omitempty"`
	Variances        map[uuid.UUID]Variance `json:"variances"`
}

// CartKey identifies a cart line by product and variant.
type CartKey struct {
	ProductID  uuid.UUID
	VarianceID uuid.UUID
}

// NewCartKey builds the composite key for a cart line.
func NewCartKey(productID, varianceID uuid.UUID) CartKey {
	return CartKey{ProductID: productID, VarianceID: varianceID}
}

func (k CartKey) String() string {
	return k.ProductID.String() + ":" + k.VarianceID.String()
}

// MarshalText lets CartKey be used as a JSON object key.
func (k CartKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses the "product:variant" form written by MarshalText.
func (k *CartKey) UnmarshalText(text []byte) error {
	productPart, variancePart, ok := strings.Cut(string(text), ":")
	if !ok {
		return fmt.Errorf("invalid cart key %q", text)
	}
	productID, err := uuid.Parse(productPart)
	if err != nil {
		return fmt.Errorf("invalid cart key product: %w", err)
	}
	varianceID, err := uuid.Parse(variancePart)
	if err != nil {
		return fmt.Errorf("invalid cart key variance: %w", err)
	}
	k.ProductID = productID
	k.VarianceID = varianceID
	return nil
}

// CartLine is one cart entry. Price is locked when the line is added.
type CartLine struct {
	ProductID  uuid.UUID `json:"product_id"`
	VarianceID uuid.UUID `json:"variance_id"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand"`
	VarName    string    `json:"var_name"`
	Value      string    `json:"value"`
	Quantity   int       `json:"quantity"`
	Price      int64     `json:"price"`
	Subtotal   int64     `json:"subtotal"`
}

// WithQuantity returns the line with a new quantity and a recomputed subtotal.
func (l CartLine) WithQuantity(qty int) CartLine {
	l.Quantity = qty
	l.Subtotal = int64(qty) * l.Price
	return l
}

// OrderItem is the state snapshot of a persisted order item.
type OrderItem struct {
	ID                 uuid.UUID `json:"id"`
	ProductID          uuid.UUID `json:"product_id"`
	VarianceID         uuid.UUID `json:"variance_id"`
	Name               string    `json:"name"`
	Brand              string    `json:"brand"`
	Description        string    `json:"description"`
	PriceAfterDiscount int64     `json:"price_after_discount"`
	Quantity           int       `json:"quantity"`
	Subtotal           int64     `json:"subtotal"`
}

// Order is the state snapshot of a persisted order, refreshed after every write.
type Order struct {
	ID              uuid.UUID               `json:"id"`
	Status          enums.OrderStatus       `json:"status"`
	Payment         enums.PaymentMethod     `json:"payment"`
	OrderTotal      int64                   `json:"order_total"`
	ShippingFee     int64                   `json:"shipping_fee"`
	GrandTotal      int64                   `json:"grand_total"`
	ReceiverName    string                  `json:"receiver_name"`
	ReceiverPhone   string                  `json:"receiver_phone_number"`
	ReceiverAddress string                  `json:"receiver_address"`
	CreatedAt       time.Time               `json:"created_at"`
	Items           map[uuid.UUID]OrderItem `json:"items"`
}

// ConversationState is the durable per-thread state of a conversation.
type ConversationState struct {
	ChatID     string     `json:"chat_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`

	Name        *string `json:"name,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
	Email       *string `json:"email,omitempty"`

	Messages     []Message                 `json:"messages"`
	SeenProducts map[uuid.UUID]SeenProduct `json:"seen_products"`
	Cart         map[CartKey]CartLine      `json:"cart"`
	Orders       map[uuid.UUID]Order       `json:"orders"`

	Next Target `json:"next,omitempty"`

	// Input is the inbound text of the turn being processed. It reaches the message log through
	// the supervisor and is never persisted.
	Input string `json:"-"`
}

// NewState returns an empty state for a freshly established thread.
func NewState(chatID string, customerID uuid.UUID) ConversationState {
	return ConversationState{
		ChatID:       chatID,
		CustomerID:   customerID,
		SeenProducts: map[uuid.UUID]SeenProduct{},
		Cart:         map[CartKey]CartLine{},
		Orders:       map[uuid.UUID]Order{},
	}
}

// Clone returns a deep copy so a handler attempt can never mutate the caller's maps.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.SessionID = clonePtr(s.SessionID)
	out.Name = clonePtr(s.Name)
	out.PhoneNumber = clonePtr(s.PhoneNumber)
	out.Address = clonePtr(s.Address)
	out.Email = clonePtr(s.Email)
	out.Messages = cloneMessages(s.Messages)
	out.SeenProducts = CloneSeenProducts(s.SeenProducts)
	out.Cart = CloneCart(s.Cart)
	out.Orders = CloneOrders(s.Orders)
	return out
}

// LastUserMessage returns the content of the most recent user message.
func (s ConversationState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// LastAssistantMessage returns the final assistant text of the thread.
func (s ConversationState) LastAssistantMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		m := s.Messages[i]
		if m.Role == RoleAssistant && len(m.ToolCalls) == 0 {
			return m.Content
		}
	}
	return ""
}

// CloneSeenProducts deep-copies the seen product mapping, nested variances included.
func CloneSeenProducts(in map[uuid.UUID]SeenProduct) map[uuid.UUID]SeenProduct {
	out := make(map[uuid.UUID]SeenProduct, len(in))
	for id, p := range in {
		variances := make(map[uuid.UUID]Variance, len(p.Variances))
		for vid, v := range p.Variances {
			v.Discount = clonePtr(v.Discount)
			v.PriceAfterDiscount = clonePtr(v.PriceAfterDiscount)
			variances[vid] = v
		}
		p.Variances = variances
		out[id] = p
	}
	return out
}

// CloneCart copies the cart mapping.
func CloneCart(in map[CartKey]CartLine) map[CartKey]CartLine {
	out := make(map[CartKey]CartLine, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CloneOrders deep-copies the order mapping, nested items included.
func CloneOrders(in map[uuid.UUID]Order) map[uuid.UUID]Order {
	out := make(map[uuid.UUID]Order, len(in))
	for id, o := range in {
		items := make(map[uuid.UUID]OrderItem, len(o.Items))
		for iid, item := range o.Items {
			items[iid] = item
		}
		o.Items = items
		out[id] = o
	}
	return out
}

func cloneMessages(in []Message) []Message {
	if in == nil {
		return nil
	}
	out := make([]Message, len(in))
	for i, m := range in {
		if m.ToolCalls != nil {
			m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
		}
		out[i] = m
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
