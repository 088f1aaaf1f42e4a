package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

type orderItemArgs struct {
	OrderID  uuid.UUID `json:"order_id"`
	ItemID   uuid.UUID `json:"item_id"`
	Quantity *int      `json:"quantity"`
}

var orderItemSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "order_id": {"type": "string", "description": "ID of the order"},
    "item_id": {"type": "string", "description": "ID of the order item"},
    "quantity": {"type": "integer", "minimum": 1, "description": "New quantity, only for quantity updates"}
  },
  "required": ["order_id", "item_id"]
}`)

type addOrderItemArgs struct {
	OrderID    uuid.UUID `json:"order_id"`
	ProductID  uuid.UUID `json:"product_id"`
	VarianceID uuid.UUID `json:"variance_id"`
	Quantity   *int      `json:"quantity"`
}

var addOrderItemSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "order_id": {"type": "string", "description": "ID of the order to add the product to"},
    "product_id": {"type": "string", "description": "ID of a product the customer has seen"},
    "variance_id": {"type": "string", "description": "ID of the chosen variant"},
    "quantity": {"type": "integer", "minimum": 1, "description": "Number of units, defaults to 1"}
  },
  "required": ["order_id", "product_id", "variance_id"]
}`)

// editableOrder resolves the order and rejects statuses whose items are frozen.
func editableOrder(state graph.ConversationState, orderID uuid.UUID) (graph.Order, string) {
	order, msg := knownOrder(state, orderID, "change")
	if msg != "" {
		return order, msg
	}
	if !order.Status.ItemsEditable() {
		return order, fmt.Sprintf("Order with ID %s cannot be modified because it is already %s.", order.ID, order.Status)
	}
	return order, ""
}

// recompute runs the mandatory total recomputation after an item write. The item write has
// already committed, so a failure here is a partial write and is reported as a failure.
func (o orderTools) recompute(ctx context.Context, state graph.ConversationState, orderID uuid.UUID, lead string) (Result, error) {
	fresh, err := o.store.RecomputeTotals(ctx, orderID, enums.ActorRoleCustomer)
	if err != nil {
		return o.partial(ctx, "order item changed but totals not recomputed", err)
	}
	if fresh == nil {
		return o.partial(ctx, "order item changed but order could not be read back", fmt.Errorf("order %s missing after recompute", orderID))
	}
	if fresh.Status == enums.OrderStatusCancelled {
		lead += "The order no longer has any items, so it has been cancelled.\n\n"
	}
	return o.snapshotResult(state, fresh, lead), nil
}

func (o orderTools) updateItemQuantity(ctx context.Context, state graph.ConversationState, args orderItemArgs) (Result, error) {
	order, msg := editableOrder(state, args.OrderID)
	if msg != "" {
		return say(msg), nil
	}
	if args.ItemID == uuid.Nil {
		return say("Cannot determine which product in the order the customer wants to change. Ask the customer to describe it more clearly."), nil
	}
	if _, ok := order.Items[args.ItemID]; !ok {
		return reply("Product with item ID %s was not found in order %s. Ask the customer to verify the product.", args.ItemID, order.ID), nil
	}
	if args.Quantity == nil || *args.Quantity <= 0 {
		return say("The quantity must be greater than zero. To drop the product, remove it from the order instead."), nil
	}

	item, err := o.store.UpdateItemQuantity(ctx, args.ItemID, *args.Quantity)
	if err != nil {
		return o.failure(ctx, "update_item_quantity: update item", err)
	}
	if item == nil {
		return reply("Product with item ID %s is no longer in order %s. Retrieve the customer's orders again.", args.ItemID, order.ID), nil
	}
	return o.recompute(ctx, state, order.ID, "The quantity has been updated. Current order details:\n\n")
}

func (o orderTools) removeItem(ctx context.Context, state graph.ConversationState, args orderItemArgs) (Result, error) {
	order, msg := editableOrder(state, args.OrderID)
	if msg != "" {
		return say(msg), nil
	}
	if args.ItemID == uuid.Nil {
		return say("Cannot determine which product the customer wants to remove. Ask the customer to describe it more clearly."), nil
	}
	if _, ok := order.Items[args.ItemID]; !ok {
		return reply("Product with item ID %s was not found in order %s. Ask the customer to verify the product.", args.ItemID, order.ID), nil
	}

	deleted, err := o.store.DeleteItem(ctx, args.ItemID)
	if err != nil {
		return o.failure(ctx, "remove_order_item: delete item", err)
	}
	if !deleted {
		return reply("Product with item ID %s is no longer in order %s. Retrieve the customer's orders again.", args.ItemID, order.ID), nil
	}
	return o.recompute(ctx, state, order.ID, "The product has been removed from the order. Current order details:\n\n")
}

func (o orderTools) addItem(ctx context.Context, state graph.ConversationState, args addOrderItemArgs) (Result, error) {
	order, msg := editableOrder(state, args.OrderID)
	if msg != "" {
		return say(msg), nil
	}
	if len(state.SeenProducts) == 0 {
		return say("No product information is available yet. Search for the product before adding it to the order."), nil
	}
	if args.ProductID == uuid.Nil || args.VarianceID == uuid.Nil {
		return say("Cannot determine which product or variant the customer wants to add. Ask the customer to specify it."), nil
	}
	product, ok := state.SeenProducts[args.ProductID]
	if !ok {
		return say("The product the customer selected is not among the products they have viewed."), nil
	}
	variance, ok := product.Variances[args.VarianceID]
	if !ok {
		return say("The specified product variant was not found. Ask the customer to verify the product and variant."), nil
	}
	qty := 1
	if args.Quantity != nil {
		qty = *args.Quantity
	}
	if qty <= 0 {
		return say("The quantity must be greater than zero. Ask the customer for a valid quantity."), nil
	}
	for _, existing := range order.Items {
		if existing.ProductID == product.ID && existing.VarianceID == variance.ID {
			return reply("This product variant is already in the order (item ID %s). Use the quantity update instead.", existing.ID), nil
		}
	}

	price := graph.UnitPrice(variance)
	item := &models.OrderItem{
		OrderID:            order.ID,
		ProductID:          product.ID,
		VariantID:          variance.ID,
		Name:               product.Name,
		Brand:              product.Brand,
		Description:        variantLabel(variance.VarName, variance.Value),
		PriceAfterDiscount: price,
		Quantity:           qty,
		Subtotal:           int64(qty) * price,
	}
	if err := o.store.AddItem(ctx, item); err != nil {
		return o.failure(ctx, "add_order_item: insert item", err)
	}
	return o.recompute(ctx, state, order.ID, "The product has been added to the order. Current order details:\n\n")
}
