package tools

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

const (
	NameAddCart            = "add_cart"
	NameUpdateCartQuantity = "update_cart_quantity"
	NameRemoveCartItem     = "remove_cart_item"
)

type cartItemArgs struct {
	ProductID  uuid.UUID `json:"product_id"`
	VarianceID uuid.UUID `json:"variance_id"`
	Quantity   *int      `json:"quantity"`
}

var cartItemSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "product_id": {"type": "string", "description": "ID of the product, taken from the products the customer has seen"},
    "variance_id": {"type": "string", "description": "ID of the product variant the customer chose"},
    "quantity": {"type": "integer", "minimum": 1, "description": "Number of units"}
  },
  "required": ["product_id", "variance_id"]
}`)

var cartKeySchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "product_id": {"type": "string", "description": "ID of the product in the cart"},
    "variance_id": {"type": "string", "description": "ID of the variant in the cart"}
  },
  "required": ["product_id", "variance_id"]
}`)

type cartTools struct {
	reporter
}

// NewCartTools returns add_cart, update_cart_quantity and remove_cart_item.
func NewCartTools(log *logger.Logger) []Tool {
	c := cartTools{reporter{log: log}}
	return []Tool{
		&funcTool[cartItemArgs]{
			name:        NameAddCart,
			description: "Add a product variant the customer has seen to the shopping cart. Adding the same variant again replaces its line.",
			params:      cartItemSchema,
			run:         c.add,
		},
		&funcTool[cartItemArgs]{
			name:        NameUpdateCartQuantity,
			description: "Change the quantity of a line already in the cart. The new quantity must be greater than zero.",
			params:      cartItemSchema,
			run:         c.updateQuantity,
		},
		&funcTool[cartItemArgs]{
			name:        NameRemoveCartItem,
			description: "Remove a product variant from the cart entirely.",
			params:      cartKeySchema,
			run:         c.remove,
		},
	}
}

func (c cartTools) add(ctx context.Context, state graph.ConversationState, args cartItemArgs) (Result, error) {
	if len(state.SeenProducts) == 0 {
		c.warn(ctx, "add_cart: no seen products")
		return say("The customer has not viewed any products yet. Ask the customer to browse the catalog first."), nil
	}
	if args.ProductID == uuid.Nil || args.VarianceID == uuid.Nil {
		return say("Unable to identify which product or variant the customer wants to buy. Ask the customer to clarify."), nil
	}
	product, ok := state.SeenProducts[args.ProductID]
	if !ok {
		return say("The product the customer selected is not among the products they have viewed."), nil
	}
	variance, ok := product.Variances[args.VarianceID]
	if !ok {
		return say("The variant the customer selected does not exist for this product. Ask the customer to choose again."), nil
	}
	qty := 1
	if args.Quantity != nil {
		qty = *args.Quantity
	}
	if qty <= 0 {
		return say("The quantity must be greater than zero. Ask the customer for a valid quantity."), nil
	}

	line := graph.CartLine{
		ProductID:  product.ID,
		VarianceID: variance.ID,
		Name:       product.Name,
		Brand:      product.Brand,
		VarName:    variance.VarName,
		Value:      variance.Value,
		Price:      graph.UnitPrice(variance),
	}.WithQuantity(qty)

	cart := graph.CloneCart(state.Cart)
	cart[graph.NewCartKey(product.ID, variance.ID)] = line

	c.info(ctx, "add_cart: line stored")
	return Result{
		Content: "Product added to cart successfully! Here are the details:\n\n" + formatCart(state, cart),
		Update:  graph.Update{Cart: graph.Some(cart)},
	}, nil
}

func (c cartTools) updateQuantity(ctx context.Context, state graph.ConversationState, args cartItemArgs) (Result, error) {
	if len(state.Cart) == 0 {
		return say("The cart is empty. Ask the customer whether they would like to view or add products."), nil
	}
	if args.ProductID == uuid.Nil || args.VarianceID == uuid.Nil {
		return say("Product ID or variant ID not specified. Ask the customer which item they want to update."), nil
	}
	if args.Quantity == nil || *args.Quantity <= 0 {
		return say("The new quantity is missing or not greater than zero. Ask the customer for a valid quantity."), nil
	}
	key := graph.NewCartKey(args.ProductID, args.VarianceID)
	line, ok := state.Cart[key]
	if !ok {
		return say("The requested item is not in the cart. Ask the customer to confirm which item they mean."), nil
	}

	cart := graph.CloneCart(state.Cart)
	cart[key] = line.WithQuantity(*args.Quantity)

	return Result{
		Content: "The quantity has been updated.\n\nCurrent cart details:\n" + formatCart(state, cart) +
			"\nIf recipient name, phone number or address is missing, ask the customer for it (email is optional).",
		Update: graph.Update{Cart: graph.Some(cart)},
	}, nil
}

func (c cartTools) remove(ctx context.Context, state graph.ConversationState, args cartItemArgs) (Result, error) {
	if len(state.Cart) == 0 {
		return say("The cart is empty. Ask the customer whether they want to browse products."), nil
	}
	if args.ProductID == uuid.Nil || args.VarianceID == uuid.Nil {
		return say("Product ID or variant ID not specified. Ask the customer which item they want to remove."), nil
	}
	key := graph.NewCartKey(args.ProductID, args.VarianceID)
	if _, ok := state.Cart[key]; !ok {
		return say("The item to remove is not in the cart. Ask the customer to check the item again."), nil
	}

	cart := graph.CloneCart(state.Cart)
	delete(cart, key)

	return Result{
		Content: "The item has been removed from the cart.\n\nCurrent cart details:\n" + formatCart(state, cart),
		Update:  graph.Update{Cart: graph.Some(cart)},
	}, nil
}
