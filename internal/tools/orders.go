package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/orders"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

const (
	NameCreateOrder             = "create_order"
	NameGetCustomerOrders       = "get_customer_orders"
	NameUpdateReceiverInfo      = "update_receiver_info"
	NameCancelOrder             = "cancel_order"
	NameUpdateOrderItemQuantity = "update_item_quantity"
	NameRemoveOrderItem         = "remove_order_item"
	NameAddOrderItem            = "add_order_item"
)

// OrderStore is the slice of the order repository the order tools write through.
type OrderStore interface {
	Place(ctx context.Context, order *models.Order, items []models.OrderItem, log *models.OrderLog) (*models.Order, error)
	Details(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ListEditable(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	UpdateReceiver(ctx context.Context, orderID uuid.UUID, receiver orders.ReceiverUpdate) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	CreateLog(ctx context.Context, log *models.OrderLog) error
	AddItem(ctx context.Context, item *models.OrderItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.OrderItem, error)
	DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error)
	RecomputeTotals(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error)
	ActivePaymentQR(ctx context.Context) (*models.PaymentQR, error)
}

type orderTools struct {
	reporter
	store OrderStore
}

// NewOrderTools returns the order placement tools used by the order specialist.
func NewOrderTools(store OrderStore, log *logger.Logger) []Tool {
	o := orderTools{reporter: reporter{log: log}, store: store}
	return []Tool{
		&funcTool[struct{}]{
			name:        NameCreateOrder,
			description: "Create a new order from the cart using the receiver name, phone number and address on file (email is optional).",
			params:      json.RawMessage(`{"type": "object", "properties": {}}`),
			run:         o.create,
		},
		o.listTool(),
	}
}

// NewModifyOrderTools returns the tools that change orders already placed.
func NewModifyOrderTools(store OrderStore, log *logger.Logger) []Tool {
	o := orderTools{reporter: reporter{log: log}, store: store}
	return []Tool{
		o.listTool(),
		&funcTool[receiverArgs]{
			name:        NameUpdateReceiverInfo,
			description: "Change the receiver name, phone number or address of an existing order.",
			params:      receiverSchema,
			run:         o.updateReceiver,
		},
		&funcTool[orderRefArgs]{
			name:        NameCancelOrder,
			description: "Cancel an order that has not been shipped yet.",
			params:      orderRefSchema,
			run:         o.cancel,
		},
		&funcTool[orderItemArgs]{
			name:        NameUpdateOrderItemQuantity,
			description: "Change the quantity of an item in an existing order. Quantity must be greater than zero.",
			params:      orderItemSchema,
			run:         o.updateItemQuantity,
		},
		&funcTool[orderItemArgs]{
			name:        NameRemoveOrderItem,
			description: "Remove an item from an existing order. An order left without items is cancelled.",
			params:      orderItemSchema,
			run:         o.removeItem,
		},
		&funcTool[addOrderItemArgs]{
			name:        NameAddOrderItem,
			description: "Add a product variant the customer has seen to an existing order.",
			params:      addOrderItemSchema,
			run:         o.addItem,
		},
	}
}

func (o orderTools) listTool() Tool {
	return &funcTool[struct{}]{
		name:        NameGetCustomerOrders,
		description: "Fetch the customer's most recent orders that can still be changed.",
		params:      json.RawMessage(`{"type": "object", "properties": {}}`),
		run:         o.list,
	}
}

type orderRefArgs struct {
	OrderID uuid.UUID `json:"order_id"`
}

var orderRefSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "order_id": {"type": "string", "description": "ID of the order"}
  },
  "required": ["order_id"]
}`)

type receiverArgs struct {
	OrderID     uuid.UUID `json:"order_id"`
	Name        *string   `json:"name"`
	PhoneNumber *string   `json:"phone_number"`
	Address     *string   `json:"address"`
}

var receiverSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "order_id": {"type": "string", "description": "ID of the order"},
    "name": {"type": "string", "description": "New receiver name"},
    "phone_number": {"type": "string", "description": "New receiver phone number"},
    "address": {"type": "string", "description": "New delivery address"}
  },
  "required": ["order_id"]
}`)

// OrderSnapshot converts a stored order into its state representation.
func OrderSnapshot(o *models.Order) graph.Order {
	items := make(map[uuid.UUID]graph.OrderItem, len(o.Items))
	for _, item := range o.Items {
		items[item.ID] = graph.OrderItem{
			ID:                 item.ID,
			ProductID:          item.ProductID,
			VarianceID:         item.VariantID,
			Name:               item.Name,
			Brand:              item.Brand,
			Description:        item.Description,
			PriceAfterDiscount: item.PriceAfterDiscount,
			Quantity:           item.Quantity,
			Subtotal:           item.Subtotal,
		}
	}
	return graph.Order{
		ID:              o.ID,
		Status:          o.Status,
		Payment:         o.Payment,
		OrderTotal:      o.OrderTotal,
		ShippingFee:     o.ShippingFee,
		GrandTotal:      o.GrandTotal,
		ReceiverName:    o.ReceiverName,
		ReceiverPhone:   o.ReceiverPhone,
		ReceiverAddress: o.ReceiverAddress,
		CreatedAt:       o.CreatedAt,
		Items:           items,
	}
}

func withOrder(state graph.ConversationState, snapshot graph.Order) map[uuid.UUID]graph.Order {
	out := graph.CloneOrders(state.Orders)
	out[snapshot.ID] = snapshot
	return out
}

func missingText(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

func (o orderTools) create(ctx context.Context, state graph.ConversationState, _ struct{}) (Result, error) {
	if len(state.Cart) == 0 {
		o.warn(ctx, "create_order: cart is empty")
		return say("The customer has not selected any products yet. Ask the customer what they would like to buy."), nil
	}
	if state.CustomerID == uuid.Nil || missingText(state.Name) || missingText(state.PhoneNumber) || missingText(state.Address) {
		o.warn(ctx, "create_order: receiver information incomplete")
		return reply("Here is the customer's information:\n"+
			"- Receiver name: %s\n- Receiver phone: %s\n- Receiver address: %s\n"+
			"Ask the customer for the missing information.",
			orDefault(state.Name, "Not available"),
			orDefault(state.PhoneNumber, "Not available"),
			orDefault(state.Address, "Not available")), nil
	}

	items := make([]models.OrderItem, 0, len(state.Cart))
	var total int64
	for _, key := range sortedCartKeys(state.Cart) {
		line := state.Cart[key].WithQuantity(state.Cart[key].Quantity)
		total += line.Subtotal
		items = append(items, models.OrderItem{
			ProductID:          line.ProductID,
			VariantID:          line.VarianceID,
			Name:               line.Name,
			Brand:              line.Brand,
			Description:        variantLabel(line.VarName, line.Value),
			PriceAfterDiscount: line.Price,
			Quantity:           line.Quantity,
			Subtotal:           line.Subtotal,
		})
	}

	status := enums.OrderStatusPending
	order := &models.Order{
		CustomerID:      state.CustomerID,
		SessionID:       state.SessionID,
		Status:          status,
		Payment:         enums.PaymentMethodQR,
		OrderTotal:      total,
		ShippingFee:     0,
		GrandTotal:      total,
		ReceiverName:    strings.TrimSpace(*state.Name),
		ReceiverPhone:   strings.TrimSpace(*state.PhoneNumber),
		ReceiverAddress: strings.TrimSpace(*state.Address),
	}
	log := &models.OrderLog{
		Action:        orders.ActionCreateOrder,
		ChangedByRole: enums.ActorRoleCustomer,
		NewStatus:     &status,
	}

	placed, err := o.store.Place(ctx, order, items, log)
	if err != nil {
		return o.failure(ctx, "create_order: place order", err)
	}
	if placed == nil {
		return o.partial(ctx, "create_order: order committed but could not be read back", fmt.Errorf("order %s missing after placement", order.ID))
	}

	snapshot := OrderSnapshot(placed)
	o.info(ctx, "create_order: order placed")
	content := "The order has been created successfully. Order details:\n\n" + formatOrder(snapshot)
	if placed.Payment == enums.PaymentMethodQR {
		content += "\n" + o.paymentInstructions(ctx)
	}
	content += "\nList the order details in full without summarizing. Tell the customer the order " +
		"will be delivered in 3-5 days and the courier will call before delivery."
	return Result{
		Content: content,
		Update: graph.Update{
			Cart:   graph.Null[map[graph.CartKey]graph.CartLine](),
			Orders: graph.Some(withOrder(state, snapshot)),
		},
	}, nil
}

// paymentInstructions describes where to pay a QR order. A missing account is not an error for
// the order, which is already stored.
func (o orderTools) paymentInstructions(ctx context.Context) string {
	account, err := o.store.ActivePaymentQR(ctx)
	if err != nil {
		o.warn(ctx, "create_order: load payment account: "+err.Error())
	}
	if err != nil || account == nil {
		return "Payment details are not available right now. Tell the customer a staff member will send them shortly.\n"
	}
	return fmt.Sprintf("Here is the customer's payment information:\n"+
		"Recipient's name: %s\nBank name: %s\nAccount number: %s\nQR code URL: %s\n"+
		"Please make the payment within 30 minutes.\n",
		account.Name, account.BankName, account.AccountNumber, account.QRURL)
}

func variantLabel(name, value string) string {
	switch {
	case name == "" && value == "":
		return ""
	case name == "":
		return value
	case value == "":
		return name
	}
	return name + ": " + value
}

func (o orderTools) list(ctx context.Context, state graph.ConversationState, _ struct{}) (Result, error) {
	if state.CustomerID == uuid.Nil {
		return o.failure(ctx, "get_customer_orders: customer id missing from state", errors.New("customer id not resolved"))
	}

	rows, err := o.store.ListEditable(ctx, state.CustomerID, orders.EditableListLimit)
	if err != nil {
		return o.failure(ctx, "get_customer_orders: list editable orders", err)
	}
	if len(rows) == 0 {
		return say("The customer has not placed any orders that can still be changed."), nil
	}

	snapshots := make(map[uuid.UUID]graph.Order, len(rows))
	var b strings.Builder
	for i := range rows {
		snapshot := OrderSnapshot(&rows[i])
		snapshots[snapshot.ID] = snapshot
		fmt.Fprintf(&b, "Order number: %d\n%s\n", i+1, formatOrder(snapshot))
	}
	return Result{
		Content: "Here are the customer's orders:\n\n" + b.String(),
		Update:  graph.Update{Orders: graph.Some(snapshots)},
	}, nil
}

// knownOrder resolves an order referenced by the model against the orders in state.
func knownOrder(state graph.ConversationState, orderID uuid.UUID, verb string) (graph.Order, string) {
	if len(state.Orders) == 0 {
		return graph.Order{}, "There is no order information for the customer yet. Retrieve the customer's orders first."
	}
	if orderID == uuid.Nil {
		return graph.Order{}, fmt.Sprintf("Cannot determine which order the customer wants to %s. Ask the customer to specify the order.", verb)
	}
	order, ok := state.Orders[orderID]
	if !ok {
		return graph.Order{}, fmt.Sprintf("Order with ID %s was not found. Ask the customer to verify the order ID.", orderID)
	}
	return order, ""
}

func (o orderTools) updateReceiver(ctx context.Context, state graph.ConversationState, args receiverArgs) (Result, error) {
	order, msg := knownOrder(state, args.OrderID, "edit")
	if msg != "" {
		return say(msg), nil
	}
	update := orders.ReceiverUpdate{
		Name:    nonBlank(args.Name),
		Phone:   nonBlank(args.PhoneNumber),
		Address: nonBlank(args.Address),
	}
	if update.Empty() {
		return say("The customer must provide at least one of name, phone number or address to update. Ask the customer."), nil
	}
	if !order.Status.ItemsEditable() {
		return reply("Order with ID %s can no longer be changed because it is already %s.", order.ID, order.Status), nil
	}

	if err := o.store.UpdateReceiver(ctx, order.ID, update); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return reply("Order with ID %s was not found. Ask the customer to verify the order ID.", order.ID), nil
		}
		return o.failure(ctx, "update_receiver_info: update receiver", err)
	}
	note := "receiver information changed by customer"
	if err := o.store.CreateLog(ctx, &models.OrderLog{
		OrderID:       order.ID,
		Action:        orders.ActionUpdateOrder,
		ChangedByRole: enums.ActorRoleCustomer,
		Note:          &note,
	}); err != nil {
		return o.partial(ctx, "update_receiver_info: receiver updated but order log not written", err)
	}

	return o.refreshed(ctx, state, order.ID, "Receiver information has been updated. Current order details:\n\n")
}

func nonBlank(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// refreshed re-reads the order and stores the fresh snapshot in state.
func (o orderTools) refreshed(ctx context.Context, state graph.ConversationState, orderID uuid.UUID, lead string) (Result, error) {
	fresh, err := o.store.Details(ctx, orderID)
	if err != nil {
		return o.failure(ctx, "refresh order details", err)
	}
	if fresh == nil {
		return o.partial(ctx, "order written but could not be read back", fmt.Errorf("order %s missing after write", orderID))
	}
	return o.snapshotResult(state, fresh, lead), nil
}

func (o orderTools) snapshotResult(state graph.ConversationState, fresh *models.Order, lead string) Result {
	snapshot := OrderSnapshot(fresh)
	return Result{
		Content: lead + formatOrder(snapshot),
		Update:  graph.Update{Orders: graph.Some(withOrder(state, snapshot))},
	}
}

func (o orderTools) cancel(ctx context.Context, state graph.ConversationState, args orderRefArgs) (Result, error) {
	order, msg := knownOrder(state, args.OrderID, "cancel")
	if msg != "" {
		return say(msg), nil
	}

	current, err := o.store.Details(ctx, order.ID)
	if err != nil {
		return o.failure(ctx, "cancel_order: load order", err)
	}
	if current == nil {
		return reply("Order with ID %s was not found. Ask the customer to verify the order ID.", order.ID), nil
	}
	if current.Status == enums.OrderStatusCancelled {
		return reply("Order with ID %s has already been cancelled.", order.ID), nil
	}
	if !current.Status.Cancellable() {
		return reply("Order with ID %s cannot be cancelled because it is already %s.", order.ID, current.Status), nil
	}

	if err := o.store.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			return reply("Order with ID %s was not found. Ask the customer to verify the order ID.", order.ID), nil
		}
		return o.failure(ctx, "cancel_order: update status", err)
	}
	oldStatus, newStatus := current.Status, enums.OrderStatusCancelled
	if err := o.store.CreateLog(ctx, &models.OrderLog{
		OrderID:       order.ID,
		Action:        orders.ActionCancelOrder,
		ChangedByRole: enums.ActorRoleCustomer,
		OldStatus:     &oldStatus,
		NewStatus:     &newStatus,
	}); err != nil {
		return o.partial(ctx, "cancel_order: status changed but order log not written", err)
	}

	remaining := graph.CloneOrders(state.Orders)
	delete(remaining, order.ID)
	return Result{
		Content: fmt.Sprintf("Order with ID %s has been cancelled.", order.ID),
		Update:  graph.Update{Orders: graph.Some(remaining)},
	}, nil
}
