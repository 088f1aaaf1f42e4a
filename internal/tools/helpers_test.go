package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/orders"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

func testLogger() (*logger.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return logger.New(logger.Options{ServiceName: "tools-test", Output: buf}), buf
}

func setupOrderRepo(t *testing.T) (orders.Repository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.OrderLog{}, &models.PaymentQR{}))
	return orders.NewRepository(db, retry.None()), db
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func mustArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func findTool(t *testing.T, tools []Tool, name string) Tool {
	t.Helper()
	tool, ok := NewToolbox(tools...).Lookup(name)
	require.Truef(t, ok, "tool %s not registered", name)
	return tool
}

type catalogFixture struct {
	productID uuid.UUID
	cheapID   uuid.UUID
	saleID    uuid.UUID
}

// stateWithCatalog returns a state whose seen products hold one product with a full-price
// variant at 100,000 and a discounted variant at 108,000 (10% off 120,000).
func stateWithCatalog() (graph.ConversationState, catalogFixture) {
	fx := catalogFixture{productID: uuid.New(), cheapID: uuid.New(), saleID: uuid.New()}
	discount := 10
	state := graph.NewState("chat-1", uuid.New())
	state.SeenProducts[fx.productID] = graph.SeenProduct{
		ID:    fx.productID,
		Name:  "Rose Perfume",
		Brand: "Maison",
		Variances: map[uuid.UUID]graph.Variance{
			fx.cheapID: {ID: fx.cheapID, VarName: "Volume", Value: "50ml", Price: 100000},
			fx.saleID:  {ID: fx.saleID, VarName: "Volume", Value: "100ml", Price: 120000, Discount: &discount},
		},
	}
	return state, fx
}

func withReceiver(state graph.ConversationState) graph.ConversationState {
	state.Name = strPtr("Lan")
	state.PhoneNumber = strPtr("0901234567")
	state.Address = strPtr("12 Le Loi, District 1")
	return state
}

// stubOrderStore fails loudly on any call the test did not arrange.
type stubOrderStore struct {
	placeFn          func(ctx context.Context, order *models.Order, items []models.OrderItem, log *models.OrderLog) (*models.Order, error)
	detailsFn        func(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	listFn           func(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error)
	updateStatusFn   func(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error
	createLogFn      func(ctx context.Context, log *models.OrderLog) error
	deleteItemFn     func(ctx context.Context, itemID uuid.UUID) (bool, error)
	recomputeFn      func(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error)
	updateReceiverFn func(ctx context.Context, orderID uuid.UUID, receiver orders.ReceiverUpdate) error
	paymentQRFn      func(ctx context.Context) (*models.PaymentQR, error)
}

func (s *stubOrderStore) Place(ctx context.Context, order *models.Order, items []models.OrderItem, log *models.OrderLog) (*models.Order, error) {
	if s.placeFn == nil {
		panic("not implemented")
	}
	return s.placeFn(ctx, order, items, log)
}

func (s *stubOrderStore) Details(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.detailsFn == nil {
		panic("not implemented")
	}
	return s.detailsFn(ctx, orderID)
}

func (s *stubOrderStore) ListEditable(ctx context.Context, customerID uuid.UUID, limit int) ([]models.Order, error) {
	if s.listFn == nil {
		panic("not implemented")
	}
	return s.listFn(ctx, customerID, limit)
}

func (s *stubOrderStore) UpdateReceiver(ctx context.Context, orderID uuid.UUID, receiver orders.ReceiverUpdate) error {
	if s.updateReceiverFn == nil {
		panic("not implemented")
	}
	return s.updateReceiverFn(ctx, orderID, receiver)
}

func (s *stubOrderStore) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	if s.updateStatusFn == nil {
		panic("not implemented")
	}
	return s.updateStatusFn(ctx, orderID, status)
}

func (s *stubOrderStore) CreateLog(ctx context.Context, log *models.OrderLog) error {
	if s.createLogFn == nil {
		panic("not implemented")
	}
	return s.createLogFn(ctx, log)
}

func (s *stubOrderStore) AddItem(context.Context, *models.OrderItem) error {
	panic("not implemented")
}

func (s *stubOrderStore) UpdateItemQuantity(context.Context, uuid.UUID, int) (*models.OrderItem, error) {
	panic("not implemented")
}

func (s *stubOrderStore) DeleteItem(ctx context.Context, itemID uuid.UUID) (bool, error) {
	if s.deleteItemFn == nil {
		panic("not implemented")
	}
	return s.deleteItemFn(ctx, itemID)
}

func (s *stubOrderStore) RecomputeTotals(ctx context.Context, orderID uuid.UUID, role enums.ActorRole) (*models.Order, error) {
	if s.recomputeFn == nil {
		panic("not implemented")
	}
	return s.recomputeFn(ctx, orderID, role)
}

func (s *stubOrderStore) ActivePaymentQR(ctx context.Context) (*models.PaymentQR, error) {
	if s.paymentQRFn == nil {
		panic("not implemented")
	}
	return s.paymentQRFn(ctx)
}
