package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TThanhhDatt/agent-bot/internal/customers"
	"github.com/TThanhhDatt/agent-bot/internal/escalations"
	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
)

type stubProfileStore struct {
	got    customers.ProfileUpdate
	stored *models.Customer
	err    error
}

func (s *stubProfileStore) UpdateProfile(_ context.Context, _ uuid.UUID, profile customers.ProfileUpdate) (*models.Customer, error) {
	s.got = profile
	return s.stored, s.err
}

type stubCatalog struct {
	products []models.Product
	qna      []models.QnA
	err      error
	query    string
}

func (s *stubCatalog) SearchByKeyword(_ context.Context, keyword string, _ int) ([]models.Product, error) {
	s.query = keyword
	return s.products, s.err
}

func (s *stubCatalog) ByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var out []models.Product
	for _, p := range s.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, s.err
}

func (s *stubCatalog) SearchQnA(_ context.Context, keyword string, _ int) ([]models.QnA, error) {
	s.query = keyword
	return s.qna, s.err
}

type stubEscalator struct {
	input escalations.RaiseInput
	err   error
}

func (s *stubEscalator) Raise(_ context.Context, input escalations.RaiseInput) (*models.Escalation, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &models.Escalation{ID: uuid.New()}, nil
}

func TestToolboxSpecsAndLookup(t *testing.T) {
	log, _ := testLogger()
	box := NewToolbox(append(NewCartTools(log), nil, NewProfileTool(&stubProfileStore{}, log))...)

	names := box.Names()
	assert.Equal(t, []string{NameAddCart, NameRemoveCartItem, NameUpdateCartQuantity, NameUpdateCustomerProfile}, names)

	specs := box.Specs()
	require.Len(t, specs, 4)
	assert.Equal(t, NameAddCart, specs[0].Name)
	assert.JSONEq(t, string(cartItemSchema), string(specs[0].Parameters))

	_, ok := box.Lookup("delete_everything")
	assert.False(t, ok)
}

func TestProfileToolUsesStoredValues(t *testing.T) {
	log, _ := testLogger()
	store := &stubProfileStore{stored: &models.Customer{Name: strPtr("Lan"), PhoneNumber: strPtr("0901234567")}}
	tool := NewProfileTool(store, log)
	state := graph.NewState("chat-1", uuid.New())

	res, err := tool.Invoke(context.Background(), state, mustArgs(t, map[string]any{"name": " Lan ", "email": ""}))
	require.NoError(t, err)
	require.NotNil(t, store.got.Name)
	assert.Equal(t, "Lan", *store.got.Name)
	assert.Nil(t, store.got.Email)

	next := graph.Merge(state, res.Update)
	require.NotNil(t, next.Name)
	assert.Equal(t, "Lan", *next.Name)
	assert.Equal(t, "0901234567", *next.PhoneNumber)
	assert.Nil(t, next.Address)
}

func TestProfileToolRequiresAField(t *testing.T) {
	log, _ := testLogger()
	store := &stubProfileStore{}
	res, err := NewProfileTool(store, log).Invoke(context.Background(), graph.NewState("c", uuid.New()), mustArgs(t, map[string]any{}))
	require.NoError(t, err)
	assert.Contains(t, res.Content, "at least one")
	assert.Nil(t, store.got.Name)
}

func TestSearchProductsRemembersResults(t *testing.T) {
	log, _ := testLogger()
	discount := 20
	product := models.Product{
		ID: uuid.New(), Name: "Citrus Mist", Brand: "Lumen",
		Variants: []models.ProductVariant{{ID: uuid.New(), VarName: "Volume", Value: "30ml", Price: 200000, Discount: &discount}},
	}
	catalog := &stubCatalog{products: []models.Product{product}}
	search := findTool(t, NewCatalogTools(catalog, log), NameSearchProducts)

	state, fx := stateWithCatalog()
	res, err := search.Invoke(context.Background(), state, mustArgs(t, map[string]any{"query": "citrus"}))
	require.NoError(t, err)
	assert.Equal(t, "citrus", catalog.query)
	assert.Contains(t, res.Content, "160,000 VND")

	seen, ok := res.Update.SeenProducts.Get()
	require.True(t, ok)
	assert.Contains(t, seen, product.ID)
	assert.Contains(t, seen, fx.productID, "earlier products stay visible")
}

func TestSearchProductsNoResultsLeavesState(t *testing.T) {
	log, _ := testLogger()
	search := findTool(t, NewCatalogTools(&stubCatalog{}, log), NameSearchProducts)

	res, err := search.Invoke(context.Background(), graph.NewState("c", uuid.New()), mustArgs(t, map[string]any{"query": "unicorn"}))
	require.NoError(t, err)
	assert.Contains(t, res.Content, "couldn't find")
	assert.False(t, res.Update.SeenProducts.IsSet())
}

func TestGetProductDetailsReloads(t *testing.T) {
	log, _ := testLogger()
	product := models.Product{ID: uuid.New(), Name: "Amber"}
	details := findTool(t, NewCatalogTools(&stubCatalog{products: []models.Product{product}}, log), NameGetProductDetails)

	res, err := details.Invoke(context.Background(), graph.NewState("c", uuid.New()), mustArgs(t, map[string]any{"product_ids": []uuid.UUID{product.ID}}))
	require.NoError(t, err)
	seen, ok := res.Update.SeenProducts.Get()
	require.True(t, ok)
	assert.Equal(t, "Amber", seen[product.ID].Name)
}

func TestGetQnAFailureApologizes(t *testing.T) {
	log, _ := testLogger()
	qna := findTool(t, NewCatalogTools(&stubCatalog{err: errors.New("timeout")}, log), NameGetQnA)

	res, err := qna.Invoke(context.Background(), graph.NewState("c", uuid.New()), mustArgs(t, map[string]any{"query": "shipping"}))
	require.NoError(t, err)
	assert.Equal(t, apologyText, res.Content)
}

func TestEscalationToolPassesContext(t *testing.T) {
	log, _ := testLogger()
	escalator := &stubEscalator{}
	tool := NewEscalationTool(escalator, log)
	sessionID := uuid.New()
	state := graph.NewState("chat-7", uuid.New())
	state.SessionID = &sessionID
	state.Name = strPtr("Lan")

	res, err := tool.Invoke(context.Background(), state, mustArgs(t, map[string]any{"summary": "wants to return a parcel"}))
	require.NoError(t, err)
	assert.Contains(t, res.Content, "support team")
	assert.Equal(t, "chat-7", escalator.input.ChatID)
	assert.Equal(t, "Lan", escalator.input.CustomerName)
	assert.Equal(t, &sessionID, escalator.input.SessionID)

	blank, err := tool.Invoke(context.Background(), state, mustArgs(t, map[string]any{"summary": ""}))
	require.NoError(t, err)
	assert.Contains(t, blank.Content, "Summarize")
}
