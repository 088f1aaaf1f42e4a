package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

const (
	NameSearchProducts    = "search_products"
	NameGetProductDetails = "get_product_details"
	NameGetQnA            = "get_qna"

	searchResultLimit = 5
	qnaResultLimit    = 3
)

// Catalog is the read side of the product repository.
type Catalog interface {
	SearchByKeyword(ctx context.Context, keyword string, limit int) ([]models.Product, error)
	ByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	SearchQnA(ctx context.Context, keyword string, limit int) ([]models.QnA, error)
}

type queryArgs struct {
	Query string `json:"query"`
}

var querySchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "query": {"type": "string", "description": "Keywords describing what the customer is looking for"}
  },
  "required": ["query"]
}`)

type productIDsArgs struct {
	ProductIDs []uuid.UUID `json:"product_ids"`
}

var productIDsSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "product_ids": {"type": "array", "items": {"type": "string"}, "description": "IDs of products to reload"}
  },
  "required": ["product_ids"]
}`)

type catalogTools struct {
	reporter
	catalog Catalog
}

// NewCatalogTools returns search_products, get_product_details and get_qna.
func NewCatalogTools(catalog Catalog, log *logger.Logger) []Tool {
	c := catalogTools{reporter: reporter{log: log}, catalog: catalog}
	return []Tool{
		&funcTool[queryArgs]{
			name:        NameSearchProducts,
			description: "Search the catalog by keywords. Found products become available for the cart.",
			params:      querySchema,
			run:         c.search,
		},
		&funcTool[productIDsArgs]{
			name:        NameGetProductDetails,
			description: "Reload current prices and variants for products the customer asks about again.",
			params:      productIDsSchema,
			run:         c.details,
		},
		&funcTool[queryArgs]{
			name:        NameGetQnA,
			description: "Look up answers to common questions about shipping, returns, payment and the store.",
			params:      querySchema,
			run:         c.qna,
		},
	}
}

// SeenProductFrom converts a catalog product into its state snapshot.
func SeenProductFrom(p models.Product) graph.SeenProduct {
	variances := make(map[uuid.UUID]graph.Variance, len(p.Variants))
	for _, v := range p.Variants {
		variances[v.ID] = graph.Variance{
			ID:                 v.ID,
			SKU:                v.SKU,
			VarName:            v.VarName,
			Value:              v.Value,
			Price:              v.Price,
			Discount:           v.Discount,
			PriceAfterDiscount: v.PriceAfterDiscount,
		}
	}
	url := ""
	if p.ImageURL != nil {
		url = *p.ImageURL
	}
	return graph.SeenProduct{
		ID:               p.ID,
		Name:             p.Name,
		Brand:            p.Brand,
		BriefDescription: p.BriefDescription,
		Description:      p.Description,
		URL:              url,
		Variances:        variances,
	}
}

func (c catalogTools) remember(state graph.ConversationState, rows []models.Product, lead string) Result {
	seen := graph.CloneSeenProducts(state.SeenProducts)
	var b strings.Builder
	b.WriteString(lead)
	for i, p := range rows {
		snapshot := SeenProductFrom(p)
		seen[snapshot.ID] = snapshot
		fmt.Fprintf(&b, "Product %d\n%s\n", i+1, formatSeenProduct(snapshot))
	}
	return Result{
		Content: b.String(),
		Update:  graph.Update{SeenProducts: graph.Some(seen)},
	}
}

func (c catalogTools) search(ctx context.Context, state graph.ConversationState, args queryArgs) (Result, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return say("Ask the customer what kind of product they are looking for."), nil
	}
	rows, err := c.catalog.SearchByKeyword(ctx, query, searchResultLimit)
	if err != nil {
		return c.failure(ctx, "search_products: keyword search", err)
	}
	if len(rows) == 0 {
		return reply("Sorry, we couldn't find any products matching %q.", query), nil
	}
	return c.remember(state, rows, "Products found:\n\n"), nil
}

func (c catalogTools) details(ctx context.Context, state graph.ConversationState, args productIDsArgs) (Result, error) {
	ids := make([]uuid.UUID, 0, len(args.ProductIDs))
	for _, id := range args.ProductIDs {
		if id != uuid.Nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return say("Cannot determine which product the customer means. Ask the customer to clarify."), nil
	}
	rows, err := c.catalog.ByIDs(ctx, ids)
	if err != nil {
		return c.failure(ctx, "get_product_details: load products", err)
	}
	if len(rows) == 0 {
		return say("Those products are no longer available."), nil
	}
	return c.remember(state, rows, "Current product details:\n\n"), nil
}

func (c catalogTools) qna(ctx context.Context, _ graph.ConversationState, args queryArgs) (Result, error) {
	query := strings.TrimSpace(args.Query)
	if query == "" {
		return say("Ask the customer what they would like to know."), nil
	}
	rows, err := c.catalog.SearchQnA(ctx, query, qnaResultLimit)
	if err != nil {
		return c.failure(ctx, "get_qna: search", err)
	}
	if len(rows) == 0 {
		return say("No information related to the customer's question was found."), nil
	}
	var b strings.Builder
	b.WriteString("Relevant answers:\n\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", row.Question, row.Answer)
	}
	return say(b.String()), nil
}
