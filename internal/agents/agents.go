// Package agents builds the supervisor and specialist nodes and wires them into the chat graph.
package agents

import (
	"errors"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/tools"
	"github.com/TThanhhDatt/agent-bot/pkg/llm"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

// Deps are the collaborators shared by the nodes of one graph.
type Deps struct {
	Router      llm.Client
	RouterModel string
	Specialist  SpecialistConfig

	Catalog     tools.Catalog
	Orders      tools.OrderStore
	Profiles    tools.ProfileStore
	Escalations tools.Escalator

	Logger *logger.Logger
}

// NewProductAgent answers catalog questions and manages the cart.
func NewProductAgent(d Deps) *Specialist {
	box := tools.NewToolbox(concat(
		tools.NewCatalogTools(d.Catalog, d.Logger),
		tools.NewCartTools(d.Logger),
		optional(d.Profiles != nil, func() tools.Tool { return tools.NewProfileTool(d.Profiles, d.Logger) }),
		optional(d.Escalations != nil, func() tools.Tool { return tools.NewEscalationTool(d.Escalations, d.Logger) }),
	)...)
	return NewSpecialist(graph.TargetProduct, productPrompt, box, d.specialist())
}

// NewOrderAgent turns the cart into an order.
func NewOrderAgent(d Deps) *Specialist {
	box := tools.NewToolbox(concat(
		tools.NewCartTools(d.Logger),
		tools.NewOrderTools(d.Orders, d.Logger),
		optional(d.Profiles != nil, func() tools.Tool { return tools.NewProfileTool(d.Profiles, d.Logger) }),
		optional(d.Escalations != nil, func() tools.Tool { return tools.NewEscalationTool(d.Escalations, d.Logger) }),
	)...)
	return NewSpecialist(graph.TargetOrder, orderPrompt, box, d.specialist())
}

// NewModifyOrderAgent edits placed orders. Catalog tools are included so new items can be found.
func NewModifyOrderAgent(d Deps) *Specialist {
	box := tools.NewToolbox(concat(
		tools.NewModifyOrderTools(d.Orders, d.Logger),
		tools.NewCatalogTools(d.Catalog, d.Logger),
		optional(d.Profiles != nil, func() tools.Tool { return tools.NewProfileTool(d.Profiles, d.Logger) }),
		optional(d.Escalations != nil, func() tools.Tool { return tools.NewEscalationTool(d.Escalations, d.Logger) }),
	)...)
	return NewSpecialist(graph.TargetModifyOrder, modifyOrderPrompt, box, d.specialist())
}

// BuildGraph wires supervisor, product, order and modify_order into one graph.
func BuildGraph(opts graph.Options, d Deps) (*graph.Graph, error) {
	if d.Catalog == nil || d.Orders == nil {
		return nil, errors.New("agents: catalog and order store are required")
	}
	if opts.Logger == nil {
		opts.Logger = d.Logger
	}
	opts.Entry = graph.TargetSupervisor
	return graph.New(opts, map[graph.Target]graph.Node{
		graph.TargetSupervisor:  NewSupervisor(d.Router, d.RouterModel, d.Logger),
		graph.TargetProduct:     NewProductAgent(d),
		graph.TargetOrder:       NewOrderAgent(d),
		graph.TargetModifyOrder: NewModifyOrderAgent(d),
	})
}

func (d Deps) specialist() SpecialistConfig {
	cfg := d.Specialist
	if cfg.Logger == nil {
		cfg.Logger = d.Logger
	}
	return cfg
}

func optional(ok bool, build func() tools.Tool) []tools.Tool {
	if !ok {
		return nil
	}
	return []tools.Tool{build()}
}

func concat(groups ...[]tools.Tool) []tools.Tool {
	var out []tools.Tool
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
