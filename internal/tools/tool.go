// Package tools implements the actions specialists can take on a conversation: cart and order
// mutations, profile updates, catalog lookups and staff escalation.
//
// Precondition failures come back as a clarifying message with no repository write. Repository
// failures come back as an apology; the diagnostic detail only goes to the log.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/pkg/llm"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
)

const apologyText = "Sorry, something went wrong on our side while processing this request. " +
	"Apologize to the customer and let them know our staff will follow up shortly."

// Tool is a single action exposed to a specialist's model.
type Tool interface {
	Name() string
	Description() string
	Parameters() json.RawMessage
	Invoke(ctx context.Context, state graph.ConversationState, args json.RawMessage) (Result, error)
}

// Result is the tool message content plus the state change the tool made.
type Result struct {
	Content string
	Update  graph.Update
}

func reply(format string, args ...any) Result {
	return Result{Content: fmt.Sprintf(format, args...)}
}

func say(msg string) Result {
	return Result{Content: msg}
}

// Toolbox is the ordered set of tools a specialist may call.
type Toolbox struct {
	tools  []Tool
	byName map[string]Tool
}

// NewToolbox indexes tools by name. Nil entries and duplicate names are skipped.
func NewToolbox(tools ...Tool) *Toolbox {
	b := &Toolbox{byName: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t == nil {
			continue
		}
		if _, dup := b.byName[t.Name()]; dup {
			continue
		}
		b.tools = append(b.tools, t)
		b.byName[t.Name()] = t
	}
	return b
}

// Lookup returns the tool registered under name.
func (b *Toolbox) Lookup(name string) (Tool, bool) {
	if b == nil {
		return nil, false
	}
	t, ok := b.byName[name]
	return t, ok
}

// Names lists the registered tool names in sorted order.
func (b *Toolbox) Names() []string {
	if b == nil {
		return nil
	}
	names := make([]string, 0, len(b.byName))
	for name := range b.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs describes the tools for the model request.
func (b *Toolbox) Specs() []llm.ToolSpec {
	if b == nil {
		return nil
	}
	specs := make([]llm.ToolSpec, 0, len(b.tools))
	for _, t := range b.tools {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return specs
}

// funcTool adapts a typed handler to Tool; arguments are decoded into A before run is called.
type funcTool[A any] struct {
	name        string
	description string
	params      json.RawMessage
	run         func(ctx context.Context, state graph.ConversationState, args A) (Result, error)
}

func (t *funcTool[A]) Name() string                { return t.name }
func (t *funcTool[A]) Description() string         { return t.description }
func (t *funcTool[A]) Parameters() json.RawMessage { return t.params }

func (t *funcTool[A]) Invoke(ctx context.Context, state graph.ConversationState, raw json.RawMessage) (Result, error) {
	var args A
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &args); err != nil {
			return reply("The arguments for %s could not be understood (%s). Ask the customer to clarify.", t.name, describeArgError(err)), nil
		}
	}
	return t.run(ctx, state, args)
}

func describeArgError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return "invalid " + typeErr.Field
	}
	return "malformed arguments"
}

// reporter turns repository failures into apologies, logging them at the right severity.
type reporter struct {
	log *logger.Logger
}

// failure logs err and returns the apology. A cancelled turn is not apologised for; the
// cancellation propagates so the turn fails as a whole.
func (r reporter) failure(ctx context.Context, msg string, err error) (Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if r.log != nil {
		r.log.Error(ctx, msg, err)
	}
	return say(apologyText), nil
}

// partial records a write the store only partly accepted.
func (r reporter) partial(ctx context.Context, msg string, err error) (Result, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}
	if r.log != nil {
		r.log.PartialWrite(ctx, msg, err)
	}
	return say(apologyText), nil
}

func (r reporter) warn(ctx context.Context, msg string) {
	if r.log != nil {
		r.log.Warn(ctx, msg)
	}
}

func (r reporter) info(ctx context.Context, msg string) {
	if r.log != nil {
		r.log.Info(ctx, msg)
	}
}
