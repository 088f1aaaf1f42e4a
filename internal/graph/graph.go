package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TThanhhDatt/agent-bot/pkg/logger"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

// Target names a node of the graph.
type Target string

const (
	TargetSupervisor  Target = "supervisor"
	TargetProduct     Target = "product"
	TargetOrder       Target = "order"
	TargetModifyOrder Target = "modify_order"
	TargetEnd         Target = "end"
)

// SpecialistTargets are the routing choices available to the supervisor.
var SpecialistTargets = []Target{TargetProduct, TargetOrder, TargetModifyOrder}

// ParseTarget matches a specialist name, reporting false for anything else.
func ParseTarget(value string) (Target, bool) {
	for _, t := range SpecialistTargets {
		if string(t) == value {
			return t, true
		}
	}
	return "", false
}

var (
	ErrUnknownTarget = errors.New("graph: unknown target")
	ErrStepLimit     = errors.New("graph: step limit exceeded")
)

// Node is a handler of the graph. It must treat the state it receives as read-only input and
// report every change through the returned update, including the next target.
type Node interface {
	Run(ctx context.Context, state ConversationState) (Update, error)
}

// NodeFunc adapts a function to Node.
type NodeFunc func(ctx context.Context, state ConversationState) (Update, error)

func (f NodeFunc) Run(ctx context.Context, state ConversationState) (Update, error) {
	return f(ctx, state)
}

// StepRecorder receives the merged state after every completed step.
type StepRecorder interface {
	Put(ctx context.Context, threadID string, state ConversationState) error
}

type Options struct {
	Entry       Target
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	MaxSteps    int
	Logger      *logger.Logger
	// OnRetry observes a failed node attempt that is about to be retried.
	OnRetry func(node Target, attempt int, err error)
}

// Graph routes a conversation state through its nodes until TargetEnd.
type Graph struct {
	nodes map[Target]Node
	opts  Options
}

// New wires nodes into a graph. The entry node must be present.
func New(opts Options, nodes map[Target]Node) (*Graph, error) {
	if opts.Entry == "" {
		opts.Entry = TargetSupervisor
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 2
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 8
	}
	if len(nodes) == 0 {
		return nil, errors.New("graph requires at least one node")
	}
	if _, ok := nodes[opts.Entry]; !ok {
		return nil, fmt.Errorf("entry node %q not registered", opts.Entry)
	}
	for target, node := range nodes {
		if node == nil {
			return nil, fmt.Errorf("node %q is nil", target)
		}
		if target == TargetEnd {
			return nil, errors.New("end is reserved and cannot be registered as a node")
		}
	}
	copied := make(map[Target]Node, len(nodes))
	for target, node := range nodes {
		copied[target] = node
	}
	return &Graph{nodes: copied, opts: opts}, nil
}

type runConfig struct {
	threadID string
	recorder StepRecorder
}

// RunOption customises a single Run.
type RunOption func(*runConfig)

// WithCheckpoint records the merged state under threadID after every step.
func WithCheckpoint(threadID string, rec StepRecorder) RunOption {
	return func(c *runConfig) {
		c.threadID = threadID
		c.recorder = rec
	}
}

// Run executes the graph from the entry node. Each node call is retried under the graph's
// policy; a failed attempt contributes nothing to the state. When every attempt fails the
// original node error is returned together with the state as of the last completed step.
func (g *Graph) Run(ctx context.Context, state ConversationState, opts ...RunOption) (ConversationState, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	current := g.opts.Entry
	for step := 0; current != TargetEnd; step++ {
		if step >= g.opts.MaxSteps {
			return state, fmt.Errorf("%w after %d steps", ErrStepLimit, step)
		}
		node, ok := g.nodes[current]
		if !ok {
			return state, fmt.Errorf("%w: %q", ErrUnknownTarget, current)
		}

		upd, err := retry.Value(ctx, g.policyFor(ctx, current), func(ctx context.Context) (Update, error) {
			return node.Run(ctx, state.Clone())
		})
		if err != nil {
			return state, fmt.Errorf("node %s: %w", current, err)
		}

		next := upd.Next
		if next == "" {
			next = TargetEnd
		}
		upd.Next = next
		state = Merge(state, upd)

		if cfg.recorder != nil {
			if err := cfg.recorder.Put(ctx, cfg.threadID, state); err != nil {
				return state, fmt.Errorf("checkpoint after %s: %w", current, err)
			}
		}
		current = next
	}
	return state, nil
}

func (g *Graph) policyFor(ctx context.Context, node Target) retry.Policy {
	return retry.Policy{
		Attempts:  g.opts.MaxAttempts,
		MinWait:   g.opts.Backoff,
		MaxWait:   g.opts.MaxBackoff,
		Retryable: retryableNodeError,
		OnRetry: func(attempt int, err error) {
			if g.opts.Logger != nil {
				logCtx := g.opts.Logger.WithFields(ctx, map[string]any{
					"node":    string(node),
					"attempt": attempt,
				})
				g.opts.Logger.Warn(logCtx, fmt.Sprintf("node failed, retrying: %v", err))
			}
			if g.opts.OnRetry != nil {
				g.opts.OnRetry(node, attempt, err)
			}
		},
	}
}

// retryableNodeError retries any handler failure except caller cancellation.
func retryableNodeError(err error) bool {
	return !errors.Is(err, context.Canceled)
}
