// Package chat runs customer turns end to end: it resolves the customer and session behind a
// chat id, handles reserved commands, drives the graph with the thread's checkpoint and
// persists the resulting state back onto the session row.
package chat

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/TThanhhDatt/agent-bot/internal/checkpoint"
	"github.com/TThanhhDatt/agent-bot/internal/customers"
	"github.com/TThanhhDatt/agent-bot/internal/events"
	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/sessions"
	"github.com/TThanhhDatt/agent-bot/internal/spans"
	"github.com/TThanhhDatt/agent-bot/pkg/config"
	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
	"github.com/TThanhhDatt/agent-bot/pkg/metrics"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

const (
	EntrypointInvoke  = "invoke"
	EntrypointWebhook = "webhook"

	FailureText  = "Sorry, something went wrong on our side. Please try again in a moment."
	GreetingText = "Welcome to our store! I can help you find products, manage your cart, " +
		"and place or change orders. What are you looking for today?"
	DeletedText = "Dev only: your customer record has been deleted."

	commandStart    = "/start"
	commandRestart  = "/restart"
	commandDeleteMe = "/delete_me"
)

// Service runs chat turns for the invoke and webhook entry points and switches who controls
// a conversation.
type Service interface {
	// HandleInvoke runs a turn synchronously and returns the HTTP status and plain-text body.
	HandleInvoke(ctx context.Context, chatID, input string) (int, string)
	// HandleWebhook schedules a turn in the background; its result goes to the Notifier.
	HandleWebhook(ctx context.Context, chatID, input string, spans []Span)
	Takeover(ctx context.Context, chatID string) (*models.Customer, error)
	Release(ctx context.Context, chatID string) (*models.Customer, error)
	// Wait blocks until every scheduled webhook turn has finished.
	Wait()
}

// Runner executes the chat graph for one turn.
type Runner interface {
	Run(ctx context.Context, state graph.ConversationState, opts ...graph.RunOption) (graph.ConversationState, error)
}

// Deps are the collaborators of the chat service. Notifier, Lock and Metrics are optional.
type Deps struct {
	Customers customers.Repository
	Sessions  sessions.Repository
	Events    events.Repository
	Spans     spans.Repository
	Graph     Runner
	Saver     checkpoint.Saver
	Notifier  Notifier
	Lock      ThreadLock
	Metrics   *metrics.TurnMetrics
	Logger    *logger.Logger
	Session   config.SessionConfig
}

type service struct {
	customers customers.Repository
	sessions  sessions.Repository
	events    events.Repository
	spans     spans.Repository
	graph     Runner
	saver     checkpoint.Saver
	notifier  Notifier
	lock      ThreadLock
	metrics   *metrics.TurnMetrics
	logg      *logger.Logger

	expiry     time.Duration
	now        func() time.Time
	lockPolicy retry.Policy

	wg sync.WaitGroup
}

// NewService validates and wires the chat service dependencies.
func NewService(d Deps) (Service, error) {
	switch {
	case d.Customers == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "customers repository required")
	case d.Sessions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sessions repository required")
	case d.Events == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "events repository required")
	case d.Spans == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "spans repository required")
	case d.Graph == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "graph required")
	case d.Saver == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkpoint saver required")
	case d.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	loc := d.Session.Location()
	return &service{
		customers: d.Customers,
		sessions:  d.Sessions,
		events:    d.Events,
		spans:     d.Spans,
		graph:     d.Graph,
		saver:     d.Saver,
		notifier:  d.Notifier,
		lock:      d.Lock,
		metrics:   d.Metrics,
		logg:      d.Logger,
		expiry:    d.Session.Expiry(),
		now:       func() time.Time { return time.Now().In(loc) },
		lockPolicy: retry.Policy{
			Attempts:  8,
			MinWait:   250 * time.Millisecond,
			MaxWait:   2 * time.Second,
			Retryable: isThreadBusy,
		},
	}, nil
}

// turnResult is what a processed turn leaves behind for the entry point to report.
type turnResult struct {
	customer *models.Customer
	session  *models.Session
	text     string
	// skipped is set when staff control the conversation and the bot stays silent.
	skipped bool
	// deleted is set after /delete_me; nothing may reference the customer afterwards.
	deleted bool
}

func (s *service) HandleInvoke(ctx context.Context, chatID, input string) (int, string) {
	start := s.now()
	ctx = s.logg.WithChatID(ctx, chatID)

	res, err := s.process(ctx, chatID, input)
	end := s.now()
	s.metrics.ObserveDuration(EntrypointInvoke, end.Sub(start))

	if err != nil {
		s.metrics.IncFailure(EntrypointInvoke)
		s.logg.Error(ctx, "invoke turn failed", err)
		s.recordSpans(ctx, res, []Span{
			processSpan(start, end, enums.SpanDirectionInbound, enums.SpanStatusOK),
			processSpan(start, end, enums.SpanDirectionOutbound, enums.SpanStatusError),
		})
		return http.StatusInternalServerError, FailureText
	}
	if res.skipped {
		s.logg.Info(ctx, "conversation under admin control, no bot reply")
		return http.StatusOK, ""
	}

	s.metrics.IncSuccess(EntrypointInvoke)
	s.recordSpans(ctx, res, []Span{
		processSpan(start, end, enums.SpanDirectionInbound, enums.SpanStatusOK),
		processSpan(start, end, enums.SpanDirectionOutbound, enums.SpanStatusOK),
	})
	return http.StatusOK, res.text
}

func (s *service) HandleWebhook(ctx context.Context, chatID, input string, spans []Span) {
	start := s.now()
	bg := s.logg.WithChatID(context.WithoutCancel(ctx), chatID)
	received := append([]Span(nil), spans...)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logg.Error(bg, "webhook turn panicked", fmt.Errorf("panic: %v", r))
			}
		}()
		s.processWebhook(bg, chatID, input, received, start)
	}()
}

func (s *service) processWebhook(ctx context.Context, chatID, input string, received []Span, start time.Time) {
	res, err := s.process(ctx, chatID, input)
	if err == nil && res.skipped {
		s.logg.Info(ctx, "conversation under admin control, no bot reply")
		return
	}

	text, status := res.text, enums.SpanStatusOK
	if err != nil {
		s.metrics.IncFailure(EntrypointWebhook)
		s.logg.Error(ctx, "webhook turn failed", err)
		text, status = FailureText, enums.SpanStatusError
	} else {
		s.metrics.IncSuccess(EntrypointWebhook)
	}
	end := s.now()
	s.metrics.ObserveDuration(EntrypointWebhook, end.Sub(start))

	all := append(received, processSpan(start, end, enums.SpanDirectionInternal, status))
	if s.notifier == nil {
		s.logg.Warn(ctx, "no callback notifier configured, webhook reply dropped")
	} else {
		ack, nerr := s.notifier.Notify(ctx, Callback{ChatID: chatID, Response: text})
		switch {
		case nerr != nil:
			s.logg.Error(ctx, "deliver webhook callback", nerr)
		case ack != nil:
			all = append(all, *ack)
		}
	}
	s.recordSpans(ctx, res, all)
}

func (s *service) Wait() {
	s.wg.Wait()
}

func (s *service) Takeover(ctx context.Context, chatID string) (*models.Customer, error) {
	now := s.now().UTC()
	return s.setControlMode(ctx, chatID, enums.ControlModeAdmin, &now)
}

func (s *service) Release(ctx context.Context, chatID string) (*models.Customer, error) {
	return s.setControlMode(ctx, chatID, enums.ControlModeBot, nil)
}

func (s *service) setControlMode(ctx context.Context, chatID string, mode enums.ControlMode, switchedAt *time.Time) (*models.Customer, error) {
	chatID = strings.TrimSpace(chatID)
	if chatID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chat id required")
	}
	customer, err := s.customers.SetControlMode(ctx, chatID, mode, switchedAt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update control mode")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "chat id not found")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"chat_id": chatID, "control_mode": string(mode)}), "control mode switched")
	return customer, nil
}

// process resolves identity and dispatches the input. The returned result carries whatever
// was resolved even when err is set, so failures can still be attributed to a session.
func (s *service) process(ctx context.Context, chatID, input string) (turnResult, error) {
	var res turnResult
	customer, session, isNew, err := s.resolve(ctx, chatID)
	res.customer, res.session = customer, session
	if err != nil {
		return res, err
	}
	ctx = s.logg.WithCustomerID(ctx, customer.ID.String())

	if customer.ControlMode == enums.ControlModeAdmin {
		res.skipped = true
		return res, nil
	}

	switch {
	case strings.Contains(input, commandStart) || strings.Contains(input, commandRestart):
		next, err := s.restart(ctx, customer, session, isNew)
		if err != nil {
			return res, err
		}
		res.session = next
		res.text = GreetingText
	case input == commandDeleteMe:
		deleted, err := s.customers.Delete(ctx, chatID)
		if err != nil {
			return res, fmt.Errorf("delete customer: %w", err)
		}
		if !deleted {
			return res, pkgerrors.New(pkgerrors.CodeNotFound, "customer was not deleted")
		}
		s.logg.Info(ctx, "customer deleted on request")
		res.deleted = true
		res.text = DeletedText
	default:
		text, err := s.converse(ctx, customer, session, input)
		if err != nil {
			return res, err
		}
		res.text = text
	}
	return res, nil
}

// recordSpans stores the spans of a turn against its session. Failures are only logged.
func (s *service) recordSpans(ctx context.Context, res turnResult, in []Span) {
	if res.customer == nil || res.session == nil || res.deleted || len(in) == 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)
	previous, err := s.spans.LatestOutbound(ctx, res.customer.ID)
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("load previous outbound span: %v", err))
		previous = nil
	}
	rows := linkSpans(in, res.session.ID, res.customer.ID, previous)
	if err := s.spans.CreateBulk(ctx, rows); err != nil {
		s.logg.Error(ctx, "store message spans", err)
	}
}
