package escalations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/TThanhhDatt/agent-bot/pkg/db/models"
	pkgerrors "github.com/TThanhhDatt/agent-bot/pkg/errors"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
	"github.com/TThanhhDatt/agent-bot/pkg/pagination"
)

// Service raises escalations for staff and lets operators work the queue.
type Service interface {
	Raise(ctx context.Context, input RaiseInput) (*models.Escalation, error)
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Resolve(ctx context.Context, escalationID uuid.UUID) error
}

// Mailer delivers an escalation notice to staff.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

type service struct {
	repo   Repository
	mailer Mailer
	logg   *logger.Logger
	now    func() time.Time
}

// RaiseInput describes a conversation that needs a human.
type RaiseInput struct {
	CustomerID   uuid.UUID
	SessionID    *uuid.UUID
	ChatID       string
	CustomerName string
	PhoneNumber  string
	Summary      string
}

// ListParams configures pagination for escalations.
type ListParams struct {
	Limit    int
	Cursor   string
	OpenOnly bool
}

// ListResult wraps returned escalations and the cursor for the next page.
type ListResult struct {
	Items  []models.Escalation `json:"items"`
	Cursor string              `json:"cursor"`
}

// NewService wires escalations dependencies. A nil mailer stores escalations without emailing.
func NewService(repo Repository, mailer Mailer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "escalations repository required")
	}
	return &service{repo: repo, mailer: mailer, logg: logg, now: time.Now}, nil
}

func (s *service) Raise(ctx context.Context, input RaiseInput) (*models.Escalation, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	summary := strings.TrimSpace(input.Summary)
	if summary == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "summary required")
	}

	escalation := &models.Escalation{
		CustomerID: input.CustomerID,
		SessionID:  input.SessionID,
		ChatID:     input.ChatID,
		Summary:    summary,
	}
	if err := s.repo.Create(ctx, escalation); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create escalation")
	}

	if s.mailer == nil {
		return escalation, nil
	}
	subject := fmt.Sprintf("Customer %s needs assistance", displayName(input))
	if err := s.mailer.Send(ctx, subject, renderBody(input, escalation)); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "escalation email failed", err)
		}
		return escalation, nil
	}
	if err := s.repo.MarkEmailSent(ctx, escalation.ID); err != nil {
		if s.logg != nil {
			s.logg.PartialWrite(ctx, "escalation email sent but flag not stored", err)
		}
		return escalation, nil
	}
	escalation.EmailSent = true
	return escalation, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	query := listEscalationsParams{
		Limit:    params.Limit,
		OpenOnly: params.OpenOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list escalations")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	if rows == nil {
		rows = []models.Escalation{}
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Resolve(ctx context.Context, escalationID uuid.UUID) error {
	if escalationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "escalation id required")
	}

	result, err := s.repo.Resolve(ctx, escalationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve escalation")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "escalation not found")
	}
	return nil
}

func displayName(input RaiseInput) string {
	if name := strings.TrimSpace(input.CustomerName); name != "" {
		return name
	}
	return input.ChatID
}

func renderBody(input RaiseInput, escalation *models.Escalation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Escalation: %s\n", escalation.ID)
	fmt.Fprintf(&b, "Chat ID: %s\n", input.ChatID)
	fmt.Fprintf(&b, "Customer: %s\n", displayName(input))
	if phone := strings.TrimSpace(input.PhoneNumber); phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", phone)
	}
	b.WriteString("\n")
	b.WriteString(escalation.Summary)
	b.WriteString("\n")
	return b.String()
}
