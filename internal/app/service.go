/**
 * @description
 * Core business logic for the dunning engine: dependencies, service
 * construction and event publishing.
 */
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

const (
	eventExchange = "billing.events"

	restrictedSpeed = "0 Mbps"
	throttledSpeed  = "512 Kbps"
)

// Repository defines the database operations the service needs.
type Repository interface {
	CreateEngineRun(ctx context.Context, run domain.EngineRun) error
	CompleteEngineRun(ctx context.Context, runID uuid.UUID, endTime time.Time) error
	LatestEngineRun(ctx context.Context) (*domain.EngineRun, error)

	ListActiveRulesByPriorityAsc(ctx context.Context) ([]domain.DunningRule, error)
	ListOverdueInvoices(ctx context.Context) ([]domain.Invoice, error)
	ListPendingPrepaidInvoicesDueBefore(ctx context.Context, date time.Time) ([]domain.Invoice, error)
	GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error)
	MarkInvoicePaid(ctx context.Context, invoiceID uuid.UUID) error
	CountOverdueInvoicesForAccount(ctx context.Context, accountID uuid.UUID) (int, error)

	ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error)
	UpdateAccountStanding(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus, speed string) error
	AdjustAccountBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error

	ExecutionExists(ctx context.Context, ruleID, invoiceID uuid.UUID) (bool, error)
	AppendExecution(ctx context.Context, ruleID, invoiceID uuid.UUID, executedAt time.Time) error
	AppendActionLog(ctx context.Context, entry domain.ActionLogEntry) error
	AppendNotificationLog(ctx context.Context, entry domain.NotificationLogEntry) error
	CreateEscalationTask(ctx context.Context, task domain.EscalationTask) error
	CreatePayment(ctx context.Context, payment domain.Payment) error
}

// Notifier defines the interface for the email/SMS gateway.
type Notifier interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Service provides the dunning engine, payment recording and account curing.
type Service struct {
	repo          Repository
	notifier      Notifier
	publisher     EventPublisher
	logger        *slog.Logger
	loc           *time.Location
	lookaheadDays int

	// Guards against the manual trigger racing the scheduled sweep.
	runMu sync.Mutex
}

// NewService creates a new dunning service.
func NewService(repo Repository, notifier Notifier, publisher EventPublisher, logger *slog.Logger, timezone string, lookaheadDays int) *Service {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		logger.Warn("invalid timezone, defaulting to UTC", "timezone", timezone)
		loc = time.UTC
	}
	if lookaheadDays <= 0 {
		lookaheadDays = 10
	}

	return &Service{
		repo:          repo,
		notifier:      notifier,
		publisher:     publisher,
		logger:        logger,
		loc:           loc,
		lookaheadDays: lookaheadDays,
	}
}

// LatestRun returns the most recent engine run record.
func (s *Service) LatestRun(ctx context.Context) (*domain.EngineRun, error) {
	return s.repo.LatestEngineRun(ctx)
}

type accountStateEvent struct {
	AccountID     string    `json:"account_id"`
	AccountNumber string    `json:"account_number"`
	Status        string    `json:"status"`
	Speed         string    `json:"speed"`
	Reason        string    `json:"reason"`
	Timestamp     time.Time `json:"timestamp"`
}

type actionExecutedEvent struct {
	RunID      string    `json:"run_id"`
	RuleID     string    `json:"rule_id"`
	RuleName   string    `json:"rule_name"`
	ActionType string    `json:"action_type"`
	InvoiceID  string    `json:"invoice_id"`
	Timestamp  time.Time `json:"timestamp"`
}

type runCompletedEvent struct {
	RunID             string    `json:"run_id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	InvoicesEvaluated int       `json:"invoices_evaluated"`
	ActionsExecuted   int       `json:"actions_executed"`
	ActionsFailed     int       `json:"actions_failed"`
}

func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, eventExchange, routingKey, body); err != nil {
		s.logger.Warn("failed to publish event", "routing_key", routingKey, "error", err)
	}
}

func (s *Service) publishAccountState(ctx context.Context, account *domain.Account, status domain.AccountStatus, speed, reason, routingKey string) {
	s.publishEvent(ctx, routingKey, accountStateEvent{
		AccountID:     account.ID.String(),
		AccountNumber: account.AccountNumber,
		Status:        string(status),
		Speed:         speed,
		Reason:        reason,
		Timestamp:     time.Now().UTC(),
	})
}

// planTypeOf resolves the plan type behind an invoice. The second return is
// false when the account, plan or plan type link is missing; plan-scoped
// rules must treat that as "does not match".
func planTypeOf(invoice domain.Invoice) (domain.PlanType, bool) {
	if invoice.Account == nil || invoice.Account.Plan == nil {
		return "", false
	}
	pt := invoice.Account.Plan.PlanType
	if pt != domain.PlanTypePrepaid && pt != domain.PlanTypePostpaid {
		return "", false
	}
	return pt, true
}
