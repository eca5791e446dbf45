/**
 * @description
 * Data access layer for the dunning service.
 */
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrRunNotFound     = errors.New("engine run not found")
)

// Repository handles database operations for the dunning engine.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const invoiceSelect = `
	SELECT i.id, i.account_id, i.invoice_number, i.amount_due, i.due_date, i.status, i.created_at,
	       a.id, a.customer_id, a.account_number, a.account_type, a.status, a.current_balance, a.current_speed, a.created_at,
	       p.id, p.name, p.plan_type, p.default_speed,
	       c.id, c.full_name, c.email, c.phone_number, c.created_at
	FROM invoices i
	LEFT JOIN accounts a ON a.id = i.account_id
	LEFT JOIN plans p ON p.id = a.plan_id
	LEFT JOIN customers c ON c.id = a.customer_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (domain.Invoice, error) {
	var invoice domain.Invoice
	var (
		acctID         *uuid.UUID
		acctCustomerID *uuid.UUID
		acctNumber     *string
		acctType       *string
		acctStatus     *string
		acctBalance    *decimal.Decimal
		acctSpeed      *string
		acctCreatedAt  *time.Time

		planID    *uuid.UUID
		planName  *string
		planType  *string
		planSpeed *string

		custID        *uuid.UUID
		custName      *string
		custEmail     *string
		custPhone     *string
		custCreatedAt *time.Time
	)

	if err := row.Scan(
		&invoice.ID,
		&invoice.AccountID,
		&invoice.InvoiceNumber,
		&invoice.AmountDue,
		&invoice.DueDate,
		&invoice.Status,
		&invoice.CreatedAt,
		&acctID,
		&acctCustomerID,
		&acctNumber,
		&acctType,
		&acctStatus,
		&acctBalance,
		&acctSpeed,
		&acctCreatedAt,
		&planID,
		&planName,
		&planType,
		&planSpeed,
		&custID,
		&custName,
		&custEmail,
		&custPhone,
		&custCreatedAt,
	); err != nil {
		return invoice, err
	}

	if acctID != nil {
		account := &domain.Account{ID: *acctID}
		if acctCustomerID != nil {
			account.CustomerID = *acctCustomerID
		}
		if acctNumber != nil {
			account.AccountNumber = *acctNumber
		}
		if acctType != nil {
			account.AccountType = domain.AccountType(*acctType)
		}
		if acctStatus != nil {
			account.Status = domain.AccountStatus(*acctStatus)
		}
		if acctBalance != nil {
			account.CurrentBalance = *acctBalance
		}
		if acctSpeed != nil {
			account.CurrentSpeed = *acctSpeed
		}
		if acctCreatedAt != nil {
			account.CreatedAt = *acctCreatedAt
		}

		if planID != nil {
			plan := &domain.Plan{ID: *planID}
			if planName != nil {
				plan.Name = *planName
			}
			if planType != nil {
				plan.PlanType = domain.PlanType(*planType)
			}
			if planSpeed != nil {
				plan.DefaultSpeed = *planSpeed
			}
			account.Plan = plan
		}

		if custID != nil {
			customer := &domain.Customer{ID: *custID}
			if custName != nil {
				customer.FullName = *custName
			}
			if custEmail != nil {
				customer.Email = *custEmail
			}
			if custPhone != nil {
				customer.PhoneNumber = *custPhone
			}
			if custCreatedAt != nil {
				customer.CreatedAt = *custCreatedAt
			}
			account.Customer = customer
		}

		invoice.Account = account
	}

	return invoice, nil
}

func (r *Repository) queryInvoices(ctx context.Context, query string, args ...any) ([]domain.Invoice, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []domain.Invoice
	for rows.Next() {
		invoice, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, invoice)
	}

	return invoices, rows.Err()
}

// ListOverdueInvoices retrieves every invoice in OVERDUE status with its
// account, plan and customer links resolved.
func (r *Repository) ListOverdueInvoices(ctx context.Context) ([]domain.Invoice, error) {
	return r.queryInvoices(ctx, invoiceSelect+`WHERE i.status = 'OVERDUE' ORDER BY i.due_date ASC`)
}

// ListPendingPrepaidInvoicesDueBefore retrieves PENDING invoices on prepaid
// plans whose due date falls on or before the given date.
func (r *Repository) ListPendingPrepaidInvoicesDueBefore(ctx context.Context, date time.Time) ([]domain.Invoice, error) {
	query := invoiceSelect + `
		WHERE i.status = 'PENDING'
		  AND p.plan_type = 'PREPAID'
		  AND i.due_date <= $1
		ORDER BY i.due_date ASC`
	return r.queryInvoices(ctx, query, date)
}

// GetInvoiceByID retrieves a specific invoice with its links resolved.
func (r *Repository) GetInvoiceByID(ctx context.Context, invoiceID uuid.UUID) (*domain.Invoice, error) {
	row := r.db.QueryRow(ctx, invoiceSelect+`WHERE i.id = $1`, invoiceID)
	invoice, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// MarkInvoicePaid sets the invoice status to PAID.
func (r *Repository) MarkInvoicePaid(ctx context.Context, invoiceID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE invoices SET status = 'PAID' WHERE id = $1`, invoiceID)
	return err
}

// CountOverdueInvoicesForAccount returns the number of OVERDUE invoices
// still open against the account.
func (r *Repository) CountOverdueInvoicesForAccount(ctx context.Context, accountID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM invoices WHERE account_id = $1 AND status = 'OVERDUE'`,
		accountID).Scan(&count)
	return count, err
}

// ListActiveRulesByPriorityAsc loads active dunning rules ordered by
// ascending priority, with their notification templates joined in.
func (r *Repository) ListActiveRulesByPriorityAsc(ctx context.Context) ([]domain.DunningRule, error) {
	query := `
		SELECT r.id, r.name, r.description, r.priority, r.is_active, r.applies_to_plan_type,
		       r.condition_type, r.condition_value_integer, r.condition_value_decimal, r.condition_value_string,
		       r.action_type, r.escalation_priority, r.created_at,
		       t.id, t.name, t.subject, t.body
		FROM dunning_rules r
		LEFT JOIN notification_templates t ON t.id = r.template_id
		WHERE r.is_active = TRUE
		ORDER BY r.priority ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.DunningRule
	for rows.Next() {
		var rule domain.DunningRule
		var (
			escalationPriority *string
			tmplID             *uuid.UUID
			tmplName           *string
			tmplSubject        *string
			tmplBody           *string
		)
		if err := rows.Scan(
			&rule.ID,
			&rule.Name,
			&rule.Description,
			&rule.Priority,
			&rule.Active,
			&rule.AppliesToPlanType,
			&rule.ConditionType,
			&rule.ConditionValueInteger,
			&rule.ConditionValueDecimal,
			&rule.ConditionValueString,
			&rule.ActionType,
			&escalationPriority,
			&rule.CreatedAt,
			&tmplID,
			&tmplName,
			&tmplSubject,
			&tmplBody,
		); err != nil {
			return nil, err
		}

		if escalationPriority != nil {
			p := domain.TaskPriority(*escalationPriority)
			rule.EscalationPriority = &p
		}
		if tmplID != nil {
			tmpl := &domain.NotificationTemplate{ID: *tmplID}
			if tmplName != nil {
				tmpl.Name = *tmplName
			}
			if tmplSubject != nil {
				tmpl.Subject = *tmplSubject
			}
			if tmplBody != nil {
				tmpl.Body = *tmplBody
			}
			rule.Template = tmpl
		}

		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// ListAccountsByCustomer retrieves all accounts owned by a customer with
// their plans joined in.
func (r *Repository) ListAccountsByCustomer(ctx context.Context, customerID uuid.UUID) ([]domain.Account, error) {
	query := `
		SELECT a.id, a.customer_id, a.account_number, a.account_type, a.status, a.current_balance, a.current_speed, a.created_at,
		       p.id, p.name, p.plan_type, p.default_speed
		FROM accounts a
		LEFT JOIN plans p ON p.id = a.plan_id
		WHERE a.customer_id = $1
		ORDER BY a.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		var (
			planID    *uuid.UUID
			planName  *string
			planType  *string
			planSpeed *string
		)
		if err := rows.Scan(
			&account.ID,
			&account.CustomerID,
			&account.AccountNumber,
			&account.AccountType,
			&account.Status,
			&account.CurrentBalance,
			&account.CurrentSpeed,
			&account.CreatedAt,
			&planID,
			&planName,
			&planType,
			&planSpeed,
		); err != nil {
			return nil, err
		}
		if planID != nil {
			plan := &domain.Plan{ID: *planID}
			if planName != nil {
				plan.Name = *planName
			}
			if planType != nil {
				plan.PlanType = domain.PlanType(*planType)
			}
			if planSpeed != nil {
				plan.DefaultSpeed = *planSpeed
			}
			account.Plan = plan
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// UpdateAccountStanding sets the account's service status and speed.
func (r *Repository) UpdateAccountStanding(ctx context.Context, accountID uuid.UUID, status domain.AccountStatus, speed string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE accounts SET status = $2, current_speed = $3 WHERE id = $1`,
		accountID, string(status), speed)
	return err
}

// AdjustAccountBalance adds the (possibly negative) delta to the account's
// current balance.
func (r *Repository) AdjustAccountBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) error {
	_, err := r.db.Exec(ctx,
		`UPDATE accounts SET current_balance = current_balance + $2 WHERE id = $1`,
		accountID, delta)
	return err
}

// ExecutionExists reports whether the (rule, invoice) pair has ever fired.
func (r *Repository) ExecutionExists(ctx context.Context, ruleID, invoiceID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM dunning_execution_log WHERE rule_id = $1 AND invoice_id = $2)`,
		ruleID, invoiceID).Scan(&exists)
	return exists, err
}

// AppendExecution writes the execution ledger entry for a fired
// (rule, invoice) pair. The table's unique constraint on
// (rule_id, invoice_id) makes the append idempotent under concurrent
// sweeps; a conflicting insert is silently a no-op.
func (r *Repository) AppendExecution(ctx context.Context, ruleID, invoiceID uuid.UUID, executedAt time.Time) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO dunning_execution_log (rule_id, invoice_id, executed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (rule_id, invoice_id) DO NOTHING`,
		ruleID, invoiceID, executedAt)
	return err
}

// AppendActionLog writes one row of the action audit trail.
func (r *Repository) AppendActionLog(ctx context.Context, entry domain.ActionLogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO dunning_action_log (action_type, invoice_id, logged_at)
		VALUES ($1, $2, $3)`,
		string(entry.ActionType), entry.InvoiceID, entry.LoggedAt)
	return err
}

// AppendNotificationLog audits one email/SMS attempt.
func (r *Repository) AppendNotificationLog(ctx context.Context, entry domain.NotificationLogEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO notification_log (customer_id, channel, template_name, status, detail, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.CustomerID, entry.Channel, entry.TemplateName, string(entry.Status), entry.Detail, entry.LoggedAt)
	return err
}

// CreateEscalationTask writes a new human-review task.
func (r *Repository) CreateEscalationTask(ctx context.Context, task domain.EscalationTask) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO escalation_tasks (id, customer_id, invoice_id, status, priority, description)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID, task.CustomerID, task.InvoiceID, string(task.Status), string(task.Priority), task.Description)
	return err
}

// CreatePayment writes a payment record.
func (r *Repository) CreatePayment(ctx context.Context, payment domain.Payment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (id, invoice_id, amount_paid, payment_method, payment_date, status, transaction_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		payment.ID, payment.InvoiceID, payment.AmountPaid, payment.PaymentMethod,
		payment.PaymentDate, payment.Status, payment.TransactionRef)
	return err
}

// CreateEngineRun persists the start of an engine run.
func (r *Repository) CreateEngineRun(ctx context.Context, run domain.EngineRun) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO dunning_engine_runs (id, start_time) VALUES ($1, $2)`,
		run.ID, run.StartTime)
	return err
}

// CompleteEngineRun stamps the run's end time.
func (r *Repository) CompleteEngineRun(ctx context.Context, runID uuid.UUID, endTime time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE dunning_engine_runs SET end_time = $2 WHERE id = $1`,
		runID, endTime)
	return err
}

// LatestEngineRun returns the most recently started run. EndTime is nil for
// a run that started but never completed.
func (r *Repository) LatestEngineRun(ctx context.Context) (*domain.EngineRun, error) {
	var run domain.EngineRun
	err := r.db.QueryRow(ctx,
		`SELECT id, start_time, end_time FROM dunning_engine_runs ORDER BY start_time DESC LIMIT 1`).
		Scan(&run.ID, &run.StartTime, &run.EndTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	return &run, nil
}
