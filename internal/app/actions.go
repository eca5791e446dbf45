/**
 * @description
 * Action execution for matched dunning rules. Each action type fails
 * independently; a non-nil error means the execution ledger must not be
 * written so the rule can retry on a future sweep.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

var (
	errNoAccount  = errors.New("invoice has no associated account")
	errNoCustomer = errors.New("account has no associated customer")
	errNoTemplate = errors.New("rule has no notification template bound")
)

// executeAction performs the remediation configured on the rule. Every
// attempt, successful or not, is recorded in the action audit log.
func (s *Service) executeAction(ctx context.Context, log *slog.Logger, rule domain.DunningRule, invoice domain.Invoice, today time.Time) error {
	account := invoice.Account
	if account == nil {
		log.Warn("cannot execute action: invoice has no account", "invoice_id", invoice.ID, "action_type", rule.ActionType)
		s.logAction(ctx, log, rule.ActionType, invoice.ID)
		return errNoAccount
	}

	var err error
	switch rule.ActionType {
	case domain.ActionSendEmail:
		err = s.sendEmail(ctx, log, rule, invoice, today)
	case domain.ActionSendSMS:
		err = s.sendSMS(ctx, log, rule, invoice, today)
	case domain.ActionCreateEscalationTask:
		err = s.createEscalationTask(ctx, log, rule, invoice, account)
	case domain.ActionRestrictService:
		err = s.restrictService(ctx, log, invoice, account)
	case domain.ActionThrottleSpeed:
		err = s.throttleSpeed(ctx, log, invoice, account)
	default:
		log.Warn("unknown action type", "action_type", rule.ActionType, "rule_id", rule.ID)
		err = fmt.Errorf("unknown action type %q", rule.ActionType)
	}

	s.logAction(ctx, log, rule.ActionType, invoice.ID)
	return err
}

func (s *Service) sendEmail(ctx context.Context, log *slog.Logger, rule domain.DunningRule, invoice domain.Invoice, today time.Time) error {
	if rule.Template == nil {
		log.Warn("cannot send email: rule has no template", "rule_id", rule.ID)
		return errNoTemplate
	}

	customer := invoice.Account.Customer
	if customer == nil || customer.Email == "" {
		log.Warn("cannot send email: recipient address missing", "invoice_id", invoice.ID)
		if customer != nil {
			s.logNotification(ctx, log, customer.ID, "EMAIL", rule.Template.Name, domain.NotificationFailed, "recipient email address missing")
		}
		return fmt.Errorf("no email address for invoice %s", invoice.ID)
	}

	subject := renderTemplate(rule.Template.Subject, invoice, today)
	body := renderTemplate(rule.Template.Body, invoice, today)

	if err := s.notifier.SendEmail(ctx, customer.Email, subject, body); err != nil {
		s.logNotification(ctx, log, customer.ID, "EMAIL", rule.Template.Name, domain.NotificationFailed, err.Error())
		return fmt.Errorf("send email: %w", err)
	}

	log.Info("dunning email sent", "invoice_number", invoice.InvoiceNumber, "recipient", customer.Email)
	s.logNotification(ctx, log, customer.ID, "EMAIL", rule.Template.Name, domain.NotificationSent, "")
	return nil
}

func (s *Service) sendSMS(ctx context.Context, log *slog.Logger, rule domain.DunningRule, invoice domain.Invoice, today time.Time) error {
	if rule.Template == nil {
		log.Warn("cannot send SMS: rule has no template", "rule_id", rule.ID)
		return errNoTemplate
	}

	customer := invoice.Account.Customer
	if customer == nil || customer.PhoneNumber == "" {
		log.Warn("cannot send SMS: recipient phone number missing", "invoice_id", invoice.ID)
		if customer != nil {
			s.logNotification(ctx, log, customer.ID, "SMS", rule.Template.Name, domain.NotificationFailed, "recipient phone number missing")
		}
		return fmt.Errorf("no phone number for invoice %s", invoice.ID)
	}

	phone, ok := formatPhoneE164(customer.PhoneNumber)
	if !ok {
		log.Warn("cannot send SMS: phone number not in a usable format", "invoice_id", invoice.ID, "phone", customer.PhoneNumber)
		s.logNotification(ctx, log, customer.ID, "SMS", rule.Template.Name, domain.NotificationFailed, "phone number could not be normalized")
		return fmt.Errorf("unusable phone number for invoice %s", invoice.ID)
	}

	body := renderTemplate(rule.Template.Body, invoice, today)
	if strings.TrimSpace(body) == "" {
		log.Warn("cannot send SMS: rendered message body is empty", "rule_id", rule.ID)
		s.logNotification(ctx, log, customer.ID, "SMS", rule.Template.Name, domain.NotificationFailed, "rendered message body empty")
		return fmt.Errorf("empty SMS body for rule %s", rule.ID)
	}

	if err := s.notifier.SendSMS(ctx, phone, body); err != nil {
		s.logNotification(ctx, log, customer.ID, "SMS", rule.Template.Name, domain.NotificationFailed, err.Error())
		return fmt.Errorf("send SMS: %w", err)
	}

	log.Info("dunning SMS sent", "invoice_number", invoice.InvoiceNumber, "recipient", phone)
	s.logNotification(ctx, log, customer.ID, "SMS", rule.Template.Name, domain.NotificationSent, "")
	return nil
}

func (s *Service) createEscalationTask(ctx context.Context, log *slog.Logger, rule domain.DunningRule, invoice domain.Invoice, account *domain.Account) error {
	customer := account.Customer
	if customer == nil {
		log.Warn("cannot create escalation task: no customer on account", "account_id", account.ID)
		return errNoCustomer
	}

	priority := domain.TaskPriorityMedium
	if rule.EscalationPriority != nil {
		priority = *rule.EscalationPriority
	} else {
		log.Warn("escalation priority not set on rule, defaulting to MEDIUM", "rule_id", rule.ID)
	}

	task := domain.EscalationTask{
		ID:          uuid.New(),
		CustomerID:  customer.ID,
		InvoiceID:   invoice.ID,
		Status:      domain.TaskStatusNew,
		Priority:    priority,
		Description: fmt.Sprintf("Follow up on overdue invoice %s for %s.", invoice.InvoiceNumber, customerName(customer)),
	}

	if err := s.repo.CreateEscalationTask(ctx, task); err != nil {
		return fmt.Errorf("create escalation task: %w", err)
	}

	log.Info("escalation task created", "task_id", task.ID, "invoice_number", invoice.InvoiceNumber, "priority", priority)
	return nil
}

func (s *Service) restrictService(ctx context.Context, log *slog.Logger, invoice domain.Invoice, account *domain.Account) error {
	log.Warn("restricting service", "account_number", account.AccountNumber)

	if err := s.repo.UpdateAccountStanding(ctx, account.ID, domain.AccountStatusSuspended, restrictedSpeed); err != nil {
		return fmt.Errorf("suspend account %s: %w", account.ID, err)
	}

	log.Info("account suspended", "account_number", account.AccountNumber, "speed", restrictedSpeed)
	s.publishAccountState(ctx, account, domain.AccountStatusSuspended, restrictedSpeed,
		fmt.Sprintf("dunning action on invoice %s", invoice.InvoiceNumber), "account.suspended")
	return nil
}

func (s *Service) throttleSpeed(ctx context.Context, log *slog.Logger, invoice domain.Invoice, account *domain.Account) error {
	// A suspended account is already in a stricter state than throttled.
	// Report success without touching it so the ledger records the rule as
	// satisfied and it does not retry every sweep.
	if account.Status == domain.AccountStatusSuspended {
		log.Info("skipping throttle: account already suspended", "account_number", account.AccountNumber)
		return nil
	}

	if err := s.repo.UpdateAccountStanding(ctx, account.ID, domain.AccountStatusThrottled, throttledSpeed); err != nil {
		return fmt.Errorf("throttle account %s: %w", account.ID, err)
	}

	log.Info("account throttled", "account_number", account.AccountNumber, "speed", throttledSpeed)
	s.publishAccountState(ctx, account, domain.AccountStatusThrottled, throttledSpeed,
		fmt.Sprintf("dunning action on invoice %s", invoice.InvoiceNumber), "account.throttled")
	return nil
}

// logAction appends to the append-only action audit trail. Failures are
// logged and swallowed: the audit row is for reporting, not correctness.
func (s *Service) logAction(ctx context.Context, log *slog.Logger, actionType domain.ActionType, invoiceID uuid.UUID) {
	entry := domain.ActionLogEntry{
		ActionType: actionType,
		InvoiceID:  invoiceID,
		LoggedAt:   time.Now().UTC(),
	}
	if err := s.repo.AppendActionLog(ctx, entry); err != nil {
		log.Warn("failed to append action log", "action_type", actionType, "invoice_id", invoiceID, "error", err)
	}
}

func (s *Service) logNotification(ctx context.Context, log *slog.Logger, customerID uuid.UUID, channel, templateName string, status domain.NotificationStatus, detail string) {
	entry := domain.NotificationLogEntry{
		CustomerID:   customerID,
		Channel:      channel,
		TemplateName: templateName,
		Status:       status,
		Detail:       detail,
		LoggedAt:     time.Now().UTC(),
	}
	if err := s.repo.AppendNotificationLog(ctx, entry); err != nil {
		log.Warn("failed to append notification log", "customer_id", customerID, "channel", channel, "error", err)
	}
}

func customerName(customer *domain.Customer) string {
	if customer == nil || customer.FullName == "" {
		return "Unknown Customer"
	}
	return customer.FullName
}

// formatPhoneE164 normalizes a stored phone number to E.164. Numbers
// without a country code cannot be dialed internationally and are rejected.
func formatPhoneE164(phone string) (string, bool) {
	trimmed := strings.TrimSpace(phone)
	if trimmed == "" {
		return "", false
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	n := digits.String()
	if len(n) < 10 || len(n) > 15 {
		return "", false
	}
	if strings.HasPrefix(trimmed, "+") && len(n) > 10 {
		return "+" + n, true
	}
	if len(n) > 10 {
		return "+" + n, true
	}
	return "", false
}
