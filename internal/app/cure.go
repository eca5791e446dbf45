/**
 * @description
 * Payment recording and account curing. Automatic curing restores a
 * throttled or suspended account after its last overdue invoice clears;
 * manual curing is a privileged administrator override.
 */
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

var (
	// ErrInvoiceAlreadyPaid is returned when a payment is recorded against
	// an invoice that is already settled.
	ErrInvoiceAlreadyPaid = errors.New("invoice is already paid")
)

// PaymentResult summarizes a recorded payment.
type PaymentResult struct {
	Payment      domain.Payment `json:"payment"`
	AccountCured bool           `json:"account_cured"`
}

// ManualCureResult summarizes a manual cure operation.
type ManualCureResult struct {
	AccountsCured int `json:"accounts_cured"`
}

// RecordPayment marks an invoice paid, writes the payment record, adjusts
// the account balance and then checks whether the account can be cured.
func (s *Service) RecordPayment(ctx context.Context, invoiceID uuid.UUID, method string) (*PaymentResult, error) {
	invoice, err := s.repo.GetInvoiceByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice.Status == domain.InvoiceStatusPaid {
		return nil, ErrInvoiceAlreadyPaid
	}

	if err := s.repo.MarkInvoicePaid(ctx, invoice.ID); err != nil {
		return nil, fmt.Errorf("mark invoice paid: %w", err)
	}
	s.logger.Info("invoice marked paid", "invoice_number", invoice.InvoiceNumber)

	payment := domain.Payment{
		ID:             uuid.New(),
		InvoiceID:      invoice.ID,
		AmountPaid:     invoice.AmountDue,
		PaymentMethod:  normalizePaymentMethod(method),
		PaymentDate:    time.Now().In(s.loc),
		Status:         "SUCCESS",
		TransactionRef: "PAY-" + strings.ToUpper(uuid.NewString()[:8]),
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment record: %w", err)
	}

	result := &PaymentResult{Payment: payment}

	account := invoice.Account
	if account == nil {
		s.logger.Warn("invoice has no associated account, balance not updated", "invoice_id", invoice.ID)
		return result, nil
	}

	if err := s.repo.AdjustAccountBalance(ctx, account.ID, payment.AmountPaid.Neg()); err != nil {
		return nil, fmt.Errorf("adjust account balance: %w", err)
	}
	s.logger.Info("account balance updated", "account_number", account.AccountNumber, "amount_paid", payment.AmountPaid.StringFixed(2))

	cured, err := s.cureIfEligible(ctx, account)
	if err != nil {
		return nil, err
	}
	result.AccountCured = cured

	return result, nil
}

// cureIfEligible restores a throttled or suspended account to ACTIVE when
// it no longer has overdue invoices and a plan is assigned to restore the
// speed from. Any other account state is a no-op.
func (s *Service) cureIfEligible(ctx context.Context, account *domain.Account) (bool, error) {
	if account.Status != domain.AccountStatusThrottled && account.Status != domain.AccountStatusSuspended {
		return false, nil
	}

	overdueCount, err := s.repo.CountOverdueInvoicesForAccount(ctx, account.ID)
	if err != nil {
		return false, fmt.Errorf("count overdue invoices: %w", err)
	}
	if overdueCount > 0 {
		s.logger.Info("account not cured, overdue invoices remain",
			"account_number", account.AccountNumber, "overdue_count", overdueCount)
		return false, nil
	}

	if account.Plan == nil {
		s.logger.Warn("account has no overdue invoices but cannot be cured: no plan assigned",
			"account_number", account.AccountNumber)
		return false, nil
	}

	if err := s.repo.UpdateAccountStanding(ctx, account.ID, domain.AccountStatusActive, account.Plan.DefaultSpeed); err != nil {
		return false, fmt.Errorf("restore account %s: %w", account.ID, err)
	}

	s.logger.Info("account cured",
		"account_number", account.AccountNumber, "restored_speed", account.Plan.DefaultSpeed)
	s.publishAccountState(ctx, account, domain.AccountStatusActive, account.Plan.DefaultSpeed,
		"overdue balance cleared", "account.cured")

	return true, nil
}

// ManualCureCustomer restores every throttled or suspended account of the
// customer regardless of remaining overdue invoices. It is logged as a
// privileged override with the acting administrator and their stated reason.
func (s *Service) ManualCureCustomer(ctx context.Context, customerID uuid.UUID, actor, reason string) (*ManualCureResult, error) {
	s.logger.Warn("ADMIN ACTION: manual cure requested",
		"customer_id", customerID, "actor", actor, "reason", reason)

	accounts, err := s.repo.ListAccountsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts for customer %s: %w", customerID, err)
	}
	if len(accounts) == 0 {
		s.logger.Warn("manual cure had no effect: customer has no accounts", "customer_id", customerID)
		return &ManualCureResult{}, nil
	}

	cured := 0
	for i := range accounts {
		account := &accounts[i]
		if account.Status != domain.AccountStatusThrottled && account.Status != domain.AccountStatusSuspended {
			continue
		}
		if account.Plan == nil {
			s.logger.Error("ADMIN ACTION failed for account: no plan assigned to determine default speed",
				"account_number", account.AccountNumber, "actor", actor)
			continue
		}

		if err := s.repo.UpdateAccountStanding(ctx, account.ID, domain.AccountStatusActive, account.Plan.DefaultSpeed); err != nil {
			return nil, fmt.Errorf("restore account %s: %w", account.ID, err)
		}
		cured++

		s.logger.Warn("ADMIN ACTION: account manually cured",
			"account_number", account.AccountNumber,
			"restored_speed", account.Plan.DefaultSpeed,
			"actor", actor, "reason", reason)
		s.publishAccountState(ctx, account, domain.AccountStatusActive, account.Plan.DefaultSpeed,
			fmt.Sprintf("manual cure by %s: %s", actor, reason), "account.cured")
	}

	if cured == 0 {
		s.logger.Info("manual cure requested but no accounts were throttled or suspended", "customer_id", customerID)
	}

	return &ManualCureResult{AccountsCured: cured}, nil
}

func normalizePaymentMethod(method string) string {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case "CARD":
		return "CARD"
	case "BANK_TRANSFER":
		return "BANK_TRANSFER"
	case "UPI":
		return "UPI"
	case "CASH":
		return "CASH"
	default:
		return "OTHER"
	}
}
