package app

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

func TestRecordPayment_CuresAccountWhenLastOverdueInvoiceClears(t *testing.T) {
	repo := newStubRepo()
	account := prepaidAccount(domain.AccountStatusSuspended)
	invoice := overdueInvoice(20, account)
	repo.invoicesByID[invoice.ID] = &invoice
	repo.overdueCounts[account.ID] = 0

	svc := newTestService(repo, &stubNotifier{})
	result, err := svc.RecordPayment(context.Background(), invoice.ID, "card")
	if err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}

	if !result.AccountCured {
		t.Error("expected the account to be cured after its last overdue invoice cleared")
	}
	standing := repo.standings[account.ID]
	if standing.status != domain.AccountStatusActive {
		t.Errorf("expected ACTIVE after cure, got %q", standing.status)
	}
	if standing.speed != account.Plan.DefaultSpeed {
		t.Errorf("expected plan default speed %q restored, got %q", account.Plan.DefaultSpeed, standing.speed)
	}
	if invoice.Status != domain.InvoiceStatusPaid {
		t.Errorf("expected invoice marked PAID, got %q", invoice.Status)
	}
	if len(repo.payments) != 1 {
		t.Fatalf("expected one payment record, got %d", len(repo.payments))
	}
	payment := repo.payments[0]
	if !payment.AmountPaid.Equal(invoice.AmountDue) {
		t.Errorf("payment amount %s does not match invoice amount %s", payment.AmountPaid, invoice.AmountDue)
	}
	if payment.PaymentMethod != "CARD" {
		t.Errorf("expected normalized payment method CARD, got %q", payment.PaymentMethod)
	}
}

func TestRecordPayment_NoCureWhileOtherInvoicesRemainOverdue(t *testing.T) {
	repo := newStubRepo()
	account := prepaidAccount(domain.AccountStatusThrottled)
	invoice := overdueInvoice(20, account)
	repo.invoicesByID[invoice.ID] = &invoice
	repo.overdueCounts[account.ID] = 1

	svc := newTestService(repo, &stubNotifier{})
	result, err := svc.RecordPayment(context.Background(), invoice.ID, "upi")
	if err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}

	if result.AccountCured {
		t.Error("account must not be cured while other invoices remain overdue")
	}
	if _, wrote := repo.standings[account.ID]; wrote {
		t.Error("account standing must not change when curing is blocked")
	}
}

func TestRecordPayment_ActiveAccountIsNotTouched(t *testing.T) {
	repo := newStubRepo()
	account := prepaidAccount(domain.AccountStatusActive)
	invoice := overdueInvoice(3, account)
	repo.invoicesByID[invoice.ID] = &invoice

	svc := newTestService(repo, &stubNotifier{})
	result, err := svc.RecordPayment(context.Background(), invoice.ID, "cash")
	if err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}
	if result.AccountCured {
		t.Error("an ACTIVE account has nothing to cure")
	}
	if _, wrote := repo.standings[account.ID]; wrote {
		t.Error("an ACTIVE account's standing must not change on payment")
	}
}

func TestRecordPayment_NoPlanBlocksCure(t *testing.T) {
	repo := newStubRepo()
	account := prepaidAccount(domain.AccountStatusSuspended)
	account.Plan = nil
	invoice := overdueInvoice(20, account)
	repo.invoicesByID[invoice.ID] = &invoice

	svc := newTestService(repo, &stubNotifier{})
	result, err := svc.RecordPayment(context.Background(), invoice.ID, "card")
	if err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}
	if result.AccountCured {
		t.Error("an account without a plan has no default speed to restore and must not be cured")
	}
}

func TestRecordPayment_AlreadyPaidInvoiceIsRejected(t *testing.T) {
	repo := newStubRepo()
	invoice := overdueInvoice(5, prepaidAccount(domain.AccountStatusActive))
	invoice.Status = domain.InvoiceStatusPaid
	repo.invoicesByID[invoice.ID] = &invoice

	svc := newTestService(repo, &stubNotifier{})
	if _, err := svc.RecordPayment(context.Background(), invoice.ID, "card"); !errors.Is(err, ErrInvoiceAlreadyPaid) {
		t.Fatalf("expected ErrInvoiceAlreadyPaid, got %v", err)
	}
	if len(repo.payments) != 0 {
		t.Errorf("no payment record should be written for an already-paid invoice, got %d", len(repo.payments))
	}
}

func TestRecordPayment_UnknownMethodNormalizedToOther(t *testing.T) {
	repo := newStubRepo()
	invoice := overdueInvoice(5, prepaidAccount(domain.AccountStatusActive))
	repo.invoicesByID[invoice.ID] = &invoice

	svc := newTestService(repo, &stubNotifier{})
	if _, err := svc.RecordPayment(context.Background(), invoice.ID, "carrier pigeon"); err != nil {
		t.Fatalf("RecordPayment returned error: %v", err)
	}
	if len(repo.payments) != 1 || repo.payments[0].PaymentMethod != "OTHER" {
		t.Fatalf("expected payment method OTHER, got %+v", repo.payments)
	}
}

func TestManualCureCustomer_BypassesOverdueCheck(t *testing.T) {
	repo := newStubRepo()
	customerID := uuid.New()

	suspended := *prepaidAccount(domain.AccountStatusSuspended)
	suspended.CustomerID = customerID
	active := *prepaidAccount(domain.AccountStatusActive)
	active.CustomerID = customerID
	repo.accountsByCustomer[customerID] = []domain.Account{suspended, active}

	// The suspended account still has overdue invoices; a manual cure
	// restores it anyway.
	repo.overdueCounts[suspended.ID] = 3

	svc := newTestService(repo, &stubNotifier{})
	result, err := svc.ManualCureCustomer(context.Background(), customerID, "ops@example.com", "customer paid offline")
	if err != nil {
		t.Fatalf("ManualCureCustomer returned error: %v", err)
	}

	if result.AccountsCured != 1 {
		t.Fatalf("expected 1 account cured, got %d", result.AccountsCured)
	}
	standing := repo.standings[suspended.ID]
	if standing.status != domain.AccountStatusActive {
		t.Errorf("expected suspended account restored to ACTIVE, got %q", standing.status)
	}
	if _, wrote := repo.standings[active.ID]; wrote {
		t.Error("the already-active account must not be touched")
	}
}

func TestManualCureCustomer_SkipsAccountsWithoutPlan(t *testing.T) {
	repo := newStubRepo()
	customerID := uuid.New()

	noPlan := *prepaidAccount(domain.AccountStatusThrottled)
	noPlan.CustomerID = customerID
	noPlan.Plan = nil
	repo.accountsByCustomer[customerID] = []domain.Account{noPlan}

	svc := newTestService(repo, &stubNotifier{})
	result, err := svc.ManualCureCustomer(context.Background(), customerID, "ops@example.com", "goodwill")
	if err != nil {
		t.Fatalf("ManualCureCustomer returned error: %v", err)
	}
	if result.AccountsCured != 0 {
		t.Errorf("an account without a plan cannot be cured, got %d cured", result.AccountsCured)
	}
}

func TestManualCureCustomer_NoAccountsIsNoOp(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubNotifier{})

	result, err := svc.ManualCureCustomer(context.Background(), uuid.New(), "ops@example.com", "typo in customer id")
	if err != nil {
		t.Fatalf("ManualCureCustomer returned error: %v", err)
	}
	if result.AccountsCured != 0 {
		t.Errorf("expected 0 accounts cured, got %d", result.AccountsCured)
	}
}
