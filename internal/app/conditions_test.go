package app

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

func TestConditionMet_DaysOverdue(t *testing.T) {
	svc := newTestService(newStubRepo(), &stubNotifier{})
	today := time.Date(2026, 3, 20, 1, 0, 0, 0, time.UTC)
	invoice := domain.Invoice{
		ID:      uuid.New(),
		Status:  domain.InvoiceStatusOverdue,
		DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name      string
		threshold int
		want      bool
	}{
		{"ten days overdue meets threshold 7", 7, true},
		{"ten days overdue meets threshold 10 exactly", 10, true},
		{"ten days overdue fails threshold 15", 15, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := domain.DunningRule{
				ID:                    uuid.New(),
				ConditionType:         domain.ConditionDaysOverdue,
				ConditionValueInteger: intPtr(tt.threshold),
			}
			if got := svc.conditionMet(rule, invoice, today); got != tt.want {
				t.Errorf("conditionMet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionMet_DaysOverdueIgnoresNonOverdueInvoices(t *testing.T) {
	svc := newTestService(newStubRepo(), &stubNotifier{})
	today := time.Date(2026, 3, 20, 1, 0, 0, 0, time.UTC)
	rule := domain.DunningRule{
		ID:                    uuid.New(),
		ConditionType:         domain.ConditionDaysOverdue,
		ConditionValueInteger: intPtr(1),
	}
	invoice := domain.Invoice{
		ID:      uuid.New(),
		Status:  domain.InvoiceStatusPending,
		DueDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
	}

	if svc.conditionMet(rule, invoice, today) {
		t.Error("DAYS_OVERDUE must never match a PENDING invoice")
	}
}

func TestConditionMet_DaysUntilDue(t *testing.T) {
	svc := newTestService(newStubRepo(), &stubNotifier{})
	today := time.Date(2026, 3, 20, 1, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		dueDate   time.Time
		threshold int
		want      bool
	}{
		{"due in five days within window 7", time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC), 7, true},
		{"due in seven days on window edge", time.Date(2026, 3, 27, 0, 0, 0, 0, time.UTC), 7, true},
		{"due in nine days outside window 7", time.Date(2026, 3, 29, 0, 0, 0, 0, time.UTC), 7, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := domain.DunningRule{
				ID:                    uuid.New(),
				ConditionType:         domain.ConditionDaysUntilDue,
				ConditionValueInteger: intPtr(tt.threshold),
			}
			invoice := domain.Invoice{
				ID:      uuid.New(),
				Status:  domain.InvoiceStatusPending,
				DueDate: tt.dueDate,
			}
			if got := svc.conditionMet(rule, invoice, today); got != tt.want {
				t.Errorf("conditionMet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionMet_MinAmountDueUsesExactDecimalComparison(t *testing.T) {
	svc := newTestService(newStubRepo(), &stubNotifier{})
	today := time.Now().UTC()

	tests := []struct {
		name      string
		amountDue string
		threshold string
		want      bool
	}{
		{"amount above threshold", "500.00", "100.00", true},
		{"amount equal to threshold", "100.00", "100.00", true},
		{"amount a cent below threshold", "99.99", "100.00", false},
		{"fractional cents compare exactly", "100.001", "100.00", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := domain.DunningRule{
				ID:                    uuid.New(),
				ConditionType:         domain.ConditionMinAmountDue,
				ConditionValueDecimal: decPtr(tt.threshold),
			}
			invoice := domain.Invoice{
				ID:        uuid.New(),
				Status:    domain.InvoiceStatusOverdue,
				AmountDue: decimal.RequireFromString(tt.amountDue),
			}
			if got := svc.conditionMet(rule, invoice, today); got != tt.want {
				t.Errorf("conditionMet() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionMet_AccountTypeIsCaseInsensitive(t *testing.T) {
	svc := newTestService(newStubRepo(), &stubNotifier{})
	today := time.Now().UTC()
	invoice := domain.Invoice{
		ID:      uuid.New(),
		Status:  domain.InvoiceStatusOverdue,
		Account: &domain.Account{ID: uuid.New(), AccountType: domain.AccountTypeBusiness},
	}

	rule := domain.DunningRule{
		ID:                   uuid.New(),
		ConditionType:        domain.ConditionAccountType,
		ConditionValueString: strPtr("business"),
	}
	if !svc.conditionMet(rule, invoice, today) {
		t.Error("ACCOUNT_TYPE comparison should be case-insensitive")
	}

	rule.ConditionValueString = strPtr("RESIDENTIAL")
	if svc.conditionMet(rule, invoice, today) {
		t.Error("ACCOUNT_TYPE must not match a different account type")
	}
}

func TestConditionMet_MissingDataNeverPanics(t *testing.T) {
	svc := newTestService(newStubRepo(), &stubNotifier{})
	today := time.Now().UTC()

	tests := []struct {
		name string
		rule domain.DunningRule
		inv  domain.Invoice
	}{
		{
			"DAYS_OVERDUE without condition value",
			domain.DunningRule{ID: uuid.New(), ConditionType: domain.ConditionDaysOverdue},
			domain.Invoice{ID: uuid.New(), Status: domain.InvoiceStatusOverdue, DueDate: daysAgo(10)},
		},
		{
			"MIN_AMOUNT_DUE without condition value",
			domain.DunningRule{ID: uuid.New(), ConditionType: domain.ConditionMinAmountDue},
			domain.Invoice{ID: uuid.New(), Status: domain.InvoiceStatusOverdue},
		},
		{
			"ACCOUNT_TYPE without account",
			domain.DunningRule{ID: uuid.New(), ConditionType: domain.ConditionAccountType, ConditionValueString: strPtr("BUSINESS")},
			domain.Invoice{ID: uuid.New(), Status: domain.InvoiceStatusOverdue},
		},
		{
			"unknown condition type",
			domain.DunningRule{ID: uuid.New(), ConditionType: domain.ConditionType("PHASE_OF_MOON")},
			domain.Invoice{ID: uuid.New(), Status: domain.InvoiceStatusOverdue},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if svc.conditionMet(tt.rule, tt.inv, today) {
				t.Error("conditionMet() should be false when required data is missing")
			}
		})
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	from := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	to := time.Date(2026, 3, 20, 0, 1, 0, 0, time.UTC)
	if got := daysBetween(from, to); got != 10 {
		t.Errorf("daysBetween() = %d, want 10", got)
	}
	if got := daysBetween(to, from); got != -10 {
		t.Errorf("daysBetween() reversed = %d, want -10", got)
	}
}
