package app

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

func TestRenderTemplate_FillsAllPlaceholders(t *testing.T) {
	today := time.Date(2026, 3, 20, 1, 0, 0, 0, time.UTC)
	invoice := domain.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-2026-0042",
		AmountDue:     decimal.RequireFromString("1499.50"),
		DueDate:       time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:        domain.InvoiceStatusOverdue,
		Account: &domain.Account{
			ID:             uuid.New(),
			AccountNumber:  "ACC-7781",
			CurrentBalance: decimal.RequireFromString("2200.00"),
			Customer:       &domain.Customer{ID: uuid.New(), FullName: "Asha Rao"},
		},
	}

	content := "Dear [CustomerName], invoice [InvoiceNumber] for [AmountDue] " +
		"on account [AccountNumber] was due [DueDate] and is [DaysOverdue] days overdue. " +
		"Total outstanding: [TotalAmountDue]. Pay at [PortalLink]."

	got := renderTemplate(content, invoice, today)
	want := "Dear Asha Rao, invoice INV-2026-0042 for 1499.50 " +
		"on account ACC-7781 was due 2026-03-10 and is 10 days overdue. " +
		"Total outstanding: 2200.00. Pay at " + portalLink + "."
	if got != want {
		t.Errorf("renderTemplate() =\n%q\nwant\n%q", got, want)
	}
}

func TestRenderTemplate_MissingDataFallbacks(t *testing.T) {
	today := time.Now().UTC()
	invoice := domain.Invoice{
		ID:        uuid.New(),
		AmountDue: decimal.Zero,
	}

	got := renderTemplate("[CustomerName]|[InvoiceNumber]|[DueDate]|[AccountNumber]|[TotalAmountDue]", invoice, today)
	want := "Valued Customer|N/A|N/A|N/A|N/A"
	if got != want {
		t.Errorf("renderTemplate() = %q, want %q", got, want)
	}
}

func TestRenderTemplate_DaysOverdueNeverNegative(t *testing.T) {
	today := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	invoice := domain.Invoice{
		ID:        uuid.New(),
		AmountDue: decimal.Zero,
		DueDate:   time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC),
		Status:    domain.InvoiceStatusPending,
	}

	if got := renderTemplate("[DaysOverdue]", invoice, today); got != "0" {
		t.Errorf("renderTemplate() = %q, want \"0\" for an invoice not yet due", got)
	}
}
