/**
 * @description
 * Billing domain models: customers, plans, accounts and invoices.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus describes the lifecycle state of an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

// AccountStatus describes the service state of a billing account.
type AccountStatus string

const (
	AccountStatusActive     AccountStatus = "ACTIVE"
	AccountStatusThrottled  AccountStatus = "THROTTLED"
	AccountStatusSuspended  AccountStatus = "SUSPENDED"
	AccountStatusRestricted AccountStatus = "RESTRICTED"
	AccountStatusInactive   AccountStatus = "INACTIVE"
)

// PlanType partitions plans into prepaid and postpaid billing models.
// PlanTypeAll is only meaningful as a rule scope, never on a plan itself.
type PlanType string

const (
	PlanTypePrepaid  PlanType = "PREPAID"
	PlanTypePostpaid PlanType = "POSTPAID"
	PlanTypeAll      PlanType = "ALL"
)

// AccountType classifies the account holder.
type AccountType string

const (
	AccountTypeResidential AccountType = "RESIDENTIAL"
	AccountTypeBusiness    AccountType = "BUSINESS"
)

// Customer is the person or organization that owns accounts.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// Plan is immutable reference data describing a service plan.
type Plan struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PlanType     PlanType  `json:"plan_type"`
	DefaultSpeed string    `json:"default_speed"`
}

// Account is a billing account. Status and CurrentSpeed are mutated only by
// dunning actions and curing.
type Account struct {
	ID             uuid.UUID       `json:"id"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	AccountNumber  string          `json:"account_number"`
	AccountType    AccountType     `json:"account_type"`
	Status         AccountStatus   `json:"status"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CurrentSpeed   string          `json:"current_speed"`
	CreatedAt      time.Time       `json:"created_at"`

	// Plan and Customer are populated by the repository when the row was
	// loaded with its joins; nil means the link is missing or not loaded.
	Plan     *Plan     `json:"plan,omitempty"`
	Customer *Customer `json:"customer,omitempty"`
}

// Invoice is a receivable against an account. The engine never mutates
// invoices; payment recording marks them paid.
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	InvoiceNumber string          `json:"invoice_number"`
	AmountDue     decimal.Decimal `json:"amount_due"`
	DueDate       time.Time       `json:"due_date"`
	Status        InvoiceStatus   `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`

	Account *Account `json:"account,omitempty"`
}

// Payment records money received against an invoice.
type Payment struct {
	ID             uuid.UUID       `json:"id"`
	InvoiceID      uuid.UUID       `json:"invoice_id"`
	AmountPaid     decimal.Decimal `json:"amount_paid"`
	PaymentMethod  string          `json:"payment_method"`
	PaymentDate    time.Time       `json:"payment_date"`
	Status         string          `json:"status"`
	TransactionRef string          `json:"transaction_ref"`
}
