/**
 * @description
 * Dunning domain models: rules, templates, execution ledger and audit rows.
 */
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConditionType is the closed set of rule trigger conditions.
type ConditionType string

const (
	ConditionDaysOverdue  ConditionType = "DAYS_OVERDUE"
	ConditionDaysUntilDue ConditionType = "DAYS_UNTIL_DUE"
	ConditionMinAmountDue ConditionType = "MIN_AMOUNT_DUE"
	ConditionAccountType  ConditionType = "ACCOUNT_TYPE"
)

// ActionType is the closed set of remediation actions a rule can trigger.
type ActionType string

const (
	ActionSendEmail            ActionType = "SEND_EMAIL"
	ActionSendSMS              ActionType = "SEND_SMS"
	ActionCreateEscalationTask ActionType = "CREATE_ESCALATION_TASK"
	ActionRestrictService      ActionType = "RESTRICT_SERVICE"
	ActionThrottleSpeed        ActionType = "THROTTLE_SPEED"
)

// TaskPriority orders escalation tasks for the human review queue.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// TaskStatus is the lifecycle state of an escalation task.
type TaskStatus string

const (
	TaskStatusNew        TaskStatus = "NEW"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// NotificationTemplate holds the subject and body used by notification
// actions, with [Placeholder] tokens substituted at send time.
type NotificationTemplate struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
}

// DunningRule is read-only configuration for the engine. Exactly one of the
// condition value fields is expected to be set, matching ConditionType.
type DunningRule struct {
	ID                    uuid.UUID        `json:"id"`
	Name                  string           `json:"name"`
	Description           string           `json:"description"`
	Priority              int              `json:"priority"`
	Active                bool             `json:"active"`
	AppliesToPlanType     PlanType         `json:"applies_to_plan_type"`
	ConditionType         ConditionType    `json:"condition_type"`
	ConditionValueInteger *int             `json:"condition_value_integer,omitempty"`
	ConditionValueDecimal *decimal.Decimal `json:"condition_value_decimal,omitempty"`
	ConditionValueString  *string          `json:"condition_value_string,omitempty"`
	ActionType            ActionType       `json:"action_type"`
	EscalationPriority    *TaskPriority    `json:"escalation_priority,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`

	Template *NotificationTemplate `json:"template,omitempty"`
}

// ExecutionLogEntry is one row of the execution ledger. A unique constraint
// on (RuleID, InvoiceID) is what enforces at-most-once firing.
type ExecutionLogEntry struct {
	RuleID     uuid.UUID `json:"rule_id"`
	InvoiceID  uuid.UUID `json:"invoice_id"`
	ExecutedAt time.Time `json:"executed_at"`
}

// ActionLogEntry is the append-only audit trail of attempted actions. It has
// no role in idempotency.
type ActionLogEntry struct {
	ActionType ActionType `json:"action_type"`
	InvoiceID  uuid.UUID  `json:"invoice_id"`
	LoggedAt   time.Time  `json:"logged_at"`
}

// NotificationStatus records the outcome of a notification attempt.
type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "SENT"
	NotificationFailed NotificationStatus = "FAILED"
)

// NotificationLogEntry audits every email/SMS attempt.
type NotificationLogEntry struct {
	CustomerID   uuid.UUID          `json:"customer_id"`
	Channel      string             `json:"channel"`
	TemplateName string             `json:"template_name"`
	Status       NotificationStatus `json:"status"`
	Detail       string             `json:"detail,omitempty"`
	LoggedAt     time.Time          `json:"logged_at"`
}

// EscalationTask is a human-review work item created by
// CREATE_ESCALATION_TASK actions.
type EscalationTask struct {
	ID          uuid.UUID    `json:"id"`
	CustomerID  uuid.UUID    `json:"customer_id"`
	InvoiceID   uuid.UUID    `json:"invoice_id"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	Description string       `json:"description"`
	CreatedAt   time.Time    `json:"created_at"`
}

// EngineRun is one record per orchestrator invocation. EndTime is nil while
// the run is in flight, so a crash mid-run stays observable.
type EngineRun struct {
	ID        uuid.UUID  `json:"id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}
