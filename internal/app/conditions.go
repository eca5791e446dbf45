/**
 * @description
 * Rule condition evaluation. conditionMet is deterministic for a fixed
 * "today" and never fails on missing data; it returns false and logs.
 */
package app

import (
	"strings"
	"time"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

// conditionMet reports whether the rule's trigger condition holds for the
// invoice on the given day.
func (s *Service) conditionMet(rule domain.DunningRule, invoice domain.Invoice, today time.Time) bool {
	switch rule.ConditionType {
	case domain.ConditionDaysOverdue:
		// Only meaningful for invoices that are actually overdue.
		if invoice.Status != domain.InvoiceStatusOverdue {
			return false
		}
		if rule.ConditionValueInteger == nil || invoice.DueDate.IsZero() {
			s.logger.Warn("DAYS_OVERDUE rule missing condition value or invoice due date",
				"rule_id", rule.ID, "invoice_id", invoice.ID)
			return false
		}
		return daysBetween(invoice.DueDate, today) >= *rule.ConditionValueInteger

	case domain.ConditionDaysUntilDue:
		// Prepaid reminders: only meaningful before the due date passes.
		if invoice.Status != domain.InvoiceStatusPending {
			return false
		}
		if rule.ConditionValueInteger == nil || invoice.DueDate.IsZero() {
			s.logger.Warn("DAYS_UNTIL_DUE rule missing condition value or invoice due date",
				"rule_id", rule.ID, "invoice_id", invoice.ID)
			return false
		}
		return daysBetween(today, invoice.DueDate) <= *rule.ConditionValueInteger

	case domain.ConditionMinAmountDue:
		if rule.ConditionValueDecimal == nil {
			s.logger.Warn("MIN_AMOUNT_DUE rule missing condition value", "rule_id", rule.ID)
			return false
		}
		return invoice.AmountDue.Cmp(*rule.ConditionValueDecimal) >= 0

	case domain.ConditionAccountType:
		if rule.ConditionValueString == nil || *rule.ConditionValueString == "" {
			s.logger.Warn("ACCOUNT_TYPE rule missing condition value", "rule_id", rule.ID)
			return false
		}
		if invoice.Account == nil || invoice.Account.AccountType == "" {
			return false
		}
		return strings.EqualFold(string(invoice.Account.AccountType), *rule.ConditionValueString)

	default:
		s.logger.Warn("unhandled condition type", "condition_type", rule.ConditionType, "rule_id", rule.ID)
		return false
	}
}

// daysBetween returns whole calendar days from one date to another,
// ignoring the time-of-day component.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
