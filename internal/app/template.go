/**
 * @description
 * Placeholder substitution for notification templates. The placeholder
 * grammar ([CustomerName], [InvoiceNumber], ...) is fixed by the stored
 * templates that administrators author.
 */
package app

import (
	"strconv"
	"strings"
	"time"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

const portalLink = "https://portal.credflow.io/customer/payments"

// renderTemplate fills a template body or subject for an invoice. Missing
// values render as "N/A" rather than leaking empty placeholders; a missing
// customer name falls back to a generic salutation.
func renderTemplate(content string, invoice domain.Invoice, today time.Time) string {
	if content == "" {
		return ""
	}

	account := invoice.Account
	var customer *domain.Customer
	if account != nil {
		customer = account.Customer
	}

	out := content
	if customer != nil && customer.FullName != "" {
		out = strings.ReplaceAll(out, "[CustomerName]", customer.FullName)
	} else {
		out = strings.ReplaceAll(out, "[CustomerName]", "Valued Customer")
	}

	out = safeReplace(out, "[InvoiceNumber]", invoice.InvoiceNumber)
	out = safeReplace(out, "[AmountDue]", invoice.AmountDue.StringFixed(2))

	if !invoice.DueDate.IsZero() {
		out = strings.ReplaceAll(out, "[DueDate]", invoice.DueDate.Format("2006-01-02"))
	} else {
		out = strings.ReplaceAll(out, "[DueDate]", "N/A")
	}

	daysOverdue := 0
	if !invoice.DueDate.IsZero() {
		if d := daysBetween(invoice.DueDate, today); d > 0 {
			daysOverdue = d
		}
	}
	out = strings.ReplaceAll(out, "[DaysOverdue]", strconv.Itoa(daysOverdue))

	if account != nil {
		out = safeReplace(out, "[AccountNumber]", account.AccountNumber)
		out = strings.ReplaceAll(out, "[TotalAmountDue]", account.CurrentBalance.StringFixed(2))
	} else {
		out = strings.ReplaceAll(out, "[AccountNumber]", "N/A")
		out = strings.ReplaceAll(out, "[TotalAmountDue]", "N/A")
	}

	out = strings.ReplaceAll(out, "[PortalLink]", portalLink)

	return out
}

func safeReplace(text, placeholder, value string) string {
	if value == "" {
		value = "N/A"
	}
	return strings.ReplaceAll(text, placeholder, value)
}
