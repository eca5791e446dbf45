/**
 * @description
 * The dunning sweep orchestrator. One invocation is one engine run: it
 * selects candidate invoices, walks the active rules in priority order for
 * each of them, and executes at most one action per invoice per run. The
 * execution ledger guarantees each (rule, invoice) pair fires at most once
 * ever.
 */
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Phoenixarjun/CredFlow/internal/domain"
)

// RunResult summarizes one completed engine run.
type RunResult struct {
	RunID             uuid.UUID `json:"run_id"`
	StartTime         time.Time `json:"start_time"`
	EndTime           time.Time `json:"end_time"`
	RulesLoaded       int       `json:"rules_loaded"`
	InvoicesEvaluated int       `json:"invoices_evaluated"`
	ActionsExecuted   int       `json:"actions_executed"`
	ActionsFailed     int       `json:"actions_failed"`
}

// RunDunningProcess executes one dunning sweep. A failure against a single
// invoice or rule never aborts the sweep; only repository unavailability
// (cannot load rules or invoices) is fatal for the run.
func (s *Service) RunDunningProcess(ctx context.Context) (*RunResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	run := domain.EngineRun{
		ID:        uuid.New(),
		StartTime: time.Now().UTC(),
	}
	// Persisted before any work so a crash mid-run is still observable as
	// "started, never completed".
	if err := s.repo.CreateEngineRun(ctx, run); err != nil {
		return nil, fmt.Errorf("create engine run: %w", err)
	}

	log := s.logger.With("run_id", run.ID)
	log.Info("starting dunning process")

	result := &RunResult{RunID: run.ID, StartTime: run.StartTime}

	rules, err := s.repo.ListActiveRulesByPriorityAsc(ctx)
	if err != nil {
		s.finishRun(ctx, log, run.ID, result)
		return nil, fmt.Errorf("load active rules: %w", err)
	}
	result.RulesLoaded = len(rules)
	log.Info("loaded active dunning rules", "count", len(rules))

	if len(rules) == 0 {
		log.Info("no active rules, dunning process finished")
		s.finishRun(ctx, log, run.ID, result)
		return result, nil
	}

	today := time.Now().In(s.loc)
	invoices, err := s.candidateInvoices(ctx, log, today)
	if err != nil {
		s.finishRun(ctx, log, run.ID, result)
		return nil, err
	}
	result.InvoicesEvaluated = len(invoices)

	if len(invoices) == 0 {
		log.Info("no relevant invoices to process, dunning process finished")
		s.finishRun(ctx, log, run.ID, result)
		return result, nil
	}

	for _, invoice := range invoices {
		s.processInvoice(ctx, log, rules, invoice, today, result)
	}

	log.Info("dunning process finished",
		"invoices_evaluated", result.InvoicesEvaluated,
		"actions_executed", result.ActionsExecuted,
		"actions_failed", result.ActionsFailed)

	s.finishRun(ctx, log, run.ID, result)

	s.publishEvent(ctx, "dunning.run.completed", runCompletedEvent{
		RunID:             run.ID.String(),
		StartTime:         result.StartTime,
		EndTime:           result.EndTime,
		InvoicesEvaluated: result.InvoicesEvaluated,
		ActionsExecuted:   result.ActionsExecuted,
		ActionsFailed:     result.ActionsFailed,
	})

	return result, nil
}

// candidateInvoices builds the sweep's working set: every OVERDUE invoice,
// plus PENDING invoices on prepaid plans due within the lookahead window.
// Prepaid customers are warned before service lapses; postpaid customers are
// chased after the due date.
func (s *Service) candidateInvoices(ctx context.Context, log *slog.Logger, today time.Time) ([]domain.Invoice, error) {
	overdue, err := s.repo.ListOverdueInvoices(ctx)
	if err != nil {
		return nil, fmt.Errorf("load overdue invoices: %w", err)
	}
	log.Info("found overdue invoices", "count", len(overdue))

	lookahead := today.AddDate(0, 0, s.lookaheadDays)
	upcoming, err := s.repo.ListPendingPrepaidInvoicesDueBefore(ctx, lookahead)
	if err != nil {
		return nil, fmt.Errorf("load upcoming prepaid invoices: %w", err)
	}
	log.Info("found pending prepaid invoices in lookahead window", "count", len(upcoming), "due_before", lookahead.Format("2006-01-02"))

	seen := make(map[uuid.UUID]bool, len(overdue)+len(upcoming))
	invoices := make([]domain.Invoice, 0, len(overdue)+len(upcoming))
	for _, inv := range append(overdue, upcoming...) {
		if seen[inv.ID] {
			continue
		}
		seen[inv.ID] = true
		invoices = append(invoices, inv)
	}

	return invoices, nil
}

// processInvoice walks the rules in priority order and stops at the first
// rule whose action executed, successfully or not. At most one dunning
// action touches an invoice per sweep; failures do not fall through to
// lower-priority rules.
func (s *Service) processInvoice(ctx context.Context, log *slog.Logger, rules []domain.DunningRule, invoice domain.Invoice, today time.Time, result *RunResult) {
	ilog := log.With("invoice_number", invoice.InvoiceNumber)
	invoicePlanType, planKnown := planTypeOf(invoice)

	for _, rule := range rules {
		// Plan scope filter. An unresolvable plan type only matches rules
		// scoped to ALL.
		scope := rule.AppliesToPlanType
		if scope != "" && scope != domain.PlanTypeAll {
			if !planKnown || scope != invoicePlanType {
				continue
			}
		}

		// Status compatibility filter. Day-based conditions are tied to a
		// particular invoice status; amount and account-type conditions
		// apply regardless.
		if rule.ConditionType == domain.ConditionDaysOverdue && invoice.Status != domain.InvoiceStatusOverdue {
			continue
		}
		if rule.ConditionType == domain.ConditionDaysUntilDue && invoice.Status != domain.InvoiceStatusPending {
			continue
		}

		if !s.conditionMet(rule, invoice, today) {
			continue
		}

		executed, err := s.repo.ExecutionExists(ctx, rule.ID, invoice.ID)
		if err != nil {
			ilog.Error("ledger lookup failed, skipping remaining rules for invoice", "rule_id", rule.ID, "error", err)
			return
		}
		if executed {
			ilog.Debug("rule already executed for invoice", "rule_name", rule.Name)
			continue
		}

		ilog.Info("rule matched, executing action", "rule_name", rule.Name, "action_type", rule.ActionType)

		if err := s.executeAction(ctx, ilog, rule, invoice, today); err != nil {
			result.ActionsFailed++
			ilog.Error("action execution failed", "rule_name", rule.Name, "action_type", rule.ActionType, "error", err)
			return
		}

		if err := s.repo.AppendExecution(ctx, rule.ID, invoice.ID, time.Now().UTC()); err != nil {
			// Persistence failure on the ledger: stop this invoice rather
			// than risk a second action against it.
			result.ActionsFailed++
			ilog.Error("failed to append execution ledger entry", "rule_name", rule.Name, "error", err)
			return
		}

		result.ActionsExecuted++
		ilog.Info("action executed and logged", "rule_name", rule.Name, "action_type", rule.ActionType)

		s.publishEvent(ctx, "dunning.action.executed", actionExecutedEvent{
			RunID:      result.RunID.String(),
			RuleID:     rule.ID.String(),
			RuleName:   rule.Name,
			ActionType: string(rule.ActionType),
			InvoiceID:  invoice.ID.String(),
			Timestamp:  time.Now().UTC(),
		})
		return
	}
}

func (s *Service) finishRun(ctx context.Context, log *slog.Logger, runID uuid.UUID, result *RunResult) {
	result.EndTime = time.Now().UTC()
	if err := s.repo.CompleteEngineRun(ctx, runID, result.EndTime); err != nil {
		log.Error("failed to complete engine run record", "error", err)
	}
}
