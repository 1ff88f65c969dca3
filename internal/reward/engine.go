package reward

import (
	"context"
	"fmt"

	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/service"
)

// Engine wires the rule repository and transaction ledger to the
// calculator. It holds no mutable state of its own; every call performs a
// full recomputation over the supplied period.
type Engine struct {
	rules service.RuleRepository
	txns  service.TransactionSource
	calc  *Calculator
}

// NewEngine creates a reward engine over the given repositories.
func NewEngine(rules service.RuleRepository, txns service.TransactionSource) *Engine {
	return &Engine{
		rules: rules,
		txns:  txns,
		calc:  NewCalculator(),
	}
}

// ProgressForCard computes reward progress for the card's active rule over
// the period. Returns (nil, nil) when the card has no active rule; absence
// of a rule is not an error.
func (e *Engine) ProgressForCard(ctx context.Context, cardID string, period Period) (*model.Progress, error) {
	rule, err := e.rules.GetActiveRuleForCard(ctx, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up active rule: %w", err)
	}
	if rule == nil {
		return nil, nil
	}

	start, end := period.Bounds()
	txns, err := e.txns.GetTransactionsByCard(ctx, cardID, service.TransactionFilter{
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	return e.calc.Calculate(rule, txns, period), nil
}
