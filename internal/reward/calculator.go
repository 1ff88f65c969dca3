package reward

import (
	"sort"

	"github.com/marchweiss/perkly/internal/model"
)

// atCapFraction is the share of the bonus cap at which a period is
// considered effectively capped out.
const atCapFraction = 0.98

// Calculator computes bonus qualification progress for one rule, one
// transaction set, and one billing period. Calculate is a pure function:
// the same inputs always produce the same Progress.
type Calculator struct{}

// NewCalculator creates a new progress calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate scans the period's non-payment transactions and produces a
// fresh Progress value. The result is never persisted.
func (c *Calculator) Calculate(rule *model.BonusRule, txns []model.Transaction, period Period) *model.Progress {
	matcher := NewMatcher(rule)
	filtered := FilterTransactions(txns, period)

	progress := &model.Progress{
		Period:     period.String(),
		CardID:     rule.CardID,
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		RewardUnit: rule.RewardUnit,
	}

	merchants := make(map[string]struct{})
	for _, txn := range filtered {
		progress.TotalSpend += txn.Amount

		label, ok := matcher.Qualifies(txn)
		if !ok {
			progress.NonQualifyingSpend += txn.Amount
			continue
		}

		progress.QualifyingSpend += txn.Amount
		if label != "" {
			merchants[label] = struct{}{}
		}
	}

	progress.TransactionCount = len(filtered)
	progress.MerchantsUsed = sortedKeys(merchants)
	progress.MerchantCount = len(merchants)

	progress.MinSpendMet = progress.TotalSpend >= rule.MinSpend
	progress.MerchantRequirementMet = progress.MerchantCount >= rule.MinMerchantCount
	progress.RemainingToMinimum = max(0, rule.MinSpend-progress.TotalSpend)

	if cap := rule.MaxBonusSpend; cap != nil {
		progress.BonusCapReached = progress.QualifyingSpend >= *cap
		remaining := max(0, *cap-progress.QualifyingSpend)
		progress.RemainingToCap = &remaining
	}

	progress.Status = c.status(rule, progress)
	c.estimateReward(rule, progress)
	progress.Recommendations = Recommendations(rule, progress)

	return progress
}

// status classifies the period. First match wins.
func (c *Calculator) status(rule *model.BonusRule, p *model.Progress) model.ProgressStatus {
	switch {
	case !rule.IsActive:
		return model.StatusInactive
	case p.TotalSpend < rule.MinSpend:
		return model.StatusBelowMinimum
	case rule.MaxBonusSpend != nil && p.QualifyingSpend > *rule.MaxBonusSpend:
		return model.StatusOverCap
	case rule.MaxBonusSpend != nil && p.QualifyingSpend >= atCapFraction * *rule.MaxBonusSpend:
		return model.StatusAtCap
	default:
		return model.StatusSweetSpot
	}
}

// estimateReward fills the bonus and miles estimates. Rewards accrue only
// once both the minimum-spend and merchant-count thresholds are met.
func (c *Calculator) estimateReward(rule *model.BonusRule, p *model.Progress) {
	if !p.MinSpendMet || !p.MerchantRequirementMet {
		return
	}

	effective := p.QualifyingSpend
	if rule.MaxBonusSpend != nil && effective > *rule.MaxBonusSpend {
		effective = *rule.MaxBonusSpend
	}

	p.EstimatedBonus = effective * rule.BonusRate

	// The direct miles multiplier takes precedence over the points ratio.
	switch {
	case rule.MilesPerDollar != nil:
		miles := effective * *rule.MilesPerDollar
		p.EstimatedMiles = &miles
	case rule.PointsToMilesRatio != nil && *rule.PointsToMilesRatio != 0:
		miles := p.EstimatedBonus / *rule.PointsToMilesRatio
		p.EstimatedMiles = &miles
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
