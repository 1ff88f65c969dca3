package reward

import (
	"fmt"

	"github.com/marchweiss/perkly/internal/model"
)

// nearCapThreshold is the remaining-to-cap amount below which a near-cap
// warning is produced.
const nearCapThreshold = 100.0

// Recommendations derives short actionable hints from computed progress.
// Hints are independent and additive; zero or more may appear, in a fixed
// order.
func Recommendations(rule *model.BonusRule, p *model.Progress) []string {
	var recs []string

	if !p.MinSpendMet {
		recs = append(recs, fmt.Sprintf("Spend $%.2f more to hit minimum requirement.", p.RemainingToMinimum))
	}

	if !p.MerchantRequirementMet && rule.MinMerchantCount > 0 {
		needed := rule.MinMerchantCount - p.MerchantCount
		recs = append(recs, fmt.Sprintf("Use %d more qualifying merchant(s) to meet the merchant requirement.", needed))
	}

	if p.MinSpendMet && p.MerchantRequirementMet && p.RemainingToCap != nil {
		if remaining := *p.RemainingToCap; remaining > 0 && remaining < nearCapThreshold {
			recs = append(recs, fmt.Sprintf("Only $%.2f left before you reach the bonus cap.", remaining))
		}
	}

	if p.Status == model.StatusSweetSpot && p.RemainingToCap != nil && *p.RemainingToCap > 0 {
		recs = append(recs, fmt.Sprintf("You can spend $%.2f more at qualifying merchants.", *p.RemainingToCap))
	}

	if p.Status == model.StatusOverCap && rule.MaxBonusSpend != nil {
		over := p.QualifyingSpend - *rule.MaxBonusSpend
		recs = append(recs, fmt.Sprintf("You have spent $%.2f over the bonus cap; the excess earns no bonus.", over))
	}

	return recs
}
