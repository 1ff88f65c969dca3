package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marchweiss/perkly/internal/cli"
	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/reward"
)

func progressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress <card-id>",
		Short: "Show reward qualification progress for a card",
		Long: `Compute how much of a billing period's spend qualifies under the card's
active bonus rule, whether the thresholds are met, the estimated reward,
and what to do next. Defaults to the current calendar month.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			period := reward.CurrentPeriod()
			if periodStr, _ := cmd.Flags().GetString("period"); periodStr != "" {
				parsed, err := reward.ParsePeriod(periodStr)
				if err != nil {
					return err
				}
				period = parsed
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			card, err := db.GetCard(ctx, args[0])
			if err != nil {
				return fmt.Errorf("card %s not found", args[0])
			}

			engine := reward.NewEngine(db, db)
			progress, err := engine.ProgressForCard(ctx, card.ID, period)
			if err != nil {
				return err
			}

			if progress == nil {
				fmt.Printf("%s has no active bonus rule for %s.\n", card.Name, period)
				fmt.Println(cli.SubtleStyle.Render("Activate one with 'perkly rules toggle' or apply a template."))
				return nil
			}

			fmt.Println(renderProgress(card, progress))
			return nil
		},
	}

	cmd.Flags().StringP("period", "p", "", "Billing period (YYYY-MM, default current month)")

	return cmd
}

// renderProgress formats a progress report for the terminal.
func renderProgress(card *model.Card, p *model.Progress) string {
	var b strings.Builder

	b.WriteString(cli.TitleStyle.Render(fmt.Sprintf("%s — %s (%s)", card.Name, p.RuleName, p.Period)))
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("%s %s\n\n", cli.BoldStyle.Render("Status:"), renderStatus(p.Status)))

	b.WriteString(fmt.Sprintf("  Total spend        $%.2f\n", p.TotalSpend))
	b.WriteString(fmt.Sprintf("  Qualifying spend   $%.2f\n", p.QualifyingSpend))
	b.WriteString(fmt.Sprintf("  Non-qualifying     $%.2f\n", p.NonQualifyingSpend))
	if len(p.MerchantsUsed) > 0 {
		b.WriteString(fmt.Sprintf("  Merchants used     %s\n", strings.Join(p.MerchantsUsed, ", ")))
	}

	b.WriteString(fmt.Sprintf("  Minimum spend met  %s", renderBool(p.MinSpendMet)))
	if !p.MinSpendMet {
		b.WriteString(fmt.Sprintf("  ($%.2f to go)", p.RemainingToMinimum))
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Merchant count met %s\n", renderBool(p.MerchantRequirementMet)))

	if p.RemainingToCap != nil {
		b.WriteString(fmt.Sprintf("  Remaining to cap   $%.2f\n", *p.RemainingToCap))
	} else {
		b.WriteString("  Remaining to cap   uncapped\n")
	}

	b.WriteString(fmt.Sprintf("\n  Estimated bonus    %.2f %s\n", p.EstimatedBonus, p.RewardUnit))
	if p.EstimatedMiles != nil {
		b.WriteString(fmt.Sprintf("  Estimated miles    %.0f\n", *p.EstimatedMiles))
	}

	if len(p.Recommendations) > 0 {
		b.WriteString("\n")
		for _, rec := range p.Recommendations {
			b.WriteString("  • " + rec + "\n")
		}
	}

	return cli.BoxStyle.Render(b.String())
}

func renderStatus(status model.ProgressStatus) string {
	switch status {
	case model.StatusSweetSpot:
		return cli.SuccessStyle.Render("in the sweet spot")
	case model.StatusAtCap:
		return cli.WarningStyle.Render("at the bonus cap")
	case model.StatusOverCap:
		return cli.ErrorStyle.Render("over the bonus cap")
	case model.StatusBelowMinimum:
		return cli.WarningStyle.Render("below minimum spend")
	case model.StatusInactive:
		return cli.SubtleStyle.Render("rule inactive")
	}
	return string(status)
}

func renderBool(ok bool) string {
	if ok {
		return cli.SuccessStyle.Render("yes")
	}
	return cli.ErrorStyle.Render("no")
}
