package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/marchweiss/perkly/internal/config"
	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/profile"
	"github.com/marchweiss/perkly/internal/service"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rules",
		Aliases: []string{"rule"},
		Short:   "Manage bonus-reward rules",
		Long: `Manage the bonus-reward rules that decide how much of a card's spend
qualifies for bonus rewards in a billing period.`,
	}

	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesShowCmd())
	cmd.AddCommand(rulesCreateCmd())
	cmd.AddCommand(rulesEditCmd())
	cmd.AddCommand(rulesDeleteCmd())
	cmd.AddCommand(rulesToggleCmd())
	cmd.AddCommand(rulesMerchantsCmd())
	cmd.AddCommand(rulesTemplatesCmd())
	cmd.AddCommand(rulesApplyCmd())

	return cmd
}

func rulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <card-id>",
		Short: "List a card's bonus rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rules, err := db.GetRulesForCard(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to get bonus rules: %w", err)
			}

			if len(rules) == 0 {
				slog.Info("No bonus rules found for card", "card", args[0])
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tACTIVE\tMIN SPEND\tCAP\tRATE\tUNIT")
			for _, rule := range rules {
				cap := "uncapped"
				if rule.MaxBonusSpend != nil {
					cap = fmt.Sprintf("%.2f", *rule.MaxBonusSpend)
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%t\t%.2f\t%s\t%.2f%%\t%s\n",
					rule.ID,
					truncateString(rule.Name, 30),
					rule.IsActive,
					rule.MinSpend,
					cap,
					rule.BonusRate*100,
					rule.RewardUnit)
			}

			return w.Flush()
		},
	}
}

func rulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <rule-id>",
		Short: "Show bonus rule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := db.GetRule(ctx, args[0])
			if err != nil {
				return fmt.Errorf("bonus rule %s not found", args[0])
			}

			slog.Info("Bonus Rule Details:")
			slog.Info("  ID", "id", rule.ID)
			slog.Info("  Card", "card", rule.CardID)
			slog.Info("  Name", "name", rule.Name)
			slog.Info("  Active", "active", rule.IsActive)
			slog.Info("  Min Spend", "amount", fmt.Sprintf("%.2f", rule.MinSpend))
			if rule.MaxBonusSpend != nil {
				slog.Info("  Bonus Cap", "amount", fmt.Sprintf("%.2f", *rule.MaxBonusSpend))
			} else {
				slog.Info("  Bonus Cap", "amount", "uncapped")
			}
			slog.Info("  Min Merchants", "count", rule.MinMerchantCount)
			slog.Info("  Match Mode", "mode", rule.MerchantMatchMode)
			slog.Info("  Merchants", "merchants", strings.Join(rule.QualifyingMerchants, ", "))
			slog.Info("  Categories", "categories", strings.Join(rule.QualifyingCategories, ", "))
			slog.Info("  Exclude Keywords", "keywords", strings.Join(rule.ExcludeKeywords, ", "))
			slog.Info("  Bonus Rate", "rate", fmt.Sprintf("%.2f%%", rule.BonusRate*100))
			slog.Info("  Base Rate", "rate", fmt.Sprintf("%.2f%%", rule.BaseRate*100))
			slog.Info("  Reward Unit", "unit", rule.RewardUnit)
			if rule.MilesPerDollar != nil {
				slog.Info("  Miles/Dollar", "rate", fmt.Sprintf("%.2f", *rule.MilesPerDollar))
			}
			if rule.PointsToMilesRatio != nil {
				slog.Info("  Points/Mile", "ratio", fmt.Sprintf("%.2f", *rule.PointsToMilesRatio))
			}
			slog.Info("  Created", "date", rule.CreatedAt.Format("2006-01-02 15:04:05"))
			slog.Info("  Updated", "date", rule.UpdatedAt.Format("2006-01-02 15:04:05"))

			return nil
		},
	}
}

func rulesCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <card-id>",
		Short: "Create a bonus rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name, _ := cmd.Flags().GetString("name")
			mode, _ := cmd.Flags().GetString("match-mode")
			unit, _ := cmd.Flags().GetString("unit")
			merchants, _ := cmd.Flags().GetStringSlice("merchant")
			categories, _ := cmd.Flags().GetStringSlice("category")
			keywords, _ := cmd.Flags().GetStringSlice("exclude")
			minSpend, _ := cmd.Flags().GetFloat64("min-spend")
			minMerchants, _ := cmd.Flags().GetInt("min-merchants")
			bonusRate, _ := cmd.Flags().GetFloat64("bonus-rate")
			baseRate, _ := cmd.Flags().GetFloat64("base-rate")
			activate, _ := cmd.Flags().GetBool("activate")

			rule := &model.BonusRule{
				CardID:               args[0],
				Name:                 name,
				IsActive:             activate,
				MinSpend:             minSpend,
				MinMerchantCount:     minMerchants,
				MerchantMatchMode:    model.MatchMode(mode),
				QualifyingMerchants:  merchants,
				QualifyingCategories: categories,
				ExcludeKeywords:      keywords,
				ExcludePayments:      true,
				BonusRate:            bonusRate / 100.0, // flag is a percentage
				BaseRate:             baseRate / 100.0,
				RewardUnit:           model.RewardUnit(unit),
			}

			if cmd.Flags().Changed("cap") {
				cap, _ := cmd.Flags().GetFloat64("cap")
				rule.MaxBonusSpend = &cap
			}
			if cmd.Flags().Changed("miles-per-dollar") {
				mpd, _ := cmd.Flags().GetFloat64("miles-per-dollar")
				rule.MilesPerDollar = &mpd
			}
			if cmd.Flags().Changed("points-to-miles") {
				ratio, _ := cmd.Flags().GetFloat64("points-to-miles")
				rule.PointsToMilesRatio = &ratio
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := db.GetCard(ctx, rule.CardID); err != nil {
				return fmt.Errorf("card %s not found", rule.CardID)
			}

			if err := db.CreateRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create bonus rule: %w", err)
			}

			slog.Info("✓ Bonus rule created",
				"id", rule.ID,
				"name", rule.Name,
				"active", rule.IsActive)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Name for the rule (required)")
	cmd.Flags().String("match-mode", "contains", "Merchant match mode (exact, contains, regex)")
	cmd.Flags().StringP("unit", "u", "cashback", "Reward unit (cashback, points, miles)")
	cmd.Flags().StringSliceP("merchant", "m", nil, "Qualifying merchant match string (repeatable)")
	cmd.Flags().StringSliceP("category", "c", nil, "Qualifying category label (repeatable)")
	cmd.Flags().StringSliceP("exclude", "x", nil, "Exclusion keyword (repeatable)")
	cmd.Flags().Float64("min-spend", 0, "Minimum total spend for the bonus to apply")
	cmd.Flags().Float64("cap", 0, "Maximum bonus-earning spend (omit for uncapped)")
	cmd.Flags().Int("min-merchants", 0, "Minimum distinct qualifying merchants")
	cmd.Flags().Float64("bonus-rate", 0, "Bonus reward rate as a percentage (required)")
	cmd.Flags().Float64("base-rate", 0, "Base reward rate as a percentage")
	cmd.Flags().Float64("miles-per-dollar", 0, "Direct miles multiplier")
	cmd.Flags().Float64("points-to-miles", 0, "Points needed per mile")
	cmd.Flags().BoolP("activate", "a", false, "Activate the rule immediately")

	if err := cmd.MarkFlagRequired("name"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}
	if err := cmd.MarkFlagRequired("bonus-rate"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	return cmd
}

func rulesEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <rule-id>",
		Short: "Edit a bonus rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var update service.RuleUpdate
			changed := false

			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				update.Name = &name
				changed = true
			}
			if cmd.Flags().Changed("min-spend") {
				minSpend, _ := cmd.Flags().GetFloat64("min-spend")
				update.MinSpend = &minSpend
				changed = true
			}
			if cmd.Flags().Changed("cap") {
				cap, _ := cmd.Flags().GetFloat64("cap")
				update.MaxBonusSpend = &cap
				changed = true
			}
			if cmd.Flags().Changed("uncapped") {
				update.ClearMaxBonusSpend = true
				changed = true
			}
			if cmd.Flags().Changed("min-merchants") {
				count, _ := cmd.Flags().GetInt("min-merchants")
				update.MinMerchantCount = &count
				changed = true
			}
			if cmd.Flags().Changed("match-mode") {
				modeStr, _ := cmd.Flags().GetString("match-mode")
				mode := model.MatchMode(modeStr)
				update.MerchantMatchMode = &mode
				changed = true
			}
			if cmd.Flags().Changed("bonus-rate") {
				rate, _ := cmd.Flags().GetFloat64("bonus-rate")
				rate /= 100.0
				update.BonusRate = &rate
				changed = true
			}
			if cmd.Flags().Changed("base-rate") {
				rate, _ := cmd.Flags().GetFloat64("base-rate")
				rate /= 100.0
				update.BaseRate = &rate
				changed = true
			}
			if cmd.Flags().Changed("unit") {
				unitStr, _ := cmd.Flags().GetString("unit")
				unit := model.RewardUnit(unitStr)
				update.RewardUnit = &unit
				changed = true
			}
			if cmd.Flags().Changed("exclude") {
				keywords, _ := cmd.Flags().GetStringSlice("exclude")
				update.ExcludeKeywords = keywords
				changed = true
			}

			if !changed {
				slog.Info("No changes specified")
				return nil
			}

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := db.UpdateRule(ctx, args[0], update)
			if err != nil {
				return fmt.Errorf("failed to update bonus rule: %w", err)
			}

			slog.Info("✓ Bonus rule updated", "id", rule.ID, "name", rule.Name)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "New name")
	cmd.Flags().Float64("min-spend", 0, "New minimum total spend")
	cmd.Flags().Float64("cap", 0, "New bonus cap")
	cmd.Flags().Bool("uncapped", false, "Remove the bonus cap")
	cmd.Flags().Int("min-merchants", 0, "New minimum distinct merchants")
	cmd.Flags().String("match-mode", "", "New merchant match mode")
	cmd.Flags().Float64("bonus-rate", 0, "New bonus rate (percentage)")
	cmd.Flags().Float64("base-rate", 0, "New base rate (percentage)")
	cmd.Flags().StringP("unit", "u", "", "New reward unit")
	cmd.Flags().StringSliceP("exclude", "x", nil, "Replace exclusion keywords")

	return cmd
}

func rulesDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <rule-id>",
		Short: "Delete a bonus rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := db.GetRule(ctx, args[0])
			if err != nil {
				return fmt.Errorf("bonus rule %s not found", args[0])
			}

			force, _ := cmd.Flags().GetBool("force")
			if !force {
				fmt.Printf("Delete bonus rule %q? (y/N): ", rule.Name)
				var response string
				_, _ = fmt.Scanln(&response)
				if r := strings.ToLower(response); r != "y" && r != "yes" {
					slog.Info("Deletion canceled")
					return nil
				}
			}

			if err := db.DeleteRule(ctx, rule.ID); err != nil {
				return fmt.Errorf("failed to delete bonus rule: %w", err)
			}

			slog.Info("Bonus rule deleted", "id", rule.ID, "name", rule.Name)
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	return cmd
}

func rulesToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <rule-id>",
		Short: "Activate or deactivate a bonus rule",
		Long: `Flip a rule's activation flag. A card can have at most one active rule;
activating a rule while another is active on the same card is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			rule, err := db.ToggleRuleActive(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to toggle bonus rule: %w", err)
			}

			state := "deactivated"
			if rule.IsActive {
				state = "activated"
			}
			slog.Info("✓ Bonus rule "+state, "id", rule.ID, "name", rule.Name)
			return nil
		},
	}
}

func rulesMerchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Edit a rule's qualifying merchant list",
	}

	add := &cobra.Command{
		Use:   "add <rule-id> <merchant>",
		Short: "Add a merchant match string (no-op if already present)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.AddRuleMerchant(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to add merchant: %w", err)
			}

			slog.Info("✓ Merchant added", "rule", args[0], "merchant", args[1])
			return nil
		},
	}

	remove := &cobra.Command{
		Use:   "remove <rule-id> <merchant>",
		Short: "Remove a merchant match string (exact, case-sensitive)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := db.RemoveRuleMerchant(ctx, args[0], args[1]); err != nil {
				return fmt.Errorf("failed to remove merchant: %w", err)
			}

			slog.Info("✓ Merchant removed", "rule", args[0], "merchant", args[1])
			return nil
		},
	}

	cmd.AddCommand(add, remove)
	return cmd
}

func rulesTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List known card reward profile templates",
		RunE: func(_ *cobra.Command, _ []string) error {
			catalog, err := loadCatalog()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "KEY\tBANK\tCARD\tRULES")
			for _, tmpl := range catalog.Templates() {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", tmpl.Key, tmpl.Bank, tmpl.Card, len(tmpl.Rules))
			}

			return w.Flush()
		},
	}
}

func rulesApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <card-id> <template-key>",
		Short: "Apply a profile template to a card",
		Long: `Replace ALL of the card's bonus rules with the template's rules. This is
a destructive replace, not a merge; existing rules are deleted.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			catalog, err := loadCatalog()
			if err != nil {
				return err
			}

			tmpl, ok := catalog.Get(args[1])
			if !ok {
				return fmt.Errorf("unknown template %q; see 'perkly rules templates'", args[1])
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

			force, _ := cmd.Flags().GetBool("force")
			if !force {
				fmt.Printf("Replace all rules on %q with template %q? (y/N): ", card.Name, tmpl.Card)
				var response string
				_, _ = fmt.Scanln(&response)
				if r := strings.ToLower(response); r != "y" && r != "yes" {
					slog.Info("Apply canceled")
					return nil
				}
			}

			rules := tmpl.BonusRules(card.ID)
			if err := db.ReplaceRulesForCard(ctx, card.ID, rules); err != nil {
				return fmt.Errorf("failed to apply template: %w", err)
			}

			slog.Info("✓ Template applied",
				"card", card.Name,
				"template", tmpl.Key,
				"rules", len(rules))
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	return cmd
}

// loadCatalog returns the user-configured catalog if one is set, falling
// back to the catalog embedded in the binary.
func loadCatalog() (*profile.Catalog, error) {
	if path := viper.GetString("profiles.catalog"); path != "" {
		return profile.LoadCatalogFile(config.ExpandPath(path))
	}
	return profile.DefaultCatalog()
}
