package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/marchweiss/perkly/internal/model"
)

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cards",
		Aliases: []string{"card"},
		Short:   "Manage tracked credit cards",
	}

	cmd.AddCommand(cardsListCmd())
	cmd.AddCommand(cardsAddCmd())
	cmd.AddCommand(cardsRemoveCmd())

	return cmd
}

func cardsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked cards",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			cards, err := db.GetCards(ctx)
			if err != nil {
				return fmt.Errorf("failed to list cards: %w", err)
			}

			if len(cards) == 0 {
				slog.Info("No cards yet; add one with 'perkly cards add'")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tISSUER\tLAST FOUR\tACTIVE RULE")
			for _, card := range cards {
				rule, err := db.GetActiveRuleForCard(ctx, card.ID)
				if err != nil {
					return err
				}
				ruleName := "-"
				if rule != nil {
					ruleName = rule.Name
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					card.ID, truncateString(card.Name, 30), card.Issuer, card.LastFour, ruleName)
			}

			return w.Flush()
		},
	}
}

func cardsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			issuer, _ := cmd.Flags().GetString("issuer")
			lastFour, _ := cmd.Flags().GetString("last-four")

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			card := &model.Card{
				Name:     strings.TrimSpace(args[0]),
				Issuer:   issuer,
				LastFour: lastFour,
			}
			if err := db.CreateCard(ctx, card); err != nil {
				return fmt.Errorf("failed to add card: %w", err)
			}

			slog.Info("✓ Card added", "id", card.ID, "name", card.Name)
			return nil
		},
	}

	cmd.Flags().StringP("issuer", "i", "", "Issuing bank")
	cmd.Flags().StringP("last-four", "l", "", "Last four digits of the card number")

	return cmd
}

func cardsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a card and all its rules and transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

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
				fmt.Printf("Delete card %q and all its data? (y/N): ", card.Name)
				var response string
				_, _ = fmt.Scanln(&response)
				if r := strings.ToLower(response); r != "y" && r != "yes" {
					slog.Info("Deletion canceled")
					return nil
				}
			}

			if err := db.DeleteCard(ctx, card.ID); err != nil {
				return fmt.Errorf("failed to remove card: %w", err)
			}

			slog.Info("Card removed", "id", card.ID, "name", card.Name)
			return nil
		},
	}

	cmd.Flags().BoolP("force", "f", false, "Skip confirmation prompt")
	return cmd
}
