package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/marchweiss/perkly/internal/model"
	"github.com/marchweiss/perkly/internal/reward"
	"github.com/marchweiss/perkly/internal/service"
)

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transactions"},
		Short:   "Manage card transactions",
	}

	cmd.AddCommand(txAddCmd())
	cmd.AddCommand(txListCmd())
	cmd.AddCommand(txImportCmd())

	return cmd
}

func txAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <card-id>",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			description, _ := cmd.Flags().GetString("description")
			amount, _ := cmd.Flags().GetFloat64("amount")
			dateStr, _ := cmd.Flags().GetString("date")
			category, _ := cmd.Flags().GetString("category")
			isPayment, _ := cmd.Flags().GetBool("payment")

			if amount < 0 {
				return fmt.Errorf("amount must be non-negative (use --payment for payments)")
			}

			date := time.Now()
			if dateStr != "" {
				parsed, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", dateStr)
				}
				date = parsed
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

			txn := model.Transaction{
				CardID:      card.ID,
				Date:        date,
				Description: description,
				Amount:      amount,
				Category:    category,
				IsPayment:   isPayment,
			}
			if err := db.SaveTransactions(ctx, []model.Transaction{txn}); err != nil {
				return fmt.Errorf("failed to save transaction: %w", err)
			}

			slog.Info("✓ Transaction recorded",
				"card", card.Name,
				"description", description,
				"amount", fmt.Sprintf("%.2f", amount))
			return nil
		},
	}

	cmd.Flags().StringP("description", "d", "", "Transaction description (required)")
	cmd.Flags().Float64P("amount", "a", 0, "Transaction amount (required)")
	cmd.Flags().String("date", "", "Transaction date (YYYY-MM-DD, default today)")
	cmd.Flags().StringP("category", "c", "", "Category label")
	cmd.Flags().Bool("payment", false, "Mark as a payment toward the card balance")

	if err := cmd.MarkFlagRequired("description"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}
	if err := cmd.MarkFlagRequired("amount"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	return cmd
}

func txListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <card-id>",
		Short: "List a card's transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			periodStr, _ := cmd.Flags().GetString("period")
			limit, _ := cmd.Flags().GetInt("limit")

			db, cleanup, err := getDatabase(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			filter := service.TransactionFilter{Limit: limit}
			if periodStr != "" {
				period, err := reward.ParsePeriod(periodStr)
				if err != nil {
					return err
				}
				start, end := period.Bounds()
				filter.StartDate = &start
				filter.EndDate = &end
			}

			txns, err := db.GetTransactionsByCard(ctx, args[0], filter)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			if len(txns) == 0 {
				slog.Info("No transactions found")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "DATE\tDESCRIPTION\tCATEGORY\tAMOUNT\tTYPE")
			for _, txn := range txns {
				kind := "spend"
				if txn.IsPayment {
					kind = "payment"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n",
					txn.Date.Format("2006-01-02"),
					truncateString(txn.Description, 40),
					txn.Category,
					txn.Amount,
					kind)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringP("period", "p", "", "Restrict to a billing period (YYYY-MM)")
	cmd.Flags().IntP("limit", "n", 0, "Maximum number of transactions to show")

	return cmd
}
