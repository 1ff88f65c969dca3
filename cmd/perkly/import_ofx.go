package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/marchweiss/perkly/internal/common"
	"github.com/marchweiss/perkly/internal/ofx"
)

func txImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <card-id> <file.ofx>",
		Short: "Import transactions from an OFX/QFX statement file",
		Args:  cobra.ExactArgs(2),
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

			file, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open statement file: %w", err)
			}
			defer func() { _ = file.Close() }()

			parser := ofx.NewParser()
			txns, err := parser.ParseFile(file, card.ID)
			if err != nil {
				return fmt.Errorf("failed to parse statement: %w", err)
			}

			if len(txns) == 0 {
				return common.NewUserError(fmt.Sprintf("statement %s", args[1]), common.ErrNoTransactions)
			}

			bar := progressbar.Default(int64(len(txns)), "importing")
			const batchSize = 100
			for start := 0; start < len(txns); start += batchSize {
				end := min(start+batchSize, len(txns))
				if err := db.SaveTransactions(ctx, txns[start:end]); err != nil {
					return fmt.Errorf("failed to save transactions: %w", err)
				}
				_ = bar.Add(end - start)
			}
			_ = bar.Finish()

			payments := 0
			for _, txn := range txns {
				if txn.IsPayment {
					payments++
				}
			}

			common.LogInfo("✓ Import complete", common.Fields{
				"card":         card.Name,
				"transactions": len(txns),
				"payments":     payments,
			})
			return nil
		},
	}

	return cmd
}
