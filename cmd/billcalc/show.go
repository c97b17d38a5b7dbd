package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/billcalc/internal/calculator"
	"github.com/mmynk/billcalc/internal/cli"
	"github.com/mmynk/billcalc/internal/storage"
)

var flagTenant string

var showCmd = &cobra.Command{
	Use:   "show <calculator-id>",
	Short: "Render a calculator's items and totals",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a tenant's calculators with their grand totals",
	RunE:  runList,
}

func init() {
	for _, c := range []*cobra.Command{showCmd, listCmd} {
		c.Flags().StringVarP(&flagTenant, "tenant", "t", "", "Tenant (account) ID")
		_ = c.MarkFlagRequired("tenant")
		rootCmd.AddCommand(c)
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.GetCalculator(cmd.Context(), flagTenant, args[0])
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no calculator %s for tenant %s", args[0], flagTenant)
	}
	if err != nil {
		return err
	}
	calc, err := calculator.FromRecord(*rec)
	if err != nil {
		return fmt.Errorf("stored calculator is invalid: %w", err)
	}

	fmt.Println(cli.RenderCalculator(calc))
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.ListCalculators(cmd.Context(), flagTenant)
	if err != nil {
		return err
	}
	attending, err := store.AttendingCount(cmd.Context(), flagTenant)
	if err != nil {
		return err
	}

	table := cli.Table{
		Title:   fmt.Sprintf("Calculators (guest list: %s attending)", cli.FormatCount(attending)),
		Headers: []string{"ID", "Name", "Mode", "Guests", "Grand total"},
	}
	for _, rec := range recs {
		calc, err := calculator.FromRecord(*rec)
		if err != nil {
			logger.Warn("Skipping invalid calculator", "calculator_id", rec.ID, "error", err)
			continue
		}
		table.Rows = append(table.Rows, []string{
			calc.ID,
			calc.Name,
			calc.GuestCountMode().String(),
			cli.FormatCount(calc.GuestCount()),
			cli.FormatMoney(calc.GrandTotal()),
		})
	}
	fmt.Print(cli.RenderTable(table))
	return nil
}
