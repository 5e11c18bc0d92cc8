package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/ledger"
	"github.com/roach88/ledger/internal/store"
)

// DateLayout is the date format accepted and printed by the CLI.
const DateLayout = "2006-01-02"

// NewAddCommand creates the add command and its record subcommands.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a transaction, budget or recurring obligation",
		Long: `Add a record. Amounts are in minor units (cents); negative amounts are
outflows.

Examples:
  ledger add transaction --payee "Corner Cafe" --amount -450 --category food
  ledger add budget --category food --limit 40000
  ledger add recurring --payee Landlord --amount -120000 --next-due 2026-11-01`,
	}

	cmd.AddCommand(newAddTransactionCommand(rootOpts))
	cmd.AddCommand(newAddBudgetCommand(rootOpts))
	cmd.AddCommand(newAddRecurringCommand(rootOpts))
	return cmd
}

type addTransactionOptions struct {
	ID       string
	Date     string
	Payee    string
	Amount   int64
	Category string
	Memo     string
}

func newAddTransactionCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &addTransactionOptions{}

	cmd := &cobra.Command{
		Use:           "transaction",
		Aliases:       []string{"txn"},
		Short:         "Record a transaction",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)

			date, err := parseDate(opts.Date)
			if err != nil {
				return formatter.fail(ExitCommandError, CodeInvalid, "invalid --date", err)
			}

			app, closeApp, err := openApp(cmd, rootOpts)
			if err != nil {
				return formatter.fail(ExitCommandError, CodeConfig, "failed to open ledger", err)
			}
			defer closeApp()

			t, err := app.Ledger.AddTransaction(commandContext(cmd), ledger.Transaction{
				ID:       opts.ID,
				Date:     date,
				Payee:    opts.Payee,
				Amount:   opts.Amount,
				Category: opts.Category,
				Memo:     opts.Memo,
			})
			if err != nil {
				return failLedger(formatter, "failed to add transaction", err)
			}
			return formatter.Success(t, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added transaction %s: %s %s\n", t.ID, t.Payee, formatAmount(t.Amount))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "transaction id (default: generated)")
	cmd.Flags().StringVar(&opts.Date, "date", "", "transaction date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&opts.Payee, "payee", "", "payee (required)")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "amount in minor units (required)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category")
	cmd.Flags().StringVar(&opts.Memo, "memo", "", "free-form note")
	_ = cmd.MarkFlagRequired("payee")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func newAddBudgetCommand(rootOpts *RootOptions) *cobra.Command {
	var b ledger.Budget

	cmd := &cobra.Command{
		Use:           "budget",
		Short:         "Create or replace a category budget",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)

			app, closeApp, err := openApp(cmd, rootOpts)
			if err != nil {
				return formatter.fail(ExitCommandError, CodeConfig, "failed to open ledger", err)
			}
			defer closeApp()

			if err := app.Ledger.SetBudget(commandContext(cmd), b); err != nil {
				return failLedger(formatter, "failed to set budget", err)
			}
			return formatter.Success(b, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Budget %s: %s per %s\n", b.Category, formatAmount(b.Limit), b.Period)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&b.Category, "category", "", "category (required)")
	cmd.Flags().Int64Var(&b.Limit, "limit", 0, "limit in minor units (required)")
	cmd.Flags().StringVar(&b.Period, "period", "monthly", "budget period")
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("limit")

	return cmd
}

type addRecurringOptions struct {
	Payee    string
	Amount   int64
	Interval string
	NextDue  string
	Category string
}

func newAddRecurringCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &addRecurringOptions{}

	cmd := &cobra.Command{
		Use:           "recurring",
		Short:         "Record a recurring obligation",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(cmd, rootOpts)

			due, err := parseDate(opts.NextDue)
			if err != nil {
				return formatter.fail(ExitCommandError, CodeInvalid, "invalid --next-due", err)
			}

			app, closeApp, err := openApp(cmd, rootOpts)
			if err != nil {
				return formatter.fail(ExitCommandError, CodeConfig, "failed to open ledger", err)
			}
			defer closeApp()

			rec, err := app.Ledger.AddRecurring(commandContext(cmd), ledger.Recurring{
				Payee:    opts.Payee,
				Amount:   opts.Amount,
				Interval: opts.Interval,
				NextDue:  due,
				Category: opts.Category,
			})
			if err != nil {
				return failLedger(formatter, "failed to add recurring obligation", err)
			}
			return formatter.Success(rec, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added recurring %s: %s %s %s, next due %s\n",
					rec.ID, rec.Payee, formatAmount(rec.Amount), rec.Interval, rec.NextDue.Format(DateLayout))
				return err
			})
		},
	}

	cmd.Flags().StringVar(&opts.Payee, "payee", "", "payee (required)")
	cmd.Flags().Int64Var(&opts.Amount, "amount", 0, "amount in minor units (required)")
	cmd.Flags().StringVar(&opts.Interval, "interval", "monthly", "repeat interval")
	cmd.Flags().StringVar(&opts.NextDue, "next-due", "", "next due date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.Category, "category", "", "category")
	_ = cmd.MarkFlagRequired("payee")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("next-due")

	return cmd
}

// parseDate parses YYYY-MM-DD in UTC. Empty means today.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// failLedger maps repository errors to CLI exit codes.
func failLedger(formatter *OutputFormatter, message string, err error) error {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return formatter.fail(ExitFailure, CodeNotFound, message, err)
	case errors.Is(err, ledger.ErrInvalid), errors.Is(err, store.ErrVersionConflict):
		return formatter.fail(ExitFailure, CodeInvalid, message, err)
	default:
		return formatter.fail(ExitCommandError, CodeStore, message, err)
	}
}
