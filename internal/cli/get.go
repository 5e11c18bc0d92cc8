package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <transaction|budget> <id>",
		Short: "Show one transaction or budget",
		Long: `Show a single record. Transactions are looked up by id, budgets by
category.

Examples:
  ledger get transaction 0192f1d2-7c1a-7b4e-9a51-3c9d2e1f0a11
  ledger get budget food --format json`,
		Args:          cobra.ExactArgs(2),
		ValidArgs:     []string{"transaction", "budget"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd, rootOpts, args[0], args[1])
		},
	}
}

func runGet(cmd *cobra.Command, opts *RootOptions, kind, id string) error {
	formatter := newFormatter(cmd, opts)

	if kind != "transaction" && kind != "budget" {
		return formatter.fail(ExitCommandError, CodeInvalid,
			fmt.Sprintf("unknown kind %q: must be transaction or budget", kind), nil)
	}

	app, closeApp, err := openApp(cmd, opts)
	if err != nil {
		return formatter.fail(ExitCommandError, CodeConfig, "failed to open ledger", err)
	}
	defer closeApp()

	ctx := commandContext(cmd)
	switch kind {
	case "transaction":
		t, err := app.Ledger.Transaction(ctx, id)
		if err != nil {
			return failLedger(formatter, fmt.Sprintf("transaction %s", id), err)
		}
		return formatter.Success(t, func(w io.Writer) error {
			fmt.Fprintf(w, "ID:       %s\n", t.ID)
			fmt.Fprintf(w, "Date:     %s\n", t.Date.Format(DateLayout))
			fmt.Fprintf(w, "Payee:    %s\n", t.Payee)
			fmt.Fprintf(w, "Amount:   %s\n", formatAmount(t.Amount))
			if t.Category != "" {
				fmt.Fprintf(w, "Category: %s\n", t.Category)
			}
			if t.Memo != "" {
				fmt.Fprintf(w, "Memo:     %s\n", t.Memo)
			}
			return nil
		})
	default:
		b, err := app.Ledger.Budget(ctx, id)
		if err != nil {
			return failLedger(formatter, fmt.Sprintf("budget %s", id), err)
		}
		return formatter.Success(b, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Budget %s: %s per %s\n", b.Category, formatAmount(b.Limit), b.Period)
			return err
		})
	}
}
