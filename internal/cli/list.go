package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/ledger"
)

// Listable record kinds, as accepted by list.
var listKinds = []string{"transactions", "budgets", "recurring"}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <transactions|budgets|recurring>",
		Short: "List records of one kind",
		Long: `List every record of one kind.

Transactions are ordered by date, budgets by category and recurring
obligations by next due date.

Examples:
  ledger list transactions
  ledger list budgets --format json`,
		Args:          cobra.ExactArgs(1),
		ValidArgs:     listKinds,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, rootOpts, args[0])
		},
	}
}

func runList(cmd *cobra.Command, opts *RootOptions, kind string) error {
	formatter := newFormatter(cmd, opts)

	lister, ok := listers[kind]
	if !ok {
		return formatter.fail(ExitCommandError, CodeInvalid,
			fmt.Sprintf("unknown kind %q: must be one of %v", kind, listKinds), nil)
	}

	app, closeApp, err := openApp(cmd, opts)
	if err != nil {
		return formatter.fail(ExitCommandError, CodeConfig, "failed to open ledger", err)
	}
	defer closeApp()

	data, render, err := lister(commandContext(cmd), app.Ledger)
	if err != nil {
		return failLedger(formatter, "failed to list "+kind, err)
	}
	formatter.VerboseLog("listed %s", kind)
	return formatter.Success(data, render)
}

type lister func(ctx context.Context, repo *ledger.Repository) (any, func(io.Writer) error, error)

var listers = map[string]lister{
	"transactions": func(ctx context.Context, repo *ledger.Repository) (any, func(io.Writer) error, error) {
		txns, err := repo.Transactions(ctx)
		if err != nil {
			return nil, nil, err
		}
		return txns, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tPAYEE\tAMOUNT\tCATEGORY\tID")
			for _, t := range txns {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					t.Date.Format(DateLayout), t.Payee, formatAmount(t.Amount), t.Category, t.ID)
			}
			return tw.Flush()
		}, nil
	},
	"budgets": func(ctx context.Context, repo *ledger.Repository) (any, func(io.Writer) error, error) {
		budgets, err := repo.Budgets(ctx)
		if err != nil {
			return nil, nil, err
		}
		return budgets, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "CATEGORY\tLIMIT\tPERIOD")
			for _, b := range budgets {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", b.Category, formatAmount(b.Limit), b.Period)
			}
			return tw.Flush()
		}, nil
	},
	"recurring": func(ctx context.Context, repo *ledger.Repository) (any, func(io.Writer) error, error) {
		recs, err := repo.Recurrings(ctx)
		if err != nil {
			return nil, nil, err
		}
		return recs, func(w io.Writer) error {
			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NEXT DUE\tPAYEE\tAMOUNT\tINTERVAL\tID")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.NextDue.Format(DateLayout), r.Payee, formatAmount(r.Amount), r.Interval, r.ID)
			}
			return tw.Flush()
		}, nil
	},
}
