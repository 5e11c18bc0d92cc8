package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/access"
	"github.com/roach88/ledger/internal/bootstrap"
	"github.com/roach88/ledger/internal/store"
)

// InitResult is the output of the init command.
type InitResult struct {
	Database string         `json:"database"`
	Policy   string         `json:"policy"`
	Records  map[string]int `json:"records"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and report its contents",
		Long: `Create the ledger database if it does not exist, apply the schema
and print how many records of each kind it holds.

Examples:
  ledger init --db ./ledger.db
  ledger init --config ./ledger.yaml --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, rootOpts)
		},
	}
}

func runInit(cmd *cobra.Command, opts *RootOptions) error {
	formatter := newFormatter(cmd, opts)

	app, closeApp, err := openApp(cmd, opts)
	if err != nil {
		return formatter.fail(ExitCommandError, CodeConfig, "failed to open ledger", err)
	}
	defer closeApp()

	ctx := commandContext(cmd)
	counts, err := access.Read(ctx, bootstrap.Access(), func(tx *store.Tx) (map[string]int, error) {
		kinds, err := tx.Kinds(ctx)
		if err != nil {
			return nil, err
		}
		out := make(map[string]int, len(kinds))
		for _, kind := range kinds {
			n, err := tx.Count(ctx, kind)
			if err != nil {
				return nil, err
			}
			out[kind] = n
		}
		return out, nil
	})
	if err != nil {
		return formatter.fail(ExitCommandError, CodeStore, "failed to read database", err)
	}

	result := InitResult{
		Database: app.Store.Path(),
		Policy:   app.Controller.Policy().String(),
		Records:  counts,
	}
	return formatter.Success(result, func(w io.Writer) error {
		fmt.Fprintf(w, "Database ready: %s (policy %s)\n", result.Database, result.Policy)
		kinds := make([]string, 0, len(counts))
		for kind := range counts {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %-12s %d\n", kind, counts[kind])
		}
		return nil
	})
}
