package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rolltide/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	Ledger string
	Limit  int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List builds recorded in the ledger",
		Long: `List builds recorded by "build --db", newest first.

The ledger path comes from --db or the manifest's ledger setting.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Ledger, "db", "", "build ledger database")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of builds to list (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, rootOpts *RootOptions, opts *HistoryOptions) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	m, err := loadManifest(rootOpts)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}
	var mLedger string
	if m != nil {
		mLedger = m.Ledger
	}
	path := pick(cmd, "db", opts.Ledger, mLedger, "")
	if path == "" {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, "no ledger: pass --db or set ledger in the manifest", nil)
	}
	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("invalid limit %d: must not be negative", opts.Limit), nil)
	}

	// Opening would create an empty database; a typo should not.
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return formatter.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("ledger not found: %s", path), nil)
	}

	st, err := store.Open(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, err.Error(), nil)
	}
	defer st.Close()

	builds, err := st.ListBuilds(cmd.Context(), opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeLedger, err.Error(), nil)
	}

	if rootOpts.Format == "json" {
		return formatter.Success(builds)
	}
	return formatter.Success(formatHistoryText(builds))
}

func formatHistoryText(builds []store.Build) string {
	if len(builds) == 0 {
		return "No builds recorded"
	}
	var sb strings.Builder
	for i, b := range builds {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "#%d %s  %-4s  %d module(s)  %d artifact(s)  %s  %s",
			b.Seq, b.ID, b.Target, b.ModuleCount, len(b.Artifacts), shortDigest(b.IRDigest), b.OutDir)
	}
	return sb.String()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
