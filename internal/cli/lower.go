package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rolltide/internal/lower"
)

// Lowering pairs a type expression with its C++ spelling.
type Lowering struct {
	Type string `json:"type"`
	CPP  string `json:"cpp"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lower <type>...",
		Short: "Print the C++ lowering of type expressions",
		Long: `Print the C++ type each RT type expression lowers to, for example:

  rolltide lower u8 '&mut Pose' unsigned:int`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLower(cmd, rootOpts, args)
		},
	}

	return cmd
}

func runLower(cmd *cobra.Command, rootOpts *RootOptions, args []string) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	lowerings := make([]Lowering, 0, len(args))
	for _, arg := range args {
		lowerings = append(lowerings, Lowering{Type: arg, CPP: lower.String(arg)})
	}

	if rootOpts.Format == "json" {
		return formatter.Success(lowerings)
	}

	var sb strings.Builder
	for i, l := range lowerings {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s -> %s", l.Type, l.CPP)
	}
	return formatter.Success(sb.String())
}
