package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rolltide/internal/compiler"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	SourceOptions
	Strict bool
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid       bool                  `json:"valid"`
	Files       int                   `json:"files"`
	Modules     int                   `json:"modules"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <inputs>...",
		Short: "Check RT sources without generating code",
		Long: `Parse RT sources and report everything the build would silently
recover from: unresolved includes, include cycles, malformed lines,
duplicate names and annotations without a macro. The IR document is also
checked against its schema.

Diagnostics are reported but do not fail the command unless --strict is
given. Missing inputs always fail.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, rootOpts, opts, args)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail when any warning is reported")

	return cmd
}

func runValidate(cmd *cobra.Command, rootOpts *RootOptions, opts *ValidateOptions, args []string) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	proj, err := loadProject(cmd, rootOpts, &opts.SourceOptions, args, formatter)
	if err != nil {
		return err
	}

	diags := compiler.Validate(proj.Result)
	diags = append(diags, compiler.CheckDocument(proj.Result.Program.Document())...)

	warnings := 0
	for _, d := range diags {
		if d.Severity == compiler.SeverityWarning {
			warnings++
		}
	}

	result := ValidationResult{
		Valid:       !opts.Strict || warnings == 0,
		Files:       len(proj.Inputs),
		Modules:     len(proj.Result.Program.Modules),
		Diagnostics: diags,
	}

	if rootOpts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		if err := formatter.Success(formatValidationText(result, warnings)); err != nil {
			return err
		}
	}

	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed: %d warning(s)", warnings))
	}
	return nil
}

func formatValidationText(r ValidationResult, warnings int) string {
	var sb strings.Builder
	for _, d := range r.Diagnostics {
		mark := warnMark
		if d.Severity == compiler.SeverityInfo {
			mark = " "
		}
		fmt.Fprintf(&sb, "%s %s\n", mark, d.Error())
	}

	switch {
	case len(r.Diagnostics) == 0:
		fmt.Fprintf(&sb, "%s All sources valid (%d file(s), %d module(s))", okMark, r.Files, r.Modules)
	case !r.Valid:
		fmt.Fprintf(&sb, "%s %d warning(s), %d info (%d file(s), %d module(s))",
			failMark, warnings, len(r.Diagnostics)-warnings, r.Files, r.Modules)
	default:
		fmt.Fprintf(&sb, "%s Valid with %d warning(s), %d info (%d file(s), %d module(s))",
			okMark, warnings, len(r.Diagnostics)-warnings, r.Files, r.Modules)
	}
	return sb.String()
}
