package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"

	"github.com/roach88/rolltide/internal/ir"
)

// IROptions holds flags for the ir command.
type IROptions struct {
	SourceOptions
	Query string
}

// NewIRCommand creates the ir command.
func NewIRCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IROptions{}

	cmd := &cobra.Command{
		Use:   "ir <inputs>...",
		Short: "Print the IR document",
		Long: `Parse RT sources and print the IR document without generating code.

With --query the document is filtered through a jq expression, for example:

  rolltide ir main.rt --query '.modules[].module'`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIR(cmd, rootOpts, opts, args)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "jq expression applied to the document")

	return cmd
}

func runIR(cmd *cobra.Command, rootOpts *RootOptions, opts *IROptions, args []string) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	// Parse the query first so a typo fails before any source is read.
	var query *gojq.Query
	if opts.Query != "" {
		q, err := gojq.Parse(opts.Query)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeQuery, fmt.Sprintf("invalid query: %v", err), nil)
		}
		query = q
	}

	proj, err := loadProject(cmd, rootOpts, &opts.SourceOptions, args, formatter)
	if err != nil {
		return err
	}

	doc := proj.Result.Program.Document()
	plain, err := ir.PlainDocument(doc)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	if query == nil {
		if rootOpts.Format == "json" {
			return formatter.Success(plain)
		}
		var buf bytes.Buffer
		if err := ir.EncodeDocument(&buf, doc, ir.FormatJSON); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
		}
		return formatter.Success(strings.TrimSuffix(buf.String(), "\n"))
	}

	results, err := runQuery(query, plain)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeQuery, err.Error(), nil)
	}

	if rootOpts.Format == "json" {
		return formatter.Success(results)
	}
	var sb strings.Builder
	for i, v := range results {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(formatQueryValue(v))
	}
	return formatter.Success(sb.String())
}

// runQuery collects every value the query yields. An error value ends the
// run.
func runQuery(query *gojq.Query, input any) ([]any, error) {
	results := []any{}
	iter := query.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("query failed: %w", err)
		}
		results = append(results, v)
	}
	return results, nil
}

// formatQueryValue prints strings bare and everything else as compact JSON,
// like jq -r.
func formatQueryValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
