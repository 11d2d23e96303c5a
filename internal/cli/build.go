package cli

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/rolltide/internal/compiler"
	"github.com/roach88/rolltide/internal/emit"
	"github.com/roach88/rolltide/internal/ir"
	"github.com/roach88/rolltide/internal/store"
)

// DefaultOutDir is the output directory used when neither the flag nor the
// manifest names one.
const DefaultOutDir = "out"

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	SourceOptions
	Target   string
	OutDir   string
	IRFormat string
	Ledger   string

	// IDGenerator names recorded builds. Nil means UUIDv7.
	IDGenerator store.BuildIDGenerator
}

// BuildResult is the outcome of a build.
type BuildResult struct {
	Target      string                `json:"target"`
	OutDir      string                `json:"outdir"`
	IRDigest    string                `json:"ir_digest"`
	Modules     int                   `json:"modules"`
	Artifacts   []string              `json:"artifacts"`
	Diagnostics []compiler.Diagnostic `json:"diagnostics,omitempty"`
	BuildID     string                `json:"build_id,omitempty"`

	// Unchanged is set when a ledger is in use: true if the IR digest
	// equals the previous build for the same target.
	Unchanged  *bool  `json:"unchanged,omitempty"`
	PreviousID string `json:"previous_id,omitempty"`
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	return newBuildCommand(rootOpts, &BuildOptions{})
}

func newBuildCommand(rootOpts *RootOptions, opts *BuildOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <inputs>...",
		Short: "Compile RT sources into IR and C++ declarations",
		Long: `Compile RT sources into the IR document, the target metadata file,
include/main.h and one header and stub source per module.

Inputs are .rt files or directories; directories contribute every .rt file
they contain that is not excluded by their .gitignore. With --db the build
is recorded in a ledger and compared against the previous build for the
same target.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, rootOpts, opts, args)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)
	cmd.Flags().StringVarP(&opts.Target, "target", "t", string(emit.DefaultTarget), "target platform (pe|elf|pros)")
	cmd.Flags().StringVarP(&opts.OutDir, "outdir", "o", DefaultOutDir, "output directory")
	cmd.Flags().StringVar(&opts.IRFormat, "ir-format", ir.FormatJSON, "IR document format (json|msgpack)")
	cmd.Flags().StringVar(&opts.Ledger, "db", "", "build ledger database (optional)")

	return cmd
}

func runBuild(cmd *cobra.Command, rootOpts *RootOptions, opts *BuildOptions, args []string) error {
	formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	proj, err := loadProject(cmd, rootOpts, &opts.SourceOptions, args, formatter)
	if err != nil {
		return err
	}
	m := proj.Manifest

	var mTarget, mOutDir, mFormat, mLedger string
	if m != nil {
		mTarget, mOutDir, mFormat, mLedger = m.Target, m.OutDir, m.IRFormat, m.Ledger
	}

	target, err := emit.ParseTarget(pick(cmd, "target", opts.Target, mTarget, string(emit.DefaultTarget)))
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeTarget, err.Error(), nil)
	}
	outdir := pick(cmd, "outdir", opts.OutDir, mOutDir, DefaultOutDir)
	format := pick(cmd, "ir-format", opts.IRFormat, mFormat, ir.FormatJSON)
	if format != ir.FormatJSON && format != ir.FormatMsgpack {
		return formatter.Fail(ExitCommandError, ErrCodeIRFormat,
			fmt.Sprintf("invalid IR format %q: must be %s or %s", format, ir.FormatJSON, ir.FormatMsgpack), nil)
	}
	ledger := pick(cmd, "db", opts.Ledger, mLedger, "")

	prog := proj.Result.Program
	formatter.VerboseLog("Parsed %d module(s) for target %s", len(prog.Modules), target)

	var doc bytes.Buffer
	if err := ir.EncodeDocument(&doc, prog.Document(), format); err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	generated, err := emit.Generate(prog, target)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}
	artifacts := append([]emit.Artifact{{Path: ir.DocumentFileName(format), Data: doc.Bytes()}}, generated...)

	if err := emit.WriteArtifacts(cmd.Context(), outdir, artifacts); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil)
	}

	digest, err := prog.Digest()
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil)
	}

	result := BuildResult{
		Target:      string(target),
		OutDir:      outdir,
		IRDigest:    digest,
		Modules:     len(prog.Modules),
		Diagnostics: proj.Result.Diagnostics,
	}
	for _, a := range artifacts {
		result.Artifacts = append(result.Artifacts, a.Path)
	}

	if ledger != "" {
		if err := recordBuild(cmd, opts, ledger, artifacts, &result); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeLedger, err.Error(), nil)
		}
	}

	if rootOpts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(formatBuildText(result))
}

// recordBuild stores the build in the ledger and fills in the comparison
// with the previous build for the same target.
func recordBuild(cmd *cobra.Command, opts *BuildOptions, path string, artifacts []emit.Artifact, result *BuildResult) error {
	ctx := cmd.Context()

	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	prev, ok, err := st.LatestBuild(ctx, result.Target)
	if err != nil {
		return err
	}

	gen := opts.IDGenerator
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}

	b := &store.Build{
		ID:              gen.Generate(),
		Target:          result.Target,
		OutDir:          result.OutDir,
		IRDigest:        result.IRDigest,
		ModuleCount:     result.Modules,
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
	}
	for _, a := range artifacts {
		b.Artifacts = append(b.Artifacts, store.ArtifactRecord{
			Path:   a.Path,
			Digest: ir.ArtifactDigest(a.Data),
			Size:   int64(len(a.Data)),
		})
	}
	if err := st.WriteBuild(ctx, b); err != nil {
		return err
	}

	unchanged := ok && prev.IRDigest == result.IRDigest
	result.BuildID = b.ID
	result.Unchanged = &unchanged
	if ok {
		result.PreviousID = prev.ID
	}
	return nil
}

func formatBuildText(r BuildResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Built %d module(s) for %s in %s\n", okMark, r.Modules, r.Target, r.OutDir)
	for _, a := range r.Artifacts {
		fmt.Fprintf(&sb, "  %s\n", a)
	}
	if n := len(r.Diagnostics); n > 0 {
		fmt.Fprintf(&sb, "%s %d diagnostic(s); run validate for details\n", warnMark, n)
	}
	if r.BuildID != "" {
		fmt.Fprintf(&sb, "Recorded build %s\n", r.BuildID)
		switch {
		case r.Unchanged != nil && *r.Unchanged:
			fmt.Fprintf(&sb, "IR unchanged since build %s\n", r.PreviousID)
		case r.PreviousID != "":
			fmt.Fprintf(&sb, "IR changed since build %s\n", r.PreviousID)
		}
	}
	fmt.Fprintf(&sb, "IR digest: %s", r.IRDigest)
	return sb.String()
}
