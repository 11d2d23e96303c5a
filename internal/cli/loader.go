package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"

	"github.com/roach88/rolltide/internal/compiler"
	"github.com/roach88/rolltide/internal/config"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No RT files found
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeTarget      = "E008" // Unknown target
	ErrCodeConfig      = "E009" // Manifest could not be loaded
	ErrCodeLedger      = "E010" // Build ledger error
	ErrCodeQuery       = "E011" // jq query error
	ErrCodeIRFormat    = "E012" // Unknown IR document format
)

// sourceExt is the extension of RT source files.
const sourceExt = ".rt"

// skipDirs are never searched for sources.
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"out":          true,
	"build":        true,
}

// LoadError represents an error that occurred while collecting or loading
// sources.
type LoadError struct {
	Code    string
	Message string
	Pos     compiler.Position
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CollectInputs expands command arguments into source files. Files are kept
// as given, in argument order; directories contribute their *.rt files in
// sorted order, honoring the directory's .gitignore and skipping hidden
// entries. Each path appears once.
func CollectInputs(args []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("source not found: %s", arg)}
		}
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing %s: %v", arg, err)}
		}
		if !info.IsDir() {
			add(arg)
			continue
		}

		found, err := FindSourceFiles(arg)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(found) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no %s files found in %s", sourceExt, arg)}
		}
		for _, f := range found {
			add(f)
		}
	}
	return files, nil
}

// FindSourceFiles walks root and returns every *.rt file not excluded by
// root/.gitignore, sorted.
func FindSourceFiles(root string) ([]string, error) {
	gi := loadGitignore(root)

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if skipDirs[name] {
				return filepath.SkipDir
			}
			if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(name) != sourceExt {
			return nil
		}
		if gi != nil && gi.MatchesPath(filepath.ToSlash(rel)) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// loadGitignore returns nil when root has no readable .gitignore.
func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}

// loadManifest returns the manifest named by --config, or the nearest one
// above the working directory. It returns nil when there is none.
func loadManifest(opts *RootOptions) (*config.Manifest, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	m, _, err := config.Discover(".")
	return m, err
}

// SourceOptions holds the flags shared by every command that parses sources.
type SourceOptions struct {
	LibDirs []string
}

func addSourceFlags(cmd *cobra.Command, opts *SourceOptions) {
	cmd.Flags().StringArrayVarP(&opts.LibDirs, "lib", "L", nil, "library directory searched for includes (repeatable, default lib)")
}

// project is the resolved input of a command: the manifest, if any, and
// the parsed sources.
type project struct {
	Manifest *config.Manifest
	Inputs   []string
	Result   *compiler.Result
}

// loadProject loads the manifest, collects inputs and builds IR. Failures
// are reported through formatter and returned as an ExitError.
func loadProject(cmd *cobra.Command, rootOpts *RootOptions, src *SourceOptions, args []string, formatter *OutputFormatter) (*project, error) {
	m, err := loadManifest(rootOpts)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	}

	inputs, err := CollectInputs(args)
	if err != nil {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return nil, formatter.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return nil, formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Found %d source file(s)", len(inputs))

	libDirs := compiler.DefaultLibDirs
	switch {
	case cmd.Flags().Changed("lib"):
		libDirs = src.LibDirs
	case m != nil && len(m.LibDirs) > 0:
		libDirs = m.LibDirs
	}

	buildOpts := []compiler.Option{
		compiler.WithLibDirs(libDirs...),
		compiler.WithLogger(slog.Default()),
	}
	if m != nil && m.MaxIncludeDepth > 0 {
		buildOpts = append(buildOpts, compiler.WithMaxIncludeDepth(m.MaxIncludeDepth))
	}

	res, err := compiler.BuildIR(inputs, buildOpts...)
	if err != nil {
		if errors.Is(err, compiler.ErrSourceNotFound) {
			return nil, formatter.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil)
		}
		return nil, formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}

	for _, d := range res.Diagnostics {
		formatter.VerboseLog("%s %s", warnMark, d.Error())
	}

	return &project{Manifest: m, Inputs: inputs, Result: res}, nil
}

// pick returns the flag value when the flag was set on the command line,
// otherwise the manifest value, otherwise def.
func pick(cmd *cobra.Command, flag, flagValue, manifestValue, def string) string {
	if cmd.Flags().Changed(flag) {
		return flagValue
	}
	if manifestValue != "" {
		return manifestValue
	}
	return def
}
