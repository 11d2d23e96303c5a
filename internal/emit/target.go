// Package emit lowers an IR program into C++ declaration files for a
// platform target.
package emit

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTarget is returned for a target name outside the target table.
var ErrUnknownTarget = errors.New("unknown target")

// Target names a code generation platform.
type Target string

const (
	TargetPE   Target = "pe"   // Windows x86-64
	TargetELF  Target = "elf"  // Linux x86-64
	TargetPROS Target = "pros" // VEX V5 robot brain
)

// DefaultTarget is used when no target is configured.
const DefaultTarget = TargetPROS

type targetInfo struct {
	arch     string
	version  string
	metadata string
}

var targets = map[Target]targetInfo{
	TargetPE:   {arch: "x86-64", version: "C++ Windows", metadata: "cpp_windows_x86_64_metadata.json"},
	TargetELF:  {arch: "x86-64", version: "C++ Linux", metadata: "cpp_linux_x86_64_metadata.json"},
	TargetPROS: {arch: "PROS V5", version: "PROS V5 Project", metadata: "pros_metadata.json"},
}

// Targets returns every supported target in a stable order.
func Targets() []Target {
	return []Target{TargetPE, TargetELF, TargetPROS}
}

// ParseTarget validates a target name. Matching ignores case.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := targets[t]; !ok {
		return "", fmt.Errorf("%w %q (supported: pe, elf, pros)", ErrUnknownTarget, s)
	}
	return t, nil
}

// Arch returns the architecture string recorded in the metadata file.
func (t Target) Arch() string { return targets[t].arch }

// Version returns the toolchain description recorded in the metadata file.
func (t Target) Version() string { return targets[t].version }

// MetadataFile returns the name of the target's metadata file.
func (t Target) MetadataFile() string { return targets[t].metadata }

func (t Target) valid() bool {
	_, ok := targets[t]
	return ok
}
