package compiler

import (
	"os"
	"path/filepath"
	"strings"
)

// SourceExt is the canonical RT source extension.
const SourceExt = ".rt"

// logicalRoot is stripped from include tokens before searching.
const logicalRoot = "rt/"

// DefaultLibDirs is the library search path used when none is configured.
var DefaultLibDirs = []string{"lib"}

// Resolver locates include targets across an ordered list of library directories.
type Resolver struct {
	LibDirs []string
}

// NewResolver creates a resolver searching libDirs in order.
// With no directories it searches DefaultLibDirs.
func NewResolver(libDirs ...string) *Resolver {
	if len(libDirs) == 0 {
		libDirs = DefaultLibDirs
	}
	return &Resolver{LibDirs: append([]string(nil), libDirs...)}
}

// Resolve returns the absolute path of the file an include token refers to.
//
// The token may be wrapped in <...> or "..." and may carry the logical "rt/"
// prefix. Every library directory is tried with the ".rt" extension first;
// only if none matches are they retried with the literal name. The first
// existing regular file wins.
func (r *Resolver) Resolve(token string) (string, bool) {
	name := IncludeName(token)
	if name == "" {
		return "", false
	}

	for _, candidate := range []string{name + SourceExt, name} {
		for _, dir := range r.LibDirs {
			path := filepath.Join(dir, filepath.FromSlash(candidate))
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				continue
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return path, true
			}
			return abs, true
		}
	}
	return "", false
}

// IncludeName strips delimiters and the logical root prefix from an include token.
func IncludeName(token string) string {
	name := strings.TrimSpace(token)
	if len(name) >= 2 {
		if (name[0] == '<' && name[len(name)-1] == '>') || (name[0] == '"' && name[len(name)-1] == '"') {
			name = strings.TrimSpace(name[1 : len(name)-1])
		}
	}
	return strings.TrimPrefix(name, logicalRoot)
}
