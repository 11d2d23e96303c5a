package ir

// Version constants for the IR document and the compiler.
const (
	// IRVersion is the IR document schema version.
	IRVersion = "1"

	// CompilerVersion is the rolltide compiler version.
	CompilerVersion = "0.1.0"
)
