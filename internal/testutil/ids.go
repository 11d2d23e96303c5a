package testutil

// FixedIDGenerator generates the same build ID every time.
//
// This enables deterministic ledger contents in tests. Unlike
// store.FixedGenerator, which returns IDs in sequence, this generator always
// returns the same ID.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a new fixed build ID generator.
// If id is empty, Generate() returns "test-build-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-build-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed build ID.
//
// Implements store.BuildIDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
