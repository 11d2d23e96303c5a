package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests.
// Version suffix enables future algorithm migration.
const (
	DomainIR       = "rolltide/ir/v1"
	DomainArtifact = "rolltide/artifact/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content digest of the program's boundary document.
// Two programs with the same modules and definitions in the same order have
// the same digest regardless of where their sources live on disk.
func (p *Program) Digest() (string, error) {
	canonical, err := MarshalCanonical(p.Document())
	if err != nil {
		return "", fmt.Errorf("Digest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainIR, canonical), nil
}

// ArtifactDigest computes the digest of an emitted file's contents.
func ArtifactDigest(data []byte) string {
	return hashWithDomain(DomainArtifact, data)
}
