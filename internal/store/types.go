package store

import "errors"

// ErrBuildNotFound is returned when no build has the requested ID.
var ErrBuildNotFound = errors.New("build not found")

// Build is one recorded compiler run.
type Build struct {
	ID              string           `json:"id"`
	Seq             int64            `json:"seq"` // assigned by WriteBuild
	Target          string           `json:"target"`
	OutDir          string           `json:"outdir"`
	IRDigest        string           `json:"ir_digest"`
	ModuleCount     int              `json:"module_count"`
	CompilerVersion string           `json:"compiler_version"`
	IRVersion       string           `json:"ir_version"`
	Artifacts       []ArtifactRecord `json:"artifacts"`
}

// ArtifactRecord is the digest of one file a build wrote. Path is relative
// to the build's output directory.
type ArtifactRecord struct {
	Path   string `json:"path"`
	Digest string `json:"digest"`
	Size   int64  `json:"size"`
}
