package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// WriteBuild records a build and its artifacts in one transaction and sets
// b.Seq to the next logical sequence number.
//
// Writing is idempotent on ID: a build whose ID is already recorded is left
// unchanged, and b.Seq is set to the stored sequence number.
func (s *Store) WriteBuild(ctx context.Context, b *Build) error {
	if b.ID == "" {
		return fmt.Errorf("write build: id is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write build: begin: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM builds WHERE id = ?`, b.ID).Scan(&existing)
	switch {
	case err == nil:
		b.Seq = existing
		return nil
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("write build: lookup: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM builds`).Scan(&seq); err != nil {
		return fmt.Errorf("write build: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO builds
		(id, seq, target, outdir, ir_digest, module_count, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		b.ID,
		seq,
		b.Target,
		b.OutDir,
		b.IRDigest,
		b.ModuleCount,
		b.CompilerVersion,
		b.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write build: %w", err)
	}

	for _, a := range b.Artifacts {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (build_id, path, digest, size)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(build_id, path) DO UPDATE SET digest = excluded.digest, size = excluded.size
		`, b.ID, a.Path, a.Digest, a.Size)
		if err != nil {
			return fmt.Errorf("write build: artifact %s: %w", a.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write build: commit: %w", err)
	}
	b.Seq = seq
	return nil
}
