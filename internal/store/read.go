package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const buildColumns = `id, seq, target, outdir, ir_digest, module_count, compiler_version, ir_version`

// ReadBuild returns the build with the given ID, including its artifacts.
// Returns an error wrapping ErrBuildNotFound if there is none.
func (s *Store) ReadBuild(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+buildColumns+` FROM builds WHERE id = ?`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, fmt.Errorf("%w: %s", ErrBuildNotFound, id)
	}
	if err != nil {
		return Build{}, err
	}

	b.Artifacts, err = s.readArtifacts(ctx, id)
	if err != nil {
		return Build{}, err
	}
	return b, nil
}

// ListBuilds returns recorded builds, newest first. A limit of zero or
// less returns every build.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (s *Store) ListBuilds(ctx context.Context, limit int) ([]Build, error) {
	query := `SELECT ` + buildColumns + ` FROM builds ORDER BY seq DESC, id COLLATE BINARY ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	builds := []Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		builds = append(builds, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate builds: %w", err)
	}
	rows.Close()

	for i := range builds {
		builds[i].Artifacts, err = s.readArtifacts(ctx, builds[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return builds, nil
}

// LatestBuild returns the most recent build for a target. ok is false when
// the target has never been built.
func (s *Store) LatestBuild(ctx context.Context, target string) (b Build, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+`
		FROM builds
		WHERE target = ?
		ORDER BY seq DESC
		LIMIT 1
	`, target)
	b, err = scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, false, nil
	}
	if err != nil {
		return Build{}, false, err
	}

	b.Artifacts, err = s.readArtifacts(ctx, b.ID)
	if err != nil {
		return Build{}, false, err
	}
	return b, true, nil
}

// readArtifacts returns a build's artifacts ordered by path.
func (s *Store) readArtifacts(ctx context.Context, buildID string) ([]ArtifactRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, digest, size
		FROM artifacts
		WHERE build_id = ?
		ORDER BY path COLLATE BINARY ASC
	`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query artifacts: %w", err)
	}
	defer rows.Close()

	artifacts := []ArtifactRecord{}
	for rows.Next() {
		var a ArtifactRecord
		if err := rows.Scan(&a.Path, &a.Digest, &a.Size); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return artifacts, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBuild(row rowScanner) (Build, error) {
	var b Build
	err := row.Scan(
		&b.ID,
		&b.Seq,
		&b.Target,
		&b.OutDir,
		&b.IRDigest,
		&b.ModuleCount,
		&b.CompilerVersion,
		&b.IRVersion,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, err
	}
	if err != nil {
		return Build{}, fmt.Errorf("scan build: %w", err)
	}
	return b, nil
}
