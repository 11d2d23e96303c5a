package emit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// WriteArtifacts writes artifacts under outdir, creating directories as
// needed. Files are written concurrently; the first failure cancels the
// remaining writes and is returned.
func WriteArtifacts(ctx context.Context, outdir string, artifacts []Artifact) error {
	if len(artifacts) == 0 {
		return nil
	}
	if err := os.MkdirAll(outdir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(runtime.GOMAXPROCS(0), len(artifacts)))

	for _, a := range artifacts {
		a := a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			dst := filepath.Join(outdir, filepath.FromSlash(a.Path))
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return fmt.Errorf("create directory for %s: %w", a.Path, err)
			}
			if err := os.WriteFile(dst, a.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", a.Path, err)
			}
			return nil
		})
	}

	return g.Wait()
}
