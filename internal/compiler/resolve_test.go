package compiler

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolltide/internal/testutil"
)

func TestIncludeName(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"motor", "motor"},
		{"<motor>", "motor"},
		{`"motor"`, "motor"},
		{"<rt/motor>", "motor"},
		{"rt/devices/motor", "devices/motor"},
		{"  <motor>  ", "motor"},
		{"<>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, IncludeName(tt.token))
		})
	}
}

func TestResolvePrefersExtensionAcrossAllDirs(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"first/motor":     "# literal name in the first dir\n",
		"second/motor.rt": "# extension match in the second dir\n",
	})

	r := NewResolver(filepath.Join(root, "first"), filepath.Join(root, "second"))
	path, ok := r.Resolve("<motor>")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "second", "motor.rt"), path)
}

func TestResolveFallsBackToLiteralName(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"lib/defs.txt": "struct A\n",
	})

	r := NewResolver(filepath.Join(root, "lib"))
	path, ok := r.Resolve("<defs.txt>")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "lib", "defs.txt"), path)
}

func TestResolveFirstDirectoryWins(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"a/motor.rt": "",
		"b/motor.rt": "",
	})

	r := NewResolver(filepath.Join(root, "a"), filepath.Join(root, "b"))
	path, ok := r.Resolve("rt/motor")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "a", "motor.rt"), path)
}

func TestResolveNotFound(t *testing.T) {
	root := testutil.WriteTree(t, map[string]string{
		"lib/motor.rt": "",
	})

	r := NewResolver(filepath.Join(root, "lib"))
	_, ok := r.Resolve("<sensor>")
	assert.False(t, ok)

	// Directories never match
	_, ok = NewResolver(root).Resolve("lib")
	assert.False(t, ok)
}

func TestNewResolverDefaultsToLib(t *testing.T) {
	r := NewResolver()
	assert.Equal(t, []string{"lib"}, r.LibDirs)
}
