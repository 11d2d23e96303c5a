package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeIncludeCycles(t *testing.T) {
	tests := []struct {
		name     string
		includes map[string][]string
		want     []CycleWarning
	}{
		{
			name:     "empty graph",
			includes: nil,
			want:     []CycleWarning{},
		},
		{
			name: "diamond is acyclic",
			includes: map[string][]string{
				"/src/main.rt": {"/lib/a.rt", "/lib/b.rt"},
				"/lib/a.rt":    {"/lib/common.rt"},
				"/lib/b.rt":    {"/lib/common.rt"},
			},
			want: []CycleWarning{},
		},
		{
			name: "self include",
			includes: map[string][]string{
				"/lib/c.rt": {"/lib/c.rt"},
			},
			want: []CycleWarning{{
				Path:    []string{"/lib/c.rt", "/lib/c.rt"},
				Message: "File includes itself: c.rt",
				Level:   "warning",
			}},
		},
		{
			name: "two file cycle",
			includes: map[string][]string{
				"/lib/a.rt": {"/lib/b.rt"},
				"/lib/b.rt": {"/lib/a.rt"},
			},
			want: []CycleWarning{{
				Path:    []string{"/lib/a.rt", "/lib/b.rt", "/lib/a.rt"},
				Message: "Include cycle detected: a.rt → b.rt → a.rt",
				Level:   "warning",
			}},
		},
		{
			name: "three file cycle with tail",
			includes: map[string][]string{
				"/src/main.rt": {"/lib/x.rt"},
				"/lib/x.rt":    {"/lib/y.rt"},
				"/lib/y.rt":    {"/lib/z.rt"},
				"/lib/z.rt":    {"/lib/x.rt"},
			},
			want: []CycleWarning{{
				Path:    []string{"/lib/x.rt", "/lib/y.rt", "/lib/z.rt", "/lib/x.rt"},
				Message: "Include cycle detected: x.rt → y.rt → z.rt → x.rt",
				Level:   "warning",
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AnalyzeIncludeCycles(tt.includes))
		})
	}
}

func TestAnalyzeIncludeCyclesMultipleCycles(t *testing.T) {
	warnings := AnalyzeIncludeCycles(map[string][]string{
		"/lib/a.rt": {"/lib/b.rt"},
		"/lib/b.rt": {"/lib/a.rt"},
		"/lib/c.rt": {"/lib/c.rt"},
	})

	require.Len(t, warnings, 2)
	for _, w := range warnings {
		assert.Equal(t, w.Path[0], w.Path[len(w.Path)-1])
	}
}

func TestAnalyzeIncludeCyclesDeterministic(t *testing.T) {
	includes := map[string][]string{
		"/lib/a.rt": {"/lib/b.rt"},
		"/lib/b.rt": {"/lib/c.rt"},
		"/lib/c.rt": {"/lib/a.rt"},
		"/lib/d.rt": {"/lib/d.rt"},
	}

	first := AnalyzeIncludeCycles(includes)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, AnalyzeIncludeCycles(includes))
	}
}
