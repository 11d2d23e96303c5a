package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteTree writes files (relative path → contents) under a fresh temp
// directory and returns the directory. Leading newlines in contents are
// trimmed so sources can be written as indented raw strings in tests:
//
//	root := testutil.WriteTree(t, map[string]string{
//		"main.rt":      "include <motor>\n",
//		"lib/motor.rt": "def open[port: u8]\n",
//	})
func WriteTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, contents := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(strings.TrimLeft(contents, "\n")), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return root
}

// Source dedents a raw-string RT source: it drops the leading newline and
// removes the indentation of the first line from every line.
func Source(s string) string {
	s = strings.TrimLeft(s, "\n")
	lines := strings.Split(s, "\n")
	if len(lines) == 0 {
		return s
	}
	prefix := lines[0][:len(lines[0])-len(strings.TrimLeft(lines[0], "\t"))]
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
