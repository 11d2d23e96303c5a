package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/rolltide/internal/store"
	"github.com/roach88/rolltide/internal/testutil"
)

const projectMain = `
include <motor>
val NAME = "bot"
def delay[ms: u32] -> i32
`

const projectMotor = `
struct Pose
  x: f32
into Motor
  def open[port: u8] -> bool
`

// writeProject writes a two-module project and makes it the working
// directory, so the default lib dir and manifest discovery apply to it.
func writeProject(t *testing.T, extra map[string]string) string {
	t.Helper()
	files := map[string]string{
		"main.rt":      projectMain,
		"lib/motor.rt": projectMotor,
	}
	for k, v := range extra {
		files[k] = v
	}
	root := testutil.WriteTree(t, files)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return root
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	if args == nil {
		args = []string{} // nil makes cobra fall back to os.Args
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type buildResponse struct {
	Status string      `json:"status"`
	Data   BuildResult `json:"data"`
	Error  *CLIError   `json:"error"`
}

func TestBuildWritesArtifacts(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt")
	require.NoError(t, err)

	assert.Contains(t, out, "Built 2 module(s) for pros in out")
	for _, rel := range []string{
		"ir.json",
		"pros_metadata.json",
		"include/main.h",
		"include/motor.h",
		"src/motor.cpp",
		"include/module_main.h",
		"src/module_main.cpp",
	} {
		assert.FileExists(t, filepath.Join("out", filepath.FromSlash(rel)))
		assert.Contains(t, out, rel)
	}

	header, err := os.ReadFile(filepath.Join("out", "include", "motor.h"))
	require.NoError(t, err)
	assert.Contains(t, string(header), "bool Motor_open(unsigned char port);")

	mainHeader, err := os.ReadFile(filepath.Join("out", "include", "main.h"))
	require.NoError(t, err)
	assert.Contains(t, string(mainHeader), "struct Pose {\n  float x;\n};")
}

func TestBuildTargetFlag(t *testing.T) {
	writeProject(t, nil)

	_, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt", "-t", "ELF", "-o", "gen")
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join("gen", "cpp_linux_x86_64_metadata.json"))
	assert.NoFileExists(t, filepath.Join("gen", "pros_metadata.json"))
}

func TestBuildInvalidTarget(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt", "-t", "wasm")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeTarget)
	assert.Contains(t, out, "wasm")
	assert.NoDirExists(t, "out")
}

func TestBuildInvalidIRFormat(t *testing.T) {
	writeProject(t, nil)

	_, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt", "--ir-format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeIRFormat)
	assert.NotContains(t, err.Error(), ErrCodeTarget)
}

func TestBuildMissingInput(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "nope.rt")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestBuildMsgpackDocument(t *testing.T) {
	writeProject(t, nil)

	_, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt", "--ir-format", "msgpack")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join("out", "ir.json"))
	data, err := os.ReadFile(filepath.Join("out", "ir.msgpack"))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, msgpack.Unmarshal(data, &doc))
	modules, ok := doc["modules"].([]any)
	require.True(t, ok)
	assert.Len(t, modules, 2)
}

func TestBuildJSONOutput(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "json"}), "main.rt")
	require.NoError(t, err)

	var resp buildResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "pros", resp.Data.Target)
	assert.Equal(t, 2, resp.Data.Modules)
	assert.Len(t, resp.Data.IRDigest, 64)
	assert.Equal(t, "ir.json", resp.Data.Artifacts[0])
	assert.Equal(t, "pros_metadata.json", resp.Data.Artifacts[1])
	assert.Empty(t, resp.Data.Diagnostics)
	assert.Empty(t, resp.Data.BuildID)
	assert.Nil(t, resp.Data.Unchanged)
}

func TestBuildReportsDiagnostics(t *testing.T) {
	writeProject(t, map[string]string{
		"broken.rt": "include <missing>\ndef tick[]\n",
	})

	out, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "broken.rt")
	require.NoError(t, err)
	assert.Contains(t, out, "1 diagnostic(s)")
}

func TestBuildDirectoryInput(t *testing.T) {
	writeProject(t, map[string]string{
		"src/main.rt":    projectMain,
		"src/scratch.rt": "def scratch[]\n",
		"src/.gitignore": "scratch.rt\n",
	})

	out, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "json"}), "src")
	require.NoError(t, err)

	var resp buildResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.Modules)
	assert.NotContains(t, resp.Data.Artifacts, "include/scratch.h")
}

func TestBuildManifestDefaults(t *testing.T) {
	writeProject(t, map[string]string{
		"rolltide.yaml": "target: elf\noutdir: gen\nlib_dirs: [lib]\n",
	})

	_, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("gen", "cpp_linux_x86_64_metadata.json"))
	assert.FileExists(t, filepath.Join("gen", "include", "motor.h"))

	// Flags override the manifest.
	_, err = runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt", "-t", "pe")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join("gen", "cpp_windows_x86_64_metadata.json"))
}

func TestBuildExplicitConfig(t *testing.T) {
	root := writeProject(t, map[string]string{
		"conf/build.toml": "target = \"pe\"\noutdir = \"../dist\"\nlib_dirs = [\"../lib\"]\n",
	})

	opts := &RootOptions{Format: "text", ConfigPath: filepath.Join(root, "conf", "build.toml")}
	_, err := runCommand(t, NewBuildCommand(opts), "main.rt")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "dist", "cpp_windows_x86_64_metadata.json"))
	assert.FileExists(t, filepath.Join(root, "dist", "include", "motor.h"))
}

func TestBuildBadManifest(t *testing.T) {
	writeProject(t, map[string]string{
		"rolltide.yaml": "target: wasm\n",
	})

	_, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeConfig)
}

func TestBuildLibFlag(t *testing.T) {
	writeProject(t, map[string]string{
		"vendor-lib/motor.rt": "def vendored[]\n",
	})

	out, err := runCommand(t, NewBuildCommand(&RootOptions{Format: "text"}), "main.rt", "-L", "vendor-lib")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 module(s)")

	header, err := os.ReadFile(filepath.Join("out", "include", "motor.h"))
	require.NoError(t, err)
	assert.Contains(t, string(header), "void vendored();")
}

func TestBuildLedger(t *testing.T) {
	writeProject(t, nil)
	ledger := filepath.Join("state", "ledger.db")
	gen := store.NewFixedGenerator("build-1", "build-2", "build-3")

	build := func() (string, error) {
		cmd := newBuildCommand(&RootOptions{Format: "text"}, &BuildOptions{IDGenerator: gen})
		return runCommand(t, cmd, "main.rt", "--db", ledger)
	}

	out, err := build()
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded build build-1")
	assert.NotContains(t, out, "since build")

	out, err = build()
	require.NoError(t, err)
	assert.Contains(t, out, "Recorded build build-2")
	assert.Contains(t, out, "IR unchanged since build build-1")

	require.NoError(t, os.WriteFile("main.rt", []byte(projectMain+"def stop[]\n"), 0o644))
	out, err = build()
	require.NoError(t, err)
	assert.Contains(t, out, "IR changed since build build-2")

	st, err := store.Open(ledger)
	require.NoError(t, err)
	defer st.Close()

	builds, err := st.ListBuilds(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, builds, 3)
	assert.Equal(t, "build-3", builds[0].ID)
	assert.Equal(t, builds[1].IRDigest, builds[2].IRDigest)
	assert.NotEqual(t, builds[0].IRDigest, builds[1].IRDigest)
	assert.Len(t, builds[0].Artifacts, 7)
}

func TestBuildLedgerJSON(t *testing.T) {
	writeProject(t, nil)
	gen := store.NewFixedGenerator("only")

	cmd := newBuildCommand(&RootOptions{Format: "json"}, &BuildOptions{IDGenerator: gen})
	out, err := runCommand(t, cmd, "main.rt", "--db", "ledger.db")
	require.NoError(t, err)

	var resp buildResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "only", resp.Data.BuildID)
	require.NotNil(t, resp.Data.Unchanged)
	assert.False(t, *resp.Data.Unchanged)
	assert.Empty(t, resp.Data.PreviousID)
}

func TestBuildLedgerReusedID(t *testing.T) {
	writeProject(t, nil)
	gen := testutil.NewFixedIDGenerator("pinned")

	for i := 0; i < 2; i++ {
		cmd := newBuildCommand(&RootOptions{Format: "text"}, &BuildOptions{IDGenerator: gen})
		out, err := runCommand(t, cmd, "main.rt", "--db", "ledger.db")
		require.NoError(t, err)
		assert.Contains(t, out, "Recorded build pinned")
	}

	st, err := store.Open("ledger.db")
	require.NoError(t, err)
	defer st.Close()

	builds, err := st.ListBuilds(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	assert.Equal(t, int64(1), builds[0].Seq)
}
