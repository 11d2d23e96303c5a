package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRPrintsDocument(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewIRCommand(&RootOptions{Format: "text"}), "main.rt")
	require.NoError(t, err)

	var doc struct {
		Modules []struct {
			Module string           `json:"module"`
			Defs   []map[string]any `json:"defs"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Modules, 2)
	assert.Equal(t, "motor", doc.Modules[0].Module)
	assert.Equal(t, "main", doc.Modules[1].Module)
	assert.Equal(t, "struct", doc.Modules[0].Defs[0]["type"])
	assert.NoDirExists(t, "out")
}

func TestIRQuery(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewIRCommand(&RootOptions{Format: "text"}), "main.rt", "--query", ".modules[].module")
	require.NoError(t, err)
	assert.Equal(t, "motor\nmain\n", out)
}

func TestIRQueryObjects(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewIRCommand(&RootOptions{Format: "text"}), "main.rt",
		"-q", `.modules[] | select(.module == "motor") | .defs | length`)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestIRQueryJSON(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewIRCommand(&RootOptions{Format: "json"}), "main.rt", "--query", "[.modules[].module]")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   []any  `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []any{[]any{"motor", "main"}}, resp.Data)
}

func TestIRInvalidQuery(t *testing.T) {
	writeProject(t, nil)

	out, err := runCommand(t, NewIRCommand(&RootOptions{Format: "text"}), "main.rt", "--query", ".modules[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeQuery)
	assert.Contains(t, out, "invalid query")
}

func TestIRQueryRuntimeError(t *testing.T) {
	writeProject(t, nil)

	_, err := runCommand(t, NewIRCommand(&RootOptions{Format: "text"}), "main.rt", "--query", `error("boom")`)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeQuery)
}

func TestIRMissingInput(t *testing.T) {
	writeProject(t, nil)

	_, err := runCommand(t, NewIRCommand(&RootOptions{Format: "text"}), "missing.rt")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}
