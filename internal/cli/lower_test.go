package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowerText(t *testing.T) {
	out, err := runCommand(t, NewLowerCommand(&RootOptions{Format: "text"}), "u8", "&mut Pose", "unsigned:int", "byte[4]")
	require.NoError(t, err)
	assert.Equal(t, "u8 -> unsigned char\n&mut Pose -> Pose*\nunsigned:int -> unsigned int\nbyte[4] -> uint8_t*\n", out)
}

func TestLowerJSON(t *testing.T) {
	out, err := runCommand(t, NewLowerCommand(&RootOptions{Format: "json"}), "string", "Pose")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []Lowering `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []Lowering{
		{Type: "string", CPP: "const char*"},
		{Type: "Pose", CPP: "Pose"},
	}, resp.Data)
}

func TestLowerRequiresArgs(t *testing.T) {
	_, err := runCommand(t, NewLowerCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
}
