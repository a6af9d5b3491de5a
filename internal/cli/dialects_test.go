package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectsText(t *testing.T) {
	out, _, err := execute(t, "dialects")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "mysql      parameters=positional limit=comma for-update", lines[0])
	assert.Equal(t, "postgres   parameters=numbered limit=offset for-update", lines[1])
	assert.Equal(t, "sql92      parameters=named limit=comma for-update", lines[2])
	assert.Equal(t, "sqlite     parameters=named limit=comma", lines[3])
}

func TestDialectsJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "dialects")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   []DialectInfo `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 4)
	assert.Equal(t, DialectInfo{
		Name:              "postgres",
		ParameterStyle:    "numbered",
		LimitStyle:        "offset",
		SupportsForUpdate: true,
	}, resp.Data[1])
}

func TestDialectsRejectsArgs(t *testing.T) {
	_, _, err := execute(t, "dialects", "sqlite")
	require.Error(t, err)
}
