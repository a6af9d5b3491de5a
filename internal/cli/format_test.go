package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopModel = "testdata/models/shop.cue"

type formatResponse struct {
	Status string       `json:"status"`
	Data   FormatOutput `json:"data"`
	Error  *CLIError    `json:"error"`
}

func formatJSON(t *testing.T, args ...string) formatResponse {
	t.Helper()
	out, _, err := execute(t, append([]string{"--format", "json", "format"}, args...)...)
	require.NoError(t, err)
	var resp formatResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	return resp
}

func TestFormatUsesDocumentDialect(t *testing.T) {
	resp := formatJSON(t, "testdata/queries/users_by_age.yaml")

	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "users_by_age", resp.Data.Name)
	assert.Equal(t, "postgres", resp.Data.Dialect)
	assert.Equal(t, "parameterize", resp.Data.Mode)
	assert.Equal(t, "SELECT \"u\".\"name\"\nFROM \"users\" AS \"u\"\nWHERE \"u\".\"age\" > $1", resp.Data.SQL)
	assert.True(t, resp.Data.Reusable)
	assert.Equal(t, map[int]int{0: 0}, resp.Data.ParameterIndexes)
	require.Len(t, resp.Data.Parameters, 1)
	assert.Equal(t, "int", resp.Data.Parameters[0].Type)
	assert.EqualValues(t, 18, resp.Data.Parameters[0].Value)
	require.NotNil(t, resp.Data.Parameters[0].Placeholder)
	assert.Equal(t, 0, *resp.Data.Parameters[0].Placeholder)
	assert.Len(t, resp.Data.Fingerprint, 64)
}

func TestFormatDialectOverride(t *testing.T) {
	resp := formatJSON(t, "testdata/queries/users_by_age.yaml", "--dialect", "sqlite")
	assert.Equal(t, "sqlite", resp.Data.Dialect)
	assert.Contains(t, resp.Data.SQL, `WHERE "u"."age" > @param0`)

	resp = formatJSON(t, "testdata/queries/users_by_age.yaml", "--dialect", "mysql")
	assert.Contains(t, resp.Data.SQL, "WHERE `u`.`age` > ?")
}

func TestFormatDialectFile(t *testing.T) {
	resp := formatJSON(t, "testdata/queries/users_by_age.yaml",
		"--dialect", "sqlite", "--dialect-file", "testdata/dialects/duckdb.yaml")

	assert.Equal(t, "duckdb", resp.Data.Dialect)
	assert.Contains(t, resp.Data.SQL, `WHERE "u"."age" > $1`)
}

func TestFormatModes(t *testing.T) {
	t.Run("evaluate", func(t *testing.T) {
		resp := formatJSON(t, "testdata/queries/users_by_age.yaml", "--mode", "evaluate")
		assert.Contains(t, resp.Data.SQL, `WHERE "u"."age" > 18`)
		assert.Empty(t, resp.Data.Parameters)
		assert.False(t, resp.Data.Reusable)
	})

	t.Run("tokens", func(t *testing.T) {
		resp := formatJSON(t, "testdata/queries/users_by_age.yaml", "--mode", "tokens")
		assert.Contains(t, resp.Data.SQL, `WHERE "u"."age" > $$0`)
		assert.Empty(t, resp.Data.Parameters)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := execute(t, "format", "testdata/queries/users_by_age.yaml", "--mode", "inline")
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
		assert.Contains(t, err.Error(), "unknown mode")
	})
}

func TestFormatExpandsEntitiesWithModel(t *testing.T) {
	resp := formatJSON(t, "testdata/queries/by_region.yaml", "--model", shopModel)

	assert.Equal(t, "sqlite", resp.Data.Dialect)
	assert.Contains(t, resp.Data.SQL,
		`WHERE ("p"."region_id" = @param0 AND "p"."region_name" = @param1)`)
	require.Len(t, resp.Data.Parameters, 2)
	assert.Equal(t, "string", resp.Data.Parameters[1].Type)
	assert.Equal(t, "north", resp.Data.Parameters[1].Value)
}

func TestFormatText(t *testing.T) {
	out, _, err := execute(t, "format", "testdata/queries/users_by_age.yaml")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, `SELECT "u"."name"`, lines[0])
	assert.Equal(t, `WHERE "u"."age" > $1`, lines[2])
	assert.Equal(t, "param 0: int 18 <- $0", lines[4])
	assert.Equal(t, "dialect: postgres, reusable: true", lines[6])
	assert.True(t, strings.HasPrefix(lines[7], "fingerprint: "))
}

func TestFormatIndent(t *testing.T) {
	resp := formatJSON(t, "testdata/queries/by_region.yaml", "--model", shopModel, "--indent", "4")
	assert.Contains(t, resp.Data.SQL, "ORDER BY")
}

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		code     string
		contains string
	}{
		{
			name:     "missing document",
			args:     []string{"testdata/queries/nope.yaml"},
			exitCode: ExitCommandError,
			code:     ErrCodeNotFound,
			contains: "query document not found",
		},
		{
			name:     "malformed document",
			args:     []string{"testdata/queries/unknown_kind.yaml"},
			exitCode: ExitCommandError,
			code:     ErrCodeDocument,
			contains: `unknown expression kind "frobnicate"`,
		},
		{
			name:     "entity without model",
			args:     []string{"testdata/queries/by_region.yaml"},
			exitCode: ExitCommandError,
			code:     ErrCodeDocument,
		},
		{
			name:     "unknown dialect",
			args:     []string{"testdata/queries/users_by_age.yaml", "--dialect", "oracle"},
			exitCode: ExitCommandError,
			code:     ErrCodeDialect,
			contains: `unknown dialect "oracle"`,
		},
		{
			name:     "missing model",
			args:     []string{"testdata/queries/users_by_age.yaml", "--model", "testdata/models/none.cue"},
			exitCode: ExitCommandError,
			code:     ErrCodeNotFound,
			contains: "model not found",
		},
		{
			name:     "missing constant",
			args:     []string{"testdata/queries/missing_constant.yaml"},
			exitCode: ExitFailure,
			code:     ErrCodeCompile,
			contains: "INVALID_PLACEHOLDER",
		},
		{
			name:     "invalid tree",
			args:     []string{"testdata/queries/unresolved_alias.yaml"},
			exitCode: ExitFailure,
			code:     ErrCodeCompile,
			contains: "unknown alias",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json", "format"}, tt.args...)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))

			var resp formatResponse
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.contains)
		})
	}
}
