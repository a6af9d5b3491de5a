package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/plansql/internal/ir"
)

func TestSnapshot(t *testing.T) {
	affected := int64(4)
	s := &Scenario{Name: "snap", Dialect: "sqlite"}
	r := &Result{Steps: []StepResult{
		{
			Name: "select",
			SQL:  "SELECT \"a\"\nFROM \"t\"",
			Parameters: []ir.TypedValue{
				{Type: ir.TypeBool, Value: true},
				{Type: ir.TypeString, Value: "x"},
				{Type: ir.TypeBytes, Value: []byte{0xca, 0xfe}},
				{Type: ir.TypeInt, Value: nil},
			},
			Indexes:  map[int]int{1: 0, 3: 2},
			Reusable: true,
			Rows:     [][]any{{int64(1), "a"}, {nil, 2.5}},
		},
		{Name: "delete", SQL: "DELETE FROM \"t\"", Reusable: true, Cached: true, Affected: &affected},
		{Name: "broken", Error: "format: boom"},
	}}

	want := `scenario: snap
dialect: sqlite

-- select --
reusable: true, cached: false
param 0: bool true
param 1: string "x" <- $0
param 2: bytes x'cafe'
param 3: int null <- $2
SELECT "a"
FROM "t"
row: 1, "a"
row: null, 2.5

-- delete --
reusable: true, cached: true
DELETE FROM "t"
affected: 4

-- broken --
error: format: boom
`
	assert.Equal(t, want, string(Snapshot(s, r)))
}
