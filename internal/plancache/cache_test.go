package plancache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/querysql"
)

func byName(value ir.Expr) *ir.Select {
	p := ir.NewTable("people", "p")
	return ir.NewSelect("p", p, ir.Col("id", ir.NewColumn("p", "id"))).
		WithWhere(ir.Eq(ir.NewColumn("p", "name"), value))
}

func mustKey(t *testing.T, e ir.Expr, projector string) Key {
	t.Helper()
	k, err := NewKey(e, projector)
	require.NoError(t, err)
	return k
}

func formatter(constants ...ir.Value) ComputeFunc {
	return func() (*querysql.Result, error) {
		return querysql.NewFormatter(nil, querysql.Options{}).Format(byName(ir.Placeholder(0, ir.TypeString)), constants)
	}
}

func TestKeyIgnoresPlaceholderValues(t *testing.T) {
	a := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")
	b := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestKeyDistinguishes(t *testing.T) {
	base := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")

	tests := []struct {
		name string
		key  Key
	}{
		{"projector", mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "scalar")},
		{"placeholder index", mustKey(t, byName(ir.Placeholder(1, ir.TypeString)), "row")},
		{"placeholder type", mustKey(t, byName(ir.Placeholder(0, ir.TypeInt)), "row")},
		{"inline constant", mustKey(t, byName(ir.NewConstant(ir.String("ann"))), "row")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, base.Equal(tt.key))
			assert.NotEqual(t, base.Fingerprint(), tt.key.Fingerprint())
		})
	}
}

func TestNewKeyNil(t *testing.T) {
	_, err := NewKey(nil, "")
	require.Error(t, err)
}

func TestGetOrComputeStoresReusable(t *testing.T) {
	c := New(nil)
	key := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")

	first, hit, err := c.GetOrCompute(key, formatter(ir.String("ann")))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 1, c.Len())

	second, hit, err := c.GetOrCompute(key, func() (*querysql.Result, error) {
		t.Fatal("compute called on a hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Stores: 1, Entries: 1}, c.Stats())
}

func TestGetOrComputeSkipsSingleUse(t *testing.T) {
	c := New(nil)
	key := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")
	evaluate := func() (*querysql.Result, error) {
		return querysql.NewFormatter(nil, querysql.Options{Mode: querysql.ModeEvaluate}).
			Format(byName(ir.Placeholder(0, ir.TypeString)), []ir.Value{ir.String("ann")})
	}

	res, hit, err := c.GetOrCompute(key, evaluate)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, res.Reusable())
	assert.Equal(t, 0, c.Len())

	_, hit, err = c.GetOrCompute(key, evaluate)
	require.NoError(t, err)
	assert.False(t, hit, "single-use results are recomputed")
	assert.Equal(t, int64(2), c.Stats().Misses)
}

func TestGetOrComputeErrorNotStored(t *testing.T) {
	c := New(nil)
	key := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")
	boom := errors.New("boom")

	_, _, err := c.GetOrCompute(key, func() (*querysql.Result, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	_, hit, err := c.GetOrCompute(key, formatter(ir.String("ann")))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestClear(t *testing.T) {
	c := New(nil)
	key := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")
	_, _, err := c.GetOrCompute(key, formatter(ir.String("ann")))
	require.NoError(t, err)

	c.Clear()
	assert.Equal(t, 0, c.Len())
	_, ok := c.Get(key)
	assert.False(t, ok)
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := New(zap.New(core))
	key := mustKey(t, byName(ir.Placeholder(0, ir.TypeString)), "row")

	_, _, err := c.GetOrCompute(key, formatter(ir.String("ann")))
	require.NoError(t, err)
	_, _, err = c.GetOrCompute(key, formatter(ir.String("bob")))
	require.NoError(t, err)

	var messages []string
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
		assert.Equal(t, key.Fingerprint(), e.ContextMap()["fingerprint"])
	}
	assert.Equal(t, []string{"plan cache miss", "plan stored", "plan cache hit"}, messages)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(nil)
	var computed atomic.Int64

	const workers = 16
	const shapes = 4

	keys := make([]Key, shapes)
	for i := range keys {
		keys[i] = mustKey(t, byName(ir.Placeholder(i, ir.TypeString)), "row")
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				k := keys[(w+i)%shapes]
				res, _, err := c.GetOrCompute(k, func() (*querysql.Result, error) {
					computed.Add(1)
					return querysql.NewFormatter(nil, querysql.Options{Mode: querysql.ModeTokens}).Format(k.Expr(), nil)
				})
				assert.NoError(t, err)
				assert.True(t, res.Reusable())
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, shapes, c.Len())
	stats := c.Stats()
	assert.Equal(t, int64(workers*50), stats.Hits+stats.Misses)
	assert.Equal(t, stats.Misses, computed.Load())
	assert.Equal(t, int64(shapes), stats.Stores, "duplicate computes replace rather than add")
}
