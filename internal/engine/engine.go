package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/plancache"
	"github.com/roach88/plansql/internal/querysql"
	"github.com/roach88/plansql/internal/rewrite"
)

// Config configures an Engine. The zero value is usable: the SQL-92
// dialect, parameterize mode, no logging, no validation.
type Config struct {
	// Dialect is the target dialect. Nil means dialect.SQL92().
	Dialect *dialect.Dialect

	// Options are the formatter options. Plans are cached only in
	// parameterize and tokens modes; evaluate mode always formats afresh.
	Options querysql.Options

	// Logger receives Debug events for cache activity. Nil disables logging.
	Logger *zap.Logger

	// Validate runs ir.Validate on every cache miss and rejects trees with
	// structural problems.
	Validate bool

	// Types decides entity assignability for object-operand expansion.
	// Nil treats only identically named entities as assignable.
	Types rewrite.Assignability

	// DisableCache turns off plan reuse.
	DisableCache bool
}

// Query is one compilation request.
type Query struct {
	Expr ir.Expr

	// Projector identifies how result rows are materialized. Queries that
	// differ only in projector never share a plan.
	Projector string

	// Constants are the values placeholders resolve to, by index.
	Constants []ir.Value
}

// Plan is the compiled form of a Query.
type Plan struct {
	*querysql.Result

	// Fingerprint is the structural fingerprint of the query.
	Fingerprint string

	// Cached is true when the SQL text came from the plan cache.
	Cached bool
}

// Engine compiles queries to SQL for one dialect.
//
// Thread-safety model:
//   - Compile(): safe from any goroutine
//   - Stats(): safe from any goroutine
type Engine struct {
	formatter *querysql.Formatter
	cache     *plancache.Cache
	logger    *zap.Logger
	types     rewrite.Assignability
	validate  bool
	caching   bool
}

// New creates an Engine from cfg.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		formatter: querysql.NewFormatter(cfg.Dialect, cfg.Options),
		cache:     plancache.New(logger.Named("plancache")),
		logger:    logger,
		types:     cfg.Types,
		validate:  cfg.Validate,
		caching:   !cfg.DisableCache && cfg.Options.Mode != querysql.ModeEvaluate,
	}
}

// Dialect returns the engine's target dialect.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.formatter.Dialect()
}

// Compile lowers q to SQL text and ordered parameters.
func (e *Engine) Compile(q Query) (*Plan, error) {
	if q.Expr == nil {
		return nil, &CompileError{Code: ErrCodeInvalidQuery, Message: "query has no expression"}
	}

	key, err := plancache.NewKey(q.Expr, q.Projector)
	if err != nil {
		return nil, err
	}
	fp := key.Fingerprint()

	if !e.caching {
		res, err := e.compile(q, fp)
		if err != nil {
			return nil, err
		}
		return &Plan{Result: res, Fingerprint: fp}, nil
	}

	res, hit, err := e.cache.GetOrCompute(key, func() (*querysql.Result, error) {
		return e.compile(q, fp)
	})
	if err != nil {
		return nil, err
	}
	if !hit {
		return &Plan{Result: res, Fingerprint: fp}, nil
	}

	rebound, err := res.Rebind(q.Constants)
	if err != nil {
		e.logger.Debug("rebind failed, formatting afresh",
			zap.String("fingerprint", fp), zap.Error(err))
		fresh, err := e.compile(q, fp)
		if err != nil {
			return nil, err
		}
		return &Plan{Result: fresh, Fingerprint: fp}, nil
	}
	return &Plan{Result: rebound, Fingerprint: fp, Cached: true}, nil
}

// compile runs validation, the rewrite passes and the formatter.
func (e *Engine) compile(q Query, fp string) (*querysql.Result, error) {
	if e.validate {
		if v := ir.Validate(q.Expr); !v.Valid {
			return nil, NewInvalidTreeError(fp, v.Problems)
		}
	}
	rewritten, err := rewrite.Apply(q.Expr, e.types)
	if err != nil {
		return nil, fmt.Errorf("rewrite: %w", err)
	}
	res, err := e.formatter.Format(rewritten, q.Constants)
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return res, nil
}

// Stats returns the plan cache counters.
func (e *Engine) Stats() plancache.Stats {
	return e.cache.Stats()
}
