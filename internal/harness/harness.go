package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/roach88/plansql/internal/compiler"
	"github.com/roach88/plansql/internal/dialect"
	"github.com/roach88/plansql/internal/engine"
	"github.com/roach88/plansql/internal/ir"
	"github.com/roach88/plansql/internal/model"
	"github.com/roach88/plansql/internal/querydoc"
	"github.com/roach88/plansql/internal/store"
)

// Harness runs the steps of one scenario.
//
// One engine serves every step, so plans cached by earlier steps are
// visible to later ones. The store is nil unless the scenario executes.
type Harness struct {
	engine *engine.Engine
	store  *store.Store
	model  *model.Model
	logger *zap.Logger
}

// Options configures a run.
type Options struct {
	// Logger receives engine and harness events. Nil disables logging.
	Logger *zap.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Load the CUE model, if any
//  2. Open a fresh in-memory database when the scenario executes SQL
//  3. Apply setup steps
//  4. Compile each step, execute it if asked, and check its expectations
//
// The returned error reports infrastructure failures. Failed expectations
// are recorded in the Result.
func Run(scenario *Scenario, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("scenario", scenario.Name))

	d, err := dialect.Lookup(scenario.Dialect)
	if err != nil {
		return nil, err
	}

	h := &Harness{logger: logger}
	if scenario.Model != "" {
		if h.model, err = compiler.LoadModel(scenario.Model); err != nil {
			return nil, fmt.Errorf("failed to load model: %w", err)
		}
	}

	cfg := engine.Config{
		Dialect:  d,
		Logger:   logger.Named("engine"),
		Validate: true,
	}
	if h.model != nil {
		cfg.Types = h.model
	}
	h.engine = engine.New(cfg)

	if scenario.executes() {
		if h.store, err = store.Open(":memory:"); err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		defer h.store.Close()
	}

	ctx := context.Background()
	if err := h.executeSetup(ctx, scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for _, step := range scenario.Steps {
		got, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %s: %w", step.Name, err)
		}
		result.AddStep(got)
		for _, msg := range CheckExpect(step, got) {
			result.AddError(msg)
		}
	}

	logger.Debug("scenario finished",
		zap.Bool("pass", result.Pass),
		zap.Int("steps", len(result.Steps)),
		zap.Any("cache", h.engine.Stats()))
	return result, nil
}

// executeSetup creates tables and runs raw statements in order.
func (h *Harness) executeSetup(ctx context.Context, setup []SetupStep) error {
	for i, step := range setup {
		if step.SQL != "" {
			if _, err := h.store.DB().ExecContext(ctx, step.SQL); err != nil {
				return fmt.Errorf("setup[%d]: %w", i, err)
			}
			continue
		}

		ct, err := h.model.CreateTable(step.Create)
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		plan, err := h.engine.Compile(engine.Query{Expr: ct})
		if err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		if _, err := h.store.Exec(ctx, plan.Result); err != nil {
			return fmt.Errorf("setup[%d]: %w", i, err)
		}
		h.logger.Debug("table created", zap.String("entity", step.Create))
	}
	return nil
}

// executeStep compiles one step. Compilation and execution failures are
// step outcomes, not harness errors; only an unreadable step is.
func (h *Harness) executeStep(ctx context.Context, step Step) (StepResult, error) {
	got := StepResult{Name: step.Name}

	q, err := h.decodeStep(step)
	if err != nil {
		if querydoc.IsDocumentError(err) {
			got.Error = err.Error()
			return got, nil
		}
		return got, err
	}

	plan, err := h.engine.Compile(q)
	if err != nil {
		got.Error = err.Error()
		return got, nil
	}
	got.SQL = plan.SQL
	got.Parameters = plan.Parameters
	got.Indexes = plan.ParameterIndexes
	got.Reusable = plan.Reusable()
	got.Cached = plan.Cached
	got.Fingerprint = plan.Fingerprint

	if !step.Execute {
		return got, nil
	}
	if returnsRows(q.Expr) {
		rows, err := h.store.QueryAll(ctx, plan.Result)
		if err != nil {
			got.Error = err.Error()
			return got, nil
		}
		got.Rows = rows.Values
		return got, nil
	}
	n, err := h.store.Exec(ctx, plan.Result)
	if err != nil {
		got.Error = err.Error()
		return got, nil
	}
	got.Affected = &n
	return got, nil
}

// decodeStep builds the engine query for a step. Step-level projector and
// constants take precedence over the document's.
func (h *Harness) decodeStep(step Step) (engine.Query, error) {
	var q engine.Query
	if step.Document != "" {
		doc, err := querydoc.Load(step.Document, h.model)
		if err != nil {
			return q, err
		}
		q = engine.Query{Expr: doc.Expr, Projector: doc.Projector, Constants: doc.Constants}
	} else {
		n := &step.Query
		for n.Kind == yaml.AliasNode {
			n = n.Alias
		}
		e, err := querydoc.DecodeExpr(n, h.model)
		if err != nil {
			return q, err
		}
		q.Expr = e
	}

	if step.Projector != "" {
		q.Projector = step.Projector
	}
	if len(step.Constants) > 0 {
		q.Constants = make([]ir.Value, len(step.Constants))
		for i := range step.Constants {
			v, err := querydoc.DecodeValue(&step.Constants[i])
			if err != nil {
				return q, fmt.Errorf("constants[%d]: %w", i, err)
			}
			q.Constants[i] = v
		}
	}
	return q, nil
}

func returnsRows(e ir.Expr) bool {
	_, ok := e.(*ir.Select)
	return ok
}
