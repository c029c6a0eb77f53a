// Package engine is the cell store and its reactive recompute machinery.
// It owns the cells, the dependency graph, and the worker pool, and exposes
// the public mutate/read surface. All methods are safe for concurrent use.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/vk/gridcell/internal/ctxlog"
	"github.com/vk/gridcell/internal/expr"
	"github.com/vk/gridcell/internal/graph"
	"github.com/vk/gridcell/internal/hostfn"
	"github.com/vk/gridcell/internal/sched"
	"github.com/vk/gridcell/internal/value"
)

// Options configures a new Engine. The zero value picks sensible defaults.
type Options struct {
	// Workers sizes the recompute pool. Defaults to max(2, NumCPU).
	Workers int
	// InlineThreshold is the largest dependency level evaluated without
	// dispatching to the pool. Defaults to sched.DefaultInlineThreshold.
	InlineThreshold int
	// Host resolves extern() calls. Defaults to an empty registry.
	Host *hostfn.Registry
	// Logger receives engine diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Engine is a reactive cell store: setting a cell re-evaluates it and every
// transitive dependent, in dependency order, fanning wide levels out to a
// bounded worker pool.
//
// Locking: mutations hold the write lock for the whole operation including
// the recompute fan-out, so readers always observe a fully settled store.
// Pool workers only ever write the result slot of their own cell.
type Engine struct {
	mu     sync.RWMutex
	cells  map[string]*cell
	graph  *graph.Graph
	pool   *sched.Pool
	runner *sched.Runner
	host   *hostfn.Registry
	logger *slog.Logger
}

// New builds an engine from the given options and starts its worker pool.
// Callers must Shutdown the engine when done with it.
func New(opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 2 {
			workers = 2
		}
	}
	host := opts.Host
	if host == nil {
		host = hostfn.New()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pool := sched.NewPool(workers)
	e := &Engine{
		cells:  make(map[string]*cell),
		graph:  graph.New(),
		pool:   pool,
		runner: sched.NewRunner(pool, opts.InlineThreshold),
		host:   host,
		logger: logger,
	}
	logger.Debug("Engine started.", "workers", workers)
	return e
}

// Shutdown drains the worker pool. The engine must not be used afterwards.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pool.Shutdown()
	e.logger.Debug("Engine stopped.")
}

// Set stores a definition under id, evaluates it, and recomputes all
// transitive dependents. It fails without changing any state when the id is
// invalid or reserved, or when the definition would close a dependency
// cycle. Evaluation failures are not call errors; they are stored on the
// cell.
func (e *Engine) Set(id, definition string) error {
	if err := validateID(id); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	deps := dependenciesOf(definition)
	if path := e.graph.WouldCycle(id, deps); path != nil {
		return fmt.Errorf("%w: %s", ErrCircularReference, strings.Join(path, " -> "))
	}

	c, ok := e.cells[id]
	if !ok {
		c = &cell{id: id}
		e.cells[id] = c
	}
	c.definition = definition

	// Referencing a cell brings it into existence as an empty placeholder.
	for _, dep := range deps {
		if _, ok := e.cells[dep]; !ok {
			e.cells[dep] = &cell{id: dep}
		}
	}
	e.graph.SetDependencies(id, deps)

	e.evaluateCell(c)
	e.recompute(e.graph.TransitiveDependents(id))
	return nil
}

// SetValue stores a typed Go value under id, rendering it to the definition
// string Set would accept. Strings are stored verbatim, so a string that
// starts with "=" becomes a formula.
func (e *Engine) SetValue(id string, v any) error {
	switch x := v.(type) {
	case nil:
		return e.Set(id, "")
	case string:
		return e.Set(id, x)
	case bool:
		return e.Set(id, strconv.FormatBool(x))
	case int:
		return e.Set(id, strconv.FormatInt(int64(x), 10))
	case int64:
		return e.Set(id, strconv.FormatInt(x, 10))
	case float64:
		return e.Set(id, decimal.NewFromFloat(x).String())
	case decimal.Decimal:
		return e.Set(id, x.String())
	default:
		return e.Set(id, fmt.Sprintf("%v", x))
	}
}

// Del removes the cell and recomputes everything that depended on it.
// Surviving dependents then see an unresolved reference. Deleting a missing
// cell is a no-op.
func (e *Engine) Del(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.cells[id]; !ok {
		return
	}

	// Collect the fan-out before detaching, or the edges are already gone.
	affected := e.graph.TransitiveDependents(id)
	e.graph.Remove(id)
	delete(e.cells, id)
	e.recompute(affected)
}

// Clear drops every cell and every dependency edge.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cells = make(map[string]*cell)
	e.graph.Reset()
}

// Get returns the cell's rendered value. ok is false when the cell does not
// exist or its last evaluation failed.
func (e *Engine) Get(id string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cells[id]
	if !ok || c.err != nil {
		return "", false
	}
	return c.val.String(), true
}

// GetNumber returns the cell's numeric value. ok is false when the cell is
// missing, erroring, or not a number; no coercion is applied.
func (e *Engine) GetNumber(id string) (decimal.Decimal, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cells[id]
	if !ok || c.err != nil {
		return decimal.Decimal{}, false
	}
	return c.val.Number()
}

// GetDefinition returns the raw definition string as given to Set.
func (e *Engine) GetDefinition(id string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cells[id]
	if !ok {
		return "", false
	}
	return c.definition, true
}

// GetError returns the message of the cell's stored evaluation error. ok is
// false when the cell is missing or healthy.
func (e *Engine) GetError(id string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cells[id]
	if !ok || c.err == nil {
		return "", false
	}
	return c.err.Error(), true
}

// GetType returns the kind of the cell's current value ("empty", "number",
// "text", "boolean"). An erroring cell reports "empty".
func (e *Engine) GetType(id string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.cells[id]
	if !ok {
		return "", false
	}
	return c.val.Kind().String(), true
}

// Exists reports whether the cell is present, placeholders included.
func (e *Engine) Exists(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.cells[id]
	return ok
}

// Dependencies returns the ids the cell's formula references, sorted.
func (e *Engine) Dependencies(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Dependencies(id)
}

// Dependents returns the ids whose formulas reference this cell, sorted.
func (e *Engine) Dependents(id string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.graph.Dependents(id)
}

// Recalculate re-evaluates every cell in dependency order. It is the second
// half of a Load, and also repairs a store whose host functions changed
// behavior. It fails when the loaded definitions form a cycle.
func (e *Engine) Recalculate() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.graph.Rebuild()

	subset := make(map[string]struct{}, len(e.cells))
	for id := range e.cells {
		subset[id] = struct{}{}
	}
	order, err := e.graph.TopoOrder(subset)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCircularReference, err)
	}

	levels := e.graph.Levels(order, subset)
	e.runLevels(levels)
	return nil
}

// recompute re-evaluates the given cells in dependency order. Callers hold
// the write lock. The set is cycle-free by construction: Set rejects cycles
// up front and Del only shrinks the graph.
func (e *Engine) recompute(ids []string) {
	if len(ids) == 0 {
		return
	}

	subset := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		subset[id] = struct{}{}
	}
	order, err := e.graph.TopoOrder(subset)
	if err != nil {
		e.logger.Error("Recompute set is cyclic; skipping.", "error", err)
		return
	}

	e.runLevels(e.graph.Levels(order, subset))
}

func (e *Engine) runLevels(levels [][]string) {
	if len(levels) == 0 {
		return
	}
	ctx := ctxlog.WithLogger(context.Background(), e.logger)
	e.runner.Run(ctx, levels, func(id string) {
		if c, ok := e.cells[id]; ok {
			e.evaluateCell(c)
		}
	})
}

// evaluateCell refreshes one cell's result slot from its definition. Safe to
// call from pool workers: it reads the cell map without mutating it and
// writes only this cell's slot, while dependencies were settled by earlier
// levels.
func (e *Engine) evaluateCell(c *cell) {
	def := c.definition
	switch {
	case def == "":
		c.setValue(value.Empty())
	case strings.HasPrefix(def, FormulaMarker):
		v, err := expr.Evaluate(def[len(FormulaMarker):], e.lookup, e.host)
		if err != nil {
			c.setError(err)
		} else {
			c.setValue(v)
		}
	default:
		c.setValue(value.ParseLiteral(def))
	}
}

// lookup resolves a referenced cell during formula evaluation. Missing and
// erroring cells poison the referencing formula rather than reading as zero.
func (e *Engine) lookup(id string) (value.Value, error) {
	c, ok := e.cells[id]
	if !ok {
		return value.Empty(), fmt.Errorf("%w: cell %q does not exist", expr.ErrUnresolvedReference, id)
	}
	if c.err != nil {
		return value.Empty(), fmt.Errorf("%w: cell %q has an error", expr.ErrUnresolvedReference, id)
	}
	return c.val, nil
}

// CellInfo is one row of a Snapshot.
type CellInfo struct {
	ID           string
	Definition   string
	Value        value.Value
	Error        string
	Dependencies []string
}

// Snapshot returns a read-consistent copy of every cell, sorted by id.
func (e *Engine) Snapshot() []CellInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]CellInfo, 0, len(e.cells))
	for id, c := range e.cells {
		info := CellInfo{
			ID:           id,
			Definition:   c.definition,
			Value:        c.val,
			Dependencies: e.graph.Dependencies(id),
		}
		if c.err != nil {
			info.Error = c.err.Error()
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func errWithID(sentinel error, id string) error {
	return fmt.Errorf("%w: %q", sentinel, id)
}
