package infer

import (
	"log/slog"

	"github.com/impalago/infersema/frontend/ast"
	"github.com/impalago/infersema/frontend/ilerr"
	"github.com/impalago/infersema/frontend/types"
	"github.com/impalago/infersema/internal/log"
)

// DefaultMaxPasses bounds the number of passes of a Run. Programs whose
// types keep growing, such as `let x = &x;`, are stopped by it.
const DefaultMaxPasses = 100

var driverLogger = log.DefaultLogger.With("section", "driver")

type State int

const (
	Running State = iota
	Converged
	Capped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Capped:
		return "capped"
	default:
		return "unknown"
	}
}

// PassHook is called after every pass, before the driver decides whether to
// run another one.
type PassHook func(d *Driver, pass int)

type Option func(*Driver)

func WithMaxPasses(n int) Option {
	return func(d *Driver) {
		if n > 0 {
			d.maxPasses = n
		}
	}
}

// WithLogger replaces the loggers of the driver and of the passes it runs
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		d.logger = l.With("section", "driver")
		d.sema.logger = ast.NodeLogger(l.With("section", "inference"))
	}
}

func WithPassHook(hook PassHook) Option {
	return func(d *Driver) { d.hook = hook }
}

type Result struct {
	Passes int
	State  State
	Errors *ilerr.Errors
	// Unresolved is the number of distinct unknowns left in the module
	Unresolved int
}

func (r Result) Converged() bool { return r.State == Converged }

// Driver reruns inference over a module until a pass changes nothing, or
// until it gave up after its pass cap. The bindings learned survive across
// calls to Run, so rerunning on a converged module takes a single pass.
type Driver struct {
	sema      *Sema
	maxPasses int
	hook      PassHook
	state     State
	logger    *slog.Logger
}

func NewDriver(store *types.Store, opts ...Option) *Driver {
	d := &Driver{
		sema:      NewSema(store),
		maxPasses: DefaultMaxPasses,
		logger:    driverLogger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) Sema() *Sema                     { return d.sema }
func (d *Driver) State() State                    { return d.state }
func (d *Driver) Resolve(t types.Type) types.Type { return d.sema.Resolve(t) }

func (d *Driver) Run(mod *ast.ModContents) Result {
	d.state = Running
	pass := 0
	for d.state == Running {
		d.sema.todo = false
		d.sema.checkModContents(mod)
		pass++
		d.logger.Debug("pass done", "pass", pass, "todo", d.sema.todo)
		if d.hook != nil {
			d.hook(d, pass)
		}
		switch {
		case !d.sema.todo:
			d.state = Converged
		case pass >= d.maxPasses:
			d.state = Capped
		}
	}

	if d.state == Capped {
		d.logger.Warn("type inference did not converge", "passes", pass)
		d.sema.report(mod, ilerr.New(ilerr.NewNonConvergence{Positioner: mod, Passes: pass}))
	} else {
		d.logger.Info("type inference converged", "passes", pass)
	}

	unresolved := d.finalize(mod)
	return Result{
		Passes:     pass,
		State:      d.state,
		Errors:     d.sema.errs,
		Unresolved: len(unresolved),
	}
}

// finalize writes the resolved type back into every cell of mod and returns
// the unknowns still left in them
func (d *Driver) finalize(mod *ast.ModContents) []*types.UnknownType {
	var all []types.Type
	resolve := func(slot *types.Type) {
		if *slot == nil {
			return
		}
		*slot = d.sema.Resolve(*slot)
		all = append(all, *slot)
	}
	ast.Inspect(mod, func(n ast.Node) bool {
		if typed, ok := n.(ast.TypedNode); ok && typed.Type() != nil {
			t := d.sema.Resolve(typed.Type())
			typed.SetType(t)
			all = append(all, t)
		}
		switch n := n.(type) {
		case *ast.MapExpr:
			resolve(&n.FnMono)
			for i := range n.InstArgs {
				resolve(&n.InstArgs[i])
			}
		case *ast.StructExpr:
			for i := range n.InstArgs {
				resolve(&n.InstArgs[i])
			}
		}
		return true
	})
	unknowns := types.UnknownsIn(all...)
	if len(unknowns) > 0 {
		d.logger.Debug("unresolved unknowns left", "count", len(unknowns))
	}
	return unknowns
}

// Infer runs a fresh driver over mod
func Infer(mod *ast.ModContents, opts ...Option) Result {
	return NewDriver(types.NewStore(), opts...).Run(mod)
}
