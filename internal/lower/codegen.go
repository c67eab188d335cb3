package lower

import (
	"fmt"

	"rill/internal/ir"
	"rill/internal/llvmir"
	"rill/internal/trace"
)

// ValKind enumerates the shapes of lowered values.
type ValKind uint8

const (
	ValInvalid ValKind = iota
	// ValValue is an actual machine value (scalar or aggregate).
	ValValue
	// ValFunc is a compiled function.
	ValFunc
	// ValUnit is the erased-but-present value of a proposition type.
	ValUnit
	// ValContr is the erased, unreachable value of an uninhabited type.
	ValContr
	// ValIrrep marks a value of a type the engine cannot represent; it is
	// propagated, never silently discarded.
	ValIrrep
)

func (k ValKind) String() string {
	switch k {
	case ValInvalid:
		return "invalid"
	case ValValue:
		return "value"
	case ValFunc:
		return "func"
	case ValUnit:
		return "unit"
	case ValContr:
		return "contr"
	case ValIrrep:
		return "irrep"
	default:
		return fmt.Sprintf("ValKind(%d)", k)
	}
}

// Val is a lowered value.
type Val struct {
	Kind ValKind
	Ref  llvmir.ValueID // ValValue
	Fn   *llvmir.Func   // ValFunc
}

func valueVal(ref llvmir.ValueID) Val { return Val{Kind: ValValue, Ref: ref} }
func funcVal(f *llvmir.Func) Val      { return Val{Kind: ValFunc, Fn: f} }

// Unit is the lowered value of any proposition type.
var Unit = Val{Kind: ValUnit}

// Contr is the lowered value of any uninhabited type.
var Contr = Val{Kind: ValContr}

// Irrep marks a lowered value of an irrepresentable type.
var Irrep = Val{Kind: ValIrrep}

// Codegen lowers values of one graph into one output module. An instance is
// single-threaded: its caches and its builder insertion point are unguarded
// mutable state. Distinct instances are fully independent. The graph is
// required to be a DAG; the engine relies on that precondition and does not
// re-verify it.
type Codegen struct {
	graph *ir.Graph
	mod   *llvmir.Module
	b     *llvmir.Builder
	opts  Options
	tr    trace.Tracer

	// Type representations; sound to memoize per session because selection
	// is a pure function of interned type identity.
	reprs map[ir.NodeID]Repr
	// Fully-lowered depth-0 values, valid across all functions.
	consts map[ir.NodeID]Val
	// Region-scoped local bindings.
	scopes *scopeChain

	// Function name counter.
	counter int

	// Current emission target. curFn nil means no function is open.
	curFn     *llvmir.Func
	curRegion ir.RegionID
}

// New constructs a lowering context for graph emitting into a fresh module.
func New(graph *ir.Graph, opts Options) *Codegen {
	opts = opts.withDefaults()
	mod := llvmir.NewModule(opts.ModuleName)
	mod.Target = opts.TargetTriple
	return &Codegen{
		graph:  graph,
		mod:    mod,
		b:      llvmir.NewBuilder(mod),
		opts:   opts,
		tr:     opts.tracer(),
		reprs:  make(map[ir.NodeID]Repr, 32),
		consts: make(map[ir.NodeID]Val, 32),
		scopes: newScopeChain(),
	}
}

// Module returns the output module.
func (cg *Codegen) Module() *llvmir.Module { return cg.mod }

// Lower compiles a value into the output module. Depth-0 values are
// memoized globally; deeper values are memoized in the current scope layer,
// so a node referenced twice is compiled once.
func (cg *Codegen) Lower(v ir.NodeID) (Val, error) {
	if cg.graph.DepthOf(v) == 0 {
		if cached, ok := cg.consts[v]; ok {
			if cg.tr.Enabled(trace.LevelDetail) {
				cg.tr.Emit(trace.Event{Level: trace.LevelDetail, Phase: "const", Msg: fmt.Sprintf("hit node %d", v)})
			}
			return cached, nil
		}
		out, err := cg.lowerValue(v)
		if err != nil {
			return Val{}, err
		}
		if globallyValid(out) {
			cg.consts[v] = out
		} else if cg.scopes.inScope() {
			cg.scopes.insert(v, out)
		}
		return out, nil
	}
	if cached, ok := cg.scopes.lookup(v); ok {
		return cached, nil
	}
	out, err := cg.lowerValue(v)
	if err != nil {
		return Val{}, err
	}
	if cg.scopes.inScope() {
		cg.scopes.insert(v, out)
	}
	return out, nil
}

// globallyValid reports whether a lowered value may live in the global
// constant cache: function handles, erased markers and module-level
// constants are valid everywhere, instruction results are not.
func globallyValid(v Val) bool {
	switch v.Kind {
	case ValFunc, ValUnit, ValContr, ValIrrep:
		return true
	case ValValue:
		return llvmir.IsConst(v.Ref)
	default:
		return false
	}
}

// lowerValue dispatches on the node's structural variant.
func (cg *Codegen) lowerValue(v ir.NodeID) (Val, error) {
	n := cg.graph.Node(v)
	switch n.Kind {
	case ir.KindBool:
		return valueVal(cg.boolConst(n.Lit != 0)), nil
	case ir.KindIndex:
		return cg.lowerIndex(v)
	case ir.KindBits:
		return cg.lowerBits(v)
	case ir.KindTuple:
		return cg.lowerTuple(v)
	case ir.KindLambda:
		return cg.lowerLambda(v)
	case ir.KindTernary:
		return cg.lowerTernary(v)
	case ir.KindApply:
		return cg.lowerApply(n.Elems[0], n.Elems[1:])
	case ir.KindLogical:
		if c, ok := ir.TableConst(n.Table, n.Arity); ok {
			return valueVal(cg.boolConst(c)), nil
		}
		return Val{}, fmt.Errorf("%w: first-class logical combinators", ErrNotImplemented)
	case ir.KindParam:
		// Parameters are pre-registered when their region is entered; a miss
		// here means the caller skipped that registration.
		return Val{}, fmt.Errorf("%w: parameter %d of region %d is not registered in scope", ErrInternal, n.Lit, n.Region)
	case ir.KindBoolTy, ir.KindFiniteTy, ir.KindBitsTy, ir.KindProduct, ir.KindPi, ir.KindAdd:
		return Val{}, fmt.Errorf("%w: lowering %s nodes as first-class values", ErrNotImplemented, n.Kind)
	default:
		return Val{}, fmt.Errorf("%w: lowering %s nodes", ErrNotImplemented, n.Kind)
	}
}

// boolConst builds an i1 constant.
func (cg *Codegen) boolConst(b bool) llvmir.ValueID {
	bits := uint64(0)
	if b {
		bits = 1
	}
	return cg.mod.ConstInt(cg.mod.IntType(1), bits)
}

// nextName allocates a fresh generated-function name.
func (cg *Codegen) nextName(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, cg.counter)
	cg.counter++
	return name
}

// lowerInline lowers body as if the owning function were inlined at the
// current position: a fresh scope layer is grafted onto the least common
// ancestor of the current region and the target region, the target region's
// parameters are bound to paramVals, and the layer is discarded on exit.
func (cg *Codegen) lowerInline(region ir.RegionID, body ir.NodeID, paramVals []Val) (out Val, err error) {
	base := cg.scopes.top
	if cg.curRegion != region {
		gcr := cg.graph.LCA(cg.curRegion, cg.graph.Region(region).Parent)
		dd := cg.graph.Region(cg.curRegion).Depth - cg.graph.Region(gcr).Depth
		base = cg.scopes.ancestor(dd)
	}
	prevTop := cg.scopes.push(base, region)
	prevRegion := cg.curRegion
	cg.curRegion = region
	defer func() {
		cg.curRegion = prevRegion
		cg.scopes.pop(prevTop)
	}()

	for i, pv := range paramVals {
		cg.scopes.insert(cg.graph.Param(region, i), pv)
	}
	return cg.Lower(body)
}
