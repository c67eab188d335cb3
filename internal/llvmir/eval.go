package llvmir

import (
	"errors"
	"fmt"
)

// Datum is a runtime value for the reference evaluator: a scalar, an
// aggregate, or a pointer to another datum.
type Datum struct {
	Bits uint64
	Agg  []Datum
	Ptr  *Datum
}

// Scalar wraps raw bits in a Datum.
func Scalar(bits uint64) Datum { return Datum{Bits: bits} }

// Aggregate wraps fields in a Datum.
func Aggregate(fields ...Datum) Datum { return Datum{Agg: fields} }

// Ref wraps a pointer to a datum, for by-reference parameters.
func Ref(d *Datum) Datum { return Datum{Ptr: d} }

// ErrEvalBudget reports a runaway evaluation.
var ErrEvalBudget = errors.New("evaluation step budget exceeded")

const maxEvalSteps = 1 << 16

// Eval executes a function on the given arguments using the reference
// semantics of the instruction set. Integer widths above 64 bits are not
// supported by the evaluator.
func Eval(m *Module, f *Func, args []Datum) (Datum, error) {
	e := &evaluator{m: m, fuel: maxEvalSteps}
	return e.call(f, args)
}

type evaluator struct {
	m    *Module
	fuel int
}

func (e *evaluator) step() error {
	e.fuel--
	if e.fuel <= 0 {
		return ErrEvalBudget
	}
	return nil
}

func (e *evaluator) mask(t TypeID) (uint64, error) {
	info := e.m.TypeInfo(t)
	if info.Kind != TyInt {
		return 0, fmt.Errorf("eval: expected integer type, got %s", info.Kind)
	}
	if info.Bits > 64 {
		return 0, fmt.Errorf("eval: unsupported integer width %d", info.Bits)
	}
	if info.Bits == 64 {
		return ^uint64(0), nil
	}
	return (uint64(1) << info.Bits) - 1, nil
}

func (e *evaluator) resolve(f *Func, regs []Datum, v ValueID) (Datum, error) {
	if IsConst(v) {
		c := e.m.constInfo(v)
		if e.m.TypeInfo(c.typ).Kind == TyInt {
			return Scalar(c.bits), nil
		}
		fields := make([]Datum, len(c.fields))
		for i, fld := range c.fields {
			d, err := e.resolve(f, regs, fld)
			if err != nil {
				return Datum{}, err
			}
			fields[i] = d
		}
		return Aggregate(fields...), nil
	}
	if int(v) >= len(regs) {
		return Datum{}, fmt.Errorf("eval: unknown value %d", v)
	}
	return regs[v], nil
}

func (e *evaluator) call(f *Func, args []Datum) (Datum, error) {
	if len(args) != len(f.Params) {
		return Datum{}, fmt.Errorf("eval: %q expects %d arguments, got %d", f.Name, len(f.Params), len(args))
	}
	if len(f.Blocks) == 0 {
		return Datum{}, fmt.Errorf("eval: %q has no body", f.Name)
	}
	regs := make([]Datum, len(f.values))
	for i, p := range f.Params {
		regs[p] = args[i]
	}
	cur := BlockID(0)
	prev := BlockID(0)
	hasPrev := false
	for {
		blk := f.Block(cur)
		for _, iv := range blk.Instrs {
			if err := e.step(); err != nil {
				return Datum{}, err
			}
			if err := e.exec(f, regs, iv, prev, hasPrev); err != nil {
				return Datum{}, err
			}
		}
		switch blk.Term.Kind {
		case TermRet:
			return e.resolve(f, regs, blk.Term.Val)
		case TermRetVoid:
			return Datum{}, nil
		case TermBr:
			prev, cur, hasPrev = cur, blk.Term.Then, true
		case TermCondBr:
			cond, err := e.resolve(f, regs, blk.Term.Cond)
			if err != nil {
				return Datum{}, err
			}
			next := blk.Term.Else
			if cond.Bits != 0 {
				next = blk.Term.Then
			}
			prev, cur, hasPrev = cur, next, true
		default:
			return Datum{}, fmt.Errorf("eval: block %q in %q lacks a terminator", blk.Label, f.Name)
		}
	}
}

func (e *evaluator) exec(f *Func, regs []Datum, iv ValueID, prev BlockID, hasPrev bool) error {
	v := f.ValueInfo(iv)
	switch v.Op {
	case OpAnd, OpOr, OpXor, OpAdd:
		lhs, err := e.resolve(f, regs, v.Args[0])
		if err != nil {
			return err
		}
		rhs, err := e.resolve(f, regs, v.Args[1])
		if err != nil {
			return err
		}
		mask, err := e.mask(v.Type)
		if err != nil {
			return err
		}
		var out uint64
		switch v.Op {
		case OpAnd:
			out = lhs.Bits & rhs.Bits
		case OpOr:
			out = lhs.Bits | rhs.Bits
		case OpXor:
			out = lhs.Bits ^ rhs.Bits
		case OpAdd:
			out = lhs.Bits + rhs.Bits
		}
		regs[iv] = Scalar(out & mask)
	case OpNot:
		in, err := e.resolve(f, regs, v.Args[0])
		if err != nil {
			return err
		}
		mask, err := e.mask(v.Type)
		if err != nil {
			return err
		}
		regs[iv] = Scalar(^in.Bits & mask)
	case OpPhi:
		if !hasPrev {
			return fmt.Errorf("eval: phi in entry block of %q", f.Name)
		}
		for _, in := range v.Incoming {
			if in.Block == prev {
				d, err := e.resolve(f, regs, in.Val)
				if err != nil {
					return err
				}
				regs[iv] = d
				return nil
			}
		}
		return fmt.Errorf("eval: phi in %q has no edge from block %d", f.Name, prev)
	case OpCall:
		args := make([]Datum, len(v.Args))
		for i, a := range v.Args {
			d, err := e.resolve(f, regs, a)
			if err != nil {
				return err
			}
			args[i] = d
		}
		out, err := e.call(v.Callee, args)
		if err != nil {
			return err
		}
		regs[iv] = out
	case OpLoad:
		ptr, err := e.resolve(f, regs, v.Args[0])
		if err != nil {
			return err
		}
		if ptr.Ptr == nil {
			return fmt.Errorf("eval: load through nil pointer in %q", f.Name)
		}
		regs[iv] = *ptr.Ptr
	case OpStore:
		ptr, err := e.resolve(f, regs, v.Args[0])
		if err != nil {
			return err
		}
		val, err := e.resolve(f, regs, v.Args[1])
		if err != nil {
			return err
		}
		if ptr.Ptr == nil {
			return fmt.Errorf("eval: store through nil pointer in %q", f.Name)
		}
		*ptr.Ptr = val
	case OpExtract:
		agg, err := e.resolve(f, regs, v.Args[0])
		if err != nil {
			return err
		}
		if int(v.Index) >= len(agg.Agg) {
			return fmt.Errorf("eval: extract field %d from %d-field aggregate", v.Index, len(agg.Agg))
		}
		regs[iv] = agg.Agg[v.Index]
	case OpAggregate:
		fields := make([]Datum, len(v.Args))
		for i, a := range v.Args {
			d, err := e.resolve(f, regs, a)
			if err != nil {
				return err
			}
			fields[i] = d
		}
		regs[iv] = Aggregate(fields...)
	default:
		return fmt.Errorf("eval: unsupported op %s", v.Op)
	}
	return nil
}
