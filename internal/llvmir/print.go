package llvmir

import (
	"fmt"
	"strings"
)

// Print renders the module as LLVM-flavoured text. The output is meant for
// goldens and debugging, not for feeding a real toolchain.
func Print(m *Module) string {
	var buf strings.Builder
	if m.Target != "" {
		fmt.Fprintf(&buf, "target triple = %q\n\n", m.Target)
	}
	for i, f := range m.funcs {
		if i > 0 {
			buf.WriteString("\n")
		}
		printFunc(&buf, m, f)
	}
	return buf.String()
}

func (m *Module) typeString(id TypeID) string {
	if id == NoTypeID {
		return "void"
	}
	t := m.TypeInfo(id)
	switch t.Kind {
	case TyVoid:
		return "void"
	case TyInt:
		return fmt.Sprintf("i%d", t.Bits)
	case TyPtr:
		return "ptr"
	case TyStruct:
		parts := make([]string, len(t.Fields))
		for i, fld := range t.Fields {
			parts[i] = m.typeString(fld)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case TyFunc:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = m.typeString(p)
		}
		return fmt.Sprintf("%s (%s)", m.typeString(t.Ret), strings.Join(parts, ", "))
	default:
		return "invalid"
	}
}

func (m *Module) operandString(f *Func, v ValueID) string {
	if v == NoValueID {
		return "void"
	}
	if IsConst(v) {
		c := m.constInfo(v)
		ct := m.TypeInfo(c.typ)
		if ct.Kind == TyInt {
			if ct.Bits == 1 {
				if c.bits != 0 {
					return "true"
				}
				return "false"
			}
			return fmt.Sprintf("%d", c.bits)
		}
		parts := make([]string, len(c.fields))
		for i, fld := range c.fields {
			parts[i] = m.typeString(m.constInfo(fld).typ) + " " + m.operandString(f, fld)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	}
	return fmt.Sprintf("%%v%d", v)
}

func printFunc(buf *strings.Builder, m *Module, f *Func) {
	sig := m.TypeInfo(f.Sig)
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = fmt.Sprintf("%s %%v%d", m.typeString(sig.Params[i]), p)
	}
	linkage := ""
	if f.Exported {
		linkage = "dso_local "
	}
	fmt.Fprintf(buf, "define %s%s @%s(%s) {\n", linkage, m.typeString(sig.Ret), f.Name, strings.Join(params, ", "))
	for _, blk := range f.Blocks {
		fmt.Fprintf(buf, "%s:\n", blk.Label)
		for _, iv := range blk.Instrs {
			printInstr(buf, m, f, iv)
		}
		printTerm(buf, m, f, blk.Term)
	}
	buf.WriteString("}\n")
}

func printInstr(buf *strings.Builder, m *Module, f *Func, iv ValueID) {
	v := f.ValueInfo(iv)
	ty := m.typeString(v.Type)
	switch v.Op {
	case OpAnd, OpOr, OpXor, OpAdd:
		fmt.Fprintf(buf, "  %%v%d = %s %s %s, %s\n", iv, v.Op, ty, m.operandString(f, v.Args[0]), m.operandString(f, v.Args[1]))
	case OpNot:
		fmt.Fprintf(buf, "  %%v%d = xor %s %s, -1\n", iv, ty, m.operandString(f, v.Args[0]))
	case OpPhi:
		parts := make([]string, len(v.Incoming))
		for i, in := range v.Incoming {
			parts[i] = fmt.Sprintf("[ %s, %%%s ]", m.operandString(f, in.Val), f.Block(in.Block).Label)
		}
		fmt.Fprintf(buf, "  %%v%d = phi %s %s\n", iv, ty, strings.Join(parts, ", "))
	case OpCall:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = m.typeString(f.ValueType(a)) + " " + m.operandString(f, a)
		}
		if v.Type == NoTypeID {
			fmt.Fprintf(buf, "  call void @%s(%s)\n", v.Callee.Name, strings.Join(args, ", "))
		} else {
			fmt.Fprintf(buf, "  %%v%d = call %s @%s(%s)\n", iv, ty, v.Callee.Name, strings.Join(args, ", "))
		}
	case OpLoad:
		fmt.Fprintf(buf, "  %%v%d = load %s, ptr %s\n", iv, ty, m.operandString(f, v.Args[0]))
	case OpStore:
		fmt.Fprintf(buf, "  store %s %s, ptr %s\n", m.typeString(f.ValueType(v.Args[1])), m.operandString(f, v.Args[1]), m.operandString(f, v.Args[0]))
	case OpExtract:
		fmt.Fprintf(buf, "  %%v%d = extractvalue %s %s, %d\n", iv, m.typeString(f.ValueType(v.Args[0])), m.operandString(f, v.Args[0]), v.Index)
	case OpAggregate:
		prev := "undef"
		for i, a := range v.Args {
			name := fmt.Sprintf("%%v%d.%d", iv, i)
			if i == len(v.Args)-1 {
				name = fmt.Sprintf("%%v%d", iv)
			}
			fmt.Fprintf(buf, "  %s = insertvalue %s %s, %s %s, %d\n", name, ty, prev, m.typeString(f.ValueType(a)), m.operandString(f, a), i)
			prev = name
		}
	default:
		fmt.Fprintf(buf, "  ; unknown instruction %%v%d (%s)\n", iv, v.Op)
	}
}

func printTerm(buf *strings.Builder, m *Module, f *Func, t Terminator) {
	switch t.Kind {
	case TermRet:
		fmt.Fprintf(buf, "  ret %s %s\n", m.typeString(f.ValueType(t.Val)), m.operandString(f, t.Val))
	case TermRetVoid:
		buf.WriteString("  ret void\n")
	case TermBr:
		fmt.Fprintf(buf, "  br label %%%s\n", f.Block(t.Then).Label)
	case TermCondBr:
		fmt.Fprintf(buf, "  br i1 %s, label %%%s, label %%%s\n", m.operandString(f, t.Cond), f.Block(t.Then).Label, f.Block(t.Else).Label)
	case TermNone:
		buf.WriteString("  ; missing terminator\n")
	}
}
