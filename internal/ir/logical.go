package ir

// Truth-table conventions for KindLogical nodes.
//
// An arity-n combinator stores its full truth table in the low 2^n bits of
// Table. Bit i holds the output for the input assignment encoding i with the
// FIRST argument as the most significant bit. Splitting on the first argument
// therefore takes the upper or lower half of the table, which is what the
// Shannon-expansion fallback in the lowering engine leans on.

// MaxLogicalArity bounds combinator arity so the table fits a uint8.
const MaxLogicalArity = 3

// Common single-byte truth tables.
const (
	TableNot uint8 = 0b01   // arity 1
	TableId  uint8 = 0b10   // arity 1
	TableAnd uint8 = 0b1000 // arity 2
	TableOr  uint8 = 0b1110 // arity 2
	TableXor uint8 = 0b0110 // arity 2
)

// TableMask returns the mask of meaningful table bits for an arity.
func TableMask(arity uint8) uint8 {
	return uint8(1<<(1<<arity)) - 1
}

// SplitTable partially applies the first argument, returning the truth table
// of the remaining (arity-1)-ary combinator.
func SplitTable(table uint8, arity uint8, first bool) uint8 {
	half := uint8(1) << (arity - 1)
	if first {
		table >>= half
	}
	return table & (uint8(1<<half) - 1)
}

// TableConst reports whether the table denotes a constant function and, if
// so, the constant.
func TableConst(table uint8, arity uint8) (value bool, ok bool) {
	m := TableMask(arity)
	switch table & m {
	case 0:
		return false, true
	case m:
		return true, true
	default:
		return false, false
	}
}

// Not returns the unary negation combinator.
func (g *Graph) Not() NodeID { return g.Logical(1, TableNot) }

// Id returns the unary identity combinator.
func (g *Graph) Id() NodeID { return g.Logical(1, TableId) }

// And returns the binary conjunction combinator.
func (g *Graph) And() NodeID { return g.Logical(2, TableAnd) }

// Or returns the binary disjunction combinator.
func (g *Graph) Or() NodeID { return g.Logical(2, TableOr) }

// Xor returns the binary exclusive-or combinator.
func (g *Graph) Xor() NodeID { return g.Logical(2, TableXor) }
