package ast

type PrefixOp int

const (
	Ref    PrefixOp = iota // &
	Owned                  // ~
	Deref                  // *
	PreInc                 // ++
	PreDec                 // --
	Plus                   // +
	Neg                    // -
	Not                    // !
	Run                    // @
	Halt                   // $
)

var prefixOps = [...]string{
	Ref:    "&",
	Owned:  "~",
	Deref:  "*",
	PreInc: "++",
	PreDec: "--",
	Plus:   "+",
	Neg:    "-",
	Not:    "!",
	Run:    "@",
	Halt:   "$",
}

func (op PrefixOp) String() string { return prefixOps[op] }

func ParsePrefixOp(s string) (PrefixOp, bool) {
	for op, spelling := range prefixOps {
		if spelling == s {
			return PrefixOp(op), true
		}
	}
	return 0, false
}

type InfixOp int

const (
	Add InfixOp = iota
	Sub
	Mul
	Div
	Rem
	Shl
	Shr
	BitAnd
	BitOr
	Xor

	Eq
	Ne
	Lt
	Le
	Gt
	Ge

	AndAnd
	OrOr

	Assign
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	RemAssign
	ShlAssign
	ShrAssign
	AndAssign
	OrAssign
	XorAssign
)

var infixOps = [...]string{
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Div:       "/",
	Rem:       "%",
	Shl:       "<<",
	Shr:       ">>",
	BitAnd:    "&",
	BitOr:     "|",
	Xor:       "^",
	Eq:        "==",
	Ne:        "!=",
	Lt:        "<",
	Le:        "<=",
	Gt:        ">",
	Ge:        ">=",
	AndAnd:    "&&",
	OrOr:      "||",
	Assign:    "=",
	AddAssign: "+=",
	SubAssign: "-=",
	MulAssign: "*=",
	DivAssign: "/=",
	RemAssign: "%=",
	ShlAssign: "<<=",
	ShrAssign: ">>=",
	AndAssign: "&=",
	OrAssign:  "|=",
	XorAssign: "^=",
}

func (op InfixOp) String() string { return infixOps[op] }

func ParseInfixOp(s string) (InfixOp, bool) {
	for op, spelling := range infixOps {
		if spelling == s {
			return InfixOp(op), true
		}
	}
	return 0, false
}

func (op InfixOp) IsArithmetic() bool { return op >= Add && op <= Xor }
func (op InfixOp) IsComparison() bool { return op >= Eq && op <= Ge }
func (op InfixOp) IsLogical() bool    { return op == AndAnd || op == OrOr }
func (op InfixOp) IsAssignment() bool { return op >= Assign && op <= XorAssign }

type PostfixOp int

const (
	PostInc PostfixOp = iota
	PostDec
)

func (op PostfixOp) String() string {
	if op == PostDec {
		return "--"
	}
	return "++"
}
