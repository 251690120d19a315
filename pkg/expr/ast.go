// Package expr implements the embedded expression language of spec §3.3,
// §4.6 (parser) and §4.7 (evaluator): a small, pure, side-effect-free
// expression grammar used by rule predicates and computed slot defaults.
package expr

// NodeKind identifies the concrete shape of an Expr.
type NodeKind int

const (
	NodeLiteral NodeKind = iota
	NodeVar
	NodeBinOp
	NodeUnaryOp
	NodeCall
	NodeField
	NodeIndex
	NodeTernary
)

// Op identifies a binary or unary operator.
type Op string

const (
	OpAdd   Op = "+"
	OpSub   Op = "-"
	OpMul   Op = "*"
	OpDiv   Op = "/"
	OpMod   Op = "%"
	OpEq    Op = "=="
	OpNeq   Op = "!="
	OpLt    Op = "<"
	OpGt    Op = ">"
	OpLte   Op = "<="
	OpGte   Op = ">="
	OpAnd   Op = "and"
	OpOr    Op = "or"
	OpNot   Op = "not"
	OpPlus  Op = "+(unary)"
	OpMinus Op = "-(unary)"
)

// Literal represents one of the grammar's literal kinds: number, string,
// bool, or null.
type LiteralKind int

const (
	LitNull LiteralKind = iota
	LitBool
	LitInt
	LitFloat
	LitString
)

// Expr is a node of the expression AST (spec §3.3). Exactly one of the
// type-specific fields is meaningful, selected by Kind.
type Expr struct {
	Kind NodeKind
	Pos  int // byte offset of the token that starts this node, for diagnostics

	// NodeLiteral
	LitKind LiteralKind
	Bool    bool
	Int     int64
	Float   float64
	Str     string

	// NodeVar
	Name string

	// NodeBinOp / NodeUnaryOp
	Op    Op
	Left  *Expr
	Right *Expr // unary operand stored here

	// NodeCall
	Func string
	Args []*Expr

	// NodeField
	Base  *Expr
	Field string

	// NodeIndex
	Index *Expr

	// NodeTernary
	Cond *Expr
	Then *Expr
	Else *Expr
}
