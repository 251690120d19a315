package expr

import (
	"context"
	"math"
	"time"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// Context is the variable environment an expression is evaluated against:
// the instance fields visible to the expression (spec §3.3's Var resolution).
type Context map[string]value.Value

// Clock is the minimal capability the evaluator needs for now()/today();
// it structurally satisfies the core's Clock capability (spec §4.15,
// Design Notes: "Date and time functions take a Clock capability argument
// to remain deterministic").
type Clock interface {
	Now() time.Time
}

// Limits bounds a single evaluation per spec §4.7.
type Limits struct {
	MaxCallDepth   int // default 64
	MaxIterations  int // default 1,000,000, shared across aggregation functions
	Timeout        time.Duration
}

// DefaultLimits returns the spec's default resource limits.
func DefaultLimits() Limits {
	return Limits{MaxCallDepth: 64, MaxIterations: 1_000_000}
}

// Options configures one Eval call.
type Options struct {
	Registry *Registry
	Clock    Clock
	Limits   Limits
	Ctx      context.Context // for cancellation; nil means context.Background()
}

type evalState struct {
	opts       Options
	ctx        context.Context
	deadline   <-chan struct{}
	iterations int
	depth      int
}

// Eval walks expr against the given variable context and returns its result.
// Semantics follow spec §4.7: null is incomparable with ordering operators,
// integer division/modulo by zero fails, float division by zero propagates
// IEEE-754 infinities, + is arithmetic-or-concatenation, and/or short-circuit
// on truthiness, == / != use structural equality with numeric promotion.
func Eval(expr *Expr, vars Context, opts Options) (value.Value, error) {
	if opts.Registry == nil {
		opts.Registry = StandardRegistry()
	}
	if opts.Limits.MaxCallDepth <= 0 {
		opts.Limits.MaxCallDepth = 64
	}
	if opts.Limits.MaxIterations <= 0 {
		opts.Limits.MaxIterations = 1_000_000
	}
	baseCtx := opts.Ctx
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	if opts.Limits.Timeout > 0 {
		var cancel context.CancelFunc
		baseCtx, cancel = context.WithTimeout(baseCtx, opts.Limits.Timeout)
		defer cancel()
	}
	st := &evalState{opts: opts, ctx: baseCtx, deadline: baseCtx.Done()}
	return st.eval(expr, vars)
}

func (st *evalState) checkCanceled() error {
	select {
	case <-st.deadline:
		if st.ctx.Err() == context.DeadlineExceeded {
			return &EvaluationError{Kind: ErrTimeout, Msg: "evaluation deadline exceeded"}
		}
		return &EvaluationError{Kind: ErrCanceled, Msg: "evaluation canceled"}
	default:
		return nil
	}
}

func (st *evalState) consumeIteration() error {
	st.iterations++
	if st.iterations > st.opts.Limits.MaxIterations {
		return &EvaluationError{Kind: ErrTooManyIterations, Msg: "exceeded maximum evaluation iterations"}
	}
	return nil
}

func (st *evalState) eval(e *Expr, vars Context) (value.Value, error) {
	if err := st.checkCanceled(); err != nil {
		return value.Null(), err
	}
	if err := st.consumeIteration(); err != nil {
		return value.Null(), err
	}
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > st.opts.Limits.MaxCallDepth {
		return value.Null(), &EvaluationError{Kind: ErrCallStackTooDeep, Msg: "evaluation call stack exceeded maximum depth"}
	}

	switch e.Kind {
	case NodeLiteral:
		return st.evalLiteral(e)
	case NodeVar:
		v, ok := vars[e.Name]
		if !ok {
			return value.Null(), &EvaluationError{Kind: ErrUndefinedVariable, Name: e.Name, Msg: "variable not defined in evaluation context"}
		}
		return v, nil
	case NodeUnaryOp:
		return st.evalUnary(e, vars)
	case NodeBinOp:
		return st.evalBinOp(e, vars)
	case NodeTernary:
		c, err := st.eval(e.Cond, vars)
		if err != nil {
			return value.Null(), err
		}
		if c.Truthy() {
			return st.eval(e.Then, vars)
		}
		return st.eval(e.Else, vars)
	case NodeField:
		base, err := st.eval(e.Base, vars)
		if err != nil {
			return value.Null(), err
		}
		fv, ok := base.Field(e.Field)
		if !ok {
			return value.Null(), nil
		}
		return fv, nil
	case NodeIndex:
		base, err := st.eval(e.Base, vars)
		if err != nil {
			return value.Null(), err
		}
		idx, err := st.eval(e.Index, vars)
		if err != nil {
			return value.Null(), err
		}
		return st.evalIndex(base, idx)
	case NodeCall:
		return st.evalCall(e, vars)
	}
	return value.Null(), &EvaluationError{Kind: ErrTypeError, Msg: "unknown expression node"}
}

func (st *evalState) evalLiteral(e *Expr) (value.Value, error) {
	switch e.LitKind {
	case LitNull:
		return value.Null(), nil
	case LitBool:
		return value.Bool(e.Bool), nil
	case LitInt:
		return value.Int(e.Int), nil
	case LitFloat:
		return value.Float(e.Float), nil
	case LitString:
		return value.String(e.Str), nil
	}
	return value.Null(), nil
}

func (st *evalState) evalUnary(e *Expr, vars Context) (value.Value, error) {
	operand, err := st.eval(e.Right, vars)
	if err != nil {
		return value.Null(), err
	}
	switch e.Op {
	case OpNot:
		return value.Bool(!operand.Truthy()), nil
	case OpMinus:
		if i, ok := operand.AsInt(); ok {
			return value.Int(-i), nil
		}
		if f, ok := operand.AsFloat(); ok {
			return value.Float(-f), nil
		}
		return value.Null(), typeErr("unary - requires a number")
	case OpPlus:
		if _, ok := operand.AsFloat(); ok {
			return operand, nil
		}
		return value.Null(), typeErr("unary + requires a number")
	}
	return value.Null(), typeErr("unsupported unary operator")
}

func (st *evalState) evalBinOp(e *Expr, vars Context) (value.Value, error) {
	// and/or short-circuit before evaluating the right operand.
	if e.Op == OpAnd || e.Op == OpOr {
		left, err := st.eval(e.Left, vars)
		if err != nil {
			return value.Null(), err
		}
		if e.Op == OpAnd && !left.Truthy() {
			return left, nil
		}
		if e.Op == OpOr && left.Truthy() {
			return left, nil
		}
		return st.eval(e.Right, vars)
	}

	left, err := st.eval(e.Left, vars)
	if err != nil {
		return value.Null(), err
	}
	right, err := st.eval(e.Right, vars)
	if err != nil {
		return value.Null(), err
	}

	switch e.Op {
	case OpEq:
		return value.Bool(value.Equal(left, right)), nil
	case OpNeq:
		return value.Bool(!value.Equal(left, right)), nil
	case OpLt, OpGt, OpLte, OpGte:
		cmp, ok := value.Compare(left, right)
		if !ok {
			return value.Null(), typeErr("comparison requires two comparable, non-null operands")
		}
		switch e.Op {
		case OpLt:
			return value.Bool(cmp < 0), nil
		case OpGt:
			return value.Bool(cmp > 0), nil
		case OpLte:
			return value.Bool(cmp <= 0), nil
		default:
			return value.Bool(cmp >= 0), nil
		}
	case OpAdd:
		return st.evalAdd(left, right)
	case OpSub, OpMul, OpDiv, OpMod:
		return st.evalArith(e.Op, left, right)
	}
	return value.Null(), typeErr("unsupported binary operator")
}

func (st *evalState) evalAdd(left, right value.Value) (value.Value, error) {
	ls, lok := left.AsString()
	rs, rok := right.AsString()
	if lok && rok {
		return value.String(ls + rs), nil
	}
	if lok != rok && (left.Kind() == value.KindString || right.Kind() == value.KindString) {
		return value.Null(), typeErr("+ requires two numbers or two strings")
	}
	return st.evalArith(OpAdd, left, right)
}

func (st *evalState) evalArith(op Op, left, right value.Value) (value.Value, error) {
	li, lIsInt := left.AsInt()
	ri, rIsInt := right.AsInt()
	if lIsInt && rIsInt {
		switch op {
		case OpAdd:
			return value.Int(li + ri), nil
		case OpSub:
			return value.Int(li - ri), nil
		case OpMul:
			return value.Int(li * ri), nil
		case OpDiv:
			if ri == 0 {
				return value.Null(), &EvaluationError{Kind: ErrDivisionByZero, Msg: "integer division by zero"}
			}
			return value.Int(li / ri), nil
		case OpMod:
			if ri == 0 {
				return value.Null(), &EvaluationError{Kind: ErrDivisionByZero, Msg: "integer modulo by zero"}
			}
			return value.Int(li % ri), nil
		}
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return value.Null(), typeErr("arithmetic requires numeric operands")
	}
	switch op {
	case OpAdd:
		return value.Float(lf + rf), nil
	case OpSub:
		return value.Float(lf - rf), nil
	case OpMul:
		return value.Float(lf * rf), nil
	case OpDiv:
		return value.Float(lf / rf), nil // propagates +/-Inf and NaN per IEEE-754
	case OpMod:
		return value.Float(math.Mod(lf, rf)), nil
	}
	return value.Null(), typeErr("unsupported arithmetic operator")
}

func (st *evalState) evalIndex(base, idx value.Value) (value.Value, error) {
	if list, ok := base.AsList(); ok {
		i, ok := idx.AsInt()
		if !ok {
			return value.Null(), typeErr("list index must be an integer")
		}
		if i < 0 || int(i) >= len(list) {
			return value.Null(), nil
		}
		return list[i], nil
	}
	if base.Kind() == value.KindMap {
		key, ok := idx.AsString()
		if !ok {
			return value.Null(), typeErr("map index must be a string")
		}
		v, ok := base.Field(key)
		if !ok {
			return value.Null(), nil
		}
		return v, nil
	}
	return value.Null(), typeErr("index operator requires a list or map")
}

func (st *evalState) evalCall(e *Expr, vars Context) (value.Value, error) {
	fn, ok := st.opts.Registry.lookup(e.Func)
	if !ok {
		return value.Null(), &EvaluationError{Kind: ErrTypeError, Msg: "call to unknown function " + e.Func}
	}
	if len(e.Args) < fn.MinArgs || (fn.MaxArgs >= 0 && len(e.Args) > fn.MaxArgs) {
		return value.Null(), &EvaluationError{Kind: ErrTypeError, Msg: "wrong number of arguments to " + e.Func}
	}
	args := make([]value.Value, len(e.Args))
	for i, a := range e.Args {
		v, err := st.eval(a, vars)
		if err != nil {
			return value.Null(), err
		}
		args[i] = v
	}
	fc := &FuncCall{Clock: st.opts.Clock, consume: st.consumeIteration}
	return fn.Handler(fc, args)
}

func typeErr(msg string) error {
	return &EvaluationError{Kind: ErrTypeError, Msg: msg}
}
