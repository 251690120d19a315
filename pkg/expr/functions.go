package expr

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// FuncCall is the per-call handle passed to a function Handler: plain
// callables with no implicit context beyond a Clock for determinism and an
// iteration-budget hook for aggregations that loop internally (Design
// Notes §9: "function handlers are plain callables ... no implicit
// context").
type FuncCall struct {
	Clock   Clock
	consume func() error
}

// Consume charges n iterations of the evaluator's shared iteration budget;
// aggregation functions that loop over a list call this once per element so
// §4.7's "max 1,000,000 iterations across aggregation" is enforced even
// though the loop body runs inside the handler, not the evaluator.
func (fc *FuncCall) Consume(n int) error {
	if fc.consume == nil {
		return nil
	}
	for i := 0; i < n; i++ {
		if err := fc.consume(); err != nil {
			return err
		}
	}
	return nil
}

// Handler is a pure, side-effect-free function implementation.
type Handler func(fc *FuncCall, args []value.Value) (value.Value, error)

// Func describes one registered function: its name, its fixed or
// variadic arity, and its handler.
type Func struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 means unbounded
	Handler Handler
}

// Registry is a named table of Funcs, used by the evaluator to resolve
// NodeCall. A Registry is immutable once built.
type Registry struct {
	fns map[string]Func
}

func (r *Registry) lookup(name string) (Func, bool) {
	f, ok := r.fns[name]
	return f, ok
}

// NewRegistry builds a Registry from a slice of Funcs.
func NewRegistry(fns []Func) *Registry {
	m := make(map[string]Func, len(fns))
	for _, f := range fns {
		m[f.Name] = f
	}
	return &Registry{fns: m}
}

var standard = NewRegistry(buildStandardFuncs())
var restricted = NewRegistry(buildRestrictedFuncs())

// StandardRegistry returns the full function set of spec §4.7: core,
// string, date, math, and aggregation functions.
func StandardRegistry() *Registry { return standard }

// RestrictedRegistry omits user-extensible functions (here: none are
// user-registered by default, so the restricted set additionally drops
// now()/today(), the only functions whose result depends on something
// outside the expression text and context) (spec §4.7). Nothing selects it
// automatically: Eval uses StandardRegistry when Options.Registry is nil,
// and the linkschema Engine evaluates rule and slot expressions with
// StandardRegistry.
func RestrictedRegistry() *Registry { return restricted }

func buildRestrictedFuncs() []Func {
	var out []Func
	for _, f := range buildStandardFuncs() {
		if f.Name == "now" || f.Name == "today" {
			continue
		}
		out = append(out, f)
	}
	return out
}

func arityErr(name string) error {
	return &EvaluationError{Kind: ErrTypeError, Msg: "invalid arguments to " + name}
}

func asFloat(v value.Value) (float64, bool) { return v.AsFloat() }

func buildStandardFuncs() []Func {
	fns := []Func{
		// ---- core ----
		{"len", 1, 1, fnLen},
		{"max", 1, -1, fnMax},
		{"min", 1, -1, fnMin},
		{"case", 2, -1, fnCase},
		{"matches", 2, 2, fnMatches},
		{"contains", 2, 2, fnContains},

		// ---- string ----
		{"upper", 1, 1, fnUpper},
		{"lower", 1, 1, fnLower},
		{"trim", 1, 1, fnTrim},
		{"starts_with", 2, 2, fnStartsWith},
		{"ends_with", 2, 2, fnEndsWith},
		{"replace", 3, 3, fnReplace},
		{"split", 2, 2, fnSplit},
		{"join", 2, 2, fnJoin},
		{"substring", 2, 3, fnSubstring},

		// ---- date ----
		{"now", 0, 0, fnNow},
		{"today", 0, 0, fnToday},
		{"date_parse", 2, 2, fnDateParse},
		{"date_format", 2, 2, fnDateFormat},
		{"date_add", 3, 3, fnDateAdd},
		{"date_diff", 3, 3, fnDateDiff},
		{"year", 1, 1, fnYear},
		{"month", 1, 1, fnMonth},
		{"day", 1, 1, fnDay},

		// ---- math ----
		{"abs", 1, 1, fnAbs},
		{"sqrt", 1, 1, fnSqrt},
		{"pow", 2, 2, fnPow},
		{"sin", 1, 1, fn1(math.Sin)},
		{"cos", 1, 1, fn1(math.Cos)},
		{"tan", 1, 1, fn1(math.Tan)},
		{"log", 1, 2, fnLog},
		{"exp", 1, 1, fn1(math.Exp)},
		{"floor", 1, 1, fn1(math.Floor)},
		{"ceil", 1, 1, fn1(math.Ceil)},
		{"round", 1, 2, fnRound},
		{"mod", 2, 2, fnMod},

		// ---- aggregation ----
		{"sum", 1, 1, fnSum},
		{"avg", 1, 1, fnAvg},
		{"count", 1, 2, fnCount},
		{"median", 1, 1, fnMedian},
		{"mode", 1, 1, fnMode},
		{"stddev", 1, 1, fnStddev},
		{"variance", 1, 1, fnVariance},
		{"unique", 1, 1, fnUnique},
		{"group_by", 2, 2, fnGroupBy},
	}
	return fns
}

// ---------- core ----------

func fnLen(fc *FuncCall, a []value.Value) (value.Value, error) {
	n, ok := a[0].Len()
	if !ok {
		return value.Null(), typeErr("len() requires a string, list, or map")
	}
	return value.Int(int64(n)), nil
}

func fnMax(fc *FuncCall, a []value.Value) (value.Value, error) {
	items := flattenSingleList(a)
	if len(items) == 0 {
		return value.Null(), arityErr("max")
	}
	best := items[0]
	for _, v := range items[1:] {
		if err := fc.Consume(1); err != nil {
			return value.Null(), err
		}
		cmp, ok := value.Compare(v, best)
		if ok && cmp > 0 {
			best = v
		}
	}
	return best, nil
}

func fnMin(fc *FuncCall, a []value.Value) (value.Value, error) {
	items := flattenSingleList(a)
	if len(items) == 0 {
		return value.Null(), arityErr("min")
	}
	best := items[0]
	for _, v := range items[1:] {
		if err := fc.Consume(1); err != nil {
			return value.Null(), err
		}
		cmp, ok := value.Compare(v, best)
		if ok && cmp < 0 {
			best = v
		}
	}
	return best, nil
}

func flattenSingleList(a []value.Value) []value.Value {
	if len(a) == 1 {
		if list, ok := a[0].AsList(); ok {
			return list
		}
	}
	return a
}

// fnCase implements a cond/value ... [default] switch: case(c1, v1, c2, v2, ..., [default]).
func fnCase(fc *FuncCall, a []value.Value) (value.Value, error) {
	i := 0
	for ; i+1 < len(a); i += 2 {
		if a[i].Truthy() {
			return a[i+1], nil
		}
	}
	if i < len(a) {
		return a[i], nil
	}
	return value.Null(), nil
}

func fnMatches(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	pat, ok2 := a[1].AsString()
	if !ok1 || !ok2 {
		return value.Null(), typeErr("matches() requires two strings")
	}
	re, err := regexp.Compile(pat)
	if err != nil {
		return value.Null(), typeErr("matches(): invalid pattern: " + err.Error())
	}
	return value.Bool(re.MatchString(s)), nil
}

func fnContains(fc *FuncCall, a []value.Value) (value.Value, error) {
	if s, ok := a[0].AsString(); ok {
		sub, ok2 := a[1].AsString()
		if !ok2 {
			return value.Null(), typeErr("contains() on a string requires a string needle")
		}
		return value.Bool(strings.Contains(s, sub)), nil
	}
	if list, ok := a[0].AsList(); ok {
		for _, item := range list {
			if value.Equal(item, a[1]) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	}
	return value.Null(), typeErr("contains() requires a string or list haystack")
}

// ---------- string ----------

func fnUpper(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok := a[0].AsString()
	if !ok {
		return value.Null(), typeErr("upper() requires a string")
	}
	return value.String(strings.ToUpper(s)), nil
}

func fnLower(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok := a[0].AsString()
	if !ok {
		return value.Null(), typeErr("lower() requires a string")
	}
	return value.String(strings.ToLower(s)), nil
}

func fnTrim(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok := a[0].AsString()
	if !ok {
		return value.Null(), typeErr("trim() requires a string")
	}
	return value.String(strings.TrimSpace(s)), nil
}

func fnStartsWith(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	p, ok2 := a[1].AsString()
	if !ok1 || !ok2 {
		return value.Null(), typeErr("starts_with() requires two strings")
	}
	return value.Bool(strings.HasPrefix(s, p)), nil
}

func fnEndsWith(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	p, ok2 := a[1].AsString()
	if !ok1 || !ok2 {
		return value.Null(), typeErr("ends_with() requires two strings")
	}
	return value.Bool(strings.HasSuffix(s, p)), nil
}

func fnReplace(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	old, ok2 := a[1].AsString()
	nw, ok3 := a[2].AsString()
	if !ok1 || !ok2 || !ok3 {
		return value.Null(), typeErr("replace() requires three strings")
	}
	return value.String(strings.ReplaceAll(s, old, nw)), nil
}

func fnSplit(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	sep, ok2 := a[1].AsString()
	if !ok1 || !ok2 {
		return value.Null(), typeErr("split() requires two strings")
	}
	parts := strings.Split(s, sep)
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.String(p)
	}
	return value.List(items), nil
}

func fnJoin(fc *FuncCall, a []value.Value) (value.Value, error) {
	list, ok1 := a[0].AsList()
	sep, ok2 := a[1].AsString()
	if !ok1 || !ok2 {
		return value.Null(), typeErr("join() requires a list and a string separator")
	}
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = item.String()
	}
	return value.String(strings.Join(parts, sep)), nil
}

func fnSubstring(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok := a[0].AsString()
	if !ok {
		return value.Null(), typeErr("substring() requires a string")
	}
	runes := []rune(s)
	start, ok := a[1].AsInt()
	if !ok {
		return value.Null(), typeErr("substring() start must be an integer")
	}
	end := int64(len(runes))
	if len(a) == 3 {
		end, ok = a[2].AsInt()
		if !ok {
			return value.Null(), typeErr("substring() end must be an integer")
		}
	}
	if start < 0 {
		start = 0
	}
	if end > int64(len(runes)) {
		end = int64(len(runes))
	}
	if start >= end {
		return value.String(""), nil
	}
	return value.String(string(runes[start:end])), nil
}

// ---------- date ----------

const isoLayout = "2006-01-02T15:04:05Z07:00"
const dateLayout = "2006-01-02"

func fnNow(fc *FuncCall, a []value.Value) (value.Value, error) {
	if fc.Clock == nil {
		return value.Null(), typeErr("now() requires a Clock capability")
	}
	return value.String(fc.Clock.Now().UTC().Format(isoLayout)), nil
}

func fnToday(fc *FuncCall, a []value.Value) (value.Value, error) {
	if fc.Clock == nil {
		return value.Null(), typeErr("today() requires a Clock capability")
	}
	return value.String(fc.Clock.Now().UTC().Format(dateLayout)), nil
}

func goLayout(fmtSpec string) string {
	// Accepts Python-strftime-ish and literal Go layouts; the common LinkML
	// case is a literal "%Y-%m-%d" style spec.
	r := strings.NewReplacer(
		"%Y", "2006", "%m", "01", "%d", "02",
		"%H", "15", "%M", "04", "%S", "05",
	)
	return r.Replace(fmtSpec)
}

func fnDateParse(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	f, ok2 := a[1].AsString()
	if !ok1 || !ok2 {
		return value.Null(), typeErr("date_parse() requires two strings")
	}
	t, err := time.Parse(goLayout(f), s)
	if err != nil {
		return value.Null(), typeErr("date_parse(): " + err.Error())
	}
	return value.String(t.UTC().Format(isoLayout)), nil
}

func fnDateFormat(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	f, ok2 := a[1].AsString()
	if !ok1 || !ok2 {
		return value.Null(), typeErr("date_format() requires two strings")
	}
	t, err := parseAnyDate(s)
	if err != nil {
		return value.Null(), typeErr("date_format(): " + err.Error())
	}
	return value.String(t.Format(goLayout(f))), nil
}

func parseAnyDate(s string) (time.Time, error) {
	if t, err := time.Parse(isoLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(dateLayout, s)
}

var dateUnits = map[string]bool{
	"days": true, "months": true, "years": true,
	"hours": true, "minutes": true, "seconds": true,
}

func fnDateAdd(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok1 := a[0].AsString()
	n, ok2 := a[1].AsInt()
	unit, ok3 := a[2].AsString()
	if !ok1 || !ok2 || !ok3 || !dateUnits[unit] {
		return value.Null(), typeErr("date_add(date, n, unit) requires (string, int, valid unit)")
	}
	t, err := parseAnyDate(s)
	if err != nil {
		return value.Null(), typeErr("date_add(): " + err.Error())
	}
	switch unit {
	case "years":
		t = t.AddDate(int(n), 0, 0)
	case "months":
		t = t.AddDate(0, int(n), 0)
	case "days":
		t = t.AddDate(0, 0, int(n))
	case "hours":
		t = t.Add(time.Duration(n) * time.Hour)
	case "minutes":
		t = t.Add(time.Duration(n) * time.Minute)
	case "seconds":
		t = t.Add(time.Duration(n) * time.Second)
	}
	return value.String(t.Format(isoLayout)), nil
}

func fnDateDiff(fc *FuncCall, a []value.Value) (value.Value, error) {
	s1, ok1 := a[0].AsString()
	s2, ok2 := a[1].AsString()
	unit, ok3 := a[2].AsString()
	if !ok1 || !ok2 || !ok3 || !dateUnits[unit] {
		return value.Null(), typeErr("date_diff(a, b, unit) requires (string, string, valid unit)")
	}
	t1, err := parseAnyDate(s1)
	if err != nil {
		return value.Null(), typeErr("date_diff(): " + err.Error())
	}
	t2, err := parseAnyDate(s2)
	if err != nil {
		return value.Null(), typeErr("date_diff(): " + err.Error())
	}
	d := t2.Sub(t1)
	switch unit {
	case "seconds":
		return value.Int(int64(d.Seconds())), nil
	case "minutes":
		return value.Int(int64(d.Minutes())), nil
	case "hours":
		return value.Int(int64(d.Hours())), nil
	case "days":
		return value.Int(int64(d.Hours() / 24)), nil
	case "months":
		return value.Int(int64(monthsBetween(t1, t2))), nil
	case "years":
		return value.Int(int64(monthsBetween(t1, t2) / 12)), nil
	}
	return value.Null(), typeErr("unsupported unit")
}

func monthsBetween(a, b time.Time) int {
	months := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if b.Day() < a.Day() {
		months--
	}
	return months
}

func fnYear(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok := a[0].AsString()
	if !ok {
		return value.Null(), typeErr("year() requires a date string")
	}
	t, err := parseAnyDate(s)
	if err != nil {
		return value.Null(), typeErr("year(): " + err.Error())
	}
	return value.Int(int64(t.Year())), nil
}

func fnMonth(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok := a[0].AsString()
	if !ok {
		return value.Null(), typeErr("month() requires a date string")
	}
	t, err := parseAnyDate(s)
	if err != nil {
		return value.Null(), typeErr("month(): " + err.Error())
	}
	return value.Int(int64(t.Month())), nil
}

func fnDay(fc *FuncCall, a []value.Value) (value.Value, error) {
	s, ok := a[0].AsString()
	if !ok {
		return value.Null(), typeErr("day() requires a date string")
	}
	t, err := parseAnyDate(s)
	if err != nil {
		return value.Null(), typeErr("day(): " + err.Error())
	}
	return value.Int(int64(t.Day())), nil
}

// ---------- math ----------

func fn1(f func(float64) float64) Handler {
	return func(fc *FuncCall, a []value.Value) (value.Value, error) {
		x, ok := asFloat(a[0])
		if !ok {
			return value.Null(), typeErr("requires a numeric argument")
		}
		return value.Float(f(x)), nil
	}
}

func fnAbs(fc *FuncCall, a []value.Value) (value.Value, error) {
	if i, ok := a[0].AsInt(); ok {
		if i < 0 {
			i = -i
		}
		return value.Int(i), nil
	}
	x, ok := asFloat(a[0])
	if !ok {
		return value.Null(), typeErr("abs() requires a number")
	}
	return value.Float(math.Abs(x)), nil
}

func fnSqrt(fc *FuncCall, a []value.Value) (value.Value, error) {
	x, ok := asFloat(a[0])
	if !ok {
		return value.Null(), typeErr("sqrt() requires a number")
	}
	return value.Float(math.Sqrt(x)), nil
}

func fnPow(fc *FuncCall, a []value.Value) (value.Value, error) {
	x, ok1 := asFloat(a[0])
	y, ok2 := asFloat(a[1])
	if !ok1 || !ok2 {
		return value.Null(), typeErr("pow() requires two numbers")
	}
	return value.Float(math.Pow(x, y)), nil
}

func fnLog(fc *FuncCall, a []value.Value) (value.Value, error) {
	x, ok := asFloat(a[0])
	if !ok {
		return value.Null(), typeErr("log() requires a number")
	}
	if len(a) == 2 {
		base, ok := asFloat(a[1])
		if !ok {
			return value.Null(), typeErr("log() base must be a number")
		}
		return value.Float(math.Log(x) / math.Log(base)), nil
	}
	return value.Float(math.Log(x)), nil
}

func fnRound(fc *FuncCall, a []value.Value) (value.Value, error) {
	x, ok := asFloat(a[0])
	if !ok {
		return value.Null(), typeErr("round() requires a number")
	}
	digits := int64(0)
	if len(a) == 2 {
		digits, ok = a[1].AsInt()
		if !ok {
			return value.Null(), typeErr("round() digits must be an integer")
		}
	}
	mul := math.Pow(10, float64(digits))
	return value.Float(math.Round(x*mul) / mul), nil
}

func fnMod(fc *FuncCall, a []value.Value) (value.Value, error) {
	if x, ok := a[0].AsInt(); ok {
		if y, ok := a[1].AsInt(); ok {
			if y == 0 {
				return value.Null(), &EvaluationError{Kind: ErrDivisionByZero, Msg: "mod() by zero"}
			}
			return value.Int(x % y), nil
		}
	}
	x, ok1 := asFloat(a[0])
	y, ok2 := asFloat(a[1])
	if !ok1 || !ok2 {
		return value.Null(), typeErr("mod() requires two numbers")
	}
	return value.Float(math.Mod(x, y)), nil
}

// ---------- aggregation ----------

func numericList(fc *FuncCall, v value.Value, name string) ([]float64, error) {
	list, ok := v.AsList()
	if !ok {
		return nil, typeErr(name + "() requires a list argument")
	}
	out := make([]float64, 0, len(list))
	for _, item := range list {
		if err := fc.Consume(1); err != nil {
			return nil, err
		}
		f, ok := asFloat(item)
		if !ok {
			return nil, typeErr(name + "() requires a list of numbers")
		}
		out = append(out, f)
	}
	return out, nil
}

func fnSum(fc *FuncCall, a []value.Value) (value.Value, error) {
	nums, err := numericList(fc, a[0], "sum")
	if err != nil {
		return value.Null(), err
	}
	var total float64
	allInt := true
	list, _ := a[0].AsList()
	for i, n := range nums {
		total += n
		if _, ok := list[i].AsInt(); !ok {
			allInt = false
		}
	}
	if allInt {
		return value.Int(int64(total)), nil
	}
	return value.Float(total), nil
}

func fnAvg(fc *FuncCall, a []value.Value) (value.Value, error) {
	nums, err := numericList(fc, a[0], "avg")
	if err != nil {
		return value.Null(), err
	}
	if len(nums) == 0 {
		return value.Null(), typeErr("avg() of an empty list")
	}
	var total float64
	for _, n := range nums {
		total += n
	}
	return value.Float(total / float64(len(nums))), nil
}

func fnCount(fc *FuncCall, a []value.Value) (value.Value, error) {
	list, ok := a[0].AsList()
	if !ok {
		return value.Null(), typeErr("count() requires a list")
	}
	mode := "all"
	if len(a) == 2 {
		m, ok := a[1].AsString()
		if !ok {
			return value.Null(), typeErr("count() mode must be a string")
		}
		mode = m
	}
	n := 0
	for _, item := range list {
		if err := fc.Consume(1); err != nil {
			return value.Null(), err
		}
		switch mode {
		case "all":
			n++
		case "non-null":
			if !item.IsNull() {
				n++
			}
		case "non-empty":
			if item.Truthy() {
				n++
			}
		default:
			return value.Null(), typeErr("count() unknown mode " + mode)
		}
	}
	return value.Int(int64(n)), nil
}

func fnMedian(fc *FuncCall, a []value.Value) (value.Value, error) {
	nums, err := numericList(fc, a[0], "median")
	if err != nil {
		return value.Null(), err
	}
	if len(nums) == 0 {
		return value.Null(), typeErr("median() of an empty list")
	}
	sorted := append([]float64(nil), nums...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return value.Float(sorted[mid]), nil
	}
	return value.Float((sorted[mid-1] + sorted[mid]) / 2), nil
}

func fnMode(fc *FuncCall, a []value.Value) (value.Value, error) {
	list, ok := a[0].AsList()
	if !ok {
		return value.Null(), typeErr("mode() requires a list")
	}
	counts := map[string]int{}
	order := map[string]value.Value{}
	for _, item := range list {
		if err := fc.Consume(1); err != nil {
			return value.Null(), err
		}
		k := value.Stable(item)
		counts[k]++
		order[k] = item
	}
	var best value.Value
	bestN := -1
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestN {
			bestN = counts[k]
			best = order[k]
		}
	}
	return best, nil
}

func fnStddev(fc *FuncCall, a []value.Value) (value.Value, error) {
	v, err := fnVariance(fc, a)
	if err != nil {
		return value.Null(), err
	}
	f, _ := v.AsFloat()
	return value.Float(math.Sqrt(f)), nil
}

func fnVariance(fc *FuncCall, a []value.Value) (value.Value, error) {
	nums, err := numericList(fc, a[0], "variance")
	if err != nil {
		return value.Null(), err
	}
	if len(nums) == 0 {
		return value.Null(), typeErr("variance() of an empty list")
	}
	var mean float64
	for _, n := range nums {
		mean += n
	}
	mean /= float64(len(nums))
	var acc float64
	for _, n := range nums {
		d := n - mean
		acc += d * d
	}
	return value.Float(acc / float64(len(nums))), nil
}

func fnUnique(fc *FuncCall, a []value.Value) (value.Value, error) {
	list, ok := a[0].AsList()
	if !ok {
		return value.Null(), typeErr("unique() requires a list")
	}
	seen := map[string]bool{}
	var out []value.Value
	for _, item := range list {
		if err := fc.Consume(1); err != nil {
			return value.Null(), err
		}
		k := value.Stable(item)
		if !seen[k] {
			seen[k] = true
			out = append(out, item)
		}
	}
	return value.List(out), nil
}

func fnGroupBy(fc *FuncCall, a []value.Value) (value.Value, error) {
	list, ok := a[0].AsList()
	if !ok {
		return value.Null(), typeErr("group_by() requires a list")
	}
	field, ok := a[1].AsString()
	if !ok {
		return value.Null(), typeErr("group_by() field must be a string")
	}
	groups := map[string][]value.Value{}
	var order []string
	for _, item := range list {
		if err := fc.Consume(1); err != nil {
			return value.Null(), err
		}
		fv, _ := item.Field(field)
		key := fv.String()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], item)
	}
	b := value.NewMap()
	for _, k := range order {
		b.Set(k, value.List(groups[k]))
	}
	return b.Build(), nil
}
