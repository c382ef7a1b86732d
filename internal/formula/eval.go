package formula

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// evalExpression interprets a validated arithmetic expression directly. The
// grammar is exactly what CheckFormula admits: numbers with optional
// exponents, + - * / %, unary sign, parentheses and the whitelisted
// functions. Nothing is ever executed as code.
//
//	expr    = term { ("+"|"-") term }
//	term    = unary { ("*"|"/"|"%") unary }
//	unary   = { "+"|"-" } primary
//	primary = number | "(" expr ")" | ident "(" [ expr { "," expr } ] ")"
func evalExpression(src string) (float64, error) {
	p := &exprParser{src: strings.ToLower(strings.ReplaceAll(src, " ", ""))}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("unexpected %q in formula", p.src[p.pos:])
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v += r
		case '-':
			p.pos++
			r, err := p.term()
			if err != nil {
				return 0, err
			}
			v -= r
		default:
			return v, nil
		}
	}
}

func (p *exprParser) term() (float64, error) {
	v, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v *= r
		case '/':
			// Division by zero propagates as ±Inf (or NaN for 0/0) so the
			// generator's infinity checks can reject the slot.
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			v /= r
		case '%':
			p.pos++
			r, err := p.unary()
			if err != nil {
				return 0, err
			}
			if int64(r) == 0 {
				return 0, fmt.Errorf("modulo by zero in formula")
			}
			v = float64(int64(v) % int64(r))
		default:
			return v, nil
		}
	}
}

func (p *exprParser) unary() (float64, error) {
	switch p.peek() {
	case '-':
		p.pos++
		v, err := p.unary()
		return -v, err
	case '+':
		p.pos++
		return p.unary()
	}
	return p.primary()
}

func (p *exprParser) primary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("missing closing parenthesis in formula")
		}
		p.pos++
		return v, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.number()
	case c >= 'a' && c <= 'z' || c == '_':
		return p.callFunc()
	}
	return 0, fmt.Errorf("unexpected %q in formula", string(c))
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		// Exponent part, possibly signed: 1e5, 2.5e-3.
		if c == 'e' && p.pos+1 < len(p.src) {
			next := p.src[p.pos+1]
			if next >= '0' && next <= '9' {
				p.pos += 2
				continue
			}
			if (next == '+' || next == '-') && p.pos+2 < len(p.src) &&
				p.src[p.pos+2] >= '0' && p.src[p.pos+2] <= '9' {
				p.pos += 3
				continue
			}
		}
		break
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("malformed number %q in formula", p.src[start:p.pos])
	}
	return v, nil
}

func (p *exprParser) callFunc() (float64, error) {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '_' {
			p.pos++
			continue
		}
		break
	}
	name := p.src[start:p.pos]
	if p.peek() != '(' {
		return 0, fmt.Errorf("unexpected identifier %q in formula", name)
	}
	p.pos++

	var args []float64
	if p.peek() != ')' {
		for {
			v, err := p.expr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.peek() != ',' {
				break
			}
			p.pos++
		}
	}
	if p.peek() != ')' {
		return 0, fmt.Errorf("missing closing parenthesis after %s(", name)
	}
	p.pos++
	return applyFunc(name, args)
}

func applyFunc(name string, args []float64) (float64, error) {
	if name == "pi" {
		if len(args) != 0 {
			return 0, &ArityError{Func: name, Want: "no arguments"}
		}
		return math.Pi, nil
	}
	if fn, ok := unaryFuncs[name]; ok {
		if len(args) != 1 {
			return 0, &ArityError{Func: name, Want: "exactly one argument"}
		}
		return fn(args[0])
	}

	switch name {
	case "log":
		switch len(args) {
		case 1:
			return math.Log(args[0]), nil
		case 2:
			return math.Log(args[0]) / math.Log(args[1]), nil
		}
		return 0, &ArityError{Func: name, Want: "one or two arguments"}
	case "round":
		switch len(args) {
		case 1:
			return math.Round(args[0]), nil
		case 2:
			return roundTo(args[0], int(args[1])), nil
		}
		return 0, &ArityError{Func: name, Want: "one or two arguments"}
	case "atan2", "fmod", "pow":
		if len(args) != 2 {
			return 0, &ArityError{Func: name, Want: "exactly two arguments"}
		}
		switch name {
		case "atan2":
			return math.Atan2(args[0], args[1]), nil
		case "fmod":
			return math.Mod(args[0], args[1]), nil
		default:
			return math.Pow(args[0], args[1]), nil
		}
	case "min", "max":
		if len(args) < 2 {
			return 0, &ArityError{Func: name, Want: "at least two arguments"}
		}
		v := args[0]
		for _, a := range args[1:] {
			if name == "min" && a < v || name == "max" && a > v {
				v = a
			}
		}
		return v, nil
	}
	return 0, &UnsupportedFunctionError{Func: name}
}

var unaryFuncs = map[string]func(float64) (float64, error){
	"abs":     wrap(math.Abs),
	"acos":    wrap(math.Acos),
	"acosh":   wrap(math.Acosh),
	"asin":    wrap(math.Asin),
	"asinh":   wrap(math.Asinh),
	"atan":    wrap(math.Atan),
	"atanh":   wrap(math.Atanh),
	"ceil":    wrap(math.Ceil),
	"cos":     wrap(math.Cos),
	"cosh":    wrap(math.Cosh),
	"deg2rad": wrap(func(x float64) float64 { return x * math.Pi / 180 }),
	"exp":     wrap(math.Exp),
	"expm1":   wrap(math.Expm1),
	"floor":   wrap(math.Floor),
	"log10":   wrap(math.Log10),
	"log1p":   wrap(math.Log1p),
	"rad2deg": wrap(func(x float64) float64 { return x * 180 / math.Pi }),
	"sin":     wrap(math.Sin),
	"sinh":    wrap(math.Sinh),
	"sqrt":    wrap(math.Sqrt),
	"tan":     wrap(math.Tan),
	"tanh":    wrap(math.Tanh),

	"is_finite":   wrap(boolFn(func(x float64) bool { return !math.IsInf(x, 0) && !math.IsNaN(x) })),
	"is_infinite": wrap(boolFn(func(x float64) bool { return math.IsInf(x, 0) })),
	"is_nan":      wrap(boolFn(math.IsNaN)),

	"bindec": digitsToValue(2),
	"octdec": digitsToValue(8),
	"decbin": valueToDigits(2),
	"decoct": valueToDigits(8),
}

func wrap(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return fn(x), nil }
}

func boolFn(fn func(float64) bool) func(float64) float64 {
	return func(x float64) float64 {
		if fn(x) {
			return 1
		}
		return 0
	}
}

// digitsToValue reads the decimal digits of the argument as a number written
// in the given base: bindec(1010) = 10.
func digitsToValue(base int) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		digits := strconv.FormatFloat(math.Trunc(x), 'f', -1, 64)
		n, err := strconv.ParseInt(digits, base, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a base-%d number", digits, base)
		}
		return float64(n), nil
	}
}

// valueToDigits renders the argument in the given base and reads the result
// as decimal digits: decbin(10) = 1010.
func valueToDigits(base int) func(float64) (float64, error) {
	return func(x float64) (float64, error) {
		digits := strconv.FormatInt(int64(x), base)
		n, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// roundTo rounds v half away from zero at the given number of decimal
// places.
func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
