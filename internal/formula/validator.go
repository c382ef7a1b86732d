// Package formula validates, substitutes and evaluates the restricted
// arithmetic expressions used by Random Data questions. A formula may
// reference wildcards as {name}; question text may additionally embed
// computed expressions as {=expr}.
package formula

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderNamePart matches a wildcard name: a letter followed by almost
// anything that cannot break out of the {...} delimiters.
const placeholderNamePart = "[[:alpha:]][^>} <`{\"']*"

var (
	placeholderRe = regexp.MustCompile(`\{(` + placeholderNamePart + `)\}`)

	// {=expr} blocks in question text, possibly containing {name} references.
	inlineFormulaRe = regexp.MustCompile(`\{=([^{}]*(?:\{` + placeholderNamePart + `\}[^{}]*)*)\}`)
)

// Characters that may appear between numbers once every function call has
// been reduced. Anything else left over is an illegal token.
const safeOperatorClass = `-+/*%>:^~<?=&|!`

var (
	callRe = regexp.MustCompile(
		`(^|[` + safeOperatorClass + `,(])` + // preceded by an operator, comma, paren or start
			`([a-z0-9_]*)` + // function name; empty means bare parenthesis
			`\(([` + safeOperatorClass + `.0-9eE]+` + // first argument
			`(,[` + safeOperatorClass + `.0-9eE]+` + // second argument
			`((,[` + safeOperatorClass + `.0-9eE]+)+)?)?)?\)`) // further arguments

	leftoverRe = regexp.MustCompile(`[^` + safeOperatorClass + `.0-9eE]+`)
)

// commentMarkers are rejected outright: the legacy engine evaluated formulas
// in the host language, and these could smuggle code past the checker.
var commentMarkers = []string{"//", "/*", "#", "<?", "?>"}

// SyntaxError reports an illegal token or fragment in a formula.
type SyntaxError struct {
	Fragment string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("illegal formula syntax starting with %q", e.Fragment)
}

// UnsupportedFunctionError reports a function call outside the whitelist.
type UnsupportedFunctionError struct {
	Func string
}

func (e *UnsupportedFunctionError) Error() string {
	return fmt.Sprintf("unsupported function %q in formula", e.Func)
}

// ArityError reports a whitelisted function called with the wrong number of
// arguments.
type ArityError struct {
	Func string
	Want string
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("function %s must have %s", e.Func, e.Want)
}

// Arity classes for the whitelisted functions. Functions with irregular
// argument counts (pi, log, round, atan2, fmod, pow, min, max) are handled
// by name in CheckFormula.
var oneArgFuncs = map[string]bool{
	"abs": true, "acos": true, "acosh": true, "asin": true, "asinh": true,
	"atan": true, "atanh": true, "bindec": true, "ceil": true, "cos": true,
	"cosh": true, "decbin": true, "decoct": true, "deg2rad": true,
	"exp": true, "expm1": true, "floor": true, "is_finite": true,
	"is_infinite": true, "is_nan": true, "log10": true, "log1p": true,
	"octdec": true, "rad2deg": true, "sin": true, "sinh": true, "sqrt": true,
	"tan": true, "tanh": true,
}

// CheckFormula verifies that a formula is safe to evaluate: no comment
// markers, only whitelisted function calls with correct arity, and nothing
// but operators, digits and exponents once the calls are reduced away.
//
// This is a conservative safety net, not a grammar: it never resolves
// operator precedence. It reduces the innermost function calls to 1.0 one at
// a time, so nested calls are accepted as long as every level checks out.
func CheckFormula(f string) error {
	for _, marker := range commentMarkers {
		if strings.Contains(f, marker) {
			return &SyntaxError{Fragment: marker}
		}
	}

	// Wildcards count as plain numbers.
	f = placeholderRe.ReplaceAllString(f, "1.0")
	f = strings.ToLower(strings.ReplaceAll(f, " ", ""))

	for {
		m := callRe.FindStringSubmatch(f)
		if m == nil {
			break
		}
		prefix, name, args, arg2, arg3 := m[1], m[2], m[3], m[4], m[5]

		switch {
		case name == "":
			// Bare parenthesis: exactly one argument, no comma.
			if arg2 != "" || args == "" {
				return &SyntaxError{Fragment: m[0]}
			}
		case name == "pi":
			if args != "" {
				return &ArityError{Func: name, Want: "no arguments"}
			}
		case oneArgFuncs[name]:
			if arg2 != "" || args == "" {
				return &ArityError{Func: name, Want: "exactly one argument"}
			}
		case name == "log" || name == "round":
			if arg3 != "" || args == "" {
				return &ArityError{Func: name, Want: "one or two arguments"}
			}
		case name == "atan2" || name == "fmod" || name == "pow":
			if arg3 != "" || arg2 == "" {
				return &ArityError{Func: name, Want: "exactly two arguments"}
			}
		case name == "min" || name == "max":
			if arg2 == "" {
				return &ArityError{Func: name, Want: "at least two arguments"}
			}
		default:
			return &UnsupportedFunctionError{Func: name}
		}

		// Reduce the call to 1.0 and scan again.
		if prefix != "" {
			f = strings.ReplaceAll(f, m[0], prefix+"1.0")
		} else {
			head := regexp.MustCompile(`^` + regexp.QuoteMeta(name) + `\([^)]*\)`)
			f = head.ReplaceAllString(f, "1.0")
		}
	}

	if bad := leftoverRe.FindString(f); bad != "" {
		return &SyntaxError{Fragment: bad}
	}
	return nil
}

// FindPlaceholders returns the distinct wildcard names referenced in text,
// in order of first appearance.
func FindPlaceholders(text string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// FindInlineFormulas returns the {=expr} expressions embedded in question
// text, braces stripped.
func FindInlineFormulas(text string) []string {
	var formulas []string
	for _, m := range inlineFormulaRe.FindAllStringSubmatch(text, -1) {
		formulas = append(formulas, m[1])
	}
	return formulas
}

// CheckText validates every {=expr} formula in a bit of question text and
// returns the first problem found.
func CheckText(text string) error {
	for _, f := range FindInlineFormulas(text) {
		if err := CheckFormula(f); err != nil {
			return err
		}
	}
	return nil
}
