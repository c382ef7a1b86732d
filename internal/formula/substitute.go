package formula

import (
	"errors"
	"strconv"
	"strings"
)

// Dataset maps wildcard names to the values of one generated item.
type Dataset map[string]float64

// ErrAnyAnswer is returned by Evaluate when the formula is the literal "*",
// meaning the author accepts any response.
var ErrAnyAnswer = errors.New("formula accepts any answer")

// ErrEmptyFormula is returned by Evaluate for a blank formula.
var ErrEmptyFormula = errors.New("empty formula")

// Substitute replaces every {name} token in text with the dataset value.
// Values that are zero or negative are parenthesized so the substitution
// cannot collide with a preceding operator ({x}*2 with x=-3 becomes
// (-3)*2, never -3*2).
func Substitute(text string, ds Dataset) string {
	for name, value := range ds {
		v := strconv.FormatFloat(value, 'g', -1, 64)
		if value <= 0 {
			v = "(" + v + ")"
		}
		text = strings.ReplaceAll(text, "{"+name+"}", v)
	}
	return text
}

// RenderText prepares question text for display under one dataset item:
// every {=expr} block is evaluated and replaced by its value, then the
// remaining {name} tokens are substituted. A block that fails to evaluate
// is left untouched so the author can spot it.
func RenderText(text string, ds Dataset) string {
	text = inlineFormulaRe.ReplaceAllStringFunc(text, func(block string) string {
		expr := inlineFormulaRe.FindStringSubmatch(block)[1]
		v, err := Evaluate(expr, ds)
		if err != nil {
			return block
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	})
	return Substitute(text, ds)
}

// Evaluate substitutes the dataset into formula and computes its numeric
// value. The substituted expression is validated with CheckFormula before
// anything is interpreted. A literal "*" yields ErrAnyAnswer.
func Evaluate(f string, ds Dataset) (float64, error) {
	sub := Substitute(f, ds)
	if err := CheckFormula(sub); err != nil {
		return 0, err
	}
	sub = strings.TrimSpace(sub)
	switch sub {
	case "":
		return 0, ErrEmptyFormula
	case "*":
		return 0, ErrAnyAnswer
	}
	return evalExpression(sub)
}
