package formula

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckFormulaAccepts(t *testing.T) {
	valid := []string{
		"1+2",
		"3.5 * {a} - {b}",
		"2e3 + 1.5e-2",
		"(1+2)*3",
		"pi()",
		"sin(1)",
		"sin({angle})",
		"round(1.234, 2)",
		"log(8, 2)",
		"pow(2, 10)",
		"min(1, 2, 3)",
		"max({a}, {b})",
		"atan2(1, 2)",
		"sqrt(abs(-4))",
		"fmod(10, 3)",
		"1+2*3/4%5",
		"*",
	}
	for _, f := range valid {
		assert.NoError(t, CheckFormula(f), "formula %q", f)
	}
}

func TestCheckFormulaRejectsCommentMarkers(t *testing.T) {
	for _, f := range []string{"2//comment", "2/*x*/", "2#comment", "<?php", "1?>"} {
		err := CheckFormula(f)
		require.Error(t, err, "formula %q", f)
		var serr *SyntaxError
		require.ErrorAs(t, err, &serr, "formula %q", f)
	}

	err := CheckFormula("2#comment")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "#")
}

func TestCheckFormulaArity(t *testing.T) {
	cases := []struct {
		formula string
		fn      string
	}{
		{"sin(1,2)", "sin"},
		{"sin()", "sin"},
		{"pi(1)", "pi"},
		{"log(1,2,3)", "log"},
		{"round()", "round"},
		{"pow(2)", "pow"},
		{"atan2(1,2,3)", "atan2"},
		{"min(1)", "min"},
		{"max(2)", "max"},
	}
	for _, c := range cases {
		err := CheckFormula(c.formula)
		require.Error(t, err, "formula %q", c.formula)
		var aerr *ArityError
		require.ErrorAs(t, err, &aerr, "formula %q", c.formula)
		assert.Equal(t, c.fn, aerr.Func)
	}
}

func TestCheckFormulaUnsupportedFunction(t *testing.T) {
	for _, f := range []string{"eval(1)", "system(1)", "rand(1)", "foo(1,2)"} {
		err := CheckFormula(f)
		require.Error(t, err, "formula %q", f)
		var uerr *UnsupportedFunctionError
		require.ErrorAs(t, err, &uerr, "formula %q", f)
	}
}

func TestCheckFormulaLeftoverTokens(t *testing.T) {
	for _, f := range []string{"1+x", "1;2", "sin(1)$"} {
		err := CheckFormula(f)
		require.Error(t, err, "formula %q", f)
	}
}

func TestCheckFormulaNestedCalls(t *testing.T) {
	assert.NoError(t, CheckFormula("round(sqrt(max({a}, 2)), 1)"))
	assert.Error(t, CheckFormula("round(sqrt(max(2)), 1)"))
}

func TestCheckFormulaEmptyParens(t *testing.T) {
	err := CheckFormula("2*()")
	require.Error(t, err)
	var serr *SyntaxError
	assert.True(t, errors.As(err, &serr))
}

func TestFindPlaceholders(t *testing.T) {
	names := FindPlaceholders("What is {a} + {b}? Note {a} is small.")
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestFindInlineFormulas(t *testing.T) {
	formulas := FindInlineFormulas("The sum is {={a}+{b}} and twice that is {=2*({a}+{b})}.")
	assert.Equal(t, []string{"{a}+{b}", "2*({a}+{b})"}, formulas)
}

func TestCheckText(t *testing.T) {
	assert.NoError(t, CheckText("Compute {={a}*2}."))
	assert.Error(t, CheckText("Compute {=evil(1)}."))
}
