package formula

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteParenthesizesNonPositive(t *testing.T) {
	ds := Dataset{"a": 3, "b": -2}
	assert.Equal(t, "3+(-2)", Substitute("{a}+{b}", ds))
	assert.Equal(t, "(0)*2", Substitute("{z}*2", Dataset{"z": 0}))
	assert.Equal(t, "(-3)*2", Substitute("{x}*2", Dataset{"x": -3}))
}

func TestRenderText(t *testing.T) {
	ds := Dataset{"r": 4, "i": 2.5}
	got := RenderText("A {r} ohm resistor at {i} A gives {=({r}*{i})} V.", ds)
	assert.Equal(t, "A 4 ohm resistor at 2.5 A gives 10 V.", got)

	// A block that cannot evaluate stays visible.
	got = RenderText("bad: {=foo({r})}", ds)
	assert.Equal(t, "bad: {=foo(4)}", got)
}

func TestEvaluateBasic(t *testing.T) {
	cases := []struct {
		formula string
		ds      Dataset
		want    float64
	}{
		{"{a}+{b}", Dataset{"a": 3, "b": -2}, 1},
		{"1+2*3", nil, 7},
		{"(1+2)*3", nil, 9},
		{"10/4", nil, 2.5},
		{"10%3", nil, 1},
		{"-{a}", Dataset{"a": 4}, -4},
		{"2e2+1", nil, 201},
		{"pi()", nil, math.Pi},
		{"sqrt({a})", Dataset{"a": 16}, 4},
		{"pow(2,10)", nil, 1024},
		{"min(3,1,2)", nil, 1},
		{"max({a},{b})", Dataset{"a": 3, "b": 7}, 7},
		{"round(1.2345,2)", nil, 1.23},
		{"round(2.5)", nil, 3},
		{"log(8,2)", nil, 3},
		{"abs({b})", Dataset{"b": -2}, 2},
		{"fmod(10,3)", nil, 1},
		{"atan2(0,1)", nil, 0},
		{"deg2rad(180)", nil, math.Pi},
		{"decbin(10)", nil, 1010},
		{"bindec(1010)", nil, 10},
		{"is_finite(1)", nil, 1},
		{"is_nan(1)", nil, 0},
		{"{a}*{a}-2", Dataset{"a": 3}, 7},
	}
	for _, c := range cases {
		got, err := Evaluate(c.formula, c.ds)
		require.NoError(t, err, "formula %q", c.formula)
		assert.InDelta(t, c.want, got, 1e-9, "formula %q", c.formula)
	}
}

func TestEvaluateDeterministicAndPure(t *testing.T) {
	ds := Dataset{"a": 3, "b": -2}
	first, err := Evaluate("{a}*{b}+1", ds)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Evaluate("{a}*{b}+1", ds)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, Dataset{"a": 3, "b": -2}, ds)
}

func TestEvaluateAnyAnswerSentinel(t *testing.T) {
	_, err := Evaluate("*", nil)
	assert.ErrorIs(t, err, ErrAnyAnswer)
}

func TestEvaluateEmpty(t *testing.T) {
	_, err := Evaluate("", nil)
	assert.ErrorIs(t, err, ErrEmptyFormula)
}

func TestEvaluateRejectsInvalid(t *testing.T) {
	for _, f := range []string{"2#x", "sin(1,2)", "foo(1)", "1+"} {
		_, err := Evaluate(f, nil)
		assert.Error(t, err, "formula %q", f)
	}
}

func TestEvaluateAdjacentSubstitutions(t *testing.T) {
	// Evaluation takes the substituted text at face value, so {a}{b}
	// with whole numbers fuses into the single literal 23. Fractional
	// values leave a second dot behind and fail the number parse.
	v, err := Evaluate("{a}{b}", Dataset{"a": 2, "b": 3})
	require.NoError(t, err)
	assert.InDelta(t, 23, v, 1e-9)

	_, err = Evaluate("{a}{b}", Dataset{"a": 2.5, "b": 3.5})
	assert.Error(t, err)
}

func TestEvaluateDivisionByZeroIsInfinite(t *testing.T) {
	v, err := Evaluate("1/{a}", Dataset{"a": 0})
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))

	v, err = Evaluate("{a}/{a}", Dataset{"a": 0})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestEvaluateNestedCalls(t *testing.T) {
	v, err := Evaluate("round(sqrt(max({a},2)),1)", Dataset{"a": 10})
	require.NoError(t, err)
	assert.InDelta(t, 3.2, v, 1e-9)
}
