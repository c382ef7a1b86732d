package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefs() []Definition {
	return []Definition{
		{ID: 11, Name: "a", Options: "uniform:1.0:10.0:1"},
		{ID: 12, Name: "b", Options: "uniform:1.0:10.0:1"},
	}
}

func TestGenerateSlotNoRules(t *testing.T) {
	g := NewGenerator(NewSampler(1))
	values, err := g.GenerateSlot(testDefs(), nil, Uniform)
	require.NoError(t, err)
	require.Len(t, values, 2)
	for _, v := range values {
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 1.0)
		assert.LessOrEqual(t, v, 10.0)
	}
}

func TestGenerateSlotHonorsRules(t *testing.T) {
	g := NewGenerator(NewSampler(2))
	rules := []ValidationRule{
		{Formula: "{a}-{b}", Negative: Forbid, Zero: Allow, Positive: Allow},
	}
	for i := 0; i < 50; i++ {
		values, err := g.GenerateSlot(testDefs(), rules, Uniform)
		require.NoError(t, err)
		if math.IsNaN(values[11]) {
			continue // budget exhausted is a legal outcome
		}
		assert.GreaterOrEqual(t, values[11], values[12])
	}
}

func TestGenerateSlotUnsatisfiableRuleExhaustsBudget(t *testing.T) {
	g := NewGenerator(NewSampler(3))
	// {a}-{a} is always zero, so forbidding zero can never be satisfied.
	rules := []ValidationRule{
		{Formula: "{a}-{a}", Zero: Forbid, Positive: Allow, Negative: Allow},
	}
	for i := 0; i < 10; i++ {
		values, err := g.GenerateSlot(testDefs(), rules, Uniform)
		require.NoError(t, err)
		for _, v := range values {
			assert.True(t, math.IsNaN(v))
		}
	}
}

func TestGenerateSlotBoundFormulas(t *testing.T) {
	g := NewGenerator(NewSampler(4))
	rules := []ValidationRule{
		{
			Formula:  "{a}",
			Zero:     Allow,
			Positive: Allow,
			Negative: Allow,
			Min:      "2",
			Max:      "{b}+10",
		},
	}
	for i := 0; i < 50; i++ {
		values, err := g.GenerateSlot(testDefs(), rules, Uniform)
		require.NoError(t, err)
		if math.IsNaN(values[11]) {
			continue
		}
		assert.Greater(t, values[11], 2.0)
		assert.Less(t, values[11], values[12]+10)
	}
}

func TestGenerateSlotBadOptionsAborts(t *testing.T) {
	g := NewGenerator(NewSampler(5))
	defs := []Definition{{ID: 1, Name: "a", Options: "normal:1:10:2"}}
	_, err := g.GenerateSlot(defs, nil, Uniform)
	require.Error(t, err)
	var oerr *OptionsError
	assert.ErrorAs(t, err, &oerr)
}

func TestGenerateSlotDegenerateRangeFailsSlot(t *testing.T) {
	g := NewGenerator(NewSampler(6))
	defs := []Definition{{ID: 1, Name: "a", Options: "loguniform:0:10:2"}}
	values, err := g.GenerateSlot(defs, nil, LogUniform)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(values[1]))
}

func TestGenerateSlotInfiniteResultRejected(t *testing.T) {
	g := NewGenerator(NewSampler(7))
	defs := []Definition{{ID: 1, Name: "a", Options: "uniform:0.0:0.0:1"}}
	// {a} is always 0, so 1/{a} is always infinite and every attempt is
	// rejected; the slot must come back invalid rather than error.
	rules := []ValidationRule{
		{Formula: "1/{a}", Zero: Allow, Positive: Allow, Negative: Allow},
	}
	values, err := g.GenerateSlot(defs, rules, Uniform)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(values[1]))
}
