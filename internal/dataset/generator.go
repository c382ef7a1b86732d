package dataset

import (
	"errors"
	"math"

	"github.com/mind-engage/randomdata/internal/formula"
)

// slotRetryBudget is how many candidate assignments one slot may burn
// through before it is written off as invalid.
const slotRetryBudget = 30

// Generator produces evaluation slots: complete assignments of one sampled
// value to every wildcard definition, constrained by the author's
// validation rules.
type Generator struct {
	sampler *Sampler
}

// NewGenerator wraps a sampler. All four distributions draw from the
// sampler's single random source.
func NewGenerator(s *Sampler) *Generator {
	return &Generator{sampler: s}
}

// GenerateSlot builds one assignment under the given distribution kind,
// resampling until every validation rule passes or the retry budget runs
// out. An exhausted budget (or a degenerate sampling range) yields an
// invalid slot — NaN for every definition — never an error. The only error
// case is an undecodable options string, which is a data-integrity fault
// that aborts generation.
func (g *Generator) GenerateSlot(defs []Definition, rules []ValidationRule, kind DistributionKind) (map[int64]float64, error) {
	parsed := make([]Options, len(defs))
	for i, d := range defs {
		o, err := ParseOptions(d.Options)
		if err != nil {
			return nil, err
		}
		parsed[i] = o
	}

	for attempt := 0; attempt < slotRetryBudget; attempt++ {
		values := make(map[int64]float64, len(defs))
		ds := make(formula.Dataset, len(defs))
		degenerate := false
		for i, d := range defs {
			v, err := g.sampler.Sample(kind, parsed[i])
			if err != nil {
				if errors.Is(err, ErrDegenerateRange) {
					degenerate = true
					break
				}
				return nil, err
			}
			values[d.ID] = v
			ds[d.Name] = v
		}
		if degenerate {
			// No retry will help; fail this slot fast.
			break
		}
		if !rejected(rules, ds) {
			return values, nil
		}
	}

	invalid := make(map[int64]float64, len(defs))
	for _, d := range defs {
		invalid[d.ID] = math.NaN()
	}
	return invalid, nil
}

// CheckRule verifies a rule's formulas before the rule is accepted into a
// question or draft. Empty bound formulas mean unbounded and are fine.
func CheckRule(r ValidationRule) error {
	if err := formula.CheckFormula(r.Formula); err != nil {
		return err
	}
	if r.Min != "" {
		if err := formula.CheckFormula(r.Min); err != nil {
			return err
		}
	}
	if r.Max != "" {
		if err := formula.CheckFormula(r.Max); err != nil {
			return err
		}
	}
	return nil
}

// rejected reports whether any validation rule turns the candidate
// assignment down.
func rejected(rules []ValidationRule, ds formula.Dataset) bool {
	for _, rule := range rules {
		r, err := formula.Evaluate(rule.Formula, ds)
		if err != nil {
			if errors.Is(err, formula.ErrAnyAnswer) {
				continue
			}
			return true
		}
		if math.IsInf(r, 0) {
			return true
		}
		if rule.Zero == Forbid && r == 0 {
			return true
		}
		if rule.Positive == Forbid && r > 0 {
			return true
		}
		if rule.Negative == Forbid && r < 0 {
			return true
		}
		if rule.Min != "" {
			min, err := formula.Evaluate(rule.Min, ds)
			if err != nil || min >= r {
				return true
			}
		}
		if rule.Max != "" {
			max, err := formula.Evaluate(rule.Max, ds)
			if err != nil || max <= r {
				return true
			}
		}
	}
	return false
}
