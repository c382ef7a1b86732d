package dataset

import (
	"math"

	"github.com/mind-engage/randomdata/internal/formula"
)

// AnswerResults is the computed correct-answer sequence for one full-credit
// answer under the winning distribution. NaN entries mark slots that were
// invalid or whose formula could not be evaluated.
type AnswerResults struct {
	AnswerID int64
	Results  []float64
}

// Selection is the outcome of comparing the four candidate distributions.
type Selection struct {
	Kind    DistributionKind
	Items   map[int64][]float64 // definition id -> value per slot
	Answers []AnswerResults     // one entry per full-credit answer, in input order
}

// SelectBest generates slotCount evaluation slots under every candidate
// distribution, scores the distributions by how dispersed the full-credit
// answers come out, and returns the winner's items and answer results.
//
// Scoring: per full-credit answer, one point goes to the distribution with
// the largest absolute range, the largest variance, the largest standard
// deviation and the largest coefficient of variation. A distribution whose
// result sequence for an answer has non-numeric entries scores zero on all
// four statistics for that answer — unless every distribution is tainted,
// in which case statistics are computed over the numeric entries so a
// winner can still be picked. Ties go to the earlier kind in Kinds order.
func (g *Generator) SelectBest(defs []Definition, rules []ValidationRule, answers []AnswerFormula, slotCount int) (*Selection, error) {
	items := make([]map[int64][]float64, len(Kinds))
	for _, kind := range Kinds {
		table := make(map[int64][]float64, len(defs))
		for _, d := range defs {
			table[d.ID] = make([]float64, slotCount)
		}
		for slot := 0; slot < slotCount; slot++ {
			values, err := g.GenerateSlot(defs, rules, kind)
			if err != nil {
				return nil, err
			}
			for id, v := range values {
				table[id][slot] = v
			}
		}
		items[kind] = table
	}

	var fullCredit []AnswerFormula
	for _, a := range answers {
		if a.Fraction == 1.0 {
			fullCredit = append(fullCredit, a)
		}
	}

	// results[kind][answer] is the per-slot correct answer sequence.
	results := make([][][]float64, len(Kinds))
	for _, kind := range Kinds {
		results[kind] = make([][]float64, len(fullCredit))
		for ai, ans := range fullCredit {
			seq := make([]float64, slotCount)
			for slot := 0; slot < slotCount; slot++ {
				ds := make(formula.Dataset, len(defs))
				for _, d := range defs {
					ds[d.Name] = items[kind][d.ID][slot]
				}
				v, err := formula.Evaluate(ans.Formula, ds)
				if err != nil {
					v = math.NaN()
				}
				seq[slot] = v
			}
			results[kind][ai] = seq
		}
	}

	points := tallyPoints(results)
	winner := Kinds[largest(intsToFloats(points))]

	sel := &Selection{Kind: winner, Items: items[winner]}
	for ai, ans := range fullCredit {
		sel.Answers = append(sel.Answers, AnswerResults{
			AnswerID: ans.ID,
			Results:  results[winner][ai],
		})
	}
	return sel, nil
}

// tallyPoints awards dispersion points across distributions.
// results[kind][answer] is a per-slot result sequence.
func tallyPoints(results [][][]float64) []int {
	points := make([]int, len(Kinds))
	if len(results) == 0 || len(results[0]) == 0 {
		return points
	}
	for ai := range results[0] {
		clean := make([]bool, len(Kinds))
		anyClean := false
		for _, kind := range Kinds {
			clean[kind] = allNumeric(results[kind][ai])
			anyClean = anyClean || clean[kind]
		}

		stats := make([]dispersion, len(Kinds))
		for _, kind := range Kinds {
			if clean[kind] || !anyClean {
				stats[kind] = measure(results[kind][ai])
			}
		}

		ranges := make([]float64, len(Kinds))
		variances := make([]float64, len(Kinds))
		stddevs := make([]float64, len(Kinds))
		coefs := make([]float64, len(Kinds))
		for _, kind := range Kinds {
			ranges[kind] = math.Abs(stats[kind].valueRange)
			variances[kind] = stats[kind].variance
			stddevs[kind] = stats[kind].stddev
			coefs[kind] = stats[kind].coefVariation
		}
		points[largest(ranges)]++
		points[largest(variances)]++
		points[largest(stddevs)]++
		points[largest(coefs)]++
	}
	return points
}

type dispersion struct {
	valueRange    float64
	variance      float64
	stddev        float64
	coefVariation float64
}

// measure computes dispersion statistics over the numeric entries of seq.
// A sequence with no numeric entries measures zero across the board.
func measure(seq []float64) dispersion {
	var nums []float64
	for _, v := range seq {
		if !math.IsNaN(v) {
			nums = append(nums, v)
		}
	}
	if len(nums) == 0 {
		return dispersion{}
	}

	min, max := nums[0], nums[0]
	sum := 0.0
	for _, v := range nums {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(nums))

	sq := 0.0
	for _, v := range nums {
		sq += (v - mean) * (v - mean)
	}
	variance := sq / float64(len(nums))
	stddev := math.Sqrt(variance)

	return dispersion{
		valueRange:    max - min,
		variance:      variance,
		stddev:        stddev,
		coefVariation: stddev / mean,
	}
}

func allNumeric(seq []float64) bool {
	for _, v := range seq {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// largest returns the index of the strictly greatest value, with ties
// resolved in favor of the earliest index. NaN entries never win.
func largest(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] || math.IsNaN(values[best]) && !math.IsNaN(values[i]) {
			best = i
		}
	}
	return best
}

func intsToFloats(in []int) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
