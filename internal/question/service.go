package question

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"

	"github.com/mind-engage/randomdata/internal/answer"
	"github.com/mind-engage/randomdata/internal/dataset"
	"github.com/mind-engage/randomdata/internal/formula"
)

// ErrNoDefinitions is returned when generation is requested for a question
// without wildcard definitions.
var ErrNoDefinitions = errors.New("question has no wildcard definitions")

// Service runs the dataset lifecycle for stored questions: generating
// items, listing and trimming them, and previewing the question under one
// item.
type Service struct {
	store Store
	gen   *dataset.Generator
}

func NewService(store Store, gen *dataset.Generator) *Service {
	return &Service{store: store, gen: gen}
}

// GenerateReport tells the caller how a generation request went. Generated
// can fall short of Requested when the constraint retry budget kept
// rejecting assignments or the per-definition item cap was reached; that
// is a warning for the author, not an error.
type GenerateReport struct {
	Requested    int    `json:"requested"`
	Generated    int    `json:"generated"`
	Distribution string `json:"distribution"`
}

// GenerateItems appends up to count new dataset items to the question's
// definitions, picking the distribution whose correct answers spread out
// the most. Valid slots become renumbered 1-based items; every slot also
// leaves a result row (the first full-credit answer's value, or the error
// marker).
func (s *Service) GenerateItems(ctx context.Context, questionID int64, count int) (GenerateReport, error) {
	defs, err := s.store.DefinitionsForQuestion(ctx, questionID)
	if err != nil {
		return GenerateReport{}, err
	}
	if len(defs) == 0 {
		return GenerateReport{}, ErrNoDefinitions
	}
	rules, err := s.store.RulesForQuestion(ctx, questionID)
	if err != nil {
		return GenerateReport{}, err
	}
	answers, err := s.store.AnswersForQuestion(ctx, questionID)
	if err != nil {
		return GenerateReport{}, err
	}

	report := GenerateReport{Requested: count}

	existing := 0
	for _, d := range defs {
		if d.ItemCount > existing {
			existing = d.ItemCount
		}
	}
	if existing+count > dataset.MaxItems {
		count = dataset.MaxItems - existing
	}
	if count <= 0 {
		return report, nil
	}

	sel, err := s.gen.SelectBest(defs, rules, formulas(answers), count)
	if err != nil {
		return GenerateReport{}, fmt.Errorf("select distribution: %w", err)
	}
	report.Distribution = sel.Kind.String()

	// Valid slots become items numbered after the existing ones. A slot is
	// invalid when its values are NaN; the generator marks whole slots, so
	// checking the first definition suffices.
	newItems := make(map[int64][]dataset.Item, len(defs))
	n := existing
	for slot := 0; slot < count; slot++ {
		if math.IsNaN(sel.Items[defs[0].ID][slot]) {
			continue
		}
		n++
		for _, d := range defs {
			newItems[d.ID] = append(newItems[d.ID], dataset.Item{
				DefinitionID: d.ID,
				ItemNumber:   n,
				Value:        sel.Items[d.ID][slot],
			})
		}
	}
	report.Generated = n - existing
	if report.Generated < report.Requested {
		log.Printf("question %d: generated %d of %d items under %s",
			questionID, report.Generated, report.Requested, sel.Kind)
	}

	for _, d := range defs {
		if err := s.store.AppendItems(ctx, d.ID, newItems[d.ID]); err != nil {
			return GenerateReport{}, err
		}
		if err := s.store.SetItemCount(ctx, d.ID, n); err != nil {
			return GenerateReport{}, err
		}
	}

	if len(sel.Answers) > 0 {
		results := make([]string, 0, count)
		for _, v := range sel.Answers[0].Results {
			if math.IsNaN(v) {
				results = append(results, answer.ErrorMarker)
			} else {
				results = append(results, strconv.FormatFloat(v, 'g', -1, 64))
			}
		}
		if err := s.store.PutResults(ctx, questionID, sel.Kind.String(), results); err != nil {
			return GenerateReport{}, err
		}
	}
	return report, nil
}

// Slot is one generated item row across a question's definitions.
type Slot struct {
	ItemNumber int                `json:"item_number"`
	Values     map[string]float64 `json:"values"`
}

// ListItems returns the question's current items grouped by item number,
// with duplicate rows already collapsed.
func (s *Service) ListItems(ctx context.Context, questionID int64) ([]Slot, error) {
	defs, err := s.store.DefinitionsForQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}

	byNumber := map[int]map[string]float64{}
	maxNumber := 0
	for _, d := range defs {
		items, err := s.store.ItemsForDefinition(ctx, d.ID)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			if byNumber[it.ItemNumber] == nil {
				byNumber[it.ItemNumber] = map[string]float64{}
			}
			byNumber[it.ItemNumber][d.Name] = it.Value
			if it.ItemNumber > maxNumber {
				maxNumber = it.ItemNumber
			}
		}
	}

	var slots []Slot
	for n := 1; n <= maxNumber; n++ {
		if values, ok := byNumber[n]; ok {
			slots = append(slots, Slot{ItemNumber: n, Values: values})
		}
	}
	return slots, nil
}

// DeleteItems removes the last count items from every definition of the
// question, resets item counts and drops the now-stale result rows.
// count <= 0 or count >= the current item count deletes everything.
func (s *Service) DeleteItems(ctx context.Context, questionID int64, count int) error {
	defs, err := s.store.DefinitionsForQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	for _, d := range defs {
		keep := 0
		if count > 0 && count < d.ItemCount {
			keep = d.ItemCount - count
		}
		if err := s.store.DeleteItemsAbove(ctx, d.ID, keep); err != nil {
			return err
		}
		if err := s.store.SetItemCount(ctx, d.ID, keep); err != nil {
			return err
		}
	}
	return s.store.DeleteResults(ctx, questionID)
}

// AnswerPreview is one answer evaluated under a single dataset item.
type AnswerPreview struct {
	AnswerID  int64   `json:"answer_id"`
	Formula   string  `json:"formula"`
	Formatted string  `json:"formatted"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// Preview is a question rendered under one dataset item.
type Preview struct {
	ItemNumber int             `json:"item_number"`
	Text       string          `json:"text"`
	Answers    []AnswerPreview `json:"answers"`
}

// PreviewItem renders the question under the given item number: question
// text with wildcards and inline expressions substituted, plus every
// answer's formatted value and tolerance interval.
func (s *Service) PreviewItem(ctx context.Context, questionID int64, itemNumber int) (Preview, error) {
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return Preview{}, err
	}
	defs, err := s.store.DefinitionsForQuestion(ctx, questionID)
	if err != nil {
		return Preview{}, err
	}

	ds := make(formula.Dataset, len(defs))
	for _, d := range defs {
		items, err := s.store.ItemsForDefinition(ctx, d.ID)
		if err != nil {
			return Preview{}, err
		}
		found := false
		for _, it := range items {
			if it.ItemNumber == itemNumber {
				ds[d.Name] = it.Value
				found = true
				break
			}
		}
		if !found {
			return Preview{}, fmt.Errorf("item %d for definition %q: %w", itemNumber, d.Name, ErrNotFound)
		}
	}

	p := Preview{
		ItemNumber: itemNumber,
		Text:       formula.RenderText(q.Text, ds),
	}

	answers, err := s.store.AnswersForQuestion(ctx, questionID)
	if err != nil {
		return Preview{}, err
	}
	for _, a := range answers {
		v, err := formula.Evaluate(a.Formula, ds)
		ap := AnswerPreview{AnswerID: a.ID, Formula: a.Formula}
		switch {
		case errors.Is(err, formula.ErrAnyAnswer):
			ap.Formatted = "*"
		case err != nil:
			ap.Formatted = answer.ErrorMarker
		default:
			ap.Formatted = answer.FormatAnswer(v, a.AnswerLength, a.AnswerFormat, a.Unit)
			ap.Min, ap.Max = answer.ToleranceInterval(v, a.Tolerance, a.ToleranceType)
		}
		p.Answers = append(p.Answers, ap)
	}
	return p, nil
}
