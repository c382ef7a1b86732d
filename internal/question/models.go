// Package question ties the Random Data engine to stored questions: the
// persistence contract, the draft rule builder used while a question is
// still being edited, and the service that generates and manages dataset
// items.
package question

import (
	"github.com/mind-engage/randomdata/internal/answer"
	"github.com/mind-engage/randomdata/internal/dataset"
)

// Question is the minimal slice of a host question this engine needs.
type Question struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Text string `json:"text"`
}

// Answer is one graded answer formula with its display and tolerance
// settings.
type Answer struct {
	ID            int64                `json:"id"`
	QuestionID    int64                `json:"question_id"`
	Formula       string               `json:"formula"`
	Fraction      float64              `json:"fraction"`
	Tolerance     float64              `json:"tolerance"`
	ToleranceType answer.ToleranceType `json:"tolerance_type"`
	AnswerLength  int                  `json:"answer_length"`
	AnswerFormat  answer.Format        `json:"answer_format"`
	Unit          string               `json:"unit,omitempty"`
}

// formulas projects answers down to what the distribution selector needs.
func formulas(answers []Answer) []dataset.AnswerFormula {
	out := make([]dataset.AnswerFormula, 0, len(answers))
	for _, a := range answers {
		out = append(out, dataset.AnswerFormula{ID: a.ID, Formula: a.Formula, Fraction: a.Fraction})
	}
	return out
}
