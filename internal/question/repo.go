package question

import (
	"context"
	"errors"

	"github.com/mind-engage/randomdata/internal/dataset"
)

// ErrNotFound is returned when a question or definition does not exist.
var ErrNotFound = errors.New("not found")

type Store interface {
	PutQuestion(ctx context.Context, q Question) error
	GetQuestion(ctx context.Context, id int64) (Question, error)

	// SaveDefinition creates or updates a wildcard definition and links it
	// to the question. Shared definitions are resolved against the existing
	// (scope, category, name) identity; concurrent creation collapses to
	// the oldest surviving row.
	SaveDefinition(ctx context.Context, questionID int64, d dataset.Definition) (dataset.Definition, error)
	DefinitionsForQuestion(ctx context.Context, questionID int64) ([]dataset.Definition, error)

	// PutAnswers replaces the question's answers wholesale.
	PutAnswers(ctx context.Context, questionID int64, answers []Answer) error
	AnswersForQuestion(ctx context.Context, questionID int64) ([]Answer, error)

	// PutRules replaces the question's validation rules wholesale.
	PutRules(ctx context.Context, questionID int64, rules []dataset.ValidationRule) error
	RulesForQuestion(ctx context.Context, questionID int64) ([]dataset.ValidationRule, error)

	AppendItems(ctx context.Context, definitionID int64, items []dataset.Item) error
	// ItemsForDefinition returns the definition's current items ordered by
	// item number. Duplicate (definition, itemnumber) rows collapse to the
	// greatest id; losers stay in storage but are never returned.
	ItemsForDefinition(ctx context.Context, definitionID int64) ([]dataset.Item, error)
	DeleteItemsAbove(ctx context.Context, definitionID int64, keep int) error
	SetItemCount(ctx context.Context, definitionID int64, n int) error

	// PutResults replaces the question's per-slot result rows.
	PutResults(ctx context.Context, questionID int64, distribution string, results []string) error
	ResultsForQuestion(ctx context.Context, questionID int64) (distribution string, results []string, err error)
	DeleteResults(ctx context.Context, questionID int64) error
}
