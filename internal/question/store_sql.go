package question

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"

	"github.com/mind-engage/randomdata/internal/answer"
	"github.com/mind-engage/randomdata/internal/dataset"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

// insertID runs an INSERT and returns the generated id. Postgres needs
// RETURNING because the pgx driver has no LastInsertId.
func (s *SQLStore) insertID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.driver == "postgres" {
		var id int64
		err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id)
		return id, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO questions (id,name,qtext)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, qtext=EXCLUDED.qtext`,
		q.ID, q.Name, q.Text)
	return err
}

func (s *SQLStore) GetQuestion(ctx context.Context, id int64) (Question, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,name,qtext FROM questions WHERE id=$1`, id)
	var q Question
	if err := row.Scan(&q.ID, &q.Name, &q.Text); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) SaveDefinition(ctx context.Context, questionID int64, d dataset.Definition) (dataset.Definition, error) {
	if d.ID == 0 && d.Scope == dataset.ScopeShared {
		// Reuse an existing shared definition with the same identity.
		existing, err := s.oldestDefinition(ctx, d)
		if err != nil {
			return dataset.Definition{}, err
		}
		if existing != nil {
			d = *existing
		}
	}

	if d.ID == 0 {
		id, err := s.insertID(ctx, `INSERT INTO dataset_definitions (category,name,scope,options,itemcount)
			VALUES ($1,$2,$3,$4,$5)`,
			d.Category, d.Name, int(d.Scope), d.Options, d.ItemCount)
		if err != nil {
			return dataset.Definition{}, err
		}
		d.ID = id

		if d.Scope == dataset.ScopeShared {
			// Another save may have created the same shared definition
			// between our lookup and insert. The oldest row survives.
			oldest, err := s.oldestDefinition(ctx, d)
			if err != nil {
				return dataset.Definition{}, err
			}
			if oldest != nil && oldest.ID != d.ID {
				if _, err := s.db.ExecContext(ctx,
					`DELETE FROM dataset_definitions WHERE id=$1`, d.ID); err != nil {
					return dataset.Definition{}, err
				}
				d = *oldest
			}
		}
	} else {
		_, err := s.db.ExecContext(ctx, `UPDATE dataset_definitions
			SET category=$1, name=$2, scope=$3, options=$4, itemcount=$5 WHERE id=$6`,
			d.Category, d.Name, int(d.Scope), d.Options, d.ItemCount, d.ID)
		if err != nil {
			return dataset.Definition{}, err
		}
	}

	if err := s.linkDefinition(ctx, questionID, d.ID); err != nil {
		return dataset.Definition{}, err
	}
	return d, nil
}

func (s *SQLStore) oldestDefinition(ctx context.Context, d dataset.Definition) (*dataset.Definition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,category,name,scope,options,itemcount
		FROM dataset_definitions WHERE scope=$1 AND category=$2 AND name=$3
		ORDER BY id ASC LIMIT 1`,
		int(d.Scope), d.Category, d.Name)
	var out dataset.Definition
	var scope int
	if err := row.Scan(&out.ID, &out.Category, &out.Name, &scope, &out.Options, &out.ItemCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	out.Scope = dataset.Scope(scope)
	return &out, nil
}

func (s *SQLStore) linkDefinition(ctx context.Context, questionID, definitionID int64) error {
	var exist int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM question_datasets
		WHERE question=$1 AND definition=$2`, questionID, definitionID).Scan(&exist)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO question_datasets (question,definition)
		VALUES ($1,$2)`, questionID, definitionID)
	return err
}

func (s *SQLStore) DefinitionsForQuestion(ctx context.Context, questionID int64) ([]dataset.Definition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT d.id,d.category,d.name,d.scope,d.options,d.itemcount
		FROM dataset_definitions d
		JOIN question_datasets qd ON qd.definition = d.id
		WHERE qd.question=$1 ORDER BY d.id ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var defs []dataset.Definition
	for rows.Next() {
		var d dataset.Definition
		var scope int
		if err := rows.Scan(&d.ID, &d.Category, &d.Name, &scope, &d.Options, &d.ItemCount); err != nil {
			return nil, err
		}
		d.Scope = dataset.Scope(scope)
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

func (s *SQLStore) PutAnswers(ctx context.Context, questionID int64, answers []Answer) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM answers WHERE question=$1`, questionID); err != nil {
		return err
	}
	for i := range answers {
		a := &answers[i]
		id, err := s.insertID(ctx, `INSERT INTO answers
			(question,formula,fraction,tolerance,tolerancetype,answerlength,answerformat,unit)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			questionID, a.Formula, a.Fraction, a.Tolerance, int(a.ToleranceType),
			a.AnswerLength, int(a.AnswerFormat), a.Unit)
		if err != nil {
			return err
		}
		a.ID = id
		a.QuestionID = questionID
	}
	return nil
}

func (s *SQLStore) AnswersForQuestion(ctx context.Context, questionID int64) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,question,formula,fraction,tolerance,tolerancetype,answerlength,answerformat,unit
		FROM answers WHERE question=$1 ORDER BY id ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		var a Answer
		var tt, af int
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Formula, &a.Fraction, &a.Tolerance, &tt, &a.AnswerLength, &af, &a.Unit); err != nil {
			return nil, err
		}
		a.ToleranceType = answer.ToleranceType(tt)
		a.AnswerFormat = answer.Format(af)
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SQLStore) PutRules(ctx context.Context, questionID int64, rules []dataset.ValidationRule) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM validation_rules WHERE question=$1`, questionID); err != nil {
		return err
	}
	for i := range rules {
		r := &rules[i]
		id, err := s.insertID(ctx, `INSERT INTO validation_rules
			(question,formula,zero,positive,negative,minformula,maxformula)
			VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			questionID, r.Formula, int(r.Zero), int(r.Positive), int(r.Negative), r.Min, r.Max)
		if err != nil {
			return err
		}
		r.ID = id
		r.QuestionID = questionID
	}
	return nil
}

func (s *SQLStore) RulesForQuestion(ctx context.Context, questionID int64) ([]dataset.ValidationRule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,question,formula,zero,positive,negative,minformula,maxformula
		FROM validation_rules WHERE question=$1 ORDER BY id ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []dataset.ValidationRule
	for rows.Next() {
		var r dataset.ValidationRule
		var zero, pos, neg int
		if err := rows.Scan(&r.ID, &r.QuestionID, &r.Formula, &zero, &pos, &neg, &r.Min, &r.Max); err != nil {
			return nil, err
		}
		r.Zero, r.Positive, r.Negative = dataset.Policy(zero), dataset.Policy(pos), dataset.Policy(neg)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *SQLStore) AppendItems(ctx context.Context, definitionID int64, items []dataset.Item) error {
	for _, it := range items {
		_, err := s.db.ExecContext(ctx, `INSERT INTO dataset_items (definition,itemnumber,value)
			VALUES ($1,$2,$3)`,
			definitionID, it.ItemNumber, strconv.FormatFloat(it.Value, 'g', -1, 64))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) ItemsForDefinition(ctx context.Context, definitionID int64) ([]dataset.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,itemnumber,value FROM dataset_items
		WHERE definition=$1 ORDER BY itemnumber ASC, id ASC`, definitionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []dataset.Item
	for rows.Next() {
		it := dataset.Item{DefinitionID: definitionID}
		var raw string
		if err := rows.Scan(&it.ID, &it.ItemNumber, &raw); err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			// Legacy rows can hold junk; keep the item usable.
			log.Printf("dataset item %d: non-numeric value %q, using 1.0", it.ID, raw)
			v = 1.0
		}
		it.Value = v

		// Rows are ordered by id within an item number, so the last row
		// seen for a number wins.
		if n := len(items); n > 0 && items[n-1].ItemNumber == it.ItemNumber {
			items[n-1] = it
		} else {
			items = append(items, it)
		}
	}
	return items, rows.Err()
}

func (s *SQLStore) DeleteItemsAbove(ctx context.Context, definitionID int64, keep int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM dataset_items
		WHERE definition=$1 AND itemnumber > $2`, definitionID, keep)
	return err
}

func (s *SQLStore) SetItemCount(ctx context.Context, definitionID int64, n int) error {
	_, err := s.db.ExecContext(ctx, `UPDATE dataset_definitions SET itemcount=$1 WHERE id=$2`, n, definitionID)
	return err
}

func (s *SQLStore) PutResults(ctx context.Context, questionID int64, distribution string, results []string) error {
	if err := s.DeleteResults(ctx, questionID); err != nil {
		return err
	}
	for _, r := range results {
		_, err := s.db.ExecContext(ctx, `INSERT INTO generation_results (question,distribution,result)
			VALUES ($1,$2,$3)`, questionID, distribution, r)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) ResultsForQuestion(ctx context.Context, questionID int64) (string, []string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT distribution,result FROM generation_results
		WHERE question=$1 ORDER BY id ASC`, questionID)
	if err != nil {
		return "", nil, err
	}
	defer rows.Close()

	var distribution string
	var results []string
	for rows.Next() {
		var r string
		if err := rows.Scan(&distribution, &r); err != nil {
			return "", nil, err
		}
		results = append(results, r)
	}
	return distribution, results, rows.Err()
}

func (s *SQLStore) DeleteResults(ctx context.Context, questionID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM generation_results WHERE question=$1`, questionID)
	return err
}
