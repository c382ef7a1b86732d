package question

import (
	"context"
	"sync"

	"github.com/mind-engage/randomdata/internal/dataset"
)

// memoryStore keeps everything in maps. It mirrors the SQL store's
// semantics closely enough for tests, including greatest-id-wins item
// collapse and oldest-id-wins shared definition identity.
type memoryStore struct {
	mu        sync.RWMutex
	nextID    int64
	questions map[int64]Question
	defs      map[int64]dataset.Definition
	links     map[int64][]int64 // question -> definition ids, insertion order
	answers   map[int64][]Answer
	rules     map[int64][]dataset.ValidationRule
	items     map[int64][]dataset.Item // definition -> rows, append order
	resultsBy map[int64]struct {
		distribution string
		results      []string
	}
}

func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[int64]Question{},
		defs:      map[int64]dataset.Definition{},
		links:     map[int64][]int64{},
		answers:   map[int64][]Answer{},
		rules:     map[int64][]dataset.ValidationRule{},
		items:     map[int64][]dataset.Item{},
		resultsBy: map[int64]struct {
			distribution string
			results      []string
		}{},
	}
}

func (m *memoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id int64) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) SaveDefinition(_ context.Context, questionID int64, d dataset.Definition) (dataset.Definition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.ID == 0 && d.Scope == dataset.ScopeShared {
		if existing, ok := m.sharedDefinition(d); ok {
			d = existing
		}
	}
	if d.ID == 0 {
		d.ID = m.id()
	}
	m.defs[d.ID] = d

	for _, id := range m.links[questionID] {
		if id == d.ID {
			return d, nil
		}
	}
	m.links[questionID] = append(m.links[questionID], d.ID)
	return d, nil
}

func (m *memoryStore) sharedDefinition(d dataset.Definition) (dataset.Definition, bool) {
	var best dataset.Definition
	found := false
	for _, cand := range m.defs {
		if cand.Scope == dataset.ScopeShared && cand.Category == d.Category && cand.Name == d.Name {
			if !found || cand.ID < best.ID {
				best = cand
				found = true
			}
		}
	}
	return best, found
}

func (m *memoryStore) DefinitionsForQuestion(_ context.Context, questionID int64) ([]dataset.Definition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var defs []dataset.Definition
	for _, id := range m.links[questionID] {
		if d, ok := m.defs[id]; ok {
			defs = append(defs, d)
		}
	}
	return defs, nil
}

func (m *memoryStore) PutAnswers(_ context.Context, questionID int64, answers []Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Answer, len(answers))
	for i, a := range answers {
		a.ID = m.id()
		a.QuestionID = questionID
		out[i] = a
	}
	m.answers[questionID] = out
	return nil
}

func (m *memoryStore) AnswersForQuestion(_ context.Context, questionID int64) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Answer(nil), m.answers[questionID]...), nil
}

func (m *memoryStore) PutRules(_ context.Context, questionID int64, rules []dataset.ValidationRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]dataset.ValidationRule, len(rules))
	for i, r := range rules {
		r.ID = m.id()
		r.QuestionID = questionID
		out[i] = r
	}
	m.rules[questionID] = out
	return nil
}

func (m *memoryStore) RulesForQuestion(_ context.Context, questionID int64) ([]dataset.ValidationRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]dataset.ValidationRule(nil), m.rules[questionID]...), nil
}

func (m *memoryStore) AppendItems(_ context.Context, definitionID int64, items []dataset.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		it.ID = m.id()
		it.DefinitionID = definitionID
		m.items[definitionID] = append(m.items[definitionID], it)
	}
	return nil
}

func (m *memoryStore) ItemsForDefinition(_ context.Context, definitionID int64) ([]dataset.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Greatest id wins per item number.
	current := map[int]dataset.Item{}
	maxNumber := 0
	for _, it := range m.items[definitionID] {
		if have, ok := current[it.ItemNumber]; !ok || it.ID > have.ID {
			current[it.ItemNumber] = it
		}
		if it.ItemNumber > maxNumber {
			maxNumber = it.ItemNumber
		}
	}
	var items []dataset.Item
	for n := 1; n <= maxNumber; n++ {
		if it, ok := current[n]; ok {
			items = append(items, it)
		}
	}
	return items, nil
}

func (m *memoryStore) DeleteItemsAbove(_ context.Context, definitionID int64, keep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []dataset.Item
	for _, it := range m.items[definitionID] {
		if it.ItemNumber <= keep {
			kept = append(kept, it)
		}
	}
	m.items[definitionID] = kept
	return nil
}

func (m *memoryStore) SetItemCount(_ context.Context, definitionID int64, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.defs[definitionID]
	if !ok {
		return ErrNotFound
	}
	d.ItemCount = n
	m.defs[definitionID] = d
	return nil
}

func (m *memoryStore) PutResults(_ context.Context, questionID int64, distribution string, results []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsBy[questionID] = struct {
		distribution string
		results      []string
	}{distribution, append([]string(nil), results...)}
	return nil
}

func (m *memoryStore) ResultsForQuestion(_ context.Context, questionID int64) (string, []string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r := m.resultsBy[questionID]
	return r.distribution, append([]string(nil), r.results...), nil
}

func (m *memoryStore) DeleteResults(_ context.Context, questionID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.resultsBy, questionID)
	return nil
}
