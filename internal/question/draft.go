package question

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/randomdata/internal/dataset"
)

// ErrDraftNotFound is returned for unknown or expired draft tokens.
var ErrDraftNotFound = errors.New("draft not found")

// Drafts collects validation rules for questions that have not been saved
// yet. Rules live in memory under an opaque token until Commit persists
// them under the real question id, so no placeholder rows ever reach
// storage. Stale drafts are swept on access.
type Drafts struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]*draft
	now    func() time.Time
}

type draft struct {
	rules   []dataset.ValidationRule
	touched time.Time
}

func NewDrafts(ttl time.Duration) *Drafts {
	return &Drafts{
		ttl:    ttl,
		drafts: map[string]*draft{},
		now:    time.Now,
	}
}

// Open starts a new draft and returns its token.
func (d *Drafts) Open() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweep()
	token := uuid.NewString()
	d.drafts[token] = &draft{touched: d.now()}
	return token
}

// AddRule validates the rule's formulas and appends it to the draft.
func (d *Drafts) AddRule(token string, r dataset.ValidationRule) error {
	if err := dataset.CheckRule(r); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweep()
	dr, ok := d.drafts[token]
	if !ok {
		return ErrDraftNotFound
	}
	dr.rules = append(dr.rules, r)
	dr.touched = d.now()
	return nil
}

// Rules returns the draft's accumulated rules.
func (d *Drafts) Rules(token string) ([]dataset.ValidationRule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweep()
	dr, ok := d.drafts[token]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return append([]dataset.ValidationRule(nil), dr.rules...), nil
}

// Commit persists the draft's rules under the real question id and drops
// the draft. The draft survives a failed store write so the caller can
// retry.
func (d *Drafts) Commit(ctx context.Context, st Store, token string, questionID int64) error {
	rules, err := d.Rules(token)
	if err != nil {
		return err
	}
	if err := st.PutRules(ctx, questionID, rules); err != nil {
		return err
	}
	d.mu.Lock()
	delete(d.drafts, token)
	d.mu.Unlock()
	return nil
}

// sweep drops expired drafts. Caller holds the lock.
func (d *Drafts) sweep() {
	if d.ttl <= 0 {
		return
	}
	cutoff := d.now().Add(-d.ttl)
	for token, dr := range d.drafts {
		if dr.touched.Before(cutoff) {
			delete(d.drafts, token)
		}
	}
}
