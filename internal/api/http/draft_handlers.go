package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/randomdata/internal/dataset"
	"github.com/mind-engage/randomdata/internal/question"
)

// OpenDraftHandler starts a validation-rule draft for a question that has
// no id yet. POST /drafts
func OpenDraftHandler(drafts *question.Drafts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := drafts.Open()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
	}
}

// RulePayload is one validation rule as submitted by the editor. Policies
// use 1 = allow, 2 = forbid.
type RulePayload struct {
	Formula  string `json:"formula"`
	Zero     int    `json:"zero"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
	Min      string `json:"min,omitempty"`
	Max      string `json:"max,omitempty"`
}

func (p RulePayload) rule() dataset.ValidationRule {
	return dataset.ValidationRule{
		Formula:  p.Formula,
		Zero:     dataset.Policy(p.Zero),
		Positive: dataset.Policy(p.Positive),
		Negative: dataset.Policy(p.Negative),
		Min:      p.Min,
		Max:      p.Max,
	}
}

// AddDraftRuleHandler appends a rule to a draft.
// POST /drafts/{token}/rules
func AddDraftRuleHandler(drafts *question.Drafts) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		var req RulePayload
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := drafts.AddRule(token, req.rule()); err != nil {
			if errors.Is(err, question.ErrDraftNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			// Formula problems are client errors.
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// CommitDraftHandler persists a draft's rules under the saved question's
// real id. POST /drafts/{token}/commit  { "question_id": N }
func CommitDraftHandler(drafts *question.Drafts, store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")
		var req struct {
			QuestionID int64 `json:"question_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuestionID <= 0 {
			http.Error(w, "question_id required", http.StatusBadRequest)
			return
		}
		if err := drafts.Commit(r.Context(), store, token, req.QuestionID); err != nil {
			if errors.Is(err, question.ErrDraftNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
