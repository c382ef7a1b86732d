package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/randomdata/internal/dataset"
	"github.com/mind-engage/randomdata/internal/formula"
	"github.com/mind-engage/randomdata/internal/question"
)

func questionID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "questionID"), 10, 64)
}

// DefinitionPayload is a wildcard definition as submitted by the editor.
type DefinitionPayload struct {
	ID       int64  `json:"id,omitempty"`
	Name     string `json:"name"`
	Scope    int    `json:"scope"`
	Category int64  `json:"category"`
	Options  string `json:"options"`
}

// SaveQuestionHandler stores a question with its answers and wildcard
// definitions. PUT /questions/{questionID}
func SaveQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil || id <= 0 {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		var req struct {
			Name        string              `json:"name"`
			Text        string              `json:"text"`
			Answers     []question.Answer   `json:"answers"`
			Definitions []DefinitionPayload `json:"definitions"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		if err := formula.CheckText(req.Text); err != nil {
			http.Error(w, "question text: "+err.Error(), http.StatusBadRequest)
			return
		}
		for _, a := range req.Answers {
			if a.Formula == "*" {
				continue
			}
			if err := formula.CheckFormula(a.Formula); err != nil {
				http.Error(w, "answer formula: "+err.Error(), http.StatusBadRequest)
				return
			}
		}
		defined := make(map[string]bool, len(req.Definitions))
		for _, d := range req.Definitions {
			if _, err := dataset.ParseOptions(d.Options); err != nil {
				http.Error(w, "definition "+d.Name+": "+err.Error(), http.StatusBadRequest)
				return
			}
			defined[d.Name] = true
		}

		// Every wildcard referenced by an answer must have a definition,
		// or generation could never produce a value for it.
		for _, a := range req.Answers {
			for _, name := range formula.FindPlaceholders(a.Formula) {
				if !defined[name] {
					http.Error(w, "wildcard {"+name+"} has no definition", http.StatusBadRequest)
					return
				}
			}
		}

		ctx := r.Context()
		if err := store.PutQuestion(ctx, question.Question{ID: id, Name: req.Name, Text: req.Text}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := store.PutAnswers(ctx, id, req.Answers); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		saved := make([]dataset.Definition, 0, len(req.Definitions))
		for _, d := range req.Definitions {
			def, err := store.SaveDefinition(ctx, id, dataset.Definition{
				ID:       d.ID,
				Name:     d.Name,
				Scope:    dataset.Scope(d.Scope),
				Category: d.Category,
				Options:  d.Options,
			})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			saved = append(saved, def)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "ok",
			"id":          id,
			"definitions": saved,
		})
	}
}

// GetQuestionHandler returns a stored question with its answers and
// definitions. GET /questions/{questionID}
func GetQuestionHandler(store question.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		ctx := r.Context()
		q, err := store.GetQuestion(ctx, id)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, question.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		answers, err := store.AnswersForQuestion(ctx, id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defs, err := store.DefinitionsForQuestion(ctx, id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"question":    q,
			"answers":     answers,
			"definitions": defs,
		})
	}
}

// GenerateItemsHandler runs dataset generation for a question.
// POST /questions/{questionID}/items/generate  { "count": N }
func GenerateItemsHandler(svc *question.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		var req struct {
			Count int `json:"count"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Count <= 0 {
			http.Error(w, "count must be positive", http.StatusBadRequest)
			return
		}

		report, err := svc.GenerateItems(r.Context(), id, req.Count)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, question.ErrNoDefinitions) {
				status = http.StatusConflict
			}
			var oerr *dataset.OptionsError
			if errors.As(err, &oerr) {
				status = http.StatusUnprocessableEntity
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}

// ListItemsHandler returns the question's generated items grouped by item
// number. GET /questions/{questionID}/items
func ListItemsHandler(svc *question.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		slots, err := svc.ListItems(r.Context(), id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if slots == nil {
			slots = []question.Slot{}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(slots)
	}
}

// DeleteItemsHandler trims generated items from the end.
// DELETE /questions/{questionID}/items?count=K (omitted count deletes all)
func DeleteItemsHandler(svc *question.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		count := 0
		if raw := r.URL.Query().Get("count"); raw != "" {
			count, err = strconv.Atoi(raw)
			if err != nil || count < 0 {
				http.Error(w, "bad count", http.StatusBadRequest)
				return
			}
		}
		if err := svc.DeleteItems(r.Context(), id, count); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

// PreviewHandler renders the question under one generated item.
// GET /questions/{questionID}/preview?item=N
func PreviewHandler(svc *question.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := questionID(r)
		if err != nil {
			http.Error(w, "bad question id", http.StatusBadRequest)
			return
		}
		item, err := strconv.Atoi(r.URL.Query().Get("item"))
		if err != nil || item < 1 {
			http.Error(w, "bad item number", http.StatusBadRequest)
			return
		}
		p, err := svc.PreviewItem(r.Context(), id, item)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, question.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(p)
	}
}
