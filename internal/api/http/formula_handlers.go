package http

import (
	"encoding/json"
	"net/http"

	"github.com/mind-engage/randomdata/internal/formula"
)

// ValidateFormulaHandler checks an answer formula (and optionally question
// text with {=...} blocks) for the editing UI. Validation problems come
// back as a 200 with valid=false so the UI can show them inline.
func ValidateFormulaHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Formula string `json:"formula"`
			Text    string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Formula == "" && req.Text == "" {
			http.Error(w, "formula or text required", http.StatusBadRequest)
			return
		}

		resp := struct {
			Valid bool   `json:"valid"`
			Error string `json:"error,omitempty"`
		}{Valid: true}

		if req.Formula != "" {
			if err := formula.CheckFormula(req.Formula); err != nil {
				resp.Valid, resp.Error = false, err.Error()
			}
		}
		if resp.Valid && req.Text != "" {
			if err := formula.CheckText(req.Text); err != nil {
				resp.Valid, resp.Error = false, err.Error()
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
