package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/randomdata/internal/answer"
	"github.com/mind-engage/randomdata/internal/dataset"
	"github.com/mind-engage/randomdata/internal/question"
)

func newTestRouter(t *testing.T) (chi.Router, question.Store) {
	t.Helper()
	store := question.NewInMemoryStore()
	svc := question.NewService(store, dataset.NewGenerator(dataset.NewSampler(1)))
	drafts := question.NewDrafts(time.Minute)

	r := chi.NewRouter()
	r.Post("/formulas/validate", ValidateFormulaHandler())
	r.Post("/drafts", OpenDraftHandler(drafts))
	r.Post("/drafts/{token}/rules", AddDraftRuleHandler(drafts))
	r.Post("/drafts/{token}/commit", CommitDraftHandler(drafts, store))
	r.Put("/questions/{questionID}", SaveQuestionHandler(store))
	r.Get("/questions/{questionID}", GetQuestionHandler(store))
	r.Post("/questions/{questionID}/items/generate", GenerateItemsHandler(svc))
	r.Get("/questions/{questionID}/items", ListItemsHandler(svc))
	r.Delete("/questions/{questionID}/items", DeleteItemsHandler(svc))
	r.Get("/questions/{questionID}/preview", PreviewHandler(svc))
	return r, store
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestValidateFormulaHandler(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, "POST", "/formulas/validate", map[string]string{"formula": "{a}+sin({b})"})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)

	w = doJSON(t, r, "POST", "/formulas/validate", map[string]string{"formula": "2 # comment"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	assert.Contains(t, resp.Error, "#")

	w = doJSON(t, r, "POST", "/formulas/validate", map[string]string{"text": "U is {={r}*{i}} V"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Valid)

	w = doJSON(t, r, "POST", "/formulas/validate", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func saveTestQuestion(t *testing.T, r http.Handler) {
	t.Helper()
	w := doJSON(t, r, "PUT", "/questions/7", map[string]interface{}{
		"name": "power",
		"text": "{r} ohm at {i} A",
		"answers": []map[string]interface{}{
			{
				"formula":        "{r}*{i}",
				"fraction":       1.0,
				"tolerance":      0.05,
				"tolerance_type": int(answer.Relative),
				"answer_length":  2,
				"answer_format":  int(answer.FormatDecimals),
			},
		},
		"definitions": []map[string]interface{}{
			{"name": "r", "scope": 0, "options": "uniform:1.0:10.0:1"},
			{"name": "i", "scope": 0, "options": "uniform:1.0:10.0:1"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSaveAndGetQuestion(t *testing.T) {
	r, _ := newTestRouter(t)
	saveTestQuestion(t, r)

	w := doJSON(t, r, "GET", "/questions/7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Question    question.Question    `json:"question"`
		Answers     []question.Answer    `json:"answers"`
		Definitions []dataset.Definition `json:"definitions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "power", resp.Question.Name)
	assert.Len(t, resp.Answers, 1)
	assert.Len(t, resp.Definitions, 2)
}

func TestSaveQuestionRejectsBadFormula(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, "PUT", "/questions/7", map[string]interface{}{
		"name":    "bad",
		"answers": []map[string]interface{}{{"formula": "sin(1,2)", "fraction": 1.0}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveQuestionRejectsUndefinedWildcard(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, "PUT", "/questions/7", map[string]interface{}{
		"name":    "orphan",
		"answers": []map[string]interface{}{{"formula": "{a}+{b}", "fraction": 1.0}},
		"definitions": []map[string]interface{}{
			{"name": "a", "scope": 0, "options": "uniform:1:10:1"},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "{b}")
}

func TestSaveQuestionRejectsBadOptions(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, "PUT", "/questions/7", map[string]interface{}{
		"name":        "bad",
		"definitions": []map[string]interface{}{{"name": "a", "options": "normal:1:10:2"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateListDeleteItems(t *testing.T) {
	r, _ := newTestRouter(t)
	saveTestQuestion(t, r)

	w := doJSON(t, r, "POST", "/questions/7/items/generate", map[string]int{"count": 5})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report question.GenerateReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 5, report.Requested)
	assert.Equal(t, 5, report.Generated)
	assert.NotEmpty(t, report.Distribution)

	w = doJSON(t, r, "GET", "/questions/7/items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var slots []question.Slot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	require.Len(t, slots, 5)
	assert.Len(t, slots[0].Values, 2)

	w = doJSON(t, r, "DELETE", "/questions/7/items?count=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", "/questions/7/items", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &slots))
	assert.Len(t, slots, 3)
}

func TestGenerateItemsNoDefinitions(t *testing.T) {
	r, store := newTestRouter(t)
	require.NoError(t, store.PutQuestion(context.Background(), question.Question{ID: 9, Name: "empty"}))

	w := doJSON(t, r, "POST", "/questions/9/items/generate", map[string]int{"count": 5})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestPreviewHandler(t *testing.T) {
	r, _ := newTestRouter(t)
	saveTestQuestion(t, r)

	w := doJSON(t, r, "POST", "/questions/7/items/generate", map[string]int{"count": 3})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, "GET", "/questions/7/preview?item=1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p question.Preview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, 1, p.ItemNumber)
	assert.NotContains(t, p.Text, "{r}")
	require.Len(t, p.Answers, 1)

	w = doJSON(t, r, "GET", "/questions/7/preview?item=99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, "GET", "/questions/7/preview", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftFlow(t *testing.T) {
	r, store := newTestRouter(t)

	w := doJSON(t, r, "POST", "/drafts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var opened struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	require.NotEmpty(t, opened.Token)

	rulePath := fmt.Sprintf("/drafts/%s/rules", opened.Token)
	w = doJSON(t, r, "POST", rulePath, RulePayload{
		Formula: "{a}-{b}", Zero: 2, Positive: 1, Negative: 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Bad rule formulas bounce with 400.
	w = doJSON(t, r, "POST", rulePath, RulePayload{Formula: "nope()"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "POST", fmt.Sprintf("/drafts/%s/commit", opened.Token),
		map[string]int64{"question_id": 7})
	require.Equal(t, http.StatusOK, w.Code)

	rules, err := store.RulesForQuestion(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, dataset.Forbid, rules[0].Zero)

	// The token is spent.
	w = doJSON(t, r, "POST", rulePath, RulePayload{Formula: "{a}"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDraftUnknownToken(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, "POST", "/drafts/nope/rules", RulePayload{Formula: "{a}"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
