package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetlabs/vetassist/internal/domain"
	"github.com/vetlabs/vetassist/internal/retrieval"
)

type stubEngine struct {
	result *retrieval.Result
	err    error
	query  string
	topK   int
}

func (s *stubEngine) RetrieveTopK(ctx context.Context, query string, topK int) (*retrieval.Result, error) {
	s.query = query
	s.topK = topK
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func postSearch(t *testing.T, handler *SearchHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Handle(rec, req)
	return rec
}

func TestSearchHandler_Success(t *testing.T) {
	engine := &stubEngine{result: &retrieval.Result{
		Outcome: retrieval.OutcomeSingle,
		Answer:  "contenido verbatim",
		Matches: []domain.Match{
			{Key: "intoxicacion_chocolate", Category: domain.CategoryTreatment, Topic: "intoxicacion_chocolate", Distance: 0.12, Content: "contenido verbatim"},
		},
	}}
	handler := NewSearchHandler(engine)

	rec := postSearch(t, handler, `{"query": "intoxicación por chocolate en perros", "top_k": 3}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, engine.topK)

	var resp struct {
		Data SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "single_match", resp.Data.Outcome)
	assert.Equal(t, "contenido verbatim", resp.Data.Answer)
	require.Len(t, resp.Data.Matches, 1)
	assert.Equal(t, "intoxicacion_chocolate", resp.Data.Matches[0].Key)
	assert.InDelta(t, 0.12, resp.Data.Matches[0].Distance, 1e-6)
}

func TestSearchHandler_NotFoundOutcomeIsStillOK(t *testing.T) {
	engine := &stubEngine{result: &retrieval.Result{
		Outcome: retrieval.OutcomeNotFound,
		Answer:  "No se encontró información relevante en la base de conocimientos.",
	}}
	handler := NewSearchHandler(engine)

	rec := postSearch(t, handler, `{"query": "algo sin resultados"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data SearchResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Data.Outcome)
	assert.NotNil(t, resp.Data.Matches)
	assert.Empty(t, resp.Data.Matches)
}

func TestSearchHandler_MissingQuery(t *testing.T) {
	handler := NewSearchHandler(&stubEngine{})

	rec := postSearch(t, handler, `{"top_k": 5}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchHandler_RetrievalErrorIsInternal(t *testing.T) {
	engine := &stubEngine{err: domain.NewRetrievalError(errors.New("index down"))}
	handler := NewSearchHandler(engine)

	rec := postSearch(t, handler, `{"query": "consulta"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
