package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetlabs/vetassist/internal/domain"
)

// stubSearcher returns a fixed match list regardless of the query.
type stubSearcher struct {
	matches []domain.Match
	err     error
	topK    int
}

func (s *stubSearcher) Query(ctx context.Context, text string, topK int) ([]domain.Match, error) {
	s.topK = topK
	if s.err != nil {
		return nil, s.err
	}
	if len(s.matches) > topK {
		return s.matches[:topK], nil
	}
	return s.matches, nil
}

const chocolateContent = "Intoxicación por chocolate: toxicosis por teobromina. Inducir emesis si la ingesta fue hace menos de 2 horas."

func TestEngine_Retrieve_SingleConfidentMatchIsVerbatim(t *testing.T) {
	searcher := &stubSearcher{matches: []domain.Match{
		{Key: "intoxicacion_chocolate", Content: chocolateContent, Distance: 0.12},
		{Key: "parvovirus_canino", Content: "Gastroenteritis viral aguda.", Distance: 0.35},
	}}
	engine := NewEngine(searcher, 0.21, 5)

	result, err := engine.Retrieve(context.Background(), "Mi perro comió chocolate hace 1 hora")

	require.NoError(t, err)
	assert.Equal(t, OutcomeSingle, result.Outcome)
	assert.Equal(t, chocolateContent, result.Answer)
	require.Len(t, result.Confident, 1)
	assert.Equal(t, "intoxicacion_chocolate", result.Confident[0].Key)
}

func TestEngine_Retrieve_NoConfidentMatchFallsBackLowConfidence(t *testing.T) {
	searcher := &stubSearcher{matches: []domain.Match{
		{Key: "parvovirus_canino", Content: "Gastroenteritis viral aguda.", Distance: 0.9},
	}}
	engine := NewEngine(searcher, 0.21, 5)

	result, err := engine.Retrieve(context.Background(), "Tengo ganas de jugar videojuegos")

	require.NoError(t, err)
	assert.Equal(t, OutcomeLowConfidence, result.Outcome)
	assert.Contains(t, result.Answer, "no verificada")
	assert.Contains(t, result.Answer, "Gastroenteritis viral aguda.")
	assert.Empty(t, result.Confident)
}

func TestEngine_Retrieve_MultipleConfidentMatchesAreBulleted(t *testing.T) {
	searcher := &stubSearcher{matches: []domain.Match{
		{Key: "parvovirus_canino", Content: "Contenido parvovirus.", Distance: 0.10},
		{Key: "ehrlichiosis_canina", Content: "Contenido ehrlichiosis.", Distance: 0.15},
		{Key: "diabetes_mellitus_canina", Content: "Contenido diabetes.", Distance: 0.40},
	}}
	engine := NewEngine(searcher, 0.21, 5)

	result, err := engine.Retrieve(context.Background(), "enfermedades caninas con fiebre")

	require.NoError(t, err)
	assert.Equal(t, OutcomeMultiple, result.Outcome)
	require.Len(t, result.Confident, 2)
	assert.True(t, strings.HasPrefix(result.Answer, "Se encontraron múltiples resultados relevantes:"))
	assert.Contains(t, result.Answer, "- Contenido parvovirus.")
	assert.Contains(t, result.Answer, "- Contenido ehrlichiosis.")
	assert.NotContains(t, result.Answer, "Contenido diabetes.")
	// confident matches keep the index's ascending-distance order
	assert.Less(t,
		strings.Index(result.Answer, "Contenido parvovirus."),
		strings.Index(result.Answer, "Contenido ehrlichiosis."))
}

func TestEngine_Retrieve_EmptyIndexReturnsNotFound(t *testing.T) {
	engine := NewEngine(&stubSearcher{}, 0.21, 5)

	result, err := engine.Retrieve(context.Background(), "síntomas de leptospirosis")

	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, result.Outcome)
	assert.Equal(t, "No se encontró información relevante en la base de conocimientos.", result.Answer)
	assert.Empty(t, result.Matches)
}

func TestEngine_Retrieve_EveryBranchProducesAnAnswer(t *testing.T) {
	cases := []struct {
		name    string
		matches []domain.Match
	}{
		{"empty index", nil},
		{"all beyond threshold", []domain.Match{{Key: "a", Content: "x", Distance: 0.8}}},
		{"one confident", []domain.Match{{Key: "a", Content: "x", Distance: 0.1}}},
		{"many confident", []domain.Match{
			{Key: "a", Content: "x", Distance: 0.1},
			{Key: "b", Content: "y", Distance: 0.2},
		}},
	}

	engine := NewEngine(&stubSearcher{}, 0.21, 5)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine.index = &stubSearcher{matches: tc.matches}
			result, err := engine.Retrieve(context.Background(), "consulta")
			require.NoError(t, err)
			assert.NotEmpty(t, result.Answer)
		})
	}
}

func TestEngine_Retrieve_ThresholdMonotonicity(t *testing.T) {
	matches := []domain.Match{
		{Key: "a", Content: "a", Distance: 0.05},
		{Key: "b", Content: "b", Distance: 0.18},
		{Key: "c", Content: "c", Distance: 0.30},
		{Key: "d", Content: "d", Distance: 0.55},
	}

	prev := -1
	for _, tau := range []float32{0.01, 0.1, 0.2, 0.4, 0.6} {
		engine := NewEngine(&stubSearcher{matches: matches}, tau, 5)
		result, err := engine.Retrieve(context.Background(), "consulta")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(result.Confident), prev,
			"raising the threshold must never shrink the confident set")
		prev = len(result.Confident)
	}
}

func TestEngine_Retrieve_PropagatesIndexError(t *testing.T) {
	engine := NewEngine(&stubSearcher{err: domain.NewRetrievalError(errors.New("connection refused"))}, 0.21, 5)

	_, err := engine.Retrieve(context.Background(), "consulta")

	assert.Error(t, err)
	assert.Equal(t, domain.ErrCodeRetrieval, domain.ErrorCode(err))
}

func TestEngine_Retrieve_UsesConfiguredTopK(t *testing.T) {
	searcher := &stubSearcher{matches: []domain.Match{{Key: "a", Content: "a", Distance: 0.1}}}
	engine := NewEngine(searcher, 0.21, 3)

	_, err := engine.Retrieve(context.Background(), "consulta")

	require.NoError(t, err)
	assert.Equal(t, 3, searcher.topK)
}
