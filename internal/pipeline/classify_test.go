package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vetlabs/vetassist/internal/domain"
)

func TestParseClassification_DomainEmergency(t *testing.T) {
	raw := `{"tipo": "VETERINARIA", "urgencia": "EMERGENCIA", "busqueda_necesaria": true, "consulta_refinada": "intoxicación por chocolate en perros"}`

	c, err := parseClassification(raw)

	require.NoError(t, err)
	assert.Equal(t, domain.QueryTypeDomain, c.Type)
	assert.Equal(t, domain.UrgencyEmergency, c.Urgency)
	assert.True(t, c.SearchNeeded)
	assert.Equal(t, "intoxicación por chocolate en perros", c.RefinedQuery)
	assert.True(t, c.IsEmergency())
}

func TestParseClassification_SystemQuery(t *testing.T) {
	raw := `{"tipo": "SISTEMA", "urgencia": "", "busqueda_necesaria": false, "consulta_refinada": ""}`

	c, err := parseClassification(raw)

	require.NoError(t, err)
	assert.Equal(t, domain.QueryTypeSystem, c.Type)
	assert.False(t, c.SearchNeeded)
	assert.False(t, c.IsEmergency())
}

func TestParseClassification_StripsSurroundingProse(t *testing.T) {
	raw := "Aquí está la clasificación:\n```json\n" +
		`{"tipo": "FUERA_DE_ALCANCE", "urgencia": "", "busqueda_necesaria": false, "consulta_refinada": ""}` +
		"\n```\nEspero que sirva."

	c, err := parseClassification(raw)

	require.NoError(t, err)
	assert.Equal(t, domain.QueryTypeOutOfScope, c.Type)
}

func TestParseClassification_RejectsUnknownType(t *testing.T) {
	raw := `{"tipo": "OTRA_COSA", "urgencia": "", "busqueda_necesaria": false, "consulta_refinada": ""}`

	_, err := parseClassification(raw)

	assert.ErrorIs(t, err, domain.ErrInvalidQueryType)
}

func TestParseClassification_RejectsDomainWithoutUrgency(t *testing.T) {
	raw := `{"tipo": "VETERINARIA", "urgencia": "", "busqueda_necesaria": true, "consulta_refinada": "algo"}`

	_, err := parseClassification(raw)

	assert.ErrorIs(t, err, domain.ErrMissingUrgency)
}

func TestParseClassification_RejectsSearchWithoutRefinedQuery(t *testing.T) {
	raw := `{"tipo": "VETERINARIA", "urgencia": "NO_EMERGENCIA", "busqueda_necesaria": true, "consulta_refinada": "  "}`

	_, err := parseClassification(raw)

	assert.ErrorIs(t, err, domain.ErrMissingRefinedQuery)
}

func TestParseClassification_RejectsNonJSON(t *testing.T) {
	_, err := parseClassification("Tipo: VETERINARIA, Urgencia: NO_EMERGENCIA")

	assert.ErrorIs(t, err, errNoJSONObject)
}

func TestParseClassification_RejectsUnknownFields(t *testing.T) {
	raw := `{"tipo": "SISTEMA", "urgencia": "", "busqueda_necesaria": false, "consulta_refinada": "", "extra": 1}`

	_, err := parseClassification(raw)

	assert.Error(t, err)
}
