package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/vetlabs/vetassist/internal/domain"
	"github.com/vetlabs/vetassist/internal/telemetry"
)

// classifierOutput is the wire shape the classify prompt demands. The Spanish
// labels match the prompt; mapping to domain values happens here and only
// here.
type classifierOutput struct {
	Tipo              string `json:"tipo"`
	Urgencia          string `json:"urgencia"`
	BusquedaNecesaria bool   `json:"busqueda_necesaria"`
	ConsultaRefinada  string `json:"consulta_refinada"`
}

var errNoJSONObject = errors.New("no JSON object in classifier output")

// parseClassification turns raw classifier output into a validated
// Classification. Models occasionally wrap the JSON in prose or code fences,
// so the object is cut out of the surrounding text before decoding.
func parseClassification(raw string) (*domain.Classification, error) {
	payload, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var out classifierOutput
	decoder := json.NewDecoder(strings.NewReader(payload))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}

	classification := &domain.Classification{
		SearchNeeded: out.BusquedaNecesaria,
		RefinedQuery: strings.TrimSpace(out.ConsultaRefinada),
	}

	switch strings.ToUpper(strings.TrimSpace(out.Tipo)) {
	case "VETERINARIA":
		classification.Type = domain.QueryTypeDomain
	case "SISTEMA":
		classification.Type = domain.QueryTypeSystem
	case "FUERA_DE_ALCANCE":
		classification.Type = domain.QueryTypeOutOfScope
	default:
		return nil, domain.ErrInvalidQueryType
	}

	switch strings.ToUpper(strings.TrimSpace(out.Urgencia)) {
	case "EMERGENCIA":
		classification.Urgency = domain.UrgencyEmergency
	case "NO_EMERGENCIA":
		classification.Urgency = domain.UrgencyNonEmergency
	}

	if err := classification.Validate(); err != nil {
		return nil, err
	}
	return classification, nil
}

func extractJSONObject(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", errNoJSONObject
	}
	return raw[start : end+1], nil
}

// classify runs the first pipeline stage. Any failure here is fatal to the
// turn: there is no safe default for what type a query is.
func (p *Pipeline) classify(ctx context.Context, turn *domain.TurnContext) error {
	raw, err := p.llm.Complete(ctx, classifySystemPrompt, classifyPrompt(turn.Query, turn.RecentQueries))
	if err != nil {
		// rate limits keep their own type so the API layer can surface
		// scope-specific guidance
		if _, ok := domain.AsRateLimit(err); ok {
			return err
		}
		return domain.NewClassificationError(err)
	}

	classification, err := parseClassification(raw)
	if err != nil {
		return domain.NewClassificationError(err)
	}

	turn.Classification = classification
	telemetry.AddBreadcrumb(ctx, "pipeline", "classified as "+string(classification.Type))
	return nil
}
