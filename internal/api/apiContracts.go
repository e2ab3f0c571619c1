package api

// requests---------------------

type ChatRequest struct {
	Message string `json:"message" validate:"required" example:"Combien de bâtiments dans le département 93 ?"`
}

// responses--------------------

type ChatResponse struct {
	Response   string         `json:"response"`
	Route      string         `json:"route" example:"quantitative"`
	Department string         `json:"department,omitempty" example:"93"`
	Cached     bool           `json:"cached"`
	RawData    *AggregateData `json:"raw_data,omitempty"`
	Sources    []SourceDoc    `json:"retrieved_nodes,omitempty"`
}

type AggregateData struct {
	Value float64 `json:"value"`
	Count int64   `json:"count"`
	Unit  string  `json:"unit,omitempty" example:"m²"`
}

type SourceDoc struct {
	Id           string  `json:"batiment_groupe_id"`
	Text         string  `json:"text"`
	Score        float32 `json:"score"`
	Commune      string  `json:"commune,omitempty"`
	Category     string  `json:"categorie,omitempty"`
	EnergyLabel  string  `json:"classe_dpe,omitempty"`
	ThermalSieve bool    `json:"passoire_thermique"`
}

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Bad Request"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
