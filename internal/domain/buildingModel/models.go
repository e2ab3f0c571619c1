package buildingModel

import (
	"context"
	"time"
)

type BuildingCategory string

const (
	CategoryResidential BuildingCategory = "Résidentiel"
	CategoryTertiary    BuildingCategory = "Tertiaire"
	CategoryUnknown     BuildingCategory = "Inconnu"
)

// BuildingRecord is a raw row as fetched from the open dataset. Immutable
// once loaded; keyed by Id.
type BuildingRecord struct {
	Id               string  `json:"batiment_groupe_id"`
	Department       string  `json:"code_departement_insee"`
	CommuneCode      string  `json:"code_commune_insee"`
	Commune          string  `json:"libelle_commune_insee"`
	UsageCode        string  `json:"usage_principal"`
	ConstructionYear int     `json:"annee_construction"`
	FloorArea        float64 `json:"s_totale_bat"`
	FloorCount       int     `json:"nb_niveau"`
	EnergyLabel      string  `json:"classe_bilan_dpe"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// FeatureRecord is the derived, one-to-one companion of a BuildingRecord.
// Created by the feature engineer, never mutated afterward.
type FeatureRecord struct {
	Id               string           `json:"batiment_groupe_id"`
	Department       string           `json:"code_departement_insee"`
	CommuneCode      string           `json:"code_commune_insee"`
	Commune          string           `json:"libelle_commune_insee"`
	Category         BuildingCategory `json:"categorie"`
	ConstructionYear int              `json:"annee_construction"`
	Before1948       bool             `json:"avant_1948"`
	Before1975       bool             `json:"avant_1975"`
	Surface          float64          `json:"surface_estimee"`
	SurfaceCategory  string           `json:"surface_categorie"`
	EnergyLabel      string           `json:"classe_bilan_dpe"`
	ThermalSieve     bool             `json:"passoire_thermique"`
	Summary          string           `json:"resume"`
}

// RetrievedDoc is one similarity-search hit returned to the caller alongside
// the generated answer.
type RetrievedDoc struct {
	Id           string  `json:"batiment_groupe_id"`
	Text         string  `json:"text"`
	Score        float32 `json:"score"`
	Department   string  `json:"code_departement_insee"`
	Commune      string  `json:"libelle_commune_insee"`
	Category     string  `json:"categorie"`
	EnergyLabel  string  `json:"classe_bilan_dpe"`
	ThermalSieve bool    `json:"passoire_thermique"`
}

type Route string

const (
	RouteDescriptive  Route = "descriptive"
	RouteQuantitative Route = "quantitative"
)

// Answer is what the query router produces for one question, whichever path
// it took.
type Answer struct {
	Text       string           `json:"response"`
	Route      Route            `json:"route"`
	Department string           `json:"department,omitempty"`
	Cached     bool             `json:"cached"`
	Raw        *AggregateResult `json:"raw_data,omitempty"`
	Sources    []RetrievedDoc   `json:"retrieved_nodes,omitempty"`
}

// RunSummary accumulates per-record outcomes of a batch stage instead of
// failing the whole run on a single bad record.
type RunSummary struct {
	Stage       string         `json:"stage"`
	Department  string         `json:"department"`
	Loaded      int            `json:"loaded"`
	Produced    int            `json:"produced"`
	Skipped     int            `json:"skipped"`
	SkipReasons map[string]int `json:"skip_reasons,omitempty"`
	Started     time.Time      `json:"started"`
	Finished    time.Time      `json:"finished"`
}

func NewRunSummary(stage, department string) *RunSummary {
	return &RunSummary{
		Stage:       stage,
		Department:  department,
		SkipReasons: make(map[string]int),
		Started:     time.Now(),
	}
}

func (s *RunSummary) Skip(reason string) {
	s.Skipped++
	s.SkipReasons[reason]++
}

type AggregateOp string

const (
	AggregateCount      AggregateOp = "count"
	AggregateAverage    AggregateOp = "average"
	AggregatePercentage AggregateOp = "percentage"
)

// AggregateQuery is the structured form a quantitative question is translated
// into. Zero-valued filters are unset.
type AggregateQuery struct {
	Op           AggregateOp
	Department   string
	Commune      string
	Category     BuildingCategory
	EnergyLabel  string
	ThermalSieve *bool
	YearBefore   int
}

type AggregateResult struct {
	Value float64 `json:"value"`
	Count int64   `json:"count"`
	Unit  string  `json:"unit,omitempty"`
}

// FeatureStore is the durable structured side of the system: the feature
// table the indexer reads and the aggregate engine queries.
type FeatureStore interface {
	ReplaceDepartment(ctx context.Context, department string, records []FeatureRecord) error
	ListByDepartment(ctx context.Context, department string) ([]FeatureRecord, error)
	Departments(ctx context.Context) ([]string, error)
	Aggregate(ctx context.Context, query AggregateQuery) (AggregateResult, error)
	Close() error
}
