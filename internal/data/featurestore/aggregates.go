package featurestore

import (
	"context"
	"fmt"
	"strings"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

// Aggregate answers a structured quantitative query directly from SQL, no
// model call involved.
func (s *sqliteStore) Aggregate(ctx context.Context, query buildingModel.AggregateQuery) (buildingModel.AggregateResult, error) {
	where, args := buildWhere(query)

	var result buildingModel.AggregateResult
	switch query.Op {
	case buildingModel.AggregateCount:
		row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM buildings`+where, args...)
		if err := row.Scan(&result.Count); err != nil {
			return result, fmt.Errorf("counting buildings: %w", err)
		}
		result.Value = float64(result.Count)

	case buildingModel.AggregateAverage:
		row := s.db.QueryRowContext(ctx, `SELECT COALESCE(AVG(surface_estimee), 0), COUNT(*) FROM buildings`+where, args...)
		if err := row.Scan(&result.Value, &result.Count); err != nil {
			return result, fmt.Errorf("averaging surface: %w", err)
		}
		result.Unit = "m²"

	case buildingModel.AggregatePercentage:
		row := s.db.QueryRowContext(ctx, `SELECT COALESCE(100.0 * AVG(passoire_thermique), 0), COUNT(*) FROM buildings`+where, args...)
		if err := row.Scan(&result.Value, &result.Count); err != nil {
			return result, fmt.Errorf("computing thermal sieve share: %w", err)
		}
		result.Unit = "%"

	default:
		return result, fmt.Errorf("unsupported aggregate operation %q", query.Op)
	}
	return result, nil
}

func buildWhere(query buildingModel.AggregateQuery) (string, []any) {
	var clauses []string
	var args []any

	if query.Department != "" {
		clauses = append(clauses, "code_departement_insee = ?")
		args = append(args, query.Department)
	}
	if query.Commune != "" {
		clauses = append(clauses, "libelle_commune_insee = ? COLLATE NOCASE")
		args = append(args, query.Commune)
	}
	if query.Category != "" {
		clauses = append(clauses, "categorie = ?")
		args = append(args, string(query.Category))
	}
	if query.EnergyLabel != "" {
		clauses = append(clauses, "classe_bilan_dpe = ?")
		args = append(args, query.EnergyLabel)
	}
	if query.ThermalSieve != nil {
		clauses = append(clauses, "passoire_thermique = ?")
		args = append(args, boolToInt(*query.ThermalSieve))
	}
	if query.YearBefore > 0 {
		clauses = append(clauses, "annee_construction > 0 AND annee_construction < ?")
		args = append(args, query.YearBefore)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
