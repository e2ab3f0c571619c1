package featurestore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var logger = logger_i.NewLogger("featurestore")

const schema = `
CREATE TABLE IF NOT EXISTS buildings (
	batiment_groupe_id TEXT PRIMARY KEY,
	code_departement_insee TEXT NOT NULL,
	code_commune_insee TEXT,
	libelle_commune_insee TEXT,
	categorie TEXT NOT NULL,
	annee_construction INTEGER,
	avant_1948 INTEGER NOT NULL DEFAULT 0,
	avant_1975 INTEGER NOT NULL DEFAULT 0,
	surface_estimee REAL NOT NULL,
	surface_categorie TEXT,
	classe_bilan_dpe TEXT,
	passoire_thermique INTEGER NOT NULL DEFAULT 0,
	resume TEXT
);
CREATE INDEX IF NOT EXISTS idx_buildings_departement ON buildings(code_departement_insee);
`

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the feature database at path and
// ensures the buildings table exists.
func NewSQLiteStore(path string) (buildingModel.FeatureStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	// modernc sqlite is single-writer; WAL keeps readers unblocked while a
	// department is being replaced.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	logger.Info("feature store ready", "path", path)
	return &sqliteStore{db: db}, nil
}

// ReplaceDepartment swaps the whole department partition in one transaction,
// so a re-run of the pipeline never leaves stale rows behind.
func (s *sqliteStore) ReplaceDepartment(ctx context.Context, department string, records []buildingModel.FeatureRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM buildings WHERE code_departement_insee = ?`, department); err != nil {
		return fmt.Errorf("clearing departement %s: %w", department, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO buildings (
		batiment_groupe_id, code_departement_insee, code_commune_insee, libelle_commune_insee,
		categorie, annee_construction, avant_1948, avant_1975,
		surface_estimee, surface_categorie, classe_bilan_dpe, passoire_thermique, resume
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.Id, r.Department, r.CommuneCode, r.Commune,
			string(r.Category), r.ConstructionYear, boolToInt(r.Before1948), boolToInt(r.Before1975),
			r.Surface, r.SurfaceCategory, r.EnergyLabel, boolToInt(r.ThermalSieve), r.Summary,
		); err != nil {
			return fmt.Errorf("inserting building %s: %w", r.Id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing departement %s: %w", department, err)
	}
	logger.Info("departement replaced", "departement", department, "records", len(records))
	return nil
}

func (s *sqliteStore) ListByDepartment(ctx context.Context, department string) ([]buildingModel.FeatureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		batiment_groupe_id, code_departement_insee, code_commune_insee, libelle_commune_insee,
		categorie, annee_construction, avant_1948, avant_1975,
		surface_estimee, surface_categorie, classe_bilan_dpe, passoire_thermique, resume
	FROM buildings WHERE code_departement_insee = ? ORDER BY batiment_groupe_id`, department)
	if err != nil {
		return nil, fmt.Errorf("listing departement %s: %w", department, err)
	}
	defer rows.Close()

	var records []buildingModel.FeatureRecord
	for rows.Next() {
		var r buildingModel.FeatureRecord
		var category string
		var before48, before75, sieve int
		if err := rows.Scan(
			&r.Id, &r.Department, &r.CommuneCode, &r.Commune,
			&category, &r.ConstructionYear, &before48, &before75,
			&r.Surface, &r.SurfaceCategory, &r.EnergyLabel, &sieve, &r.Summary,
		); err != nil {
			return nil, fmt.Errorf("scanning building row: %w", err)
		}
		r.Category = buildingModel.BuildingCategory(category)
		r.Before1948 = before48 != 0
		r.Before1975 = before75 != 0
		r.ThermalSieve = sieve != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *sqliteStore) Departments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT code_departement_insee FROM buildings ORDER BY code_departement_insee`)
	if err != nil {
		return nil, fmt.Errorf("listing departements: %w", err)
	}
	defer rows.Close()

	var departments []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning departement: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
