package features

import (
	"strings"
	"testing"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

func sampleRecords() []buildingModel.BuildingRecord {
	return []buildingModel.BuildingRecord{
		{
			Id: "bat-001", Department: "93", Commune: "Montreuil",
			UsageCode: "Résidentiel individuel", ConstructionYear: 1930,
			FloorArea: 420, EnergyLabel: "F",
		},
		{
			Id: "bat-002", Department: "93", Commune: "Pantin",
			UsageCode: "Tertiaire - bureaux", ConstructionYear: 1990,
			FloorArea: 0, EnergyLabel: "C",
		},
		{
			Id: "bat-003", Department: "93", Commune: "Aubervilliers",
			UsageCode: "Hangar agricole", ConstructionYear: 1960,
			FloorArea: 600, EnergyLabel: "G",
		},
	}
}

func TestDeriveNeverAbortsOnOddRecords(t *testing.T) {
	engineer := NewEngineer()
	features, summary := engineer.Derive("93", sampleRecords())

	if len(features) != 3 {
		t.Fatalf("expected 3 feature records, got %d", len(features))
	}
	if summary.Skipped != 0 {
		t.Errorf("expected no skips, got %d (%v)", summary.Skipped, summary.SkipReasons)
	}

	// Missing surface falls back to the department median of plausible ones.
	if features[1].Surface != 510 {
		t.Errorf("expected median surface 510 for bat-002, got %v", features[1].Surface)
	}
	// Unknown usage maps to the Inconnu category, never an error.
	if features[2].Category != buildingModel.CategoryUnknown {
		t.Errorf("expected unknown category for bat-003, got %s", features[2].Category)
	}
	for _, f := range features {
		if f.Surface <= 0 {
			t.Errorf("building %s: surface must be positive, got %v", f.Id, f.Surface)
		}
	}
}

func TestDeriveSkipsUnusableRecords(t *testing.T) {
	records := append(sampleRecords(),
		buildingModel.BuildingRecord{Id: "", Department: "93"},
		buildingModel.BuildingRecord{Id: "bat-004", Department: ""},
	)
	engineer := NewEngineer()
	features, summary := engineer.Derive("93", records)

	if len(features) != 3 {
		t.Fatalf("expected 3 feature records, got %d", len(features))
	}
	if summary.Skipped != 2 {
		t.Errorf("expected 2 skips, got %d", summary.Skipped)
	}
	if summary.SkipReasons["missing_id"] != 1 || summary.SkipReasons["missing_department"] != 1 {
		t.Errorf("unexpected skip reasons: %v", summary.SkipReasons)
	}
}

func TestThermalSieveMatchesEnergyLabel(t *testing.T) {
	tests := []struct {
		label string
		sieve bool
	}{
		{"A", false}, {"C", false}, {"E", false}, {"F", true}, {"G", true}, {"", false},
	}
	engineer := NewEngineer()
	for _, tc := range tests {
		t.Run("label "+tc.label, func(t *testing.T) {
			features, _ := engineer.Derive("93", []buildingModel.BuildingRecord{
				{Id: "bat-x", Department: "93", FloorArea: 100, EnergyLabel: tc.label},
			})
			if features[0].ThermalSieve != tc.sieve {
				t.Errorf("label %q: expected sieve=%v", tc.label, tc.sieve)
			}
		})
	}
}

func TestSurfaceCategories(t *testing.T) {
	tests := []struct {
		surface float64
		want    string
	}{
		{120, "petite"}, {499.9, "petite"}, {500, "moyenne"}, {1000, "moyenne"}, {1001, "grande"},
	}
	for _, tc := range tests {
		if got := surfaceCategory(tc.surface); got != tc.want {
			t.Errorf("surface %v: got %q, want %q", tc.surface, got, tc.want)
		}
	}
}

func TestImplausibleSurfaceUsesMedian(t *testing.T) {
	engineer := NewEngineer()
	features, _ := engineer.Derive("93", []buildingModel.BuildingRecord{
		{Id: "bat-a", Department: "93", FloorArea: 300},
		{Id: "bat-b", Department: "93", FloorArea: 5_000_000},
	})
	if features[1].Surface != 300 {
		t.Errorf("expected implausible surface replaced by median 300, got %v", features[1].Surface)
	}
}

func TestMissingYearUsesMedian(t *testing.T) {
	engineer := NewEngineer()
	features, _ := engineer.Derive("93", []buildingModel.BuildingRecord{
		{Id: "bat-a", Department: "93", FloorArea: 100, ConstructionYear: 1920},
		{Id: "bat-b", Department: "93", FloorArea: 100, ConstructionYear: 0},
	})
	if features[1].ConstructionYear != 1920 {
		t.Errorf("expected imputed year 1920, got %d", features[1].ConstructionYear)
	}
	if !features[1].Before1948 {
		t.Error("expected imputed year to drive the avant_1948 flag")
	}
}

func TestSummaryIsFrenchAndComplete(t *testing.T) {
	engineer := NewEngineer()
	features, _ := engineer.Derive("93", sampleRecords()[:1])
	summary := features[0].Summary

	for _, fragment := range []string{
		"Bâtiment bat-001", "Montreuil", "département 93",
		"1930", "avant 1948", "Classe DPE : F", "passoire thermique",
	} {
		if !strings.Contains(summary, fragment) {
			t.Errorf("summary missing %q:\n%s", fragment, summary)
		}
	}
}
