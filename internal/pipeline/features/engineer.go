package features

import (
	"fmt"
	"strings"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
	"github.com/avasseur/bdnb-rag/pkg/logger_i"
)

var logger = logger_i.NewLogger("Feature Engineer")

type Engineer interface {
	// Derive turns raw records into feature records, one for one, skipping
	// and counting records it cannot work with instead of aborting.
	Derive(department string, records []buildingModel.BuildingRecord) ([]buildingModel.FeatureRecord, *buildingModel.RunSummary)
}

type engineer struct{}

func NewEngineer() Engineer {
	return &engineer{}
}

func (e *engineer) Derive(department string, records []buildingModel.BuildingRecord) ([]buildingModel.FeatureRecord, *buildingModel.RunSummary) {
	summary := buildingModel.NewRunSummary("features", department)
	summary.Loaded = len(records)

	deptMedianSurface := medianSurface(records)
	deptMedianYear := medianYear(records)

	features := make([]buildingModel.FeatureRecord, 0, len(records))
	for _, record := range records {
		if record.Id == "" {
			summary.Skip("missing_id")
			continue
		}
		if record.Department == "" {
			summary.Skip("missing_department")
			continue
		}
		features = append(features, deriveOne(record, deptMedianSurface, deptMedianYear))
	}

	summary.Produced = len(features)
	logger.Info("Features derived",
		"departement", department,
		"records", summary.Loaded,
		"produced", summary.Produced,
		"skipped", summary.Skipped,
		"median_surface", deptMedianSurface,
	)
	return features, summary
}

func deriveOne(record buildingModel.BuildingRecord, deptMedianSurface float64, deptMedianYear int) buildingModel.FeatureRecord {
	surface := record.FloorArea
	if !plausibleSurface(surface) {
		surface = deptMedianSurface
	}

	year := record.ConstructionYear
	if year <= 0 {
		year = deptMedianYear
	}

	feature := buildingModel.FeatureRecord{
		Id:               record.Id,
		Department:       record.Department,
		CommuneCode:      record.CommuneCode,
		Commune:          record.Commune,
		Category:         categorize(record.UsageCode),
		ConstructionYear: year,
		Before1948:       year > 0 && year < 1948,
		Before1975:       year > 0 && year < 1975,
		Surface:          surface,
		SurfaceCategory:  surfaceCategory(surface),
		EnergyLabel:      record.EnergyLabel,
		ThermalSieve:     isThermalSieve(record.EnergyLabel),
	}
	feature.Summary = summarize(feature)
	return feature
}

// summarize renders the text that gets embedded. French, one fact per line,
// so the retriever has something denser than raw column values to match on.
func summarize(f buildingModel.FeatureRecord) string {
	var b strings.Builder

	location := f.Commune
	if location == "" {
		location = "commune inconnue"
	}
	fmt.Fprintf(&b, "Bâtiment %s situé à %s, dans le département %s.\n", f.Id, location, f.Department)
	fmt.Fprintf(&b, "Type de bâtiment : %s.\n", f.Category)

	if f.ConstructionYear > 0 {
		fmt.Fprintf(&b, "Année de construction : %d", f.ConstructionYear)
		if f.Before1948 {
			b.WriteString(" (construit avant 1948)")
		} else if f.Before1975 {
			b.WriteString(" (construit avant 1975)")
		}
		b.WriteString(".\n")
	} else {
		b.WriteString("Année de construction inconnue.\n")
	}

	fmt.Fprintf(&b, "Surface estimée : %.0f m² (catégorie %s).\n", f.Surface, f.SurfaceCategory)

	if f.EnergyLabel != "" {
		fmt.Fprintf(&b, "Classe DPE : %s.", f.EnergyLabel)
		if f.ThermalSieve {
			b.WriteString(" Ce bâtiment est une passoire thermique.")
		}
	} else {
		b.WriteString("Classe DPE inconnue.")
	}
	return b.String()
}
