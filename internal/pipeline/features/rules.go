package features

import (
	"sort"
	"strings"

	"github.com/avasseur/bdnb-rag/internal/config"
	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

// categorize maps the dataset's free-form main usage to one of the three
// categories. An unmapped usage is never fatal, it just lands in Inconnu.
func categorize(usage string) buildingModel.BuildingCategory {
	normalized := strings.ToLower(strings.TrimSpace(usage))
	switch {
	case normalized == "":
		return buildingModel.CategoryUnknown
	case strings.Contains(normalized, "résidentiel"),
		strings.Contains(normalized, "residentiel"),
		strings.Contains(normalized, "habitation"),
		strings.Contains(normalized, "logement"):
		return buildingModel.CategoryResidential
	case strings.Contains(normalized, "tertiaire"),
		strings.Contains(normalized, "bureau"),
		strings.Contains(normalized, "commerce"),
		strings.Contains(normalized, "enseignement"),
		strings.Contains(normalized, "industrie"):
		return buildingModel.CategoryTertiary
	default:
		return buildingModel.CategoryUnknown
	}
}

func plausibleSurface(s float64) bool {
	return s > 0 && s < config.SurfaceMaxPlausible
}

// medianSurface computes the department median over plausible surfaces only.
// Falls back to a fixed last-resort value when no record has a usable
// surface at all.
func medianSurface(records []buildingModel.BuildingRecord) float64 {
	var surfaces []float64
	for _, r := range records {
		if plausibleSurface(r.FloorArea) {
			surfaces = append(surfaces, r.FloorArea)
		}
	}
	if len(surfaces) == 0 {
		return config.SurfaceLastResort
	}
	sort.Float64s(surfaces)
	mid := len(surfaces) / 2
	if len(surfaces)%2 == 1 {
		return surfaces[mid]
	}
	return (surfaces[mid-1] + surfaces[mid]) / 2
}

// medianYear is the same idea for construction years; zero means nothing to
// impute from.
func medianYear(records []buildingModel.BuildingRecord) int {
	var years []int
	for _, r := range records {
		if r.ConstructionYear > 0 {
			years = append(years, r.ConstructionYear)
		}
	}
	if len(years) == 0 {
		return 0
	}
	sort.Ints(years)
	return years[len(years)/2]
}

func surfaceCategory(surface float64) string {
	switch {
	case surface < config.SurfaceCategorySmall:
		return "petite"
	case surface <= config.SurfaceCategoryLarge:
		return "moyenne"
	default:
		return "grande"
	}
}

func isThermalSieve(energyLabel string) bool {
	return energyLabel == "F" || energyLabel == "G"
}
