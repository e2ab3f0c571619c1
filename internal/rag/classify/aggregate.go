package classify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/avasseur/bdnb-rag/internal/domain/buildingModel"
)

var (
	averagePattern     = regexp.MustCompile(`(?i)\b(moyenne|average|surface moyenne)\b`)
	percentagePattern  = regexp.MustCompile(`(?i)\b(pourcentage|percentage|proportion|part des|share of)\b`)
	sievePattern       = regexp.MustCompile(`(?i)(passoire|classe f ou g|f ou g|energy sieve|thermal sieve)`)
	tertiaryPattern    = regexp.MustCompile(`(?i)\b(tertiaires?|tertiary|bureaux?|commerces?)\b`)
	residentialPattern = regexp.MustCompile(`(?i)\b(r[ée]sidentiels?|residential|logements?|habitations?)\b`)
	labelPattern       = regexp.MustCompile(`(?i)\bclasse\s+(?:DPE\s+)?([A-G])\b`)
	yearBeforePattern  = regexp.MustCompile(`(?i)\b(?:avant|before)\s+(\d{4})\b`)
	// Capitalized word after "à"/"in". Commune names are stored free-form, so
	// the store compares case-insensitively.
	communePattern = regexp.MustCompile(`[àÀ]\s+(\p{Lu}[\p{L}'-]+(?:\s\p{Lu}[\p{L}'-]+)*)|\bin\s+(\p{Lu}[\p{L}'-]+)`)
)

// TranslateAggregate turns a quantitative question into a structured query
// the feature store can answer directly. The second return value is false
// when the question does not bind to any supported aggregate; the caller
// then falls through to the descriptive path.
func TranslateAggregate(question, department string) (buildingModel.AggregateQuery, bool) {
	query := buildingModel.AggregateQuery{
		Op:         buildingModel.AggregateCount,
		Department: department,
	}

	switch {
	case averagePattern.MatchString(question):
		query.Op = buildingModel.AggregateAverage
	case percentagePattern.MatchString(question):
		query.Op = buildingModel.AggregatePercentage
		// The only share the store can compute is the thermal sieve one.
		if !sievePattern.MatchString(question) {
			return query, false
		}
	case quantitativePattern.MatchString(question):
		query.Op = buildingModel.AggregateCount
	default:
		return query, false
	}

	if query.Op != buildingModel.AggregatePercentage && sievePattern.MatchString(question) {
		sieve := true
		query.ThermalSieve = &sieve
	}
	if tertiaryPattern.MatchString(question) {
		query.Category = buildingModel.CategoryTertiary
	} else if residentialPattern.MatchString(question) {
		query.Category = buildingModel.CategoryResidential
	}
	// "classe F ou G" is already covered by the sieve filter; a bare label
	// filter only applies outside that case.
	if query.ThermalSieve == nil && query.Op != buildingModel.AggregatePercentage {
		if match := labelPattern.FindStringSubmatch(question); match != nil {
			query.EnergyLabel = strings.ToUpper(match[1])
		}
	}
	if match := yearBeforePattern.FindStringSubmatch(question); match != nil {
		query.YearBefore, _ = strconv.Atoi(match[1])
	}
	if match := communePattern.FindStringSubmatch(question); match != nil {
		if match[1] != "" {
			query.Commune = match[1]
		} else {
			query.Commune = match[2]
		}
	}
	return query, true
}
