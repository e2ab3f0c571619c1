package classify

import (
	"regexp"
	"strings"
)

type Intent string

const (
	IntentDescriptive  Intent = "descriptive"
	IntentQuantitative Intent = "quantitative"
)

// Classifier decides which answer path a question takes. Kept as an
// interface so the rule set can later be swapped for a learned model without
// touching the router.
type Classifier interface {
	Classify(question string) Intent
	ExtractDepartment(question string) string
}

type ruleClassifier struct{}

func NewRuleClassifier() Classifier {
	return &ruleClassifier{}
}

// Quantitative markers: questions asking for a number, an average or a
// share. Everything else is treated as descriptive.
var quantitativePattern = regexp.MustCompile(`(?i)\b(combien|how many|nombre de|count|moyenne|average|pourcentage|percentage|proportion|part des|share of|quel est le nombre)\b`)

var departmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)d[ée]partement\s+(\d{2,3}[AB]?)`),
	regexp.MustCompile(`(?i)\bdepartment\s+(\d{2,3}[AB]?)`),
	regexp.MustCompile(`(?i)\bdept\.?\s+(\d{2,3}[AB]?)\b`),
	regexp.MustCompile(`(?i)\bdans le\s+(\d{2,3})\b`),
}

func (c *ruleClassifier) Classify(question string) Intent {
	if quantitativePattern.MatchString(question) {
		return IntentQuantitative
	}
	return IntentDescriptive
}

// ExtractDepartment pulls a department code out of the question. Returns ""
// when none is mentioned; the caller falls back to the configured default.
func (c *ruleClassifier) ExtractDepartment(question string) string {
	for _, pattern := range departmentPatterns {
		if match := pattern.FindStringSubmatch(question); match != nil {
			return strings.ToUpper(match[1])
		}
	}
	return ""
}
