package ingest

import (
	"strings"

	"gazette-tasks/internal/domain/entity"
)

// keyword rules, checked in order; the first hit wins
var categoryRules = []struct {
	keywords []string
	category entity.Category
}{
	{[]string{"law", "regulation"}, entity.CategoryLegal},
	{[]string{"financial", "budget"}, entity.CategoryFinancial},
	{[]string{"administrative"}, entity.CategoryAdministrative},
	{[]string{"regulatory"}, entity.CategoryRegulatory},
}

// Classify maps a notice title to a category by case-insensitive substring match.
func Classify(title string) entity.Category {
	lower := strings.ToLower(title)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return entity.CategoryOther
}
