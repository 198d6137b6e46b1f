package schema

import (
	"fmt"
	"sort"

	"github.com/sievemoney/sieve/internal/model"
)

// ValidationResult reports every structural problem found in a rule
// collection. Errors are fatal for the validate command; warnings are
// advisory.
type ValidationResult struct {
	Errors   []string
	Warnings []string
}

// Valid reports whether the collection passed without errors.
func (r ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// Validate checks a decoded collection for structural problems. Unlike
// Normalize it never skips anything silently: every malformed entry is
// reported.
func Validate(c *Collection) ValidationResult {
	var result ValidationResult

	switch {
	case c == nil:
		result.Errors = append(result.Errors, "no rule collection")
	case c.Structured != nil:
		validateStructured(c.Structured, &result)
	case c.Legacy != nil:
		validateLegacy(c.Legacy, &result)
	default:
		result.Errors = append(result.Errors, fmt.Sprintf("unsupported schema version %q", c.Version))
	}

	return result
}

func validateStructured(doc *StructuredDocument, result *ValidationResult) {
	groups := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		groups = append(groups, name)
	}
	sort.Strings(groups)

	seen := make(map[string]bool)
	for _, group := range groups {
		for i, rule := range doc.Categories[group] {
			label := rule.ID
			if label == "" {
				label = fmt.Sprintf("%s[%d]", group, i)
				result.Errors = append(result.Errors, fmt.Sprintf("rule %s missing id", label))
			} else if seen[rule.ID] {
				result.Errors = append(result.Errors, fmt.Sprintf("duplicate rule id %q", rule.ID))
			} else {
				seen[rule.ID] = true
			}

			if len(rule.Patterns) == 0 {
				result.Errors = append(result.Errors, fmt.Sprintf("rule %s has no patterns", label))
			}
			for _, p := range rule.Patterns {
				if p != model.NormalizeText(p) {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("rule %s pattern %q is not uppercase", label, p))
				}
			}

			switch model.PurchaseType(rule.Type) {
			case model.PurchaseBusiness, model.PurchasePersonal:
			default:
				result.Errors = append(result.Errors,
					fmt.Sprintf("rule %s has invalid purchase type %q", label, rule.Type))
			}

			if rule.Priority <= 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("rule %s has non-positive priority %d", label, rule.Priority))
			}
		}
	}

	validateFallbacks(doc.Fallbacks, result)
}

func validateLegacy(doc *LegacyDocument, result *ValidationResult) {
	for i, kw := range doc.BusinessKeywords {
		if model.NormalizeText(kw) == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("business keyword %d is empty", i))
		} else if kw != model.NormalizeText(kw) {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("business keyword %q is not uppercase", kw))
		}
	}

	ids := make([]string, 0, len(doc.TransactionRules))
	for id := range doc.TransactionRules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		rule := doc.TransactionRules[id]
		if len(rule.Keywords) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("rule %s has no keywords", id))
		}
		for _, kw := range rule.Keywords {
			if kw != model.NormalizeText(kw) {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("rule %s keyword %q is not uppercase", id, kw))
			}
		}
		if rule.Category == "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("rule %s has no category", id))
		}
	}

	validateFallbacks(doc.Fallbacks, result)
}

func validateFallbacks(entries map[string]FallbackEntry, result *ValidationResult) {
	codes := make([]string, 0, len(entries))
	for code := range entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	for _, code := range codes {
		if entries[code].Category == "" {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("fallback entry %q has no category", code))
		}
	}
}
