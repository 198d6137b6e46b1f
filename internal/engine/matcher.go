package engine

import (
	"strings"

	"github.com/sievemoney/sieve/internal/model"
)

// Match classifies one transaction against a normalized rule set. It is
// a pure function and never fails: every input resolves through the
// fallback chain — keyword rule, category-code default, ultimate
// default.
//
// Among keyword candidates the highest priority wins; equal priorities
// are broken by earliest position in the rule list. Together with the
// normalizer's stable ordering this makes classification a
// deterministic function of (description, code, rule set).
func Match(description, categoryCode string, set model.RuleSet) model.Classification {
	// Inputs are normalized here even if the caller already did;
	// NormalizeText is idempotent so classifying " amazon " and
	// "AMAZON" is the same call.
	desc := model.NormalizeText(description)
	code := model.NormalizeText(categoryCode)

	if rule, ok := bestKeywordMatch(desc, set.Rules); ok {
		return model.Classification{
			PurchaseType: rule.PurchaseType,
			Category:     rule.Category,
			Subcategory:  rule.Subcategory,
			Online:       rule.Online,
			RuleID:       rule.ID,
			Level:        model.MatchKeyword,
		}
	}

	if fb, ok := set.Fallbacks[code]; ok && code != "" {
		return model.Classification{
			PurchaseType: fb.PurchaseType,
			Category:     fb.Category,
			Subcategory:  fb.Subcategory,
			Online:       fb.Online,
			Level:        model.MatchFallback,
		}
	}

	return model.Classification{
		PurchaseType: model.PurchasePersonal,
		Level:        model.MatchDefault,
	}
}

// bestKeywordMatch scans every rule once, keeping the first rule seen at
// the highest matching priority. A strictly greater priority displaces
// the current best; an equal one never does, which is the documented
// tie-break.
func bestKeywordMatch(desc string, rules []model.Rule) (model.Rule, bool) {
	if desc == "" {
		return model.Rule{}, false
	}

	var best model.Rule
	found := false

	for _, rule := range rules {
		if found && rule.Priority <= best.Priority {
			continue
		}
		if matchesAny(desc, rule.Keywords) {
			best = rule
			found = true
		}
	}

	return best, found
}

func matchesAny(desc string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}
