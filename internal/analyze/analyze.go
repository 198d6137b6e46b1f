// Package analyze computes statistics and diagnostics over a normalized
// rule set.
package analyze

import (
	"sort"

	"github.com/sievemoney/sieve/internal/model"
)

// Stats summarizes a rule set.
type Stats struct {
	Categories         map[string]int
	TotalRules         int
	TotalKeywords      int
	BusinessRules      int
	PersonalRules      int
	OnlineRules        int
	AvgKeywordsPerRule float64
}

// RuleStats computes summary statistics for a rule set.
func RuleStats(set model.RuleSet) Stats {
	stats := Stats{Categories: make(map[string]int)}

	for _, rule := range set.Rules {
		stats.TotalRules++
		stats.TotalKeywords += len(rule.Keywords)
		if rule.PurchaseType == model.PurchaseBusiness {
			stats.BusinessRules++
		} else {
			stats.PersonalRules++
		}
		if rule.Online {
			stats.OnlineRules++
		}
		stats.Categories[rule.Category]++
	}

	if stats.TotalRules > 0 {
		stats.AvgKeywordsPerRule = float64(stats.TotalKeywords) / float64(stats.TotalRules)
	}

	return stats
}

// DuplicateKeyword is a keyword shared by more than one rule.
type DuplicateKeyword struct {
	Keyword string
	RuleIDs []string
}

// Duplicates finds keywords that appear on multiple rules. Overlapping
// keywords are legal (priority resolves them) but usually a sign of
// rule drift, so the analyze command surfaces them.
func Duplicates(set model.RuleSet) []DuplicateKeyword {
	byKeyword := make(map[string][]string)
	for _, rule := range set.Rules {
		for _, kw := range rule.Keywords {
			byKeyword[kw] = append(byKeyword[kw], rule.ID)
		}
	}

	var dups []DuplicateKeyword
	for kw, ids := range byKeyword {
		if len(ids) > 1 {
			dups = append(dups, DuplicateKeyword{Keyword: kw, RuleIDs: ids})
		}
	}

	sort.Slice(dups, func(i, j int) bool { return dups[i].Keyword < dups[j].Keyword })
	return dups
}

// Coverage describes how much of the classification space the rule set
// reaches.
type Coverage struct {
	FallbackCodes        int
	UniqueKeywords       int
	RulesWithSubcategory int
	AvgPriority          float64
}

// CoverageAnalysis computes coverage metrics for a rule set.
func CoverageAnalysis(set model.RuleSet) Coverage {
	keywords := make(map[string]struct{})
	prioritySum := 0
	withSub := 0

	for _, rule := range set.Rules {
		for _, kw := range rule.Keywords {
			keywords[kw] = struct{}{}
		}
		prioritySum += rule.Priority
		if rule.Subcategory != "" {
			withSub++
		}
	}

	cov := Coverage{
		FallbackCodes:        len(set.Fallbacks),
		UniqueKeywords:       len(keywords),
		RulesWithSubcategory: withSub,
	}
	if len(set.Rules) > 0 {
		cov.AvgPriority = float64(prioritySum) / float64(len(set.Rules))
	}

	return cov
}
