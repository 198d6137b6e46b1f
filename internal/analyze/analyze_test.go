package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sievemoney/sieve/internal/model"
)

func analysisRuleSet() model.RuleSet {
	return model.RuleSet{
		Rules: []model.Rule{
			{
				ID: "amazon", Keywords: []string{"AMAZON.COM*", "AMZN"},
				PurchaseType: model.PurchaseBusiness, Category: "Shopping",
				Subcategory: "Online Purchases", Online: true, Priority: 998,
			},
			{
				ID: "shoprite", Keywords: []string{"SHOPRITE"},
				PurchaseType: model.PurchasePersonal, Category: "Groceries",
				Priority: 500,
			},
			{
				ID: "kroger", Keywords: []string{"KROGER", "SHOPRITE"},
				PurchaseType: model.PurchasePersonal, Category: "Groceries",
				Subcategory: "Supermarket", Priority: 400,
			},
		},
		Fallbacks: model.FallbackTable{
			"GROCERY": {PurchaseType: model.PurchasePersonal, Category: "Groceries"},
		},
	}
}

func TestRuleStats(t *testing.T) {
	stats := RuleStats(analysisRuleSet())

	assert.Equal(t, 3, stats.TotalRules)
	assert.Equal(t, 5, stats.TotalKeywords)
	assert.Equal(t, 1, stats.BusinessRules)
	assert.Equal(t, 2, stats.PersonalRules)
	assert.Equal(t, 1, stats.OnlineRules)
	assert.InDelta(t, 5.0/3.0, stats.AvgKeywordsPerRule, 0.001)
	assert.Equal(t, map[string]int{"Shopping": 1, "Groceries": 2}, stats.Categories)
}

func TestRuleStats_Empty(t *testing.T) {
	stats := RuleStats(model.RuleSet{})
	assert.Zero(t, stats.TotalRules)
	assert.Zero(t, stats.AvgKeywordsPerRule)
}

func TestDuplicates(t *testing.T) {
	dups := Duplicates(analysisRuleSet())

	assert.Len(t, dups, 1)
	assert.Equal(t, "SHOPRITE", dups[0].Keyword)
	assert.ElementsMatch(t, []string{"shoprite", "kroger"}, dups[0].RuleIDs)
}

func TestDuplicates_None(t *testing.T) {
	set := model.RuleSet{
		Rules: []model.Rule{
			{ID: "a", Keywords: []string{"ONE"}},
			{ID: "b", Keywords: []string{"TWO"}},
		},
	}
	assert.Empty(t, Duplicates(set))
}

func TestDuplicates_Sorted(t *testing.T) {
	set := model.RuleSet{
		Rules: []model.Rule{
			{ID: "a", Keywords: []string{"ZEBRA", "APPLE"}},
			{ID: "b", Keywords: []string{"ZEBRA", "APPLE"}},
		},
	}

	dups := Duplicates(set)
	assert.Len(t, dups, 2)
	assert.Equal(t, "APPLE", dups[0].Keyword)
	assert.Equal(t, "ZEBRA", dups[1].Keyword)
}

func TestCoverageAnalysis(t *testing.T) {
	cov := CoverageAnalysis(analysisRuleSet())

	assert.Equal(t, 1, cov.FallbackCodes)
	assert.Equal(t, 4, cov.UniqueKeywords)
	assert.Equal(t, 2, cov.RulesWithSubcategory)
	assert.InDelta(t, (998.0+500.0+400.0)/3.0, cov.AvgPriority, 0.001)
}

func TestCoverageAnalysis_Empty(t *testing.T) {
	cov := CoverageAnalysis(model.RuleSet{})
	assert.Zero(t, cov.UniqueKeywords)
	assert.Zero(t, cov.AvgPriority)
}
