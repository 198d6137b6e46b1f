package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sievemoney/sieve/internal/model"
)

func testRuleSet() model.RuleSet {
	return model.RuleSet{
		Rules: []model.Rule{
			{
				ID:           "amazon",
				Keywords:     []string{"AMAZON.COM*"},
				PurchaseType: model.PurchaseBusiness,
				Category:     "General Merchandise",
				Subcategory:  "Online Purchases",
				Online:       true,
				Priority:     998,
			},
			{
				ID:           "shoprite",
				Keywords:     []string{"SHOPRITE"},
				PurchaseType: model.PurchasePersonal,
				Category:     "Groceries",
				Subcategory:  "Supermarket",
				Priority:     500,
			},
		},
		Fallbacks: model.FallbackTable{
			"GROCERY": {PurchaseType: model.PurchasePersonal, Category: "Groceries"},
		},
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name        string
		description string
		code        string
		set         model.RuleSet
		want        model.Classification
	}{
		{
			name:        "keyword match returns rule tuple verbatim",
			description: "AMAZON.COM*12345",
			code:        "PURCHASE",
			set:         testRuleSet(),
			want: model.Classification{
				PurchaseType: model.PurchaseBusiness,
				Category:     "General Merchandise",
				Subcategory:  "Online Purchases",
				Online:       true,
				RuleID:       "amazon",
				Level:        model.MatchKeyword,
			},
		},
		{
			name:        "offline rule keeps online false",
			description: "SHOPRITE LODI",
			code:        "GROCERY",
			set:         testRuleSet(),
			want: model.Classification{
				PurchaseType: model.PurchasePersonal,
				Category:     "Groceries",
				Subcategory:  "Supermarket",
				Online:       false,
				RuleID:       "shoprite",
				Level:        model.MatchKeyword,
			},
		},
		{
			name:        "category fallback when no keyword matches",
			description: "CORNER MARKET",
			code:        "GROCERY",
			set:         testRuleSet(),
			want: model.Classification{
				PurchaseType: model.PurchasePersonal,
				Category:     "Groceries",
				Level:        model.MatchFallback,
			},
		},
		{
			name:        "ultimate fallback for unknown merchant and code",
			description: "UNKNOWNMERCHANTXYZ",
			code:        "9999",
			set:         testRuleSet(),
			want: model.Classification{
				PurchaseType: model.PurchasePersonal,
				Level:        model.MatchDefault,
			},
		},
		{
			name:        "empty inputs resolve at the ultimate fallback",
			description: "",
			code:        "",
			set:         testRuleSet(),
			want: model.Classification{
				PurchaseType: model.PurchasePersonal,
				Level:        model.MatchDefault,
			},
		},
		{
			name:        "empty rule set still classifies",
			description: "ANYTHING",
			code:        "ANYCODE",
			set:         model.RuleSet{},
			want: model.Classification{
				PurchaseType: model.PurchasePersonal,
				Level:        model.MatchDefault,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.description, tt.code, tt.set)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatch_PriorityPrecedence(t *testing.T) {
	set := model.RuleSet{
		Rules: []model.Rule{
			{ID: "low", Keywords: []string{"AMAZON"}, PurchaseType: model.PurchasePersonal, Category: "Shopping", Priority: 95},
			{ID: "high", Keywords: []string{"AMAZON"}, PurchaseType: model.PurchaseBusiness, Category: "Business", Priority: 100},
		},
	}

	// Higher priority wins regardless of list position.
	got := Match("AMAZON UBER", "", set)
	assert.Equal(t, "high", got.RuleID)
	assert.Equal(t, model.PurchaseBusiness, got.PurchaseType)

	// Same rules, reversed order: same winner.
	set.Rules[0], set.Rules[1] = set.Rules[1], set.Rules[0]
	got = Match("AMAZON UBER", "", set)
	assert.Equal(t, "high", got.RuleID)
}

func TestMatch_TieBreakByListOrder(t *testing.T) {
	set := model.RuleSet{
		Rules: []model.Rule{
			{ID: "first", Keywords: []string{"UBER"}, PurchaseType: model.PurchasePersonal, Category: "Transport", Priority: 100},
			{ID: "second", Keywords: []string{"UBER"}, PurchaseType: model.PurchasePersonal, Category: "Travel", Priority: 100},
		},
	}

	got := Match("UBER TRIP", "", set)
	assert.Equal(t, "first", got.RuleID)
	assert.Equal(t, "Transport", got.Category)
}

func TestMatch_CaseAndWhitespaceInvariance(t *testing.T) {
	set := testRuleSet()

	variants := []string{
		"shoprite lodi",
		"  SHOPRITE LODI  ",
		"ShopRite Lodi",
	}

	want := Match("SHOPRITE LODI", "grocery", set)
	for _, desc := range variants {
		assert.Equal(t, want, Match(desc, " GROCERY ", set), "variant %q", desc)
	}
}

func TestMatch_Deterministic(t *testing.T) {
	set := testRuleSet()

	first := Match("AMAZON.COM*12345", "PURCHASE", set)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Match("AMAZON.COM*12345", "PURCHASE", set))
	}
}

func TestMatch_SkipsEmptyKeywords(t *testing.T) {
	// Empty keywords must never match everything. The normalizer strips
	// them, but the matcher guards anyway.
	set := model.RuleSet{
		Rules: []model.Rule{
			{ID: "broken", Keywords: []string{""}, PurchaseType: model.PurchaseBusiness, Category: "Broken", Priority: 9999},
			{ID: "shoprite", Keywords: []string{"SHOPRITE"}, PurchaseType: model.PurchasePersonal, Category: "Groceries", Priority: 1},
		},
	}

	got := Match("SHOPRITE LODI", "", set)
	assert.Equal(t, "shoprite", got.RuleID)

	got = Match("SOMETHING ELSE", "", set)
	assert.Equal(t, model.MatchDefault, got.Level)
}

func TestMatch_FallbackCodeNormalized(t *testing.T) {
	set := testRuleSet()

	got := Match("CORNER MARKET", " grocery ", set)
	assert.Equal(t, model.MatchFallback, got.Level)
	assert.Equal(t, "Groceries", got.Category)
}
