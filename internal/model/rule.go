// Package model defines the core data structures for the sieve application.
package model

import "strings"

// PurchaseType labels who a transaction belongs to. The matching engine
// treats it as an opaque string; these constants cover the known values.
type PurchaseType string

// Purchase type constants.
const (
	PurchaseBusiness PurchaseType = "Business"
	PurchasePersonal PurchaseType = "Personal"
)

// Rule is the canonical matching unit after schema normalization.
// A rule matches a description when any of its keywords is a substring
// of the normalized (uppercased, trimmed) description.
type Rule struct {
	ID            string       `json:"id"`
	Keywords      []string     `json:"keywords"`
	PurchaseType  PurchaseType `json:"purchase_type"`
	Category      string       `json:"category"`
	Subcategory   string       `json:"subcategory"`
	Notes         string       `json:"notes,omitempty"`
	CategoryCodes []string     `json:"category_codes,omitempty"`
	Priority      int          `json:"priority"`
	Online        bool         `json:"online"`
}

// Fallback is the default classification for one merchant-category code.
type Fallback struct {
	PurchaseType PurchaseType `json:"purchase_type"`
	Category     string       `json:"category"`
	Subcategory  string       `json:"subcategory"`
	Online       bool         `json:"online"`
}

// FallbackTable maps merchant-category codes to default classifications.
// Keys are uppercase, trimmed codes.
type FallbackTable map[string]Fallback

// RuleSet is a normalized rule collection ready for matching. Rule order
// is stable for a given source snapshot; the matcher relies on it to
// break priority ties deterministically.
type RuleSet struct {
	Fallbacks FallbackTable
	Rules     []Rule
}

// MatchLevel records which level of the fallback chain produced a result.
type MatchLevel string

// Match level constants.
const (
	MatchKeyword  MatchLevel = "keyword"
	MatchFallback MatchLevel = "fallback"
	MatchDefault  MatchLevel = "default"
)

// Classification is the immutable result of classifying one transaction.
// RuleID and Level are diagnostics; the four classification fields are
// the contract.
type Classification struct {
	PurchaseType PurchaseType `json:"purchase_type"`
	Category     string       `json:"category"`
	Subcategory  string       `json:"subcategory"`
	RuleID       string       `json:"rule_id,omitempty"`
	Level        MatchLevel   `json:"level"`
	Online       bool         `json:"online"`
}

// NormalizeText uppercases and trims a description or category code.
// Idempotent: NormalizeText(NormalizeText(s)) == NormalizeText(s).
func NormalizeText(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
