package schema

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/model"
)

// legacyBasePriority is where synthesized v3 priorities start. Each
// emitted rule takes the next lower value, so earlier-listed rules win
// ties exactly as they did in the legacy engine.
const legacyBasePriority = 1000

// Normalize converts a decoded collection into the canonical rule set.
//
// Structurally invalid rules (no keywords, no purchase type) are logged
// and skipped rather than aborting: one bad entry in a large rule file
// must not take classification down. Use Validate to surface them all.
//
// Rule order is deterministic for a given document: category groups are
// visited in lexicographic name order (JSON objects carry no order),
// rules in file order within a group; legacy rules follow the
// synthesized-priority order documented on normalizeLegacy.
func Normalize(c *Collection) (model.RuleSet, error) {
	switch {
	case c == nil:
		return model.RuleSet{}, fmt.Errorf("%w: nil collection", common.ErrUnsupportedSchemaVersion)
	case c.Structured != nil:
		return normalizeStructured(c.Structured), nil
	case c.Legacy != nil:
		return normalizeLegacy(c.Legacy), nil
	default:
		return model.RuleSet{}, fmt.Errorf("%w: %q", common.ErrUnsupportedSchemaVersion, c.Version)
	}
}

func normalizeStructured(doc *StructuredDocument) model.RuleSet {
	groups := make([]string, 0, len(doc.Categories))
	for name := range doc.Categories {
		groups = append(groups, name)
	}
	sort.Strings(groups)

	set := model.RuleSet{Fallbacks: model.FallbackTable{}}
	skipped := 0

	for _, group := range groups {
		for _, raw := range doc.Categories[group] {
			rule, err := canonicalRule(raw, group)
			if err != nil {
				skipped++
				slog.Warn("Skipping malformed rule",
					"rule_id", raw.ID,
					"category", group,
					"error", err)
				continue
			}
			set.Rules = append(set.Rules, rule)

			// Category codes on a rule double as fallback defaults for
			// those codes, at lower precedence than the explicit table.
			for _, code := range rule.CategoryCodes {
				if _, exists := set.Fallbacks[code]; !exists {
					set.Fallbacks[code] = model.Fallback{
						PurchaseType: rule.PurchaseType,
						Category:     rule.Category,
						Subcategory:  rule.Subcategory,
						Online:       rule.Online,
					}
				}
			}
		}
	}

	mergeFallbacks(set.Fallbacks, doc.Fallbacks)

	if skipped > 0 {
		slog.Warn("Normalized rule collection with skipped rules",
			"rules", len(set.Rules),
			"skipped", skipped)
	}

	return set
}

func canonicalRule(raw StructuredRule, group string) (model.Rule, error) {
	keywords := make([]string, 0, len(raw.Patterns))
	for _, p := range raw.Patterns {
		if kw := model.NormalizeText(p); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		return model.Rule{}, fmt.Errorf("%w: no patterns", common.ErrMalformedRule)
	}
	if strings.TrimSpace(raw.Type) == "" {
		return model.Rule{}, fmt.Errorf("%w: no purchase type", common.ErrMalformedRule)
	}

	category := raw.Category
	if category == "" {
		category = group
	}

	codes := make([]string, 0, len(raw.CategoryCodes))
	for _, c := range raw.CategoryCodes {
		if code := model.NormalizeText(c); code != "" {
			codes = append(codes, code)
		}
	}

	return model.Rule{
		ID:            raw.ID,
		Keywords:      keywords,
		PurchaseType:  model.PurchaseType(raw.Type),
		Category:      category,
		Subcategory:   raw.Subcategory,
		Online:        raw.Online,
		Priority:      raw.Priority,
		CategoryCodes: codes,
		Notes:         raw.Notes,
	}, nil
}

// normalizeLegacy converts the v3 layout. Legacy rules carry no
// priority, so one is synthesized: numbering starts at 1000 and drops
// by one per emitted rule, business keywords first in file order, then
// transaction rules in lexicographic id order. The resulting total
// order matches the legacy engine's check order.
func normalizeLegacy(doc *LegacyDocument) model.RuleSet {
	set := model.RuleSet{Fallbacks: model.FallbackTable{}}
	priority := legacyBasePriority
	skipped := 0

	for _, kw := range doc.BusinessKeywords {
		keyword := model.NormalizeText(kw)
		if keyword == "" {
			skipped++
			slog.Warn("Skipping empty business keyword")
			continue
		}
		set.Rules = append(set.Rules, model.Rule{
			ID:           "v3-business-" + slugify(kw),
			Keywords:     []string{keyword},
			PurchaseType: model.PurchaseBusiness,
			Category:     "Business",
			Priority:     priority,
		})
		priority--
	}

	ids := make([]string, 0, len(doc.TransactionRules))
	for id := range doc.TransactionRules {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		raw := doc.TransactionRules[id]
		keywords := make([]string, 0, len(raw.Keywords))
		for _, kw := range raw.Keywords {
			if keyword := model.NormalizeText(kw); keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		if len(keywords) == 0 {
			skipped++
			slog.Warn("Skipping malformed rule", "rule_id", id, "error", "no keywords")
			continue
		}
		set.Rules = append(set.Rules, model.Rule{
			ID:           "v3-" + id,
			Keywords:     keywords,
			PurchaseType: model.PurchasePersonal,
			Category:     raw.Category,
			Subcategory:  raw.Subcategory,
			Priority:     priority,
		})
		priority--
	}

	// Online purchase keywords flag existing rules rather than forming
	// rules of their own.
	for _, kw := range doc.OnlineKeywords {
		keyword := model.NormalizeText(kw)
		for i := range set.Rules {
			if containsKeyword(set.Rules[i].Keywords, keyword) {
				set.Rules[i].Online = true
			}
		}
	}

	mergeFallbacks(set.Fallbacks, doc.Fallbacks)

	if skipped > 0 {
		slog.Warn("Normalized legacy rule collection with skipped rules",
			"rules", len(set.Rules),
			"skipped", skipped)
	}

	return set
}

// mergeFallbacks copies document fallback entries into the table,
// overriding any rule-derived defaults for the same code.
func mergeFallbacks(table model.FallbackTable, entries map[string]FallbackEntry) {
	for code, entry := range entries {
		key := model.NormalizeText(code)
		if key == "" {
			continue
		}
		table[key] = model.Fallback{
			PurchaseType: model.PurchaseType(entry.PurchaseType),
			Category:     entry.Category,
			Subcategory:  entry.Subcategory,
			Online:       entry.Online,
		}
	}
}

func containsKeyword(keywords []string, keyword string) bool {
	for _, kw := range keywords {
		if kw == keyword {
			return true
		}
	}
	return false
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
