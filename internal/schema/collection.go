// Package schema decodes rule collections in either supported on-disk
// schema version and normalizes them into the canonical rule list the
// matching engine consumes. It performs no I/O.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/sievemoney/sieve/internal/common"
)

// Supported schema versions.
const (
	VersionLegacy     = "3.0"
	VersionStructured = "4.0"
)

// Collection is a decoded rule collection, tagged by schema version.
// Exactly one of Legacy or Structured is set.
type Collection struct {
	Legacy     *LegacyDocument
	Structured *StructuredDocument
	Version    string
}

// StructuredDocument is the v4 on-disk shape: rules grouped by category
// name, with an explicit fallback table.
type StructuredDocument struct {
	Categories map[string][]StructuredRule `json:"categories"`
	Fallbacks  map[string]FallbackEntry    `json:"fallback_categories,omitempty"`
}

// StructuredRule is one rule entry in a v4 category group. Category is
// optional; the group name applies when it is absent.
type StructuredRule struct {
	ID            string   `json:"id"`
	Type          string   `json:"type"`
	Category      string   `json:"category,omitempty"`
	Subcategory   string   `json:"subcategory,omitempty"`
	Notes         string   `json:"notes,omitempty"`
	Patterns      []string `json:"patterns"`
	CategoryCodes []string `json:"category_codes,omitempty"`
	Priority      int      `json:"priority"`
	Online        bool     `json:"online,omitempty"`
}

// LegacyDocument is the v3 on-disk shape: flat keyword lists with no
// explicit priorities.
type LegacyDocument struct {
	TransactionRules map[string]LegacyRule    `json:"transaction_rules"`
	Fallbacks        map[string]FallbackEntry `json:"fallback_categories,omitempty"`
	BusinessKeywords []string                 `json:"business_keywords"`
	OnlineKeywords   []string                 `json:"online_purchase_keywords"`
}

// LegacyRule is the v3 [category, subcategory, keywords] triple.
type LegacyRule struct {
	Category    string
	Subcategory string
	Keywords    []string
}

// UnmarshalJSON decodes the positional v3 rule tuple. The keywords
// element may be a list or a single string.
func (r *LegacyRule) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) < 3 {
		return fmt.Errorf("%w: legacy rule must be [category, subcategory, keywords]", common.ErrMalformedRule)
	}
	if err := json.Unmarshal(parts[0], &r.Category); err != nil {
		return fmt.Errorf("%w: legacy rule category: %v", common.ErrMalformedRule, err)
	}
	if err := json.Unmarshal(parts[1], &r.Subcategory); err != nil {
		return fmt.Errorf("%w: legacy rule subcategory: %v", common.ErrMalformedRule, err)
	}
	if err := json.Unmarshal(parts[2], &r.Keywords); err != nil {
		var single string
		if err2 := json.Unmarshal(parts[2], &single); err2 != nil {
			return fmt.Errorf("%w: legacy rule keywords: %v", common.ErrMalformedRule, err)
		}
		r.Keywords = []string{single}
	}
	return nil
}

// FallbackEntry is one fallback-table value. The v3 shape is a bare
// category-name string; the v4 shape is a full classification tuple.
type FallbackEntry struct {
	PurchaseType string `json:"purchase_type"`
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory,omitempty"`
	Online       bool   `json:"online,omitempty"`
}

// UnmarshalJSON accepts both fallback shapes.
func (e *FallbackEntry) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*e = FallbackEntry{PurchaseType: "Personal", Category: name}
		return nil
	}

	type plain FallbackEntry
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.PurchaseType == "" {
		p.PurchaseType = "Personal"
	}
	*e = FallbackEntry(p)
	return nil
}

// versionProbe reads only the discriminator.
type versionProbe struct {
	Version string `json:"version"`
}

// Decode parses a raw rule collection and tags it by schema version.
// A missing or unrecognized version discriminator is a configuration
// error, not something to guess around.
func Decode(data []byte) (*Collection, error) {
	var probe versionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing rule collection: %w", err)
	}

	switch probe.Version {
	case VersionStructured:
		var doc StructuredDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing v4 rule collection: %w", err)
		}
		return &Collection{Version: VersionStructured, Structured: &doc}, nil
	case VersionLegacy:
		var doc LegacyDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing v3 rule collection: %w", err)
		}
		return &Collection{Version: VersionLegacy, Legacy: &doc}, nil
	case "":
		return nil, fmt.Errorf("%w: version field missing", common.ErrUnsupportedSchemaVersion)
	default:
		return nil, fmt.Errorf("%w: %q (expected %q or %q)",
			common.ErrUnsupportedSchemaVersion, probe.Version, VersionLegacy, VersionStructured)
	}
}
