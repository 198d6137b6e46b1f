package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/model"
	"github.com/sievemoney/sieve/internal/schema"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps rules in a SQLite database. It serves collections
// in the v4 shape so the normalizer treats it like any other source.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) a rule database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: database path is empty", common.ErrInvalidConfig)
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Foreign keys are off by default in SQLite; without them the
	// ON DELETE CASCADE on rule_keywords and rule_category_codes never
	// fires and removed rules leave orphaned child rows behind.
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrRuleSourceUnavailable, err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadCollection reads every rule and fallback entry and assembles a v4
// collection. Rules are grouped by category; insertion order within a
// group is preserved via rowid so tie-breaking stays stable.
func (s *SQLiteStore) LoadCollection(ctx context.Context) (*schema.Collection, error) {
	keywords, err := s.loadKeywords(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := s.loadCategoryCodes(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_type, category, subcategory, online, priority, notes
		FROM rules
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying rules: %v", common.ErrRuleSourceUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	doc := &schema.StructuredDocument{
		Categories: make(map[string][]schema.StructuredRule),
	}

	for rows.Next() {
		var r schema.StructuredRule
		var category string
		if err := rows.Scan(&r.ID, &r.Type, &category, &r.Subcategory, &r.Online, &r.Priority, &r.Notes); err != nil {
			return nil, fmt.Errorf("%w: scanning rule: %v", common.ErrRuleSourceUnavailable, err)
		}
		r.Patterns = keywords[r.ID]
		r.CategoryCodes = codes[r.ID]
		doc.Categories[category] = append(doc.Categories[category], r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading rules: %v", common.ErrRuleSourceUnavailable, err)
	}

	fallbacks, err := s.loadFallbacks(ctx)
	if err != nil {
		return nil, err
	}
	doc.Fallbacks = fallbacks

	return &schema.Collection{Version: schema.VersionStructured, Structured: doc}, nil
}

func (s *SQLiteStore) loadKeywords(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, keyword
		FROM rule_keywords
		ORDER BY rule_id, position`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying keywords: %v", common.ErrRuleSourceUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	keywords := make(map[string][]string)
	for rows.Next() {
		var ruleID, keyword string
		if err := rows.Scan(&ruleID, &keyword); err != nil {
			return nil, fmt.Errorf("%w: scanning keyword: %v", common.ErrRuleSourceUnavailable, err)
		}
		keywords[ruleID] = append(keywords[ruleID], keyword)
	}
	return keywords, rows.Err()
}

func (s *SQLiteStore) loadCategoryCodes(ctx context.Context) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rule_id, code
		FROM rule_category_codes
		ORDER BY rule_id, code`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying category codes: %v", common.ErrRuleSourceUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	codes := make(map[string][]string)
	for rows.Next() {
		var ruleID, code string
		if err := rows.Scan(&ruleID, &code); err != nil {
			return nil, fmt.Errorf("%w: scanning category code: %v", common.ErrRuleSourceUnavailable, err)
		}
		codes[ruleID] = append(codes[ruleID], code)
	}
	return codes, rows.Err()
}

func (s *SQLiteStore) loadFallbacks(ctx context.Context) (map[string]schema.FallbackEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT code, purchase_type, category, subcategory, online
		FROM fallback_categories`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying fallbacks: %v", common.ErrRuleSourceUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	fallbacks := make(map[string]schema.FallbackEntry)
	for rows.Next() {
		var code string
		var entry schema.FallbackEntry
		if err := rows.Scan(&code, &entry.PurchaseType, &entry.Category, &entry.Subcategory, &entry.Online); err != nil {
			return nil, fmt.Errorf("%w: scanning fallback: %v", common.ErrRuleSourceUnavailable, err)
		}
		fallbacks[code] = entry
	}
	return fallbacks, rows.Err()
}

// AddRule inserts a rule with its keywords and category codes.
func (s *SQLiteStore) AddRule(ctx context.Context, rule model.Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", common.ErrMalformedRule)
	}
	if len(rule.Keywords) == 0 {
		return fmt.Errorf("%w: rule %q has no keywords", common.ErrMalformedRule, rule.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM rules WHERE id = ?", rule.ID).Scan(&count); err != nil {
		return fmt.Errorf("failed to check rule id: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: rule %q", common.ErrDuplicateEntry, rule.ID)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO rules (id, purchase_type, category, subcategory, online, priority, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, string(rule.PurchaseType), rule.Category, rule.Subcategory,
		rule.Online, rule.Priority, rule.Notes,
	); err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}

	for i, kw := range rule.Keywords {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rule_keywords (rule_id, position, keyword) VALUES (?, ?, ?)`,
			rule.ID, i, model.NormalizeText(kw),
		); err != nil {
			return fmt.Errorf("failed to insert keyword: %w", err)
		}
	}

	for _, code := range rule.CategoryCodes {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rule_category_codes (rule_id, code) VALUES (?, ?)`,
			rule.ID, model.NormalizeText(code),
		); err != nil {
			return fmt.Errorf("failed to insert category code: %w", err)
		}
	}

	return tx.Commit()
}

// RemoveRule deletes a rule; keywords and codes cascade.
func (s *SQLiteStore) RemoveRule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: rule %q", common.ErrNotFound, id)
	}

	return nil
}

// GetRule returns one rule by id.
func (s *SQLiteStore) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	var rule model.Rule
	var purchaseType string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, purchase_type, category, subcategory, online, priority, notes
		FROM rules WHERE id = ?`, id).Scan(
		&rule.ID, &purchaseType, &rule.Category, &rule.Subcategory,
		&rule.Online, &rule.Priority, &rule.Notes)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: rule %q", common.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rule: %w", err)
	}
	rule.PurchaseType = model.PurchaseType(purchaseType)

	keywords, err := s.loadKeywords(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := s.loadCategoryCodes(ctx)
	if err != nil {
		return nil, err
	}
	rule.Keywords = keywords[id]
	rule.CategoryCodes = codes[id]

	return &rule, nil
}

// ListRules returns all rules, highest priority first.
func (s *SQLiteStore) ListRules(ctx context.Context) ([]model.Rule, error) {
	keywords, err := s.loadKeywords(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := s.loadCategoryCodes(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, purchase_type, category, subcategory, online, priority, notes
		FROM rules
		ORDER BY priority DESC, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		var rule model.Rule
		var purchaseType string
		if err := rows.Scan(&rule.ID, &purchaseType, &rule.Category, &rule.Subcategory,
			&rule.Online, &rule.Priority, &rule.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		rule.PurchaseType = model.PurchaseType(purchaseType)
		rule.Keywords = keywords[rule.ID]
		rule.CategoryCodes = codes[rule.ID]
		rules = append(rules, rule)
	}

	return rules, rows.Err()
}

// Import replaces the database contents with a normalized rule set.
// Used by the migrate command to move JSON rule files into SQLite.
func (s *SQLiteStore) Import(ctx context.Context, set model.RuleSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"rule_category_codes", "rule_keywords", "rules", "fallback_categories"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, rule := range set.Rules {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO rules (id, purchase_type, category, subcategory, online, priority, notes)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rule.ID, string(rule.PurchaseType), rule.Category, rule.Subcategory,
			rule.Online, rule.Priority, rule.Notes,
		); err != nil {
			return fmt.Errorf("failed to import rule %q: %w", rule.ID, err)
		}
		for i, kw := range rule.Keywords {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO rule_keywords (rule_id, position, keyword) VALUES (?, ?, ?)`,
				rule.ID, i, kw,
			); err != nil {
				return fmt.Errorf("failed to import keyword for %q: %w", rule.ID, err)
			}
		}
		for _, code := range rule.CategoryCodes {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO rule_category_codes (rule_id, code) VALUES (?, ?)`,
				rule.ID, code,
			); err != nil {
				return fmt.Errorf("failed to import category code for %q: %w", rule.ID, err)
			}
		}
	}

	for code, fb := range set.Fallbacks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO fallback_categories (code, purchase_type, category, subcategory, online)
			VALUES (?, ?, ?, ?, ?)`,
			code, string(fb.PurchaseType), fb.Category, fb.Subcategory, fb.Online,
		); err != nil {
			return fmt.Errorf("failed to import fallback %q: %w", code, err)
		}
	}

	return tx.Commit()
}
