package schema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievemoney/sieve/internal/common"
	"github.com/sievemoney/sieve/internal/schema"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantErr     error
		wantVersion string
	}{
		{
			name:        "v4 document",
			input:       `{"version": "4.0", "categories": {}}`,
			wantVersion: schema.VersionStructured,
		},
		{
			name:        "v3 document",
			input:       `{"version": "3.0", "business_keywords": ["FEDEX"]}`,
			wantVersion: schema.VersionLegacy,
		},
		{
			name:    "missing version",
			input:   `{"categories": {}}`,
			wantErr: common.ErrUnsupportedSchemaVersion,
		},
		{
			name:    "unknown version",
			input:   `{"version": "5.0"}`,
			wantErr: common.ErrUnsupportedSchemaVersion,
		},
		{
			name:    "legacy layout without version is still rejected",
			input:   `{"business_keywords": ["FEDEX"]}`,
			wantErr: common.ErrUnsupportedSchemaVersion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collection, err := schema.Decode([]byte(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, collection.Version)
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := schema.Decode([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDecode_FallbackEntryShapes(t *testing.T) {
	input := `{
		"version": "4.0",
		"categories": {},
		"fallback_categories": {
			"GROCERY": "Groceries",
			"TRAVEL": {"purchase_type": "Business", "category": "Travel", "online": true}
		}
	}`

	collection, err := schema.Decode([]byte(input))
	require.NoError(t, err)
	require.NotNil(t, collection.Structured)

	grocery := collection.Structured.Fallbacks["GROCERY"]
	assert.Equal(t, "Personal", grocery.PurchaseType)
	assert.Equal(t, "Groceries", grocery.Category)
	assert.False(t, grocery.Online)

	travel := collection.Structured.Fallbacks["TRAVEL"]
	assert.Equal(t, "Business", travel.PurchaseType)
	assert.Equal(t, "Travel", travel.Category)
	assert.True(t, travel.Online)
}

func TestDecode_LegacyRuleTuple(t *testing.T) {
	input := `{
		"version": "3.0",
		"transaction_rules": {
			"groceries": ["Groceries", "Supermarket", ["SHOPRITE", "KROGER"]],
			"single-keyword": ["Dining", "", "STARBUCKS"]
		}
	}`

	collection, err := schema.Decode([]byte(input))
	require.NoError(t, err)
	require.NotNil(t, collection.Legacy)

	groceries := collection.Legacy.TransactionRules["groceries"]
	assert.Equal(t, "Groceries", groceries.Category)
	assert.Equal(t, "Supermarket", groceries.Subcategory)
	assert.Equal(t, []string{"SHOPRITE", "KROGER"}, groceries.Keywords)

	single := collection.Legacy.TransactionRules["single-keyword"]
	assert.Equal(t, []string{"STARBUCKS"}, single.Keywords)
}

func TestDecode_LegacyRuleTupleTooShort(t *testing.T) {
	input := `{
		"version": "3.0",
		"transaction_rules": {
			"bad": ["Groceries"]
		}
	}`

	_, err := schema.Decode([]byte(input))
	assert.ErrorIs(t, err, common.ErrMalformedRule)
}
