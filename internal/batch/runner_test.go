package batch

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sievemoney/sieve/internal/engine"
	"github.com/sievemoney/sieve/internal/model"
	"github.com/sievemoney/sieve/internal/schema"
)

type staticSource struct {
	collection *schema.Collection
}

func (s *staticSource) LoadCollection(ctx context.Context) (*schema.Collection, error) {
	return s.collection, nil
}

func testClassifier() *engine.Classifier {
	return engine.New(&staticSource{collection: &schema.Collection{
		Version: schema.VersionStructured,
		Structured: &schema.StructuredDocument{
			Categories: map[string][]schema.StructuredRule{
				"Groceries": {
					{ID: "shoprite", Patterns: []string{"SHOPRITE"}, Type: "Personal", Priority: 500},
				},
			},
			Fallbacks: map[string]schema.FallbackEntry{
				"GROCERY": {PurchaseType: "Personal", Category: "Groceries"},
			},
		},
	}})
}

func TestRunner_Run(t *testing.T) {
	runner := NewRunner(testClassifier(), nil)

	txns := []model.Transaction{
		{Description: "SHOPRITE LODI NJ"},
		{Description: "CORNER MARKET", Code: "GROCERY"},
		{Description: "UNKNOWN MERCHANT"},
	}

	results, summary, err := runner.Run(context.Background(), txns)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, model.MatchKeyword, results[0].Classification.Level)
	assert.Equal(t, "shoprite", results[0].Classification.RuleID)
	assert.Equal(t, model.MatchFallback, results[1].Classification.Level)
	assert.Equal(t, model.MatchDefault, results[2].Classification.Level)

	assert.Equal(t, Summary{Total: 3, Keyword: 1, Fallback: 1, Default: 1}, summary)
}

func TestRunner_Progress(t *testing.T) {
	var calls []int
	runner := NewRunner(testClassifier(), func(done, total int) {
		assert.Equal(t, 2, total)
		calls = append(calls, done)
	})

	txns := []model.Transaction{
		{Description: "SHOPRITE"},
		{Description: "OTHER"},
	}

	_, _, err := runner.Run(context.Background(), txns)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, calls)
}

func TestRunner_Cancelled(t *testing.T) {
	runner := NewRunner(testClassifier(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, _, err := runner.Run(ctx, []model.Transaction{{Description: "SHOPRITE"}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func TestReadCSV(t *testing.T) {
	input := `description,category
SHOPRITE LODI NJ,GROCERY
AMAZON MKTP US
,9999
`

	txns, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "SHOPRITE LODI NJ", txns[0].Description)
	assert.Equal(t, "GROCERY", txns[0].Code)

	assert.Equal(t, "AMAZON MKTP US", txns[1].Description)
	assert.Empty(t, txns[1].Code)

	// Blank descriptions stay in the batch.
	assert.Empty(t, txns[2].Description)
	assert.Equal(t, "9999", txns[2].Code)
}

func TestReadCSV_NoHeader(t *testing.T) {
	txns, err := ReadCSV(strings.NewReader("SHOPRITE,GROCERY\n"))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "SHOPRITE", txns[0].Description)
}

func TestReadCSV_Empty(t *testing.T) {
	txns, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, txns)
}
