// Package batch classifies whole statements at once, reading
// transactions from CSV exports or OFX files.
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/sievemoney/sieve/internal/engine"
	"github.com/sievemoney/sieve/internal/model"
)

// Result pairs a transaction with its classification.
type Result struct {
	Transaction    model.Transaction
	Classification model.Classification
}

// Summary aggregates one batch run.
type Summary struct {
	Total    int
	Keyword  int
	Fallback int
	Default  int
}

// Runner classifies transaction batches through a shared classifier.
type Runner struct {
	classifier *engine.Classifier
	progress   func(done, total int)
}

// NewRunner creates a batch runner. progress may be nil.
func NewRunner(classifier *engine.Classifier, progress func(done, total int)) *Runner {
	return &Runner{classifier: classifier, progress: progress}
}

// Run classifies every transaction in order.
func (r *Runner) Run(ctx context.Context, txns []model.Transaction) ([]Result, Summary, error) {
	results := make([]Result, 0, len(txns))
	var summary Summary

	for i, txn := range txns {
		if err := ctx.Err(); err != nil {
			return results, summary, err
		}

		classification, err := r.classifier.Classify(ctx, txn.Description, txn.Code)
		if err != nil {
			return results, summary, fmt.Errorf("classifying %q: %w", txn.Description, err)
		}

		results = append(results, Result{Transaction: txn, Classification: classification})
		summary.Total++
		switch classification.Level {
		case model.MatchKeyword:
			summary.Keyword++
		case model.MatchFallback:
			summary.Fallback++
		case model.MatchDefault:
			summary.Default++
		}

		if r.progress != nil {
			r.progress(i+1, len(txns))
		}
	}

	return results, summary, nil
}

// ReadCSV parses description,category rows. A header row is detected by
// its first cell and skipped; blank descriptions are kept because the
// engine classifies them too (they land on the ultimate fallback).
func ReadCSV(reader io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(reader)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var txns []model.Transaction
	first := true
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV: %w", err)
		}
		if len(record) == 0 {
			continue
		}

		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(record[0]), "description") {
				continue
			}
		}

		txn := model.Transaction{Description: record[0]}
		if len(record) > 1 {
			txn.Code = record[1]
		}
		txns = append(txns, txn)
	}

	return txns, nil
}
