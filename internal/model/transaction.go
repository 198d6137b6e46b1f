package model

import "time"

// Transaction is a single statement line to classify. Only Description
// and Code participate in matching; the rest is carried through for
// reporting.
type Transaction struct {
	Date        time.Time
	Description string
	Code        string // merchant category code, or statement transaction type
	CheckNumber string
	Amount      float64
}
