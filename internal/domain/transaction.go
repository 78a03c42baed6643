package domain

import "time"

// TransactionKind classifies a ledger entry.
type TransactionKind string

const (
	KindSale TransactionKind = "sale"
	KindFeed TransactionKind = "feed"
	KindPlay TransactionKind = "play"
)

// Valid reports whether the kind is one of the known ledger kinds.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindSale, KindFeed, KindPlay:
		return true
	}
	return false
}

// Transaction is one append-only ledger entry. Entries are never mutated or
// deleted once written. Amount is 0 for feed/play and the sale price for sales.
type Transaction struct {
	ID        string          `json:"id"`
	PetID     int64           `json:"petId"`
	Kind      TransactionKind `json:"kind"`
	Amount    float64         `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}
