package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// Transaction represents a single card transaction from any source.
// Amount is always non-negative; payments toward the card balance are
// flagged with IsPayment rather than a negative amount.
type Transaction struct {
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"created_at"`
	ID          string    `json:"id"`
	CardID      string    `json:"card_id"`
	Description string    `json:"description"` // Raw transaction description
	Category    string    `json:"category"`    // Category label, if known
	Hash        string    `json:"hash"`
	Amount      float64   `json:"amount"`
	IsPayment   bool      `json:"is_payment"`
}

// GenerateHash creates a unique hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%.2f:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.CardID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
