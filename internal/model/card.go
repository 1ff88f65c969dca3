package model

import "time"

// Card represents a tracked credit card.
type Card struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Issuer    string    `json:"issuer"`
	LastFour  string    `json:"last_four"` // Last four digits, display only
}
