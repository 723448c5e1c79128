package model

import "time"

// CardType classifies a card, e.g. "Location" or "Magical item".
// The catalogue is seeded at bootstrap and read-only at runtime.
type CardType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Card is the main item of the application. Each card has exactly one
// author (User) and one type (CardType); its tag set lives in the
// cards_tags relationship table and is maintained by the reconciler.
type Card struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Fluff      string    `json:"fluff,omitempty"`
	Effect     string    `json:"effect,omitempty"`
	UserID     string    `json:"user_id"`
	CardTypeID string    `json:"card_type_id"`
	InSet      bool      `json:"in_set"`
	SetName    string    `json:"set_name,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
