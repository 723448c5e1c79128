// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/cardmaker/cardmaker/internal/model"
	"github.com/cardmaker/cardmaker/internal/service"
)

// TagInput represents a desired tag in card requests.
type TagInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateCardRequest represents the request body for creating a card.
type CreateCardRequest struct {
	Name       string     `json:"name"`
	Fluff      string     `json:"fluff,omitempty"`
	Effect     string     `json:"effect,omitempty"`
	UserID     string     `json:"user_id,omitempty"`
	CardTypeID string     `json:"card_type_id"`
	InSet      bool       `json:"in_set,omitempty"`
	SetName    string     `json:"set_name,omitempty"`
	Tags       []TagInput `json:"tags,omitempty"`
}

// UpdateCardRequest represents the request body for updating a card.
// A missing tags field leaves the card's tag set untouched; an empty
// array detaches every unprotected tag.
type UpdateCardRequest struct {
	Name    string      `json:"name"`
	Fluff   string      `json:"fluff,omitempty"`
	Effect  string      `json:"effect,omitempty"`
	InSet   bool        `json:"in_set,omitempty"`
	SetName string      `json:"set_name,omitempty"`
	Tags    *[]TagInput `json:"tags,omitempty"`
}

// TagResponse represents a tag in API responses.
type TagResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CardTypeResponse represents a card type in API responses.
type CardTypeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CardResponse represents a card in API responses.
type CardResponse struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Fluff      string        `json:"fluff,omitempty"`
	Effect     string        `json:"effect,omitempty"`
	UserID     string        `json:"user_id"`
	CardTypeID string        `json:"card_type_id"`
	InSet      bool          `json:"in_set"`
	SetName    string        `json:"set_name,omitempty"`
	Tags       []TagResponse `json:"tags"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// CardListResponse represents a list of cards.
type CardListResponse struct {
	Data []CardResponse `json:"data"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ToTagInputs converts request tags to the service representation.
func ToTagInputs(tags []TagInput) []model.TagInput {
	out := make([]model.TagInput, 0, len(tags))
	for _, tag := range tags {
		out = append(out, model.TagInput{Name: tag.Name, Description: tag.Description})
	}
	return out
}

// ToTagResponse converts a Tag model to TagResponse DTO.
func ToTagResponse(tag *model.Tag) TagResponse {
	return TagResponse{
		ID:          tag.ID,
		Name:        tag.Name,
		Description: tag.Description,
	}
}

// ToCardTypeResponse converts a CardType model to CardTypeResponse DTO.
func ToCardTypeResponse(ct *model.CardType) CardTypeResponse {
	return CardTypeResponse{ID: ct.ID, Name: ct.Name}
}

// ToCardResponse converts a card with its tags to CardResponse DTO.
func ToCardResponse(card *service.CardWithTags) *CardResponse {
	tags := make([]TagResponse, 0, len(card.Tags))
	for _, tag := range card.Tags {
		tags = append(tags, ToTagResponse(tag))
	}
	return &CardResponse{
		ID:         card.Card.ID,
		Name:       card.Card.Name,
		Fluff:      card.Card.Fluff,
		Effect:     card.Card.Effect,
		UserID:     card.Card.UserID,
		CardTypeID: card.Card.CardTypeID,
		InSet:      card.Card.InSet,
		SetName:    card.Card.SetName,
		Tags:       tags,
		CreatedAt:  card.Card.CreatedAt,
		UpdatedAt:  card.Card.UpdatedAt,
	}
}

// ToCardListResponse converts a slice of cards to CardListResponse.
func ToCardListResponse(cards []*service.CardWithTags) *CardListResponse {
	responses := make([]CardResponse, len(cards))
	for i, card := range cards {
		responses[i] = *ToCardResponse(card)
	}
	return &CardListResponse{Data: responses}
}
