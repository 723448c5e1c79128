package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardmaker/cardmaker/internal/model"
)

// ErrCardTypeNotFound indicates the referenced card type does not exist.
var ErrCardTypeNotFound = errors.New("card type not found")

// GetCardTypeByID retrieves a card type by its ID.
func (r *Repository) GetCardTypeByID(ctx context.Context, id string) (*model.CardType, error) {
	query := `
		SELECT id, name
		FROM card_types
		WHERE id = $1
	`

	var ct model.CardType
	err := r.pool.QueryRow(ctx, query, id).Scan(&ct.ID, &ct.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardTypeNotFound
		}
		return nil, fmt.Errorf("failed to get card type: %w", err)
	}

	return &ct, nil
}

// ListCardTypes retrieves the card type catalogue.
func (r *Repository) ListCardTypes(ctx context.Context) ([]*model.CardType, error) {
	query := `
		SELECT id, name
		FROM card_types
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list card types: %w", err)
	}
	defer rows.Close()

	var types []*model.CardType
	for rows.Next() {
		var ct model.CardType
		if err := rows.Scan(&ct.ID, &ct.Name); err != nil {
			return nil, fmt.Errorf("failed to scan card type: %w", err)
		}
		types = append(types, &ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card types: %w", err)
	}

	return types, nil
}

// CreateCardType inserts a card type. Used by the bootstrap script;
// the catalogue is read-only at runtime.
func (r *Repository) CreateCardType(ctx context.Context, ct *model.CardType) error {
	query := `
		INSERT INTO card_types (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, ct.ID, ct.Name); err != nil {
		return fmt.Errorf("failed to create card type: %w", err)
	}
	return nil
}
