package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/cardmaker/cardmaker/internal/model"
)

// ErrCardNotFound indicates the requested card does not exist.
var ErrCardNotFound = errors.New("card not found")

const cardColumns = "id, name, fluff, effect, user_id, card_type_id, in_set, set_name, created_at, updated_at"

func scanCard(row pgx.Row) (*model.Card, error) {
	var card model.Card
	err := row.Scan(
		&card.ID,
		&card.Name,
		&card.Fluff,
		&card.Effect,
		&card.UserID,
		&card.CardTypeID,
		&card.InSet,
		&card.SetName,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &card, nil
}

// CreateCard inserts a new card.
func (r *Repository) CreateCard(ctx context.Context, card *model.Card) error {
	query := `
		INSERT INTO cards (id, name, fluff, effect, user_id, card_type_id, in_set, set_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		card.ID,
		card.Name,
		card.Fluff,
		card.Effect,
		card.UserID,
		card.CardTypeID,
		card.InSet,
		card.SetName,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// GetCardByID retrieves a card by its ID.
func (r *Repository) GetCardByID(ctx context.Context, id string) (*model.Card, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE id = $1
	`

	card, err := scanCard(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card by ID: %w", err)
	}

	return card, nil
}

// UpdateCard saves the mutable fields of an existing card.
func (r *Repository) UpdateCard(ctx context.Context, card *model.Card) error {
	query := `
		UPDATE cards
		SET name = $2, fluff = $3, effect = $4, in_set = $5, set_name = $6, updated_at = $7
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		card.ID,
		card.Name,
		card.Fluff,
		card.Effect,
		card.InSet,
		card.SetName,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	return nil
}

// DeleteCard removes a card and its relationship rows in one
// transaction. Tags themselves are left in place.
func (r *Repository) DeleteCard(ctx context.Context, id string) error {
	return r.InTx(ctx, func(tx *Tx) error {
		if _, err := tx.tx.Exec(ctx, `DELETE FROM cards_tags WHERE card_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete card relationships: %w", err)
		}

		tag, err := tx.tx.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrCardNotFound
		}
		return nil
	})
}

// CardFilter narrows ListCards results. Zero values mean "no filter".
type CardFilter struct {
	UserID     string
	CardTypeID string
	// TagNames requires each named tag to be attached.
	TagNames []string
}

// ListCards retrieves cards matching the filter, newest first.
func (r *Repository) ListCards(ctx context.Context, filter CardFilter) ([]*model.Card, error) {
	var (
		conditions []string
		args       []any
	)

	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.CardTypeID != "" {
		args = append(args, filter.CardTypeID)
		conditions = append(conditions, fmt.Sprintf("card_type_id = $%d", len(args)))
	}
	for _, name := range filter.TagNames {
		args = append(args, name)
		conditions = append(conditions, fmt.Sprintf(
			`EXISTS (
				SELECT 1 FROM cards_tags ct
				JOIN tags t ON t.id = ct.tag_id
				WHERE ct.card_id = cards.id AND t.name = $%d
			)`, len(args)))
	}

	query := `SELECT ` + cardColumns + ` FROM cards`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []*model.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card: %w", err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cards: %w", err)
	}

	return cards, nil
}
