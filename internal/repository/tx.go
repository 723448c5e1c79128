package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardmaker/cardmaker/internal/model"
)

// TagOps is the set of tag and relationship operations available inside
// a reconciliation transaction. *Tx implements it against PostgreSQL;
// tests implement it in memory.
type TagOps interface {
	// LockCard takes a row lock on the card, serializing concurrent
	// reconciliations of the same card. Returns ErrCardNotFound if the
	// card does not exist.
	LockCard(ctx context.Context, cardID string) error
	RelationshipsForCard(ctx context.Context, cardID string) ([]model.CardTagRelationship, error)
	TagByID(ctx context.Context, id string) (*model.Tag, error)
	TagByName(ctx context.Context, name string) (*model.Tag, error)
	// CreateTag inserts a tag, returning ErrTagExists when the name is
	// already taken.
	CreateTag(ctx context.Context, tag *model.Tag) error
	// CreateRelationship attaches a tag to a card. Attaching an already
	// attached tag is a no-op.
	CreateRelationship(ctx context.Context, cardID, tagID string) error
	DeleteRelationship(ctx context.Context, cardID, tagID string) error
}

// Tx exposes transaction-scoped repository operations.
type Tx struct {
	tx pgx.Tx
}

// LockCard locks the card row for the duration of the transaction.
func (t *Tx) LockCard(ctx context.Context, cardID string) error {
	query := `
		SELECT id
		FROM cards
		WHERE id = $1
		FOR UPDATE
	`

	var id string
	err := t.tx.QueryRow(ctx, query, cardID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to lock card: %w", err)
	}
	return nil
}

// RelationshipsForCard retrieves the card's current relationship rows.
func (t *Tx) RelationshipsForCard(ctx context.Context, cardID string) ([]model.CardTagRelationship, error) {
	query := `
		SELECT card_id, tag_id
		FROM cards_tags
		WHERE card_id = $1
	`

	rows, err := t.tx.Query(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get relationships: %w", err)
	}
	defer rows.Close()

	var rels []model.CardTagRelationship
	for rows.Next() {
		var rel model.CardTagRelationship
		if err := rows.Scan(&rel.CardID, &rel.TagID); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate relationships: %w", err)
	}

	return rels, nil
}

// TagByID retrieves a tag by ID.
func (t *Tx) TagByID(ctx context.Context, id string) (*model.Tag, error) {
	query := `
		SELECT id, name, description
		FROM tags
		WHERE id = $1
	`

	var tag model.Tag
	err := t.tx.QueryRow(ctx, query, id).Scan(&tag.ID, &tag.Name, &tag.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag by ID: %w", err)
	}

	return &tag, nil
}

// TagByName retrieves a tag by its unique name.
func (t *Tx) TagByName(ctx context.Context, name string) (*model.Tag, error) {
	return getTagByName(ctx, t.tx, name)
}

// CreateTag inserts a new tag row. A raw unique violation would abort
// the surrounding transaction, so the conflict is absorbed by the
// statement and reported as ErrTagExists instead, leaving the
// transaction usable for the retry lookup.
func (t *Tx) CreateTag(ctx context.Context, tag *model.Tag) error {
	query := `
		INSERT INTO tags (id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`

	ct, err := t.tx.Exec(ctx, query, tag.ID, tag.Name, tag.Description)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrTagExists
	}
	return nil
}

// CreateRelationship inserts a card-tag relationship row.
func (t *Tx) CreateRelationship(ctx context.Context, cardID, tagID string) error {
	query := `
		INSERT INTO cards_tags (card_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (card_id, tag_id) DO NOTHING
	`

	if _, err := t.tx.Exec(ctx, query, cardID, tagID); err != nil {
		return fmt.Errorf("failed to create relationship: %w", err)
	}
	return nil
}

// DeleteRelationship removes a card-tag relationship row. The tag row
// itself is never deleted here.
func (t *Tx) DeleteRelationship(ctx context.Context, cardID, tagID string) error {
	query := `
		DELETE FROM cards_tags
		WHERE card_id = $1 AND tag_id = $2
	`

	if _, err := t.tx.Exec(ctx, query, cardID, tagID); err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	return nil
}

// InTagTx runs fn against transaction-scoped tag operations. It exists
// so callers can depend on the TagOps interface rather than *Tx.
func (r *Repository) InTagTx(ctx context.Context, fn func(ops TagOps) error) error {
	return r.InTx(ctx, func(tx *Tx) error {
		return fn(tx)
	})
}
