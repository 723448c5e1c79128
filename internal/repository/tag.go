package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cardmaker/cardmaker/internal/model"
)

// Common errors for tag repository operations.
var (
	ErrTagNotFound = errors.New("tag not found")
	// ErrTagExists signals a unique-violation on tag name. During
	// reconciliation it means another transaction created the tag
	// first; the caller retries the lookup and proceeds with the
	// winner's row.
	ErrTagExists = errors.New("tag name already exists")
)

func getTagByName(ctx context.Context, q querier, name string) (*model.Tag, error) {
	query := `
		SELECT id, name, description
		FROM tags
		WHERE name = $1
	`

	var tag model.Tag
	err := q.QueryRow(ctx, query, name).Scan(&tag.ID, &tag.Name, &tag.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag by name: %w", err)
	}

	return &tag, nil
}

// GetTagByName retrieves a tag by its unique name.
func (r *Repository) GetTagByName(ctx context.Context, name string) (*model.Tag, error) {
	return getTagByName(ctx, r.pool, name)
}

// ListTags retrieves all tags ordered by name.
func (r *Repository) ListTags(ctx context.Context) ([]*model.Tag, error) {
	query := `
		SELECT id, name, description
		FROM tags
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Description); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}

// TagsForCard retrieves the tags currently attached to a card.
func (r *Repository) TagsForCard(ctx context.Context, cardID string) ([]*model.Tag, error) {
	query := `
		SELECT t.id, t.name, t.description
		FROM tags t
		JOIN cards_tags ct ON ct.tag_id = t.id
		WHERE ct.card_id = $1
		ORDER BY t.name
	`

	rows, err := r.pool.Query(ctx, query, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tags for card: %w", err)
	}
	defer rows.Close()

	var tags []*model.Tag
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Description); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, &tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}

	return tags, nil
}
