// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/cardmaker/cardmaker/internal/metrics"
	"github.com/cardmaker/cardmaker/internal/model"
	"github.com/cardmaker/cardmaker/internal/repository"
)

// ErrCardNotFound indicates the card targeted by an operation does not exist.
var ErrCardNotFound = errors.New("card not found")

// TagStore runs tag and relationship operations inside a single
// storage transaction.
type TagStore interface {
	InTagTx(ctx context.Context, fn func(ops repository.TagOps) error) error
}

// Reconciler moves a card's persisted tag relationships to a desired
// tag set. Reconciliation is idempotent: repeating a call with the same
// desired set has no further effect.
type Reconciler struct {
	store   TagStore
	metrics metrics.Recorder
}

// NewReconciler creates a new Reconciler.
func NewReconciler(store TagStore, recorder metrics.Recorder) *Reconciler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Reconciler{
		store:   store,
		metrics: recorder,
	}
}

// Reconcile computes and applies the attach/detach operations that move
// the card's tag set from its persisted state to desired. All steps run
// in one transaction: either the whole reconciliation is applied or
// none of it is observable. Relationships to the protected creation-year
// tag are never removed, whatever the desired set says. An empty
// desired set detaches everything detachable.
func (r *Reconciler) Reconcile(ctx context.Context, cardID string, desired []model.TagInput) error {
	// The transaction must complete or roll back even if the caller
	// disconnects mid-operation.
	ctx = context.WithoutCancel(ctx)

	// Deduplicate by name; name is the tag's natural key. Among
	// duplicates an occurrence carrying the protected description wins,
	// so a caller tag named after the current year cannot shadow the
	// creation-year marker.
	desiredByName := make(map[string]model.TagInput, len(desired))
	for _, input := range desired {
		if input.Name == "" {
			continue
		}
		prev, ok := desiredByName[input.Name]
		if !ok || (prev.Description != model.ProtectedTagDescription &&
			input.Description == model.ProtectedTagDescription) {
			desiredByName[input.Name] = input
		}
	}

	err := r.store.InTagTx(ctx, func(ops repository.TagOps) error {
		// Serialize concurrent reconciliations of this card.
		if err := ops.LockCard(ctx, cardID); err != nil {
			return err
		}

		rels, err := ops.RelationshipsForCard(ctx, cardID)
		if err != nil {
			return err
		}

		current := make(map[string]*model.Tag, len(rels))
		for _, rel := range rels {
			tag, err := ops.TagByID(ctx, rel.TagID)
			if err != nil {
				return fmt.Errorf("resolve relationship tag %s: %w", rel.TagID, err)
			}
			current[tag.Name] = tag
		}

		// Attach desired tags that are not yet related.
		for name, input := range desiredByName {
			if _, ok := current[name]; ok {
				continue
			}
			tag, err := r.resolveTag(ctx, ops, input)
			if err != nil {
				return err
			}
			if err := ops.CreateRelationship(ctx, cardID, tag.ID); err != nil {
				return err
			}
		}

		// Detach current tags missing from the desired set. Only the
		// relationship row is removed; the tag itself stays, shared
		// tags may be in use by other cards.
		for name, tag := range current {
			if _, ok := desiredByName[name]; ok {
				continue
			}
			if tag.IsProtected() {
				continue
			}
			if err := ops.DeleteRelationship(ctx, cardID, tag.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to reconcile card tags: %w", err)
	}

	r.metrics.IncReconciliation()
	return nil
}

// resolveTag finds the tag named by input, creating it when absent.
// An existing tag is always reused, orphan or not; duplicating a tag
// name is never acceptable. Losing a create race to a concurrent
// reconciliation is not an error: the lookup is retried and the
// winner's row wins.
func (r *Reconciler) resolveTag(ctx context.Context, ops repository.TagOps, input model.TagInput) (*model.Tag, error) {
	tag, err := ops.TagByName(ctx, input.Name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, repository.ErrTagNotFound) {
		return nil, err
	}

	created := &model.Tag{
		ID:          ulid.Make().String(),
		Name:        input.Name,
		Description: input.Description,
	}
	err = ops.CreateTag(ctx, created)
	if err == nil {
		r.metrics.IncTagCreated()
		return created, nil
	}
	if errors.Is(err, repository.ErrTagExists) {
		return ops.TagByName(ctx, input.Name)
	}
	return nil, err
}
