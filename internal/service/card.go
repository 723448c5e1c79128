package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cardmaker/cardmaker/internal/metrics"
	"github.com/cardmaker/cardmaker/internal/model"
	"github.com/cardmaker/cardmaker/internal/repository"
)

// Service errors for card operations.
var (
	ErrOwnerNotFound    = errors.New("card owner not found")
	ErrCardTypeNotFound = errors.New("card type not found")
	ErrInvalidName      = errors.New("card name is required")
)

// CardStore is the persistence surface the card service needs.
// *repository.Repository implements it.
type CardStore interface {
	CreateCard(ctx context.Context, card *model.Card) error
	GetCardByID(ctx context.Context, id string) (*model.Card, error)
	UpdateCard(ctx context.Context, card *model.Card) error
	DeleteCard(ctx context.Context, id string) error
	ListCards(ctx context.Context, filter repository.CardFilter) ([]*model.Card, error)
	TagsForCard(ctx context.Context, cardID string) ([]*model.Tag, error)
	ListTags(ctx context.Context) ([]*model.Tag, error)
	GetCardTypeByID(ctx context.Context, id string) (*model.CardType, error)
	ListCardTypes(ctx context.Context) ([]*model.CardType, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetAnonymousUser(ctx context.Context) (*model.User, error)
}

// CardService handles card business logic.
type CardService struct {
	repo       CardStore
	reconciler *Reconciler
	metrics    metrics.Recorder
}

// NewCardService creates a new CardService.
func NewCardService(repo CardStore, reconciler *Reconciler, recorder metrics.Recorder) *CardService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &CardService{
		repo:       repo,
		reconciler: reconciler,
		metrics:    recorder,
	}
}

// CardWithTags pairs a card with its currently attached tags.
type CardWithTags struct {
	Card *model.Card
	Tags []*model.Tag
}

// CreateCardInput defines input for creating a card.
type CreateCardInput struct {
	Name       string
	Fluff      string
	Effect     string
	UserID     string // empty means the anonymous default author
	CardTypeID string
	InSet      bool
	SetName    string
	Tags       []model.TagInput
}

// creationYearTag is the system-managed tag added to every new
// card's desired set. Its description marks it protected against
// removal by later reconciliations.
func creationYearTag(now time.Time) model.TagInput {
	return model.TagInput{
		Name:        strconv.Itoa(now.Year()),
		Description: model.ProtectedTagDescription,
	}
}

// CreateCard creates a card and reconciles its tag set, always
// including the creation-year tag.
func (s *CardService) CreateCard(ctx context.Context, input CreateCardInput) (*CardWithTags, error) {
	if input.Name == "" {
		return nil, ErrInvalidName
	}

	owner, err := s.resolveOwner(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetCardTypeByID(ctx, input.CardTypeID); err != nil {
		if errors.Is(err, repository.ErrCardTypeNotFound) {
			return nil, ErrCardTypeNotFound
		}
		return nil, fmt.Errorf("failed to check card type: %w", err)
	}

	now := time.Now().UTC()
	card := &model.Card{
		ID:         ulid.Make().String(),
		Name:       input.Name,
		Fluff:      input.Fluff,
		Effect:     input.Effect,
		UserID:     owner.ID,
		CardTypeID: input.CardTypeID,
		InSet:      input.InSet,
		SetName:    input.SetName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	// The year tag goes first so its protected description wins over a
	// caller-supplied tag of the same name.
	desired := append([]model.TagInput{creationYearTag(now)}, input.Tags...)
	if err := s.reconciler.Reconcile(ctx, card.ID, desired); err != nil {
		return nil, err
	}

	tags, err := s.repo.TagsForCard(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card tags: %w", err)
	}

	s.metrics.IncCardCreated()
	return &CardWithTags{Card: card, Tags: tags}, nil
}

// UpdateCardInput defines input for updating a card. A nil Tags slice
// leaves the card's tag set untouched; a non-nil slice (empty included)
// is reconciled as the new desired set.
type UpdateCardInput struct {
	Name    string
	Fluff   string
	Effect  string
	InSet   bool
	SetName string
	Tags    []model.TagInput
}

// UpdateCard saves the card's mutable fields and, when a desired tag
// set is supplied, reconciles the relationships.
func (s *CardService) UpdateCard(ctx context.Context, id string, input UpdateCardInput) (*CardWithTags, error) {
	if input.Name == "" {
		return nil, ErrInvalidName
	}

	card, err := s.repo.GetCardByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	card.Name = input.Name
	card.Fluff = input.Fluff
	card.Effect = input.Effect
	card.InSet = input.InSet
	card.SetName = input.SetName
	card.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateCard(ctx, card); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	if input.Tags != nil {
		if err := s.reconciler.Reconcile(ctx, card.ID, input.Tags); err != nil {
			return nil, err
		}
	}

	tags, err := s.repo.TagsForCard(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card tags: %w", err)
	}

	s.metrics.IncCardUpdated()
	return &CardWithTags{Card: card, Tags: tags}, nil
}

// DeleteCard removes a card together with its relationship rows.
func (s *CardService) DeleteCard(ctx context.Context, id string) error {
	if err := s.repo.DeleteCard(ctx, id); err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("failed to delete card: %w", err)
	}

	s.metrics.IncCardDeleted()
	return nil
}

// GetCard retrieves a card and its tags by ID.
func (s *CardService) GetCard(ctx context.Context, id string) (*CardWithTags, error) {
	card, err := s.repo.GetCardByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrCardNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	tags, err := s.repo.TagsForCard(ctx, card.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load card tags: %w", err)
	}

	return &CardWithTags{Card: card, Tags: tags}, nil
}

// ListCards retrieves cards matching the filter, each with its tags.
func (s *CardService) ListCards(ctx context.Context, filter repository.CardFilter) ([]*CardWithTags, error) {
	cards, err := s.repo.ListCards(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	result := make([]*CardWithTags, 0, len(cards))
	for _, card := range cards {
		tags, err := s.repo.TagsForCard(ctx, card.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load card tags: %w", err)
		}
		result = append(result, &CardWithTags{Card: card, Tags: tags})
	}

	return result, nil
}

// ListTags returns the full tag catalogue.
func (s *CardService) ListTags(ctx context.Context) ([]*model.Tag, error) {
	return s.repo.ListTags(ctx)
}

// ListCardTypes returns the card type catalogue.
func (s *CardService) ListCardTypes(ctx context.Context) ([]*model.CardType, error) {
	return s.repo.ListCardTypes(ctx)
}

// resolveOwner returns the referenced user, or the anonymous default
// author when no user ID was supplied.
func (s *CardService) resolveOwner(ctx context.Context, userID string) (*model.User, error) {
	var (
		owner *model.User
		err   error
	)
	if userID == "" {
		owner, err = s.repo.GetAnonymousUser(ctx)
	} else {
		owner, err = s.repo.GetUserByID(ctx, userID)
	}
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrOwnerNotFound
		}
		return nil, fmt.Errorf("failed to resolve card owner: %w", err)
	}
	return owner, nil
}
