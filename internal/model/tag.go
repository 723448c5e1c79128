package model

// ProtectedTagDescription marks the system-managed creation-year tag.
// Relationships to a tag carrying this description are never removed
// by reconciliation.
const ProtectedTagDescription = "year"

// Tag can be attached to any card. Name is unique and acts as the
// natural key during reconciliation.
type Tag struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// IsProtected reports whether reconciliation must keep this tag attached.
func (t *Tag) IsProtected() bool {
	return t.Description == ProtectedTagDescription
}

// TagInput is a desired-set element passed to the reconciler: a tag
// identity by name, optionally carrying a description used if the tag
// has to be created.
type TagInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CardTagRelationship links a card to a tag. The pair (CardID, TagID)
// is the composite key; rows have no lifecycle beyond existence.
type CardTagRelationship struct {
	CardID string `json:"card_id"`
	TagID  string `json:"tag_id"`
}
