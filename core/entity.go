package core

import (
	"context"
	"time"
)

type (
	// TemplateRecord is a persisted label template owned by a user.
	TemplateRecord struct {
		ID          string            `json:"id"`
		UserID      string            `json:"-"`
		Name        string            `json:"name"`
		Description string            `json:"description,omitempty"`
		Preview     string            `json:"preview,omitempty"` // PNG data URL
		Metadata    map[string]string `json:"metadata,omitempty"`
		Data        []byte            `json:"data,omitempty"` // serialized canvas.Template, omitted in list views
		CreatedAt   time.Time         `json:"createdAt"`
		UpdatedAt   time.Time         `json:"updatedAt"`
	}

	// TemplateStore persists user-owned templates.
	// All operations are scoped to a specific user.
	TemplateStore interface {
		// List returns metadata for all templates owned by a user, without Data.
		List(ctx context.Context, userID string) ([]*TemplateRecord, error)

		// Get returns a single template, ensuring it belongs to the user.
		Get(ctx context.Context, userID, id string) (*TemplateRecord, error)

		// Save creates or replaces a template for a user.
		Save(ctx context.Context, record *TemplateRecord) error

		// Delete removes a template, ensuring it belongs to the user.
		Delete(ctx context.Context, userID, id string) error
	}

	// Revision is an immutable copy of a template taken on save.
	Revision struct {
		ID         string `json:"id"`
		TemplateID string `json:"template_id"`
		UserID     string `json:"-"`
		Name       string `json:"name"`
		Preview    string `json:"preview,omitempty"`
		CreatedAt  int64  `json:"created_at"`
		Data       []byte `json:"data,omitempty"`
	}

	// RevisionSettings bounds the revision history of one template.
	RevisionSettings struct {
		TemplateID   string `json:"template_id"`
		MaxRevisions int    `json:"max_revisions"`
	}

	// RevisionStore is implemented by stores that keep template history.
	// History and its limit belong to one user's template.
	RevisionStore interface {
		CreateRevision(ctx context.Context, record *TemplateRecord) (string, error)
		ListRevisions(ctx context.Context, userID, templateID string) ([]Revision, error)
		GetRevision(ctx context.Context, userID, id string) (*Revision, error)
		GetRevisionSettings(ctx context.Context, userID, templateID string) (*RevisionSettings, error)
		UpdateRevisionSettings(ctx context.Context, userID, templateID string, maxRevisions int) error
	}
)

// DefaultMaxRevisions is used when a template has no revision settings.
const DefaultMaxRevisions = 10
