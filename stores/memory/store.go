package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"labelpro/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

// Store keeps templates and their revisions in process memory.
type Store struct {
	mu sync.RWMutex
	// templates is keyed by user id, then template id.
	templates map[string]map[string]*core.TemplateRecord
	// revisions is keyed by owner and template id, oldest first.
	revisions map[templateKey][]core.Revision
	limits    map[templateKey]int

	// MaxRevisions applies to templates without their own setting.
	MaxRevisions int
}

// templateKey scopes history to one user's template. Template ids are
// chosen by clients and only unique per user.
type templateKey struct {
	userID     string
	templateID string
}

func NewStore() *Store {
	return &Store{
		templates: make(map[string]map[string]*core.TemplateRecord),
		revisions: make(map[templateKey][]core.Revision),
		limits:    make(map[templateKey]int),
	}
}

func clone(r *core.TemplateRecord) *core.TemplateRecord {
	c := *r
	c.Data = slices.Clone(r.Data)
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

func (s *Store) List(ctx context.Context, userID string) ([]*core.TemplateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userTemplates := s.templates[userID]
	records := make([]*core.TemplateRecord, 0, len(userTemplates))
	for _, t := range userTemplates {
		listed := clone(t)
		listed.Data = nil
		records = append(records, listed)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})

	logrus.WithField("user_id", userID).Infof("Listed %d templates", len(records))
	return records, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (*core.TemplateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id})
	t, ok := s.templates[userID][id]
	if !ok {
		log.Warn("Template not found for user")
		return nil, fmt.Errorf("template %s: %w", id, core.ErrNotFound)
	}
	log.Info("Template retrieved successfully")
	return clone(t), nil
}

func (s *Store) Save(ctx context.Context, record *core.TemplateRecord) error {
	if record.UserID == "" {
		return fmt.Errorf("UserID cannot be empty")
	}
	if record.ID == "" {
		return fmt.Errorf("template ID cannot be empty for save operation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userTemplates, ok := s.templates[record.UserID]
	if !ok {
		userTemplates = make(map[string]*core.TemplateRecord)
		s.templates[record.UserID] = userTemplates
	}

	now := time.Now()
	if existing, exists := userTemplates[record.ID]; exists {
		record.CreatedAt = existing.CreatedAt
	} else {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	userTemplates[record.ID] = clone(record)

	logrus.WithFields(logrus.Fields{
		"user_id":     record.UserID,
		"template_id": record.ID,
		"data_length": len(record.Data),
	}).Info("Template saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id})
	if _, ok := s.templates[userID][id]; !ok {
		log.Warn("Template not found for deletion")
		return fmt.Errorf("template %s: %w", id, core.ErrNotFound)
	}
	delete(s.templates[userID], id)
	key := templateKey{userID, id}
	delete(s.revisions, key)
	delete(s.limits, key)
	log.Info("Template deleted successfully")
	return nil
}

// CreateRevision copies record into the template's history, dropping the
// oldest revisions beyond the template's limit.
func (s *Store) CreateRevision(ctx context.Context, record *core.TemplateRecord) (string, error) {
	id := ulid.Make().String()
	rev := core.Revision{
		ID:         id,
		TemplateID: record.ID,
		UserID:     record.UserID,
		Name:       record.Name,
		Preview:    record.Preview,
		CreatedAt:  int64(ulid.Now()),
		Data:       slices.Clone(record.Data),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := templateKey{record.UserID, record.ID}
	limit := s.limitLocked(key)
	revs := append(s.revisions[key], rev)
	if over := len(revs) - limit; over > 0 {
		revs = slices.Clone(revs[over:])
	}
	s.revisions[key] = revs

	logrus.WithFields(logrus.Fields{
		"revision_id": id,
		"template_id": record.ID,
		"data_length": len(rev.Data),
	}).Info("Revision created successfully")
	return id, nil
}

// ListRevisions returns the template's revisions newest first, without data.
func (s *Store) ListRevisions(ctx context.Context, userID, templateID string) ([]core.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	revs := s.revisions[templateKey{userID, templateID}]
	out := make([]core.Revision, 0, len(revs))
	for i := len(revs) - 1; i >= 0; i-- {
		r := revs[i]
		r.Data = nil
		out = append(out, r)
	}
	logrus.WithField("template_id", templateID).Debugf("Listed %d revisions", len(out))
	return out, nil
}

func (s *Store) GetRevision(ctx context.Context, userID, id string) (*core.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for key, revs := range s.revisions {
		if key.userID != userID {
			continue
		}
		for _, r := range revs {
			if r.ID == id {
				r.Data = slices.Clone(r.Data)
				return &r, nil
			}
		}
	}
	logrus.WithField("revision_id", id).Warn("Revision with specified ID not found")
	return nil, fmt.Errorf("revision %s: %w", id, core.ErrNotFound)
}

func (s *Store) GetRevisionSettings(ctx context.Context, userID, templateID string) (*core.RevisionSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &core.RevisionSettings{TemplateID: templateID, MaxRevisions: s.limitLocked(templateKey{userID, templateID})}, nil
}

func (s *Store) UpdateRevisionSettings(ctx context.Context, userID, templateID string, maxRevisions int) error {
	if maxRevisions < 1 {
		return core.NewValidationError("max_revisions", "must be at least 1")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := templateKey{userID, templateID}
	s.limits[key] = maxRevisions
	if revs := s.revisions[key]; len(revs) > maxRevisions {
		s.revisions[key] = slices.Clone(revs[len(revs)-maxRevisions:])
	}
	logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"template_id":   templateID,
		"max_revisions": maxRevisions,
	}).Info("Revision settings updated successfully")
	return nil
}

func (s *Store) limitLocked(key templateKey) int {
	if n, ok := s.limits[key]; ok {
		return n
	}
	if s.MaxRevisions > 0 {
		return s.MaxRevisions
	}
	return core.DefaultMaxRevisions
}
