package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"labelpro/core"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS templates (
	id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	name TEXT,
	description TEXT,
	preview TEXT,
	metadata TEXT,
	data BLOB,
	created_at DATETIME,
	updated_at DATETIME,
	PRIMARY KEY (user_id, id)
);
CREATE TABLE IF NOT EXISTS revisions (
	id TEXT PRIMARY KEY,
	template_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	name TEXT,
	preview TEXT,
	created_at INTEGER NOT NULL,
	data BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS revisions_template ON revisions (user_id, template_id, created_at);
CREATE TABLE IF NOT EXISTS revision_settings (
	user_id TEXT NOT NULL,
	template_id TEXT NOT NULL,
	max_revisions INTEGER NOT NULL,
	PRIMARY KEY (user_id, template_id)
);`

type Store struct {
	db *sql.DB

	// MaxRevisions applies to templates without their own setting.
	MaxRevisions int
}

// NewStore opens the database at dataSourceName and creates missing tables.
func NewStore(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) List(ctx context.Context, userID string) ([]*core.TemplateRecord, error) {
	log := logrus.WithField("user_id", userID)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, description, preview, metadata, created_at, updated_at FROM templates WHERE user_id = ? ORDER BY updated_at DESC",
		userID)
	if err != nil {
		log.WithError(err).Error("Failed to list templates")
		return nil, err
	}
	defer rows.Close()

	records := []*core.TemplateRecord{}
	for rows.Next() {
		r := core.TemplateRecord{UserID: userID}
		var description, preview, metadata sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &description, &preview, &metadata, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.Description = description.String
		r.Preview = preview.String
		r.Metadata = decodeMetadata(metadata)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Infof("Listed %d templates", len(records))
	return records, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (*core.TemplateRecord, error) {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id})
	r := core.TemplateRecord{ID: id, UserID: userID}
	var description, preview, metadata sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT name, description, preview, metadata, data, created_at, updated_at FROM templates WHERE user_id = ? AND id = ?",
		userID, id).Scan(&r.Name, &description, &preview, &metadata, &r.Data, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Template not found for user")
			return nil, fmt.Errorf("template %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve template")
		return nil, err
	}
	r.Description = description.String
	r.Preview = preview.String
	r.Metadata = decodeMetadata(metadata)
	log.Info("Template retrieved successfully")
	return &r, nil
}

func (s *Store) Save(ctx context.Context, record *core.TemplateRecord) error {
	if record.UserID == "" || record.ID == "" {
		return fmt.Errorf("template save requires user and template ids")
	}
	log := logrus.WithFields(logrus.Fields{
		"user_id":     record.UserID,
		"template_id": record.ID,
		"data_length": len(record.Data),
	})
	metadata, err := json.Marshal(record.Metadata)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var createdAt time.Time
	err = tx.QueryRowContext(ctx, "SELECT created_at FROM templates WHERE user_id = ? AND id = ?", record.UserID, record.ID).Scan(&createdAt)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	now := time.Now().UTC()
	if exists {
		_, err = tx.ExecContext(ctx,
			"UPDATE templates SET name = ?, description = ?, preview = ?, metadata = ?, data = ?, updated_at = ? WHERE user_id = ? AND id = ?",
			record.Name, record.Description, record.Preview, string(metadata), record.Data, now, record.UserID, record.ID)
	} else {
		createdAt = now
		_, err = tx.ExecContext(ctx,
			"INSERT INTO templates (id, user_id, name, description, preview, metadata, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			record.ID, record.UserID, record.Name, record.Description, record.Preview, string(metadata), record.Data, now, now)
	}
	if err != nil {
		log.WithError(err).Error("Failed to save template")
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	record.CreatedAt = createdAt
	record.UpdatedAt = now
	log.Info("Template saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id})
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, "DELETE FROM templates WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		log.WithError(err).Error("Failed to delete template")
		return err
	}
	if n, err := result.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		log.Warn("Template not found for deletion")
		return fmt.Errorf("template %s: %w", id, core.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM revisions WHERE template_id = ? AND user_id = ?", id, userID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM revision_settings WHERE user_id = ? AND template_id = ?", userID, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("Template deleted successfully")
	return nil
}

// CreateRevision copies record into the template's history, dropping the
// oldest revisions beyond the template's limit.
func (s *Store) CreateRevision(ctx context.Context, record *core.TemplateRecord) (string, error) {
	id := ulid.Make().String()
	createdAt := int64(ulid.Now())
	log := logrus.WithFields(logrus.Fields{
		"revision_id": id,
		"template_id": record.ID,
		"data_length": len(record.Data),
	})

	settings, err := s.GetRevisionSettings(ctx, record.UserID, record.ID)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	data := record.Data
	if data == nil {
		data = []byte{}
	}
	_, err = tx.ExecContext(ctx,
		"INSERT INTO revisions (id, template_id, user_id, name, preview, created_at, data) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, record.ID, record.UserID, record.Name, record.Preview, createdAt, data)
	if err != nil {
		log.WithError(err).Error("Failed to create revision")
		return "", err
	}
	if err := prune(ctx, tx, record.UserID, record.ID, settings.MaxRevisions); err != nil {
		log.WithError(err).Error("Failed to delete oldest revisions")
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	log.Info("Revision created successfully")
	return id, nil
}

// prune keeps the newest revisions of one user's template.
func prune(ctx context.Context, tx *sql.Tx, userID, templateID string, keep int) error {
	_, err := tx.ExecContext(ctx,
		`DELETE FROM revisions WHERE user_id = ? AND template_id = ? AND id NOT IN (
			SELECT id FROM revisions WHERE user_id = ? AND template_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
		)`,
		userID, templateID, userID, templateID, keep)
	return err
}

// ListRevisions returns the template's revisions newest first, without data.
func (s *Store) ListRevisions(ctx context.Context, userID, templateID string) ([]core.Revision, error) {
	log := logrus.WithField("template_id", templateID)
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, template_id, user_id, name, preview, created_at FROM revisions WHERE template_id = ? AND user_id = ? ORDER BY created_at DESC, id DESC",
		templateID, userID)
	if err != nil {
		log.WithError(err).Error("Failed to list revisions")
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.WithError(cerr).Warn("Failed to close revision rows")
		}
	}()

	revisions := []core.Revision{}
	for rows.Next() {
		var r core.Revision
		var name, preview sql.NullString
		if err := rows.Scan(&r.ID, &r.TemplateID, &r.UserID, &name, &preview, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Name = name.String
		r.Preview = preview.String
		revisions = append(revisions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	log.Debugf("Listed %d revisions", len(revisions))
	return revisions, nil
}

func (s *Store) GetRevision(ctx context.Context, userID, id string) (*core.Revision, error) {
	log := logrus.WithField("revision_id", id)
	var r core.Revision
	var name, preview sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT id, template_id, user_id, name, preview, created_at, data FROM revisions WHERE id = ? AND user_id = ?",
		id, userID).Scan(&r.ID, &r.TemplateID, &r.UserID, &name, &preview, &r.CreatedAt, &r.Data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Revision with specified ID not found")
			return nil, fmt.Errorf("revision %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve revision")
		return nil, err
	}
	r.Name = name.String
	r.Preview = preview.String
	log.Info("Revision retrieved successfully")
	return &r, nil
}

func (s *Store) GetRevisionSettings(ctx context.Context, userID, templateID string) (*core.RevisionSettings, error) {
	settings := &core.RevisionSettings{TemplateID: templateID}
	err := s.db.QueryRowContext(ctx,
		"SELECT max_revisions FROM revision_settings WHERE user_id = ? AND template_id = ?", userID, templateID).Scan(&settings.MaxRevisions)
	if errors.Is(err, sql.ErrNoRows) {
		settings.MaxRevisions = core.DefaultMaxRevisions
		if s.MaxRevisions > 0 {
			settings.MaxRevisions = s.MaxRevisions
		}
		return settings, nil
	}
	if err != nil {
		logrus.WithField("template_id", templateID).WithError(err).Error("Failed to retrieve revision settings")
		return nil, err
	}
	return settings, nil
}

func (s *Store) UpdateRevisionSettings(ctx context.Context, userID, templateID string, maxRevisions int) error {
	if maxRevisions < 1 {
		return core.NewValidationError("max_revisions", "must be at least 1")
	}
	log := logrus.WithFields(logrus.Fields{
		"user_id":       userID,
		"template_id":   templateID,
		"max_revisions": maxRevisions,
	})

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"INSERT INTO revision_settings (user_id, template_id, max_revisions) VALUES (?, ?, ?) ON CONFLICT(user_id, template_id) DO UPDATE SET max_revisions = excluded.max_revisions",
		userID, templateID, maxRevisions)
	if err != nil {
		log.WithError(err).Error("Failed to update revision settings")
		return err
	}
	if err := prune(ctx, tx, userID, templateID, maxRevisions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("Revision settings updated successfully")
	return nil
}

func decodeMetadata(raw sql.NullString) map[string]string {
	if !raw.Valid || raw.String == "" || raw.String == "null" {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(raw.String), &m); err != nil {
		return nil
	}
	return m
}
