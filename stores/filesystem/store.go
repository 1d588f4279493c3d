package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"labelpro/core"

	"github.com/sirupsen/logrus"
)

// Store keeps one JSON file per template under basePath/<user id>/.
type Store struct {
	basePath string
}

func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

// templatePath resolves the file for a template, rejecting ids that would
// escape the user's directory.
func (s *Store) templatePath(userID, id string) (string, error) {
	if id == "" || id == "." || id == ".." || filepath.Base(id) != id {
		return "", core.NewValidationError("id", "must be a plain name")
	}
	if userID == "" || filepath.Base(userID) != userID {
		return "", core.NewValidationError("user", "must be a plain name")
	}
	return filepath.Join(s.basePath, userID, id), nil
}

func (s *Store) List(ctx context.Context, userID string) ([]*core.TemplateRecord, error) {
	userPath := filepath.Join(s.basePath, userID)
	log := logrus.WithField("user_id", userID).WithField("path", userPath)

	files, err := os.ReadDir(userPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Info("User directory does not exist, returning empty list.")
			return []*core.TemplateRecord{}, nil
		}
		log.WithError(err).Error("Failed to read user directory")
		return nil, err
	}

	records := make([]*core.TemplateRecord, 0, len(files))
	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) == ".tmp" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(userPath, file.Name()))
		if err != nil {
			log.WithError(err).Warnf("Failed to read template file %s, skipping", file.Name())
			continue
		}
		var record core.TemplateRecord
		if err := json.Unmarshal(data, &record); err != nil {
			log.WithError(err).Warnf("Failed to unmarshal template file %s, skipping", file.Name())
			continue
		}
		record.UserID = userID
		record.Data = nil
		records = append(records, &record)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].UpdatedAt.After(records[j].UpdatedAt)
	})

	log.Infof("Listed %d templates", len(records))
	return records, nil
}

func (s *Store) Get(ctx context.Context, userID, id string) (*core.TemplateRecord, error) {
	filePath, err := s.templatePath(userID, id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id, "path": filePath})

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Template file not found")
			return nil, fmt.Errorf("template %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to read template file")
		return nil, err
	}

	var record core.TemplateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		log.WithError(err).Error("Failed to unmarshal template data")
		return nil, err
	}
	record.UserID = userID

	log.Info("Template retrieved successfully")
	return &record, nil
}

func (s *Store) Save(ctx context.Context, record *core.TemplateRecord) error {
	filePath, err := s.templatePath(record.UserID, record.ID)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": record.UserID, "template_id": record.ID, "path": filePath})

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		log.WithError(err).Error("Failed to create user directory")
		return err
	}

	now := time.Now()
	record.CreatedAt = now
	if existing, err := s.Get(ctx, record.UserID, record.ID); err == nil {
		record.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, core.ErrNotFound) {
		return err
	}
	record.UpdatedAt = now

	data, err := json.Marshal(record)
	if err != nil {
		log.WithError(err).Error("Failed to marshal template for saving")
		return err
	}

	// readers never see a partial file
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		log.WithError(err).Error("Failed to write template file")
		return err
	}
	if err := os.Rename(tmp, filePath); err != nil {
		log.WithError(err).Error("Failed to write template file")
		return err
	}

	log.Info("Template saved successfully")
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id string) error {
	filePath, err := s.templatePath(userID, id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"user_id": userID, "template_id": id, "path": filePath})

	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			log.Warn("Template file not found for deletion")
			return fmt.Errorf("template %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to delete template file")
		return err
	}

	log.Info("Template deleted successfully")
	return nil
}
