// Package library persists and loads label templates on top of a
// core.TemplateStore.
package library

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"reflect"
	"strings"

	"labelpro/canvas"
	"labelpro/core"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/image/draw"
)

// PreviewWidth is the widest thumbnail kept with a template.
const PreviewWidth = 320

// ErrNoRevisions is returned for history operations on a store that keeps none.
var ErrNoRevisions = errors.New("store does not keep revisions")

// PersistRequest is one save of the editor's current template.
type PersistRequest struct {
	UserID      string            `json:"-" validate:"required"`
	ID          string            `json:"id" validate:"omitempty,max=64,excludesall=/\\"`
	Name        string            `json:"name" validate:"required,max=120"`
	Description string            `json:"description" validate:"max=1000"`
	Template    canvas.Template   `json:"template" validate:"-"`
	Preview     image.Image       `json:"-" validate:"-"`
	Metadata    map[string]string `json:"metadata" validate:"max=32,dive,keys,required,max=64,endkeys,max=512"`
}

// Service validates templates and moves them in and out of storage.
type Service struct {
	store     core.TemplateStore
	revisions core.RevisionStore
	validate  *validator.Validate
}

// NewService wraps store. revisions may be nil.
func NewService(store core.TemplateStore, revisions core.RevisionStore) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{store: store, revisions: revisions, validate: v}
}

// HasRevisions reports whether the backing store keeps history.
func (s *Service) HasRevisions() bool {
	return s.revisions != nil
}

// Persist validates req, stores the template and appends a revision when
// the store keeps history. A missing ID gets a fresh ulid.
func (s *Service) Persist(ctx context.Context, req PersistRequest) (*core.TemplateRecord, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := req.Template.Validate(); err != nil {
		return nil, err
	}

	data, err := canvas.Encode(req.Template)
	if err != nil {
		return nil, fmt.Errorf("encode template: %w", err)
	}
	preview, err := EncodePreview(req.Preview)
	if err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = ulid.Make().String()
	}
	record := &core.TemplateRecord{
		ID:          id,
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		Preview:     preview,
		Metadata:    req.Metadata,
		Data:        data,
	}
	if err := s.store.Save(ctx, record); err != nil {
		return nil, err
	}
	s.snapshot(ctx, record)

	logrus.WithFields(logrus.Fields{
		"template_id": id,
		"user_id":     req.UserID,
		"objects":     len(req.Template.Objects),
		"data_length": len(data),
	}).Info("Template persisted")
	return record, nil
}

// Load reads and decodes a stored template.
func (s *Service) Load(ctx context.Context, userID, id string) (canvas.Template, error) {
	record, err := s.store.Get(ctx, userID, id)
	if err != nil {
		return canvas.Template{}, err
	}
	t, err := canvas.Decode(record.Data)
	if err != nil {
		return canvas.Template{}, fmt.Errorf("template %s: %w", id, err)
	}
	return t, nil
}

// Restore saves the content of a revision as the template's current state.
// The restore itself becomes the newest revision.
func (s *Service) Restore(ctx context.Context, userID, templateID, revisionID string) (*core.TemplateRecord, error) {
	if s.revisions == nil {
		return nil, ErrNoRevisions
	}
	rev, err := s.revisions.GetRevision(ctx, userID, revisionID)
	if err != nil {
		return nil, err
	}
	if rev.TemplateID != templateID {
		return nil, fmt.Errorf("revision %s of template %s: %w", revisionID, templateID, core.ErrNotFound)
	}
	if _, err := canvas.Decode(rev.Data); err != nil {
		return nil, fmt.Errorf("revision %s: %w", revisionID, err)
	}

	record, err := s.store.Get(ctx, userID, templateID)
	switch {
	case errors.Is(err, core.ErrNotFound):
		record = &core.TemplateRecord{ID: templateID, UserID: userID}
	case err != nil:
		return nil, err
	}
	record.Name = rev.Name
	record.Preview = rev.Preview
	record.Data = rev.Data
	if err := s.store.Save(ctx, record); err != nil {
		return nil, err
	}
	s.snapshot(ctx, record)

	logrus.WithFields(logrus.Fields{
		"template_id": templateID,
		"revision_id": revisionID,
		"user_id":     userID,
	}).Info("Template restored")
	return record, nil
}

// snapshot records a revision. The save already succeeded, so a failure
// here is logged and not returned.
func (s *Service) snapshot(ctx context.Context, record *core.TemplateRecord) {
	if s.revisions == nil {
		return
	}
	if _, err := s.revisions.CreateRevision(ctx, record); err != nil {
		logrus.WithFields(logrus.Fields{
			"error":       err,
			"template_id": record.ID,
		}).Error("Failed to create revision")
	}
}

func (s *Service) check(req PersistRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "PersistRequest.")
	switch fe.Tag() {
	case "required":
		return core.NewValidationError(field, "is required")
	case "max":
		return core.NewValidationError(field, "must be at most %s", fe.Param())
	case "excludesall":
		return core.NewValidationError(field, "must not contain path separators")
	}
	return core.NewValidationError(field, "failed %s", fe.Tag())
}

// EncodePreview shrinks img to at most PreviewWidth wide and returns it as
// a PNG data URL. A nil image yields "".
func EncodePreview(img image.Image) (string, error) {
	if img == nil {
		return "", nil
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return "", core.NewValidationError("preview", "image is empty")
	}
	if b.Dx() > PreviewWidth {
		h := max(1, b.Dy()*PreviewWidth/b.Dx())
		thumb := image.NewRGBA(image.Rect(0, 0, PreviewWidth, h))
		draw.CatmullRom.Scale(thumb, thumb.Bounds(), img, b, draw.Src, nil)
		img = thumb
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
