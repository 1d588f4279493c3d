package templates

import (
	"context"
	"encoding/json"
	"image"
	"mime"
	"net/http"
	"strings"

	"labelpro/canvas"
	"labelpro/core"
	"labelpro/handlers/api/respond"
	"labelpro/layout"
	"labelpro/library"
	raster "labelpro/render"
	"labelpro/rows"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 16 << 20

type (
	// TemplateResponse is a stored template with its canvas inlined as JSON.
	TemplateResponse struct {
		*core.TemplateRecord
		Data     []byte          `json:"data,omitempty"`
		Template json.RawMessage `json:"template"`
	}

	SaveTemplateRequest struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Preview     string            `json:"preview"`
		Metadata    map[string]string `json:"metadata"`
		Template    canvas.Template   `json:"template"`
	}

	LayoutRequest struct {
		Rows       []layout.Row   `json:"rows"`
		Mapping    layout.Mapping `json:"mapping"`
		RequireAll bool           `json:"requireAll"`
		Config     *layout.Config `json:"config"`
	}

	LayoutResponse struct {
		*layout.Plan
		Labels   int            `json:"labels"`
		Mapping  layout.Mapping `json:"mapping"`
		Unmapped []string       `json:"unmapped,omitempty"`
	}
)

func HandleListTemplates(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}

		records, err := store.List(r.Context(), userID)
		if err != nil {
			respond.Fail(w, r, err, "Failed to list templates", logrus.Fields{"userID": userID})
			return
		}
		if records == nil {
			records = []*core.TemplateRecord{}
		}

		render.JSON(w, r, records)
	}
}

func HandleGetTemplate(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")

		record, err := store.Get(r.Context(), userID, id)
		if err != nil {
			respond.Fail(w, r, err, "Failed to get template", logrus.Fields{"userID": userID, "templateID": id})
			return
		}

		render.JSON(w, r, TemplateResponse{TemplateRecord: record, Template: record.Data})
	}
}

func HandleSaveTemplate(svc *library.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		fields := logrus.Fields{"userID": userID, "templateID": id}

		var req SaveTemplateRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			logrus.WithFields(fields).WithField("error", err).Warn("Failed to decode template")
			respond.BadRequest(w, r, "Invalid request body")
			return
		}

		preview, err := decodePreview(r.Context(), req.Preview)
		if err != nil {
			respond.Fail(w, r, err, "Failed to decode preview", fields)
			return
		}

		record, err := svc.Persist(r.Context(), library.PersistRequest{
			UserID:      userID,
			ID:          id,
			Name:        req.Name,
			Description: req.Description,
			Template:    req.Template,
			Preview:     preview,
			Metadata:    req.Metadata,
		})
		if err != nil {
			respond.Fail(w, r, err, "Failed to save template", fields)
			return
		}

		render.JSON(w, r, TemplateResponse{TemplateRecord: record, Template: record.Data})
	}
}

func HandleDeleteTemplate(store core.TemplateStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")

		if err := store.Delete(r.Context(), userID, id); err != nil {
			respond.Fail(w, r, err, "Failed to delete template", logrus.Fields{"userID": userID, "templateID": id})
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleLayout binds the posted rows to a stored template and returns the
// page plan. Labels are not rasterized.
func HandleLayout(svc *library.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		fields := logrus.Fields{"userID": userID, "templateID": id}

		var req LayoutRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			logrus.WithFields(fields).WithField("error", err).Warn("Failed to decode layout request")
			respond.BadRequest(w, r, "Invalid request body")
			return
		}

		tpl, err := svc.Load(r.Context(), userID, id)
		if err != nil {
			respond.Fail(w, r, err, "Failed to load template", fields)
			return
		}

		keys := layout.BindingKeys(tpl)
		mapping := req.Mapping
		if len(mapping) == 0 {
			mapping = layout.AutoMap(keys, layout.Columns(req.Rows))
		}
		mapped, err := layout.MapColumns(req.Rows, keys, mapping, req.RequireAll)
		if err != nil {
			respond.Fail(w, r, err, "Failed to map columns", fields)
			return
		}

		cfg := layout.DefaultConfig()
		if req.Config != nil {
			cfg = *req.Config
		}
		plan, err := layout.Paginate(tpl, mapped, cfg)
		if err != nil {
			respond.Fail(w, r, err, "Failed to lay out labels", fields)
			return
		}

		var unmapped []string
		for _, k := range keys {
			col := mapping[k]
			if col == "" {
				col = k
			}
			if !hasColumn(req.Rows, col) {
				unmapped = append(unmapped, k)
			}
		}

		render.JSON(w, r, LayoutResponse{
			Plan:     plan,
			Labels:   plan.LabelCount(),
			Mapping:  mapping,
			Unmapped: unmapped,
		})
	}
}

// HandleSampleSheet serves an empty workbook with one column per data key.
func HandleSampleSheet(svc *library.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		id := chi.URLParam(r, "id")
		fields := logrus.Fields{"userID": userID, "templateID": id}

		tpl, err := svc.Load(r.Context(), userID, id)
		if err != nil {
			respond.Fail(w, r, err, "Failed to load template", fields)
			return
		}
		data, err := rows.SampleSheet(layout.BindingKeys(tpl))
		if err != nil {
			respond.Fail(w, r, err, "Failed to build sample sheet", fields)
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": id + "-sample.xlsx"}))
		w.Write(data)
	}
}

func hasColumn(data []layout.Row, name string) bool {
	for _, row := range data {
		if _, ok := row[name]; ok {
			return true
		}
	}
	return false
}

// decodePreview accepts only embedded images so the server never fetches
// a client supplied URL.
func decodePreview(ctx context.Context, src string) (image.Image, error) {
	if src == "" {
		return nil, nil
	}
	if !strings.HasPrefix(src, "data:") {
		return nil, core.NewValidationError("preview", "must be a data URL")
	}
	img, err := raster.SourceLoader{}.Load(ctx, src)
	if err != nil {
		return nil, core.NewValidationError("preview", "%v", err)
	}
	return img, nil
}
