package revisions

import (
	"encoding/json"
	"net/http"

	"labelpro/core"
	"labelpro/handlers/api/respond"
	"labelpro/library"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

type (
	RevisionResponse struct {
		core.Revision
		Data     []byte          `json:"data,omitempty"`
		Template json.RawMessage `json:"template"`
	}

	UpdateSettingsRequest struct {
		MaxRevisions int `json:"max_revisions"`
	}
)

// HandleListRevisions lists the history of a template, newest first.
func HandleListRevisions(store core.RevisionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		templateID := chi.URLParam(r, "id")

		revisions, err := store.ListRevisions(r.Context(), userID, templateID)
		if err != nil {
			respond.Fail(w, r, err, "Failed to list revisions", logrus.Fields{"userID": userID, "templateID": templateID})
			return
		}
		if revisions == nil {
			revisions = []core.Revision{}
		}

		render.JSON(w, r, revisions)
	}
}

// HandleGetRevision retrieves a specific revision
func HandleGetRevision(store core.RevisionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		revisionID := chi.URLParam(r, "revisionId")

		revision, err := store.GetRevision(r.Context(), userID, revisionID)
		if err != nil {
			respond.Fail(w, r, err, "Failed to get revision", logrus.Fields{"userID": userID, "revisionID": revisionID})
			return
		}

		render.JSON(w, r, RevisionResponse{Revision: *revision, Template: revision.Data})
	}
}

// HandleRestoreRevision makes a revision the template's current content.
func HandleRestoreRevision(svc *library.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		templateID := chi.URLParam(r, "id")
		revisionID := chi.URLParam(r, "revisionId")

		record, err := svc.Restore(r.Context(), userID, templateID, revisionID)
		if err != nil {
			respond.Fail(w, r, err, "Failed to restore revision", logrus.Fields{
				"userID":     userID,
				"templateID": templateID,
				"revisionID": revisionID,
			})
			return
		}

		render.JSON(w, r, record)
	}
}

// HandleGetSettings returns the revision limit of a template the user owns.
func HandleGetSettings(templates core.TemplateStore, store core.RevisionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		templateID := chi.URLParam(r, "id")
		fields := logrus.Fields{"userID": userID, "templateID": templateID}

		if _, err := templates.Get(r.Context(), userID, templateID); err != nil {
			respond.Fail(w, r, err, "Failed to get template", fields)
			return
		}
		settings, err := store.GetRevisionSettings(r.Context(), userID, templateID)
		if err != nil {
			respond.Fail(w, r, err, "Failed to get revision settings", fields)
			return
		}

		render.JSON(w, r, settings)
	}
}

// HandleUpdateSettings changes the revision limit, pruning older revisions.
func HandleUpdateSettings(templates core.TemplateStore, store core.RevisionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		templateID := chi.URLParam(r, "id")
		fields := logrus.Fields{"userID": userID, "templateID": templateID}

		var req UpdateSettingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithFields(fields).WithField("error", err).Warn("Failed to decode request")
			respond.BadRequest(w, r, "Invalid request body")
			return
		}

		if _, err := templates.Get(r.Context(), userID, templateID); err != nil {
			respond.Fail(w, r, err, "Failed to get template", fields)
			return
		}
		if err := store.UpdateRevisionSettings(r.Context(), userID, templateID, req.MaxRevisions); err != nil {
			respond.Fail(w, r, err, "Failed to update revision settings", fields)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
