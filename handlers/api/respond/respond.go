// Package respond holds the JSON error conventions shared by the API handlers.
package respond

import (
	"errors"
	"net/http"

	"labelpro/core"
	"labelpro/middleware"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

// UserID returns the authenticated user or writes a 401.
func UserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "User claims not found"})
		return "", false
	}
	return userID, true
}

// Fail writes err with the status its type maps to. Server errors are
// logged with fields and reported as msg.
func Fail(w http.ResponseWriter, r *http.Request, err error, msg string, fields logrus.Fields) {
	var (
		verr  *core.ValidationError
		shape *core.DataShapeError
		miss  *core.MissingBindingError
	)
	entry := logrus.WithFields(fields).WithField("error", err)

	switch {
	case errors.As(err, &miss):
		entry.Warn(msg)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]any{"error": miss.Error(), "fields": miss.Fields})
	case errors.As(err, &verr):
		entry.Warn(msg)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, map[string]string{"error": verr.Error(), "field": verr.Field})
	case errors.As(err, &shape):
		entry.Warn(msg)
		BadRequest(w, r, shape.Error())
	case errors.Is(err, core.ErrNotFound):
		entry.Warn(msg)
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, map[string]string{"error": "Not found"})
	default:
		entry.Error(msg)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, map[string]string{"error": msg})
	}
}

func BadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, map[string]string{"error": msg})
}
