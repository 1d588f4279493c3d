package rows

import (
	"io"
	"net/http"
	"strings"

	"labelpro/handlers/api/respond"
	"labelpro/layout"
	"labelpro/rows"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const maxUploadBytes = 32 << 20

type ParseResponse struct {
	Columns []string     `json:"columns"`
	Rows    []layout.Row `json:"rows"`
	Count   int          `json:"count"`
}

// HandleParseRows decodes an uploaded data file into rows. The body is
// either a multipart form with a "file" field or the raw file, with the
// format taken from the format query parameter or the file name.
func HandleParseRows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := respond.UserID(w, r)
		if !ok {
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

		var (
			body     io.Reader = r.Body
			filename string
		)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			file, header, err := r.FormFile("file")
			if err != nil {
				logrus.WithFields(logrus.Fields{"error": err, "userID": userID}).Warn("Failed to read upload")
				respond.BadRequest(w, r, "A file field is required")
				return
			}
			defer file.Close()
			body, filename = file, header.Filename
		}

		hint := r.URL.Query().Get("format")
		if hint == "" {
			hint = filename
		}
		format, err := rows.ParseFormat(hint)
		if err != nil {
			respond.Fail(w, r, err, "Unsupported data format", logrus.Fields{"userID": userID, "format": hint})
			return
		}

		parsed, err := rows.Parse(body, format)
		if err != nil {
			respond.Fail(w, r, err, "Failed to parse rows", logrus.Fields{"userID": userID, "format": format})
			return
		}

		logrus.WithFields(logrus.Fields{
			"userID": userID,
			"format": format,
			"rows":   len(parsed),
		}).Info("Rows parsed")
		render.JSON(w, r, ParseResponse{
			Columns: layout.Columns(parsed),
			Rows:    parsed,
			Count:   len(parsed),
		})
	}
}
