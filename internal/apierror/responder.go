package apierror

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/terraconstructs/geoform/internal/validate"
)

type messageBody struct {
	Error string `json:"error"`
}

type fieldsBody struct {
	Errors *validate.Errors `json:"errors"`
}

// Responder renders errors as JSON bodies with a single "error" or "errors" key.
type Responder struct {
	log logrus.FieldLogger
}

// NewResponder returns a responder logging through log.
func NewResponder(log logrus.FieldLogger) *Responder {
	return &Responder{log: log}
}

// Write logs err at debug level and writes its response.
func (rs *Responder) Write(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := From(err)
	status := apiErr.Status()

	entry := rs.log.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
		"kind":   apiErr.Kind.String(),
	})
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		entry = entry.WithField("request_id", reqID)
	}
	entry.WithError(err).Debug("request rejected")
	if apiErr.Kind == KindInternalServerError {
		entry.WithError(err).Error("internal server error")
	}

	var body interface{}
	if apiErr.Kind == KindUnprocessableEntity {
		body = fieldsBody{Errors: apiErr.Fields}
	} else {
		body = messageBody{Error: apiErr.Message}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		entry.WithError(encErr).Warn("failed to encode error response")
	}
}
