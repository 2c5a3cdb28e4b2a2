package server

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

// envelope wraps every successful response body. Data is omitted when nil.
type envelope struct {
	Data interface{} `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, log logrus.FieldLogger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}
