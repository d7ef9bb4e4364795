package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/akila/convert-api/models"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error            string   `json:"error"`
	Kind             string   `json:"kind"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status and message derived from err's kind.
func writeError(w http.ResponseWriter, err error, supported ...string) {
	kind := models.KindOf(err)
	writeJSON(w, kind.Status(), ErrorResponse{
		Error:            errorMessage(kind, err),
		Kind:             string(kind),
		SupportedFormats: supported,
	})
}

// errorMessage is what the client sees. Conversion failures read
// "Conversion failed: <cause>"; other kinds carry their own message.
func errorMessage(kind models.Kind, err error) string {
	if kind != models.KindConversionFailed {
		return err.Error()
	}
	cause := err
	var e *models.Error
	if errors.As(err, &e) && e.Err != nil {
		cause = e.Err
	}
	return "Conversion failed: " + cause.Error()
}
