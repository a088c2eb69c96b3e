package web

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/yuin/goldmark"

	"github.com/hpungsan/satchel/internal/errors"
)

// markdown is the shared renderer for artifact previews.
var markdown = goldmark.New()

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details,omitempty"`
	} `json:"error"`
}

// writeError maps a structured error onto its HTTP status and JSON body.
// Unstructured errors become opaque 500s.
func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	status := http.StatusInternalServerError
	body.Error.Code = string(errors.ErrInternal)
	body.Error.Message = "internal error"

	if sErr, ok := err.(*errors.SatchelError); ok {
		status = sErr.Status
		body.Error.Code = string(sErr.Code)
		body.Error.Message = sErr.Message
		body.Error.Details = sErr.Details
	}

	writeJSON(w, status, body)
}

// renderMarkdown converts markdown source to HTML for the preview endpoint.
func renderMarkdown(source string) ([]byte, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}
