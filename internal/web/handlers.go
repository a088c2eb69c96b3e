package web

import (
	"encoding/json"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hpungsan/satchel/internal/artifact"
	"github.com/hpungsan/satchel/internal/errors"
	"github.com/hpungsan/satchel/internal/ops"
)

// Handlers contains the HTTP route handlers for the artifact API.
type Handlers struct {
	env  *ops.Env
	auth Authenticator
}

// user authenticates the request, writing the error response itself when
// authentication fails.
func (h *Handlers) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := h.auth.Authenticate(r)
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return userID, true
}

// HandleCreateSession handles POST /v1/sessions.
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	out, err := ops.CreateSession(h.env, ops.CreateSessionInput{UserID: userID, Title: body.Title})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleDeleteSession handles DELETE /v1/sessions/{id}.
func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.DeleteSession(h.env, ops.DeleteSessionInput{
		SessionID: r.PathValue("id"),
		UserID:    userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAddRepository handles POST /v1/sessions/{sid}/artifacts/repository.
func (h *Handlers) HandleAddRepository(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	var body struct {
		URL  string `json:"url"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	out, err := ops.AddRepository(r.Context(), h.env, ops.AddRepositoryInput{
		SessionID: r.PathValue("sid"),
		UserID:    userID,
		URL:       body.URL,
		Name:      body.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// maxUploadBytes bounds multipart upload memory buffering.
const maxUploadBytes = 512 * 1024 * 1024

// HandleUpload handles POST /v1/sessions/{sid}/artifacts/upload. Zip files
// route to archive extraction; everything else ingests as a document.
func (h *Handlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, errors.NewInvalidRequest("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, errors.NewInvalidRequest("failed to read upload"))
		return
	}

	sessionID := r.PathValue("sid")
	name := r.FormValue("name")

	if artifact.TypeForFilename(extOf(header.Filename)) == artifact.TypeZip {
		out, err := ops.UploadArchive(h.env, ops.UploadArchiveInput{
			SessionID: sessionID,
			UserID:    userID,
			Filename:  header.Filename,
			Name:      name,
			Data:      data,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
		return
	}

	out, err := ops.UploadDocument(h.env, ops.UploadDocumentInput{
		SessionID:   sessionID,
		UserID:      userID,
		Filename:    header.Filename,
		Name:        name,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

// HandleGetArtifact handles GET /v1/artifacts/{id}.
func (h *Handlers) HandleGetArtifact(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.GetArtifact(h.env, ops.GetArtifactInput{
		ID:             r.PathValue("id"),
		UserID:         userID,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleListArtifacts handles GET /v1/sessions/{sid}/artifacts.
func (h *Handlers) HandleListArtifacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.ListArtifacts(h.env, ops.ListArtifactsInput{
		SessionID:      r.PathValue("sid"),
		UserID:         userID,
		IncludeDeleted: parseBoolParam(r, "include_deleted"),
		Limit:          parseIntParam(r, "limit", 0),
		Offset:         parseIntParam(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleUpdateArtifact handles PATCH /v1/artifacts/{id}.
func (h *Handlers) HandleUpdateArtifact(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, errors.NewInvalidRequest("invalid JSON body"))
		return
	}

	out, err := ops.UpdateArtifact(h.env, ops.UpdateArtifactInput{
		ID:     r.PathValue("id"),
		UserID: userID,
		Name:   body.Name,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDeleteArtifact handles DELETE /v1/artifacts/{id}.
func (h *Handlers) HandleDeleteArtifact(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.DeleteArtifact(h.env, ops.DeleteArtifactInput{
		ID:     r.PathValue("id"),
		UserID: userID,
		Hard:   parseBoolParam(r, "hard"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleListFiles handles GET /v1/artifacts/{id}/files.
func (h *Handlers) HandleListFiles(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.ListFiles(h.env, ops.ListFilesInput{
		ID:     r.PathValue("id"),
		UserID: userID,
		Limit:  parseIntParam(r, "limit", 0),
		Offset: parseIntParam(r, "offset", 0),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleReadFile handles GET /v1/artifacts/{id}/files/{path...}.
func (h *Handlers) HandleReadFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.ReadFile(h.env, ops.ReadFileInput{
		ID:     r.PathValue("id"),
		UserID: userID,
		Path:   r.PathValue("path"),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleDownload handles GET /v1/artifacts/{id}/download.
func (h *Handlers) HandleDownload(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.Download(h.env, ops.DownloadInput{
		ID:     r.PathValue("id"),
		UserID: userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+out.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

// HandlePreview handles GET /v1/artifacts/{id}/preview. Renders an inline
// text artifact's markdown as HTML.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}

	out, err := ops.GetArtifact(h.env, ops.GetArtifactInput{
		ID:     r.PathValue("id"),
		UserID: userID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	a := out.Artifact
	if a.Type != artifact.TypeText || a.Content == nil {
		writeError(w, errors.NewUnsupportedType("preview is only available for text artifacts"))
		return
	}

	html, err := renderMarkdown(*a.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(html)
}

// extOf returns the lowercase extension of a filename including the dot.
func extOf(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// parseIntParam parses an integer query parameter with a fallback default.
func parseIntParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// parseBoolParam parses a boolean query parameter, defaulting to false.
func parseBoolParam(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}
