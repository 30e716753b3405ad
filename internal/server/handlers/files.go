package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Zaybrah/sleepless-agent/internal/eventstore"
	derrors "github.com/Zaybrah/sleepless-agent/internal/foundation/errors"
	"github.com/Zaybrah/sleepless-agent/internal/server/responses"
	"github.com/Zaybrah/sleepless-agent/internal/workspace"
)

// FileHandlers serves the sandboxed workspace file endpoints.
type FileHandlers struct {
	files   *workspace.Service
	adapter *derrors.HTTPErrorAdapter
	audit   *eventstore.Recorder
}

// NewFileHandlers wires the file browser endpoints.
func NewFileHandlers(files *workspace.Service, adapter *derrors.HTTPErrorAdapter, audit *eventstore.Recorder) *FileHandlers {
	return &FileHandlers{files: files, adapter: adapter, audit: audit}
}

// pathRequest is the JSON body shared by the mutating file endpoints.
type pathRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (h *FileHandlers) decodePath(r *http.Request) (pathRequest, error) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, derrors.ValidationError("invalid JSON body").Build()
	}
	if req.Path == "" {
		return req, derrors.ValidationError("path parameter required").Build()
	}
	return req, nil
}

// Browse handles GET /api/files/browse. An empty path browses the workspace
// root.
func (h *FileHandlers) Browse(w http.ResponseWriter, r *http.Request) {
	result, err := h.files.Browse(r.URL.Query().Get("path"))
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	if result.Kind == workspace.KindFile {
		_ = writeJSON(w, http.StatusOK, responses.FileInfoResponse{
			Success: true,
			Type:    string(workspace.KindFile),
			Name:    result.Name,
			Path:    result.Path,
			Size:    result.Size,
		})
		return
	}

	_ = writeJSON(w, http.StatusOK, responses.DirectoryListingResponse{
		Success: true,
		Type:    string(workspace.KindDirectory),
		Path:    result.Path,
		Items:   result.Items,
	})
}

// Read handles GET /api/files/read.
func (h *FileHandlers) Read(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		h.adapter.WriteErrorResponse(w, r, derrors.ValidationError("path parameter required").Build())
		return
	}

	content, err := h.files.Read(path)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	_ = writeJSON(w, http.StatusOK, responses.FileContentResponse{
		Success: true,
		Content: content.Content,
		Path:    content.Path,
		Size:    content.Size,
	})
}

// Write handles POST /api/files/write.
func (h *FileHandlers) Write(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodePath(r)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	rel, err := h.files.Write(req.Path, req.Content)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	h.audit.FileWritten(r.Context(), rel)
	_ = writeJSON(w, http.StatusOK, responses.PathResponse{
		Success: true,
		Message: "File saved successfully",
		Path:    rel,
	})
}

// CreateFolder handles POST /api/files/create-folder.
func (h *FileHandlers) CreateFolder(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodePath(r)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	rel, err := h.files.CreateDirectory(req.Path)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	h.audit.FolderCreated(r.Context(), rel)
	_ = writeJSON(w, http.StatusOK, responses.PathResponse{
		Success: true,
		Message: "Folder created successfully",
		Path:    rel,
	})
}

// Delete handles POST /api/files/delete.
func (h *FileHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodePath(r)
	if err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	if err := h.files.Delete(req.Path); err != nil {
		h.adapter.WriteErrorResponse(w, r, err)
		return
	}

	h.audit.FileDeleted(r.Context(), req.Path)
	_ = writeJSON(w, http.StatusOK, responses.OKResponse{
		Success: true,
		Message: "Deleted successfully",
	})
}
