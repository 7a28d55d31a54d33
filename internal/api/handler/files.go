package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/workflowai/workflowai/internal/api/middleware"
	"github.com/workflowai/workflowai/internal/api/response"
)

// Uploader is the slice of the integrations client the file endpoint needs.
type Uploader interface {
	UploadFile(ctx context.Context, filename string, r io.Reader) (string, error)
}

// FileHandler proxies uploads to the file-upload integration.
type FileHandler struct {
	uploader Uploader
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(uploader Uploader) *FileHandler {
	return &FileHandler{uploader: uploader}
}

type fileResponse struct {
	FileURL string `json:"fileUrl"`
}

// Upload handles POST /files with a multipart "file" part.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_REQUEST", `A multipart "file" part is required`, requestID)
		return
	}
	defer file.Close()

	url, err := h.uploader.UploadFile(r.Context(), header.Filename, file)
	if err != nil {
		slog.Error("file upload failed", "error", err)
		response.Err(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to upload file", requestID)
		return
	}

	response.Success(w, http.StatusCreated, fileResponse{FileURL: url}, requestID)
}
