package handlers

import (
	"errors"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/docintel-backend/internal/http/response"
	"github.com/yungbote/docintel-backend/internal/modules/documents"
	"github.com/yungbote/docintel-backend/internal/platform/ctxutil"
	"github.com/yungbote/docintel-backend/internal/platform/gcp"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
	"github.com/yungbote/docintel-backend/internal/platform/storage"
)

const DefaultMaxUploadBytes = 50 << 20

type FileHandler struct {
	log       *logger.Logger
	documents documents.Usecases
	maxUpload int64
}

// NewFileHandler caps uploads at maxUpload bytes; <= 0 uses DefaultMaxUploadBytes.
func NewFileHandler(log *logger.Logger, uc documents.Usecases, maxUpload int64) *FileHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &FileHandler{log: log.With("handler", "FileHandler"), documents: uc, maxUpload: maxUpload}
}

// POST /api/files
func (h *FileHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RespondError(c, http.StatusRequestEntityTooLarge, "file_too_large", err)
			return
		}
		response.RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file", err)
		return
	}
	defer f.Close()

	row, err := h.documents.Upload(c.Request.Context(), documents.UploadInput{
		UserID:   ctxutil.UserID(c.Request.Context()),
		Filename: filepath.Base(fh.Filename),
		Body:     f,
	})
	if err != nil {
		response.RespondAPIError(c, err, "upload_failed")
		return
	}
	response.RespondCreated(c, gin.H{"file": row})
}

// GET /api/files
func (h *FileHandler) List(c *gin.Context) {
	rows, err := h.documents.ListFiles(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err, "list_files_failed")
		return
	}
	response.RespondOK(c, gin.H{"files": rows})
}

// GET /api/files/:id
func (h *FileHandler) Get(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	row, err := h.documents.GetFile(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id)
	if err != nil {
		response.RespondAPIError(c, err, "load_file_failed")
		return
	}
	response.RespondOK(c, gin.H{"file": row})
}

// GET /api/files/:id/download
func (h *FileHandler) Download(c *gin.Context) {
	h.serve(c, storage.KindUpload)
}

// GET /api/files/:id/highlighted
func (h *FileHandler) Highlighted(c *gin.Context) {
	h.serve(c, storage.KindHighlighted)
}

func (h *FileHandler) serve(c *gin.Context, kind storage.Kind) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	dl, err := h.documents.Open(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id, kind)
	if err != nil {
		response.RespondAPIError(c, err, "open_file_failed")
		return
	}
	defer dl.Body.Close()

	contentType := gcp.ContentTypeForKey(dl.Name)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": dl.Name})
	c.DataFromReader(http.StatusOK, -1, contentType, dl.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}

// DELETE /api/files/:id
func (h *FileHandler) Delete(c *gin.Context) {
	id, ok := fileID(c)
	if !ok {
		return
	}
	if err := h.documents.DeleteFile(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id); err != nil {
		response.RespondAPIError(c, err, "delete_file_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

func fileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_file_id", err)
		return uuid.Nil, false
	}
	return id, true
}
