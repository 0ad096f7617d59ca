package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/docintel-backend/internal/http/response"
	"github.com/yungbote/docintel-backend/internal/modules/documents"
	"github.com/yungbote/docintel-backend/internal/platform/ctxutil"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type CategoryHandler struct {
	log       *logger.Logger
	documents documents.Usecases
}

func NewCategoryHandler(log *logger.Logger, uc documents.Usecases) *CategoryHandler {
	return &CategoryHandler{log: log.With("handler", "CategoryHandler"), documents: uc}
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

// POST /api/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	row, err := h.documents.CreateCategory(c.Request.Context(), ctxutil.UserID(c.Request.Context()), req.Name)
	if err != nil {
		response.RespondAPIError(c, err, "create_category_failed")
		return
	}
	response.RespondCreated(c, gin.H{"category": row})
}

// GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	rows, err := h.documents.ListCategories(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
	if err != nil {
		response.RespondAPIError(c, err, "list_categories_failed")
		return
	}
	response.RespondOK(c, gin.H{"categories": rows})
}

// DELETE /api/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_category_id", err)
		return
	}
	if err := h.documents.DeleteCategory(c.Request.Context(), ctxutil.UserID(c.Request.Context()), id); err != nil {
		response.RespondAPIError(c, err, "delete_category_failed")
		return
	}
	c.Status(http.StatusNoContent)
}
