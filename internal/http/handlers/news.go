package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/docintel-backend/internal/http/response"
	"github.com/yungbote/docintel-backend/internal/modules/news"
	"github.com/yungbote/docintel-backend/internal/platform/ctxutil"
	"github.com/yungbote/docintel-backend/internal/platform/logger"
)

type NewsHandler struct {
	log  *logger.Logger
	feed *news.Feed
}

func NewNewsHandler(log *logger.Logger, feed *news.Feed) *NewsHandler {
	return &NewsHandler{log: log.With("handler", "NewsHandler"), feed: feed}
}

// GET /api/news?page=N&categories=a,b&unseen=true
func (h *NewsHandler) List(c *gin.Context) {
	page := 1
	if raw := strings.TrimSpace(c.Query("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_page", err)
			return
		}
		page = n
	}
	var categories []string
	for _, v := range c.QueryArray("categories") {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				categories = append(categories, part)
			}
		}
	}
	unseen, _ := strconv.ParseBool(c.Query("unseen"))

	response.RespondOK(c, h.feed.Page(news.Query{
		UserID:     ctxutil.UserID(c.Request.Context()).String(),
		Page:       page,
		Categories: categories,
		Unseen:     unseen,
	}))
}

// POST /api/news/reset-history
func (h *NewsHandler) ResetHistory(c *gin.Context) {
	h.feed.ResetHistory(ctxutil.UserID(c.Request.Context()).String())
	response.RespondOK(c, gin.H{"message": "News history reset successfully"})
}
