package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/docintel-backend/internal/http/response"
	"github.com/yungbote/docintel-backend/internal/platform/ctxutil"
)

// headerUserID is set by the fronting gateway after it authenticated the caller.
const headerUserID = "X-User-ID"

// RequireUser resolves the caller from X-User-ID and rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(headerUserID))
		if raw == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", nil)
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid_user_id", err)
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID})
		if td := ctxutil.GetTraceData(ctx); td != nil {
			td.UserID = userID.String()
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
