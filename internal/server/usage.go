package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	usagedomain "github.com/meddor/scribe/internal/usage/domain"
)

func (s *Server) ListUsage(c *gin.Context) {
	req := usagedomain.ListRequest{
		AccountEmail: strings.TrimSpace(c.Query("account_email")),
	}
	if raw := strings.TrimSpace(c.Query("page_size")); raw != "" {
		pageSize, err := strconv.Atoi(raw)
		if err != nil || pageSize < 0 {
			AbortWithError(c, newValidationError("page_size", "invalid_page_size", "invalid value"))
			return
		}
		req.PageSize = pageSize
	}

	resp, err := s.usageSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
