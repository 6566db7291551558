package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	generationdomain "github.com/meddor/scribe/internal/generation/domain"
)

func (s *Server) CreateSummary(c *gin.Context) {
	var req generationdomain.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.generationSvc.Generate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
