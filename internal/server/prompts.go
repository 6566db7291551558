package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type updatePromptRequest struct {
	Body string `json:"body"`
}

func (s *Server) GetPromptTemplate(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))

	body, err := s.promptSvc.Resolve(c.Request.Context(), email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email": strings.ToLower(email),
		"body":  body,
	})
}

func (s *Server) UpdatePromptTemplate(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))

	var req updatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.promptSvc.Update(c.Request.Context(), email, req.Body); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
