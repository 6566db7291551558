package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetCreditBalance(c *gin.Context) {
	email := strings.TrimSpace(c.Param("email"))

	balance, err := s.creditSvc.GetBalance(c.Request.Context(), email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":          strings.ToLower(email),
		"credit_balance": balance,
	})
}
