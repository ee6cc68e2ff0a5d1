package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListTags(c *gin.Context) {
	userID, _ := currentUserID(c)
	tags, err := s.store.ListTags(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": tags})
}

func (s *Server) handleAutocompleteTags(c *gin.Context) {
	userID, _ := currentUserID(c)
	names, err := s.store.AutocompleteTags(c.Request.Context(), userID,
		c.Query("q"), intQuery(c, "limit", 10))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": names})
}
