package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papertrail-app/papertrail/internal/store"
)

// activityWindowDays is how far back the reading heatmap reaches.
const activityWindowDays = 365

func (s *Server) handleGetProfile(c *gin.Context) {
	u, err := s.store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	_, total, err := s.store.ListPapers(c.Request.Context(), visibility(c),
		store.PaperFilter{UserID: &u.ID, Limit: 1})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":        toUserResponse(u),
		"paper_count": total,
		"joined":      u.CreatedAt.UTC().Format("2006-01-02"),
	})
}

func (s *Server) handleUserPapers(c *gin.Context) {
	u, err := s.store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	papers, total, err := s.store.ListPapers(c.Request.Context(), visibility(c), store.PaperFilter{
		UserID: &u.ID,
		Tag:    c.Query("tag"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]paperResponse, len(papers))
	for i, p := range papers {
		items[i] = toPaperResponse(p)
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

func (s *Server) handleActivity(c *gin.Context) {
	u, err := s.store.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -activityWindowDays).Format("2006-01-02")
	activity, err := s.store.ReadingActivity(c.Request.Context(), u.ID, visibility(c), since)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"since": since, "days": activity})
}
