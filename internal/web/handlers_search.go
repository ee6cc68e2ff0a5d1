package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/papertrail-app/papertrail/internal/search"
	"github.com/papertrail-app/papertrail/internal/telemetry"
)

type searchResponse struct {
	Items    []searchResult `json:"items"`
	Degraded bool           `json:"degraded"`
	TookMs   int64          `json:"took_ms"`
}

type searchResult struct {
	Paper paperResponse `json:"paper"`
	Score float64       `json:"score"`
}

func (s *Server) handleSearch(c *gin.Context) {
	query := c.Query("q")
	opts := search.Options{
		Limit:      intQuery(c, "limit", 0),
		Visibility: visibility(c),
	}

	start := time.Now()
	results, err := s.engine.Search(c.Request.Context(), query, opts)
	if err != nil {
		respondError(c, err)
		return
	}

	if s.metrics != nil {
		s.metrics.Record(telemetry.SearchEvent{
			Query:       query,
			ResultCount: len(results.Items),
			Degraded:    results.Degraded,
			Latency:     time.Since(start),
			Timestamp:   start,
		})
	}

	resp := searchResponse{
		Items:    make([]searchResult, len(results.Items)),
		Degraded: results.Degraded,
		TookMs:   results.Took.Milliseconds(),
	}
	for i, item := range results.Items {
		resp.Items[i] = searchResult{Paper: toPaperResponse(item.Paper), Score: item.Score}
	}
	c.JSON(http.StatusOK, resp)
}
