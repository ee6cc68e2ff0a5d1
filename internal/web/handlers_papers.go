package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	pterrors "github.com/papertrail-app/papertrail/internal/errors"
	"github.com/papertrail-app/papertrail/internal/store"
)

type paperRequest struct {
	Title     string   `json:"title" binding:"required"`
	Authors   string   `json:"authors"`
	ArxivID   string   `json:"arxiv_id"`
	DOI       string   `json:"doi"`
	PaperURL  string   `json:"paper_url"`
	Abstract  string   `json:"abstract"`
	Summary   string   `json:"summary" binding:"required"`
	IsPrivate bool     `json:"is_private"`
	DateRead  string   `json:"date_read"`
	Tags      []string `json:"tags"`
}

func (r *paperRequest) validate() error {
	if r.DateRead != "" {
		if _, err := time.Parse("2006-01-02", r.DateRead); err != nil {
			return pterrors.ValidationError("date_read must be YYYY-MM-DD", err)
		}
	}
	return nil
}

func (r *paperRequest) apply(p *store.Paper) {
	p.Title = r.Title
	p.Authors = r.Authors
	p.ArxivID = r.ArxivID
	p.DOI = r.DOI
	p.PaperURL = r.PaperURL
	p.Abstract = r.Abstract
	p.Summary = r.Summary
	p.IsPrivate = r.IsPrivate
	p.DateRead = r.DateRead
	p.Tags = r.Tags
}

type paperResponse struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Authors          string   `json:"authors"`
	ArxivID          string   `json:"arxiv_id,omitempty"`
	DOI              string   `json:"doi,omitempty"`
	PaperURL         string   `json:"paper_url,omitempty"`
	Abstract         string   `json:"abstract,omitempty"`
	Summary          string   `json:"summary"`
	IsPrivate        bool     `json:"is_private"`
	DateRead         string   `json:"date_read,omitempty"`
	Tags             []string `json:"tags"`
	OwnerUsername    string   `json:"owner_username"`
	OwnerDisplayName string   `json:"owner_display_name"`
	CreatedAt        string   `json:"created_at"`
}

func toPaperResponse(p *store.Paper) paperResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return paperResponse{
		ID:               p.ID,
		Title:            p.Title,
		Authors:          p.Authors,
		ArxivID:          p.ArxivID,
		DOI:              p.DOI,
		PaperURL:         p.PaperURL,
		Abstract:         p.Abstract,
		Summary:          p.Summary,
		IsPrivate:        p.IsPrivate,
		DateRead:         p.DateRead,
		Tags:             tags,
		OwnerUsername:    p.OwnerUsername,
		OwnerDisplayName: p.OwnerDisplayName,
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func paperID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, pterrors.ValidationError("invalid paper id", err)
	}
	return id, nil
}

func (s *Server) handleListPapers(c *gin.Context) {
	filter := store.PaperFilter{
		Tag:    c.Query("tag"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if username := c.Query("user"); username != "" {
		u, err := s.store.GetUserByUsername(c.Request.Context(), username)
		if err != nil {
			respondError(c, err)
			return
		}
		filter.UserID = &u.ID
	}

	papers, total, err := s.store.ListPapers(c.Request.Context(), visibility(c), filter)
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

func (s *Server) handleGetPaper(c *gin.Context) {
	id, err := paperID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	p, err := s.store.GetPaper(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	// A hidden paper and a missing paper answer identically.
	if !visibility(c).Allows(p) {
		respondError(c, pterrors.NotFound("paper not found"))
		return
	}

	c.JSON(http.StatusOK, toPaperResponse(p))
}

func (s *Server) handleCreatePaper(c *gin.Context) {
	var req paperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, pterrors.ValidationError("invalid paper payload", err))
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	userID, _ := currentUserID(c)
	p := &store.Paper{UserID: userID}
	req.apply(p)

	if err := s.store.CreatePaper(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	s.kickWorker()

	created, err := s.store.GetPaper(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaperResponse(created))
}

func (s *Server) handleUpdatePaper(c *gin.Context) {
	id, err := paperID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	existing, err := s.store.GetPaper(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	userID, _ := currentUserID(c)
	if existing.UserID != userID {
		respondError(c, pterrors.NotAuthorized("only the owner can edit a paper"))
		return
	}

	var req paperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, pterrors.ValidationError("invalid paper payload", err))
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}

	req.apply(existing)
	if err := s.store.UpdatePaper(c.Request.Context(), existing); err != nil {
		respondError(c, err)
		return
	}
	s.kickWorker()

	updated, err := s.store.GetPaper(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaperResponse(updated))
}

func (s *Server) handleDeletePaper(c *gin.Context) {
	id, err := paperID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	existing, err := s.store.GetPaper(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	userID, _ := currentUserID(c)
	if existing.UserID != userID {
		respondError(c, pterrors.NotAuthorized("only the owner can delete a paper"))
		return
	}

	if err := s.store.DeletePaper(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) kickWorker() {
	if s.worker != nil {
		s.worker.Kick()
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return fallback
	}
	return v
}
