package web

import (
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/papertrail-app/papertrail/internal/auth"
	pterrors "github.com/papertrail-app/papertrail/internal/errors"
	"github.com/papertrail-app/papertrail/internal/store"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]{2,32}$`)

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
}

func toUserResponse(u *store.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, DisplayName: u.DisplayName, Bio: u.Bio}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, pterrors.ValidationError("invalid registration payload", err))
		return
	}
	if !usernamePattern.MatchString(req.Username) {
		respondError(c, pterrors.ValidationError(
			"username must be 2-32 characters of a-z, 0-9, _ or -", nil))
		return
	}
	if len(req.Password) < 8 {
		respondError(c, pterrors.ValidationError("password must be at least 8 characters", nil))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	u := &store.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		PasswordHash: hash,
	}
	if u.DisplayName == "" {
		u.DisplayName = u.Username
	}

	if err := s.store.CreateUser(c.Request.Context(), u); err != nil {
		respondError(c, err)
		return
	}

	if err := s.issueSession(c, u); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(u))
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, pterrors.ValidationError("invalid login payload", err))
		return
	}

	u, err := s.store.GetUserByUsername(c.Request.Context(), req.Username)
	if err != nil || !auth.VerifyPassword(req.Password, u.PasswordHash) {
		// Same response for unknown user and wrong password.
		respondError(c, pterrors.NotAuthorized("invalid username or password"))
		return
	}

	if err := s.issueSession(c, u); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) handleLogout(c *gin.Context) {
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (s *Server) handleMe(c *gin.Context) {
	userID, _ := currentUserID(c)
	u, err := s.store.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (s *Server) issueSession(c *gin.Context, u *store.User) error {
	token, err := s.tokens.Issue(u)
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookie, token, int(s.tokens.TTL().Seconds()), "/", "", false, true)
	return nil
}
