package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/findmyteacher-api/internal/models"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/response"
)

type sessionService interface {
	Start(ctx context.Context, req models.StartSessionRequest) (*models.StartSessionResponse, error)
	End(sessionID string)
}

// SessionHandler issues and ends viewer sessions.
type SessionHandler struct {
	sessions sessionService
}

// NewSessionHandler constructs a session handler.
func NewSessionHandler(sessions sessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Start godoc
// @Summary Start a viewer session
// @Description Opens an in-memory chat session acting as a student or a teacher
// @Tags Sessions
// @Accept json
// @Produce json
// @Param payload body models.StartSessionRequest true "Viewer role"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /sessions [post]
func (h *SessionHandler) Start(c *gin.Context) {
	var req models.StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}

	res, err := h.sessions.Start(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, res)
}

// Current godoc
// @Summary Describe the current session
// @Tags Sessions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /sessions/current [get]
func (h *SessionHandler) Current(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// End godoc
// @Summary End the current session
// @Description Discards the session and every message sent during it
// @Tags Sessions
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} response.Envelope
// @Router /sessions/current [delete]
func (h *SessionHandler) End(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	h.sessions.End(session.ID)
	response.NoContent(c)
}
