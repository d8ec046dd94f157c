package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/findmyteacher-api/internal/middleware"
	"github.com/noah-isme/findmyteacher-api/internal/models"
	"github.com/noah-isme/findmyteacher-api/internal/service"
	appErrors "github.com/noah-isme/findmyteacher-api/pkg/errors"
	"github.com/noah-isme/findmyteacher-api/pkg/response"
)

type chatService interface {
	Sidebar(session models.Session, query string) ([]models.SidebarEntry, error)
	Select(session models.Session, chatID string) (string, bool, error)
	Active(session models.Session) (*models.Chat, error)
	Get(session models.Session, chatID string) (*models.Chat, error)
	Send(session models.Session, chatID, text string) (*service.SendOutcome, error)
}

// ChatHandler exposes the current session's conversation threads.
type ChatHandler struct {
	chats chatService
}

// NewChatHandler constructs a chat handler.
func NewChatHandler(chats chatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// Sidebar godoc
// @Summary List conversations
// @Description Threads with at least one message, showing the counterpart of the session role
// @Tags Chats
// @Produce json
// @Security BearerAuth
// @Param q query string false "Case-insensitive match on the counterpart name"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /chats [get]
func (h *ChatHandler) Sidebar(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	start := time.Now()
	entries, err := h.chats.Sidebar(session, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil, middleware.ResponseMeta(c, start))
}

// Active godoc
// @Summary Get the active conversation
// @Tags Chats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /chats/active [get]
func (h *ChatHandler) Active(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	chat, err := h.chats.Active(session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chat, nil)
}

// Select godoc
// @Summary Change the active conversation
// @Description Unknown ids leave the selection unchanged and report selected=false
// @Tags Chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SelectChatRequest true "Chat to activate"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /chats/active [put]
func (h *ChatHandler) Select(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.SelectChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "chatId is required"))
		return
	}
	activeID, selected, err := h.chats.Select(session, req.ChatID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, models.SelectChatResponse{ActiveChatID: activeID, Selected: selected}, nil)
}

// Get godoc
// @Summary Get one conversation
// @Tags Chats
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /chats/{id} [get]
func (h *ChatHandler) Get(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	chat, err := h.chats.Get(session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chat, nil)
}

// Send godoc
// @Summary Send a message
// @Description Appends a message from the session role. Blank text is ignored and answered with 200 and appended=false
// @Tags Chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Chat ID"
// @Param payload body models.SendMessageRequest true "Message text"
// @Success 201 {object} response.Envelope
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /chats/{id}/messages [post]
func (h *ChatHandler) Send(c *gin.Context) {
	session, ok := sessionFromContext(c)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}
	start := time.Now()
	outcome, err := h.chats.Send(session, c.Param("id"), req.Text)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if outcome.Appended {
		status = http.StatusCreated
	}
	middleware.SetMeta(c, "appended", outcome.Appended)
	response.JSON(c, status, outcome, nil, middleware.ResponseMeta(c, start))
}
