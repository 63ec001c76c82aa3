package http

import (
	"net/http"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/rblch/weather-chatbot/internal/domain/chat"
	apperrors "github.com/rblch/weather-chatbot/pkg/errors"
)

// Handler exposes the conversational weather assistant over HTTP.
type Handler struct {
	chatSvc *chat.Service
	logger  *slog.Logger
}

func NewHandler(chatSvc *chat.Service, logger *slog.Logger) *Handler {
	return &Handler{chatSvc: chatSvc, logger: logger}
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

type chatResponse struct {
	Reply  string   `json:"reply"`
	Cities []string `json:"cities"`
}

type sessionResponse struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

type historyResponse struct {
	Messages []chat.Message `json:"messages"`
}

// StartSession creates a fresh conversation session and returns its
// bearer token.
func (h *Handler) StartSession(c *gin.Context) {
	info, err := h.chatSvc.StartSession(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "session_create_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{SessionID: info.SessionID, Token: info.Token})
}

// Chat runs one conversational turn for the authenticated session.
func (h *Handler) Chat(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session", nil))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "message is required", err))
		return
	}

	result, err := h.chatSvc.Chat(c.Request.Context(), session.ID, req.Message)
	if err != nil {
		abortWithError(c, mapChatError(err))
		return
	}

	c.JSON(http.StatusOK, chatResponse{Reply: result.Reply, Cities: result.Cities})
}

// Reset wipes the session transcript and every cached forecast.
func (h *Handler) Reset(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session", nil))
		return
	}

	if err := h.chatSvc.Reset(c.Request.Context(), session.ID); err != nil {
		abortWithError(c, mapChatError(err))
		return
	}

	c.Status(http.StatusNoContent)
}

// History returns the session transcript in chronological order.
func (h *Handler) History(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing session", nil))
		return
	}

	messages, err := h.chatSvc.History(c.Request.Context(), session.ID)
	if err != nil {
		abortWithError(c, mapChatError(err))
		return
	}

	if messages == nil {
		messages = []chat.Message{}
	}
	c.JSON(http.StatusOK, historyResponse{Messages: messages})
}

func mapChatError(err error) *HTTPError {
	switch {
	case apperrors.IsCode(err, "session_not_found"):
		return NewHTTPError(http.StatusNotFound, "session_not_found", errMessage(err), err)
	case apperrors.IsCode(err, "invalid_token"):
		return NewHTTPError(http.StatusUnauthorized, "invalid_token", errMessage(err), err)
	case apperrors.IsCode(err, "composer_failure"):
		return NewHTTPError(http.StatusBadGateway, "composer_failure", errMessage(err), err)
	case apperrors.IsCode(err, "invalid_request"):
		return NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err)
	default:
		return asHTTPError(err)
	}
}
