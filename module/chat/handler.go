package chat

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"PingSpace/logger"
	midsec "PingSpace/middleware/security"
	"PingSpace/module/chat/service"
	"PingSpace/tools/errs"
)

// Handler exposes the message endpoints: sidebar sync, direct history and
// the direct send path.
type Handler struct {
	svc *service.ChatService
}

func NewHandler(svc *service.ChatService) *Handler {
	return &Handler{svc: svc}
}

// Sidebar serves GET /api/message/users: the unified conversation list
// rebuilt from durable state.
func (h *Handler) Sidebar(c *gin.Context) {
	userID := midsec.UserID(c)
	entries, err := h.svc.BuildSidebar(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("[message] build sidebar user=%s err=%v", userID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// GetMessages serves GET /api/message/chat/:id, the direct history with :id.
func (h *Handler) GetMessages(c *gin.Context) {
	userID := midsec.UserID(c)
	otherID := c.Param("id")
	msgs, err := h.svc.GetDirectMessages(c.Request.Context(), userID, otherID)
	if err != nil {
		logger.Errorf("[message] get messages user=%s other=%s err=%v", userID, otherID, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// SendMessage serves POST /api/message/send/:id. On success the message is
// durable and has been fanned out; a push that found the peer offline is
// not an error.
func (h *Handler) SendMessage(c *gin.Context) {
	userID := midsec.UserID(c)
	receiverID := c.Param("id")

	var in service.Payload
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}

	msg, err := h.svc.SendDirect(c.Request.Context(), userID, receiverID, in)
	if err != nil {
		writeServiceError(c, err, "send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// writeServiceError maps chat service errors onto API responses.
func writeServiceError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
	case errors.Is(err, service.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, errs.ErrNotFound.WithDetail(err.Error()))
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail(err.Error()))
	default:
		logger.Errorf("[message] %s err=%v", op, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
	}
}
