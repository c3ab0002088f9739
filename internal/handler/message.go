package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cozyss/snail-herald/internal/models"
	"github.com/cozyss/snail-herald/internal/service"
	"github.com/cozyss/snail-herald/internal/util"

	"github.com/gin-gonic/gin"
)

// MessageHandler serves the letter endpoints.
type MessageHandler struct {
	Scheduler *service.Scheduler
}

func NewMessageHandler(sched *service.Scheduler) *MessageHandler {
	return &MessageHandler{Scheduler: sched}
}

type messageView struct {
	ID             uint      `json:"id"`
	Content        string    `json:"content"`
	Sender         string    `json:"sender"`
	Receiver       string    `json:"receiver"`
	IsRead         bool      `json:"is_read"`
	IsAnnouncement bool      `json:"is_announcement"`
	VisibleAt      time.Time `json:"visible_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func toMessageView(m *models.Message) messageView {
	return messageView{
		ID:             m.ID,
		Content:        m.Content,
		Sender:         m.Sender.Username,
		Receiver:       m.Receiver.Username,
		IsRead:         m.IsRead,
		IsAnnouncement: m.IsAnnouncement,
		VisibleAt:      m.VisibleAt,
		CreatedAt:      m.CreatedAt,
	}
}

type sendMessageReq struct {
	Receiver string `json:"receiver_username" binding:"required"`
	Content  string `json:"content" binding:"required"`
}

// Send schedules a letter for the named receiver. The visibility delay is
// drawn once here and returned so the sender knows when it will surface.
func (h *MessageHandler) Send(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}
	if err := util.ValidateContent(req.Content); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, err.Error())
		return
	}

	msg, err := h.Scheduler.Send(user.ID, req.Receiver, req.Content)
	if err != nil {
		serviceError(c, err)
		return
	}

	util.Success(c, util.Response{
		"id":         msg.ID,
		"visible_at": msg.VisibleAt,
		"created_at": msg.CreatedAt,
	})
}

// List returns both directions of the caller's mailbox. Sent letters are
// never gated; received letters exclude anything still in transit, which is
// reported only as a count.
func (h *MessageHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	sent, received, pending, err := h.Scheduler.ListMessages(user.ID)
	if err != nil {
		serviceError(c, err)
		return
	}

	sentViews := make([]messageView, 0, len(sent))
	for i := range sent {
		sentViews = append(sentViews, toMessageView(&sent[i]))
	}
	receivedViews := make([]messageView, 0, len(received))
	for i := range received {
		receivedViews = append(receivedViews, toMessageView(&received[i]))
	}

	util.Success(c, util.Response{
		"sent_messages":     sentViews,
		"received_messages": receivedViews,
		"pending_count":     pending,
	})
}

func messageIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid message id")
		return 0, false
	}
	return uint(id), true
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := messageIDParam(c)
	if !ok {
		return
	}

	if err := h.Scheduler.MarkRead(user.ID, id); err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "marked as read"})
}

func (h *MessageHandler) MarkAllRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	if err := h.Scheduler.MarkAllRead(user.ID); err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "all visible messages marked as read"})
}

func (h *MessageHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := messageIDParam(c)
	if !ok {
		return
	}

	if err := h.Scheduler.Delete(user.ID, id); err != nil {
		serviceError(c, err)
		return
	}
	util.Success(c, util.Response{"message": "deleted"})
}
