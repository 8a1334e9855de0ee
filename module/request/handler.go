package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"PingSpace/logger"
	midsec "PingSpace/middleware/security"
	"PingSpace/module/chat/model"
	"PingSpace/module/chat/service"
	"PingSpace/module/chat/store"
	usermodel "PingSpace/module/user/model"
	wschat "PingSpace/service/chat"
	"PingSpace/tools/errs"
	"PingSpace/tools/ids"
)

// Handler owns the friend-request workflow. Each state change pushes a
// point-to-point event to the one affected peer through the same registry
// lookup the message fan-out uses.
type Handler struct {
	requests *store.RequestStore
	users    *store.UserStore
	pusher   service.Pusher
}

func NewHandler(requests *store.RequestStore, users *store.UserStore, pusher service.Pusher) *Handler {
	return &Handler{requests: requests, users: users, pusher: pusher}
}

type sendReq struct {
	ReceiverID string `json:"receiverId"`
}

// Send serves POST /api/request/send.
func (h *Handler) Send(c *gin.Context) {
	senderID := midsec.UserID(c)
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil || req.ReceiverID == "" {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("receiverId is required"))
		return
	}
	if senderID == req.ReceiverID {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("cannot send request to yourself"))
		return
	}

	ctx := c.Request.Context()
	receiver, err := h.users.Get(ctx, req.ReceiverID)
	if err != nil {
		logger.Errorf("[request] send lookup err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if receiver == nil {
		c.JSON(http.StatusNotFound, errs.ErrNotFound.WithDetail("receiver not found"))
		return
	}

	existing, err := h.requests.FindBetween(ctx, senderID, req.ReceiverID)
	if err != nil {
		logger.Errorf("[request] send duplicate check err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if existing != nil {
		if existing.Status == model.RequestPending {
			c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("request already pending with this user"))
		} else {
			c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("you are already connected with this user"))
		}
		return
	}

	r := &model.Request{
		ID:        ids.GenerateString(),
		SenderID:  senderID,
		Receiver:  req.ReceiverID,
		Status:    model.RequestPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.requests.Insert(ctx, r); err != nil {
		logger.Errorf("[request] send insert err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}

	h.populate(ctx, r)
	h.pusher.PushToUser(r.Receiver, wschat.EventNewRequest, r)
	c.JSON(http.StatusCreated, gin.H{"message": "request sent successfully", "request": r})
}

// Accept serves PUT /api/request/accept/:id. Linking is symmetric: both
// sides gain the other as a friend.
func (h *Handler) Accept(c *gin.Context) {
	receiverID := midsec.UserID(c)
	r, ok := h.loadPending(c, receiverID, false)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.requests.UpdateStatus(ctx, r.ID, model.RequestAccepted); err != nil {
		logger.Errorf("[request] accept update err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if err := h.users.AddFriend(ctx, r.SenderID, r.Receiver); err != nil {
		logger.Errorf("[request] accept link friends err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}

	r.Status = model.RequestAccepted
	h.populate(ctx, r)
	h.pusher.PushToUser(r.SenderID, wschat.EventRequestAccepted, r)
	c.JSON(http.StatusOK, gin.H{"message": "request accepted successfully", "request": r})
}

// Cancel serves DELETE /api/request/cancel/:id, sender side.
func (h *Handler) Cancel(c *gin.Context) {
	senderID := midsec.UserID(c)
	r, ok := h.loadPending(c, senderID, true)
	if !ok {
		return
	}
	if err := h.requests.Delete(c.Request.Context(), r.ID); err != nil {
		logger.Errorf("[request] cancel delete err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	h.pusher.PushToUser(r.Receiver, wschat.EventRequestCanceled,
		gin.H{"requestId": r.ID, "senderId": senderID})
	c.JSON(http.StatusOK, gin.H{"message": "request canceled successfully", "requestId": r.ID})
}

// Reject serves PUT /api/request/reject/:id, receiver side.
func (h *Handler) Reject(c *gin.Context) {
	receiverID := midsec.UserID(c)
	r, ok := h.loadPending(c, receiverID, false)
	if !ok {
		return
	}
	if err := h.requests.UpdateStatus(c.Request.Context(), r.ID, model.RequestRejected); err != nil {
		logger.Errorf("[request] reject update err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	r.Status = model.RequestRejected
	h.pusher.PushToUser(r.SenderID, wschat.EventRequestRejected,
		gin.H{"requestId": r.ID, "receiverId": receiverID})
	c.JSON(http.StatusOK, gin.H{"message": "request rejected successfully", "requestId": r.ID})
}

// RemoveFriend serves DELETE /api/request/friend/:id: unlink both sides
// and tell the removed peer.
func (h *Handler) RemoveFriend(c *gin.Context) {
	userID := midsec.UserID(c)
	friendID := c.Param("id")
	ctx := c.Request.Context()

	u, err := h.users.Get(ctx, userID)
	if err != nil {
		logger.Errorf("[request] remove friend lookup err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if u == nil || !u.HasFriend(friendID) {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("not friends with this user"))
		return
	}
	if err := h.users.RemoveFriend(ctx, userID, friendID); err != nil {
		logger.Errorf("[request] remove friend err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	h.pusher.PushToUser(friendID, wschat.EventFriendRemoved, gin.H{"userId": userID})
	c.JSON(http.StatusOK, gin.H{"message": "friend removed successfully"})
}

// loadPending fetches the request from :id and checks it is pending and
// owned by the caller on the expected side.
func (h *Handler) loadPending(c *gin.Context, callerID string, callerIsSender bool) (*model.Request, bool) {
	r, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		logger.Errorf("[request] load err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return nil, false
	}
	if r == nil {
		c.JSON(http.StatusNotFound, errs.ErrNotFound.WithDetail("request not found"))
		return nil, false
	}
	if r.Status != model.RequestPending {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("request is not pending"))
		return nil, false
	}
	owner := r.Receiver
	if callerIsSender {
		owner = r.SenderID
	}
	if owner != callerID {
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail("you are not a party to this request"))
		return nil, false
	}
	return r, true
}

func (h *Handler) populate(ctx context.Context, r *model.Request) {
	if u, err := h.users.Get(ctx, r.SenderID); err == nil && u != nil {
		r.SenderInfo = snapshot(u)
	}
	if u, err := h.users.Get(ctx, r.Receiver); err == nil && u != nil {
		r.ReceiverInfo = snapshot(u)
	}
}

func snapshot(u *usermodel.User) *model.SenderInfo {
	return &model.SenderInfo{ID: u.ID, FullName: u.FullName, ProfilePic: u.ProfilePic}
}
