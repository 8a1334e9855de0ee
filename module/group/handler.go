package group

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"PingSpace/logger"
	midsec "PingSpace/middleware/security"
	"PingSpace/module/chat/model"
	"PingSpace/module/chat/service"
	"PingSpace/module/chat/store"
	"PingSpace/tools/errs"
	"PingSpace/tools/ids"
)

// Handler owns the group lifecycle. Guards enforced here, relied on by the
// conversation resolver: the admin is always a member and a group never
// drops to zero members.
type Handler struct {
	groups *store.GroupStore
	users  *store.UserStore
	svc    *service.ChatService
}

func NewHandler(groups *store.GroupStore, users *store.UserStore, svc *service.ChatService) *Handler {
	return &Handler{groups: groups, users: users, svc: svc}
}

type createReq struct {
	Name       string   `json:"name"`
	MembersID  []string `json:"membersId"`
	GroupImage string   `json:"groupImage"`
}

// Create serves POST /api/group/create. The creator becomes admin and is
// always included in the member set.
func (h *Handler) Create(c *gin.Context) {
	userID := midsec.UserID(c)
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" || req.MembersID == nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("group name and members are required"))
		return
	}
	if len(req.MembersID) < 2 {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(
			"at least 2 other members (excluding the admin) are required to create a group"))
		return
	}

	members := dedup(append(req.MembersID, userID))
	valid, err := h.users.GetMany(c.Request.Context(), members)
	if err != nil {
		logger.Errorf("[group] create validate members err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if len(valid) != len(members) {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("some user IDs are invalid"))
		return
	}

	g := &model.Group{
		ID:         ids.GenerateString(),
		GroupName:  req.Name,
		GroupImage: req.GroupImage,
		Members:    members,
		AdminID:    userID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.groups.Insert(c.Request.Context(), g); err != nil {
		logger.Errorf("[group] create insert err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// Details serves GET /api/group/details/:id, members only.
func (h *Handler) Details(c *gin.Context) {
	userID := midsec.UserID(c)
	g, ok := h.loadGroup(c)
	if !ok {
		return
	}
	if !g.HasMember(userID) {
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail("you are not a member of this group"))
		return
	}
	c.JSON(http.StatusOK, g)
}

// ListMine serves GET /api/group/user/all.
func (h *Handler) ListMine(c *gin.Context) {
	userID := midsec.UserID(c)
	groups, err := h.groups.ListByMember(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("[group] list by member err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, groups)
}

type nameReq struct {
	Name string `json:"name"`
}

// UpdateName serves PUT /api/group/name/:id.
func (h *Handler) UpdateName(c *gin.Context) {
	g, ok := h.loadGroup(c)
	if !ok {
		return
	}
	var req nameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("a valid group name is required"))
		return
	}
	if err := h.groups.UpdateName(c.Request.Context(), g.ID, strings.TrimSpace(req.Name)); err != nil {
		logger.Errorf("[group] update name err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	g.GroupName = strings.TrimSpace(req.Name)
	c.JSON(http.StatusOK, g)
}

type imageReq struct {
	GroupImage string `json:"groupImage"`
}

// UpdateImage serves PUT /api/group/image/:id. The image is a URL already
// uploaded to the object store, same as message attachments.
func (h *Handler) UpdateImage(c *gin.Context) {
	g, ok := h.loadGroup(c)
	if !ok {
		return
	}
	var req imageReq
	if err := c.ShouldBindJSON(&req); err != nil || req.GroupImage == "" {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("groupImage is required"))
		return
	}
	if err := h.groups.UpdateImage(c.Request.Context(), g.ID, req.GroupImage); err != nil {
		logger.Errorf("[group] update image err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	g.GroupImage = req.GroupImage
	c.JSON(http.StatusOK, g)
}

type membersReq struct {
	MemberIDs []string `json:"memberIds"`
}

// AddMembers serves PUT /api/group/add/:id.
func (h *Handler) AddMembers(c *gin.Context) {
	g, ok := h.loadGroup(c)
	if !ok {
		return
	}
	var req membersReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.MemberIDs) == 0 {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("memberIds must be a non-empty array"))
		return
	}
	valid, err := h.users.GetMany(c.Request.Context(), req.MemberIDs)
	if err != nil {
		logger.Errorf("[group] add members validate err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if len(valid) != len(dedup(req.MemberIDs)) {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("some user IDs are invalid"))
		return
	}
	if err := h.groups.AddMembers(c.Request.Context(), g.ID, req.MemberIDs); err != nil {
		logger.Errorf("[group] add members err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	g.Members = dedup(append(g.Members, req.MemberIDs...))
	c.JSON(http.StatusOK, g)
}

// RemoveMembers serves PUT /api/group/remove/:id, admin only. The admin
// cannot be removed and the group must keep at least one member.
func (h *Handler) RemoveMembers(c *gin.Context) {
	userID := midsec.UserID(c)
	g, ok := h.loadGroup(c)
	if !ok {
		return
	}
	if g.AdminID != userID {
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail("only the admin can remove members"))
		return
	}
	var req membersReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.MemberIDs) == 0 {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("members must be a non-empty array"))
		return
	}
	for _, id := range req.MemberIDs {
		if id == userID {
			c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("cannot remove the admin from the group"))
			return
		}
	}

	remove := make(map[string]struct{}, len(req.MemberIDs))
	for _, id := range req.MemberIDs {
		remove[id] = struct{}{}
	}
	kept := g.Members[:0:0]
	for _, m := range g.Members {
		if _, drop := remove[m]; !drop {
			kept = append(kept, m)
		}
	}
	if len(kept) == 0 {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("group must have at least one member"))
		return
	}
	if err := h.groups.SetMembers(c.Request.Context(), g.ID, kept); err != nil {
		logger.Errorf("[group] remove members err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	g.Members = kept
	c.JSON(http.StatusOK, g)
}

// Leave serves PUT /api/group/leave/:id. The admin cannot leave.
func (h *Handler) Leave(c *gin.Context) {
	userID := midsec.UserID(c)
	g, ok := h.loadGroup(c)
	if !ok {
		return
	}
	if !g.HasMember(userID) {
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail("you are not a member of this group"))
		return
	}
	if g.AdminID == userID {
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail("admin cannot leave a group"))
		return
	}
	kept := g.Members[:0:0]
	for _, m := range g.Members {
		if m != userID {
			kept = append(kept, m)
		}
	}
	if err := h.groups.SetMembers(c.Request.Context(), g.ID, kept); err != nil {
		logger.Errorf("[group] leave err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	g.Members = kept
	c.JSON(http.StatusOK, g)
}

// Delete serves DELETE /api/group/delete/:id, admin only.
func (h *Handler) Delete(c *gin.Context) {
	userID := midsec.UserID(c)
	g, ok := h.loadGroup(c)
	if !ok {
		return
	}
	if g.AdminID != userID {
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail("only admin can delete the group"))
		return
	}
	if err := h.groups.Delete(c.Request.Context(), g.ID); err != nil {
		logger.Errorf("[group] delete err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "group deleted successfully"})
}

// Messages serves GET /api/group/message/:id.
func (h *Handler) Messages(c *gin.Context) {
	userID := midsec.UserID(c)
	groupID := c.Param("id")
	msgs, err := h.svc.GetGroupMessages(c.Request.Context(), userID, groupID)
	if err != nil {
		writeServiceError(c, err, "group messages")
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type sendReq struct {
	GroupID string `json:"groupId"`
	Text    string `json:"text"`
	Image   string `json:"image"`
	Video   string `json:"video"`
}

// SendMessage serves POST /api/group/message/send: persist, flip the last
// pointer, fan out to the members connected right now.
func (h *Handler) SendMessage(c *gin.Context) {
	userID := midsec.UserID(c)
	var req sendReq
	if err := c.ShouldBindJSON(&req); err != nil || req.GroupID == "" {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("groupId is required"))
		return
	}
	msg, err := h.svc.SendGroup(c.Request.Context(), userID, req.GroupID,
		service.Payload{Text: req.Text, Image: req.Image, Video: req.Video})
	if err != nil {
		writeServiceError(c, err, "send group message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) loadGroup(c *gin.Context) (*model.Group, bool) {
	g, err := h.groups.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		logger.Errorf("[group] load err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return nil, false
	}
	if g == nil {
		c.JSON(http.StatusNotFound, errs.ErrNotFound.WithDetail("group not found"))
		return nil, false
	}
	return g, true
}

func writeServiceError(c *gin.Context, err error, op string) {
	switch {
	case errors.Is(err, service.ErrEmptyMessage):
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
	case errors.Is(err, service.ErrGroupNotFound):
		c.JSON(http.StatusNotFound, errs.ErrNotFound.WithDetail(err.Error()))
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusForbidden, errs.ErrForbidden.WithDetail(err.Error()))
	default:
		logger.Errorf("[group] %s err=%v", op, err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
	}
}

func dedup(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
