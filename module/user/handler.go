package user

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"PingSpace/logger"
	midsec "PingSpace/middleware/security"
	"PingSpace/module/chat/store"
	"PingSpace/module/user/model"
	"PingSpace/tools/errs"
	"PingSpace/tools/ids"
	jwtsec "PingSpace/tools/security"
)

// Handler serves the thin session layer the websocket gateway relies on:
// signup, login, logout and the session check the client calls on load.
type Handler struct {
	users *store.UserStore
	jwt   jwtsec.Options
}

func NewHandler(users *store.UserStore, jwt jwtsec.Options) *Handler {
	return &Handler{users: users, jwt: jwt}
}

type signupReq struct {
	Email    string `json:"email" binding:"required"`
	FullName string `json:"fullName" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	existing, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		logger.Errorf("[auth] signup lookup err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	now := time.Now().UTC()
	u := &model.User{
		ID:        ids.GenerateString(),
		Email:     req.Email,
		FullName:  req.FullName,
		Password:  string(hash),
		Friends:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.users.Insert(c.Request.Context(), u); err != nil {
		logger.Errorf("[auth] signup insert err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}

	if err := h.issueSession(c, u); err != nil {
		logger.Errorf("[auth] signup issue token err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusCreated, u)
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail(err.Error()))
		return
	}
	u, err := h.users.GetByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		logger.Errorf("[auth] login lookup err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusBadRequest, errs.ErrBadRequest.WithDetail("invalid credentials"))
		return
	}

	if err := h.issueSession(c, u); err != nil {
		logger.Errorf("[auth] login issue token err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("jwt", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Check returns the authenticated account; the client calls it on load to
// restore a session.
func (h *Handler) Check(c *gin.Context) {
	userID := midsec.UserID(c)
	u, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		logger.Errorf("[auth] check lookup err=%v", err)
		c.JSON(http.StatusInternalServerError, errs.ErrInternal)
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, errs.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, u)
}

// issueSession attaches the session cookie and header. A failure here means
// the caller authenticated but holds no session; it must surface as a
// request failure, never a silent success.
func (h *Handler) issueSession(c *gin.Context, u *model.User) error {
	token, expireAt, err := jwtsec.Generate(h.jwt, u.ID)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(expireAt).Seconds())
	c.SetCookie("jwt", token, maxAge, "/", "", false, true)
	c.Header("Authorization", "Bearer "+token)
	return nil
}
