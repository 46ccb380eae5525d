package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"coffeeshop/internal/forms"
	"coffeeshop/internal/middleware"
	"coffeeshop/internal/models"
)

// POST /api/auth/register
func (h *Handler) Register(c *gin.Context) {
	var form forms.RegisterForm
	if !bindJSON(c, &form) {
		return
	}
	form, err := form.Validate()
	if err != nil {
		h.fail(c, err)
		return
	}
	u, err := shopOf(c).Session.Register(c.Request.Context(), form.Username, form.Email, form.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("👤 account registered", zap.String("email", u.Email))
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

// POST /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	h.login(c, false)
}

// POST /api/auth/admin/login
func (h *Handler) AdminLogin(c *gin.Context) {
	h.login(c, true)
}

func (h *Handler) login(c *gin.Context, admin bool) {
	var form forms.LoginForm
	if !bindJSON(c, &form) {
		return
	}
	form, err := form.Validate()
	if err != nil {
		h.fail(c, err)
		return
	}
	dir := shopOf(c).Session
	var u models.User
	if admin {
		u, err = dir.AdminLogin(c.Request.Context(), form.Email, form.Password)
	} else {
		u, err = dir.Login(c.Request.Context(), form.Email, form.Password)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "is_admin": u.IsAdmin()})
}

// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if err := shopOf(c).Session.Logout(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GET /api/auth/me
func (h *Handler) Me(c *gin.Context) {
	dir := shopOf(c).Session
	u, ok := dir.Current()
	if !ok {
		h.fail(c, models.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "is_admin": dir.IsAdmin()})
}

// PUT /api/auth/profile
func (h *Handler) UpdateProfile(c *gin.Context) {
	var form forms.ProfileForm
	if !bindJSON(c, &form) {
		return
	}
	upd, err := form.Update()
	if err != nil {
		h.fail(c, err)
		return
	}
	u, err := shopOf(c).Session.UpdateProfile(c.Request.Context(), upd)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// POST /api/profile/token issues a bearer token bound to the current
// profile, for clients that cannot hold the cookie.
func (h *Handler) ProfileToken(c *gin.Context) {
	if h.deps.Tokens == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tokens disabled"})
		return
	}
	token, err := h.deps.Tokens.Issue(c.GetString(middleware.ProfileKey))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "profile_id": c.GetString(middleware.ProfileKey)})
}
