package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studydesk/internal/app"
	"studydesk/internal/transport/http/middleware"
	"studydesk/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request payload")
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidPassword), errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusUnauthorized, "Invalid password")
		default:
			response.Error(c, http.StatusInternalServerError, "login failed")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetHeader(middleware.HeaderAuthToken)
	if err := h.authService.Logout(token); err != nil {
		response.Error(c, http.StatusInternalServerError, "logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Status(c *gin.Context) {
	token := c.GetHeader(middleware.HeaderAuthToken)
	ok, err := h.authService.Validate(token)
	c.JSON(http.StatusOK, gin.H{"authenticated": err == nil && ok})
}
