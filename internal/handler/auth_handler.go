package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"focustimer/internal/model"
	"focustimer/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authUser is the wire shape of an account. Tier drives the client's
// feature gate, so it is always part of the envelope.
type authUser struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Tier  model.Tier `json:"tier"`
}

type authResponse struct {
	Token string   `json:"token"`
	User  authUser `json:"user"`
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	result, apiErr := h.authService.Register(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_json", "message": "invalid request body"},
		})
		return
	}

	result, apiErr := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(result))
}

func newAuthResponse(result *service.AuthResult) authResponse {
	return authResponse{
		Token: result.Token,
		User: authUser{
			ID:    result.User.ID,
			Email: result.User.Email,
			Tier:  result.User.Tier,
		},
	}
}
