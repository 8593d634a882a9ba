// internal/api/auth_handlers.go
// Account registration/login handlers backing the session tokens the
// external interfaces' Authorization header contract describes.

package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tourneysync/internal/accounts"
	"tourneysync/internal/utils"
)

type registerRequest struct {
	UserName    string `json:"user_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// HandleRegister creates an Account and returns its first session token.
func HandleRegister(auth *accounts.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
			return
		}
		if err := utils.ValidatePassword(req.Password); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		req.DisplayName = utils.SanitizeString(req.DisplayName)

		account, session, err := auth.Register(c.Request.Context(), req.UserName, req.Email, req.Password, req.DisplayName)
		if err != nil {
			if err == accounts.ErrEmailAlreadyExists {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register account"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"account": gin.H{"id": account.ID, "user_name": account.UserName, "display_name": account.DisplayName},
			"session": gin.H{"token": session.Token, "active_until": session.ActiveUntil},
		})
	}
}

// HandleLogin verifies credentials and returns a fresh session token.
func HandleLogin(auth *accounts.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request format"})
			return
		}

		account, session, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"account": gin.H{"id": account.ID, "user_name": account.UserName, "display_name": account.DisplayName},
			"session": gin.H{"token": session.Token, "active_until": session.ActiveUntil},
		})
	}
}

// HandleLogout revokes the session token carried in the Authorization header.
func HandleLogout(sessions *accounts.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusOK, gin.H{"message": "logged out"})
			return
		}
		token := header
		if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
			token = parts[1]
		}
		sessions.Revoke(c.Request.Context(), token)
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}
