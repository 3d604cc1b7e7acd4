// handlers/auth_handlers.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"nearme/api/logger"
	"nearme/api/middleware"
	"nearme/api/models"
	"nearme/api/store"
	"nearme/api/utils"
)

// UserRepository is the account storage the auth handlers need.
type UserRepository interface {
	CreateUser(ctx context.Context, email string, hashedPassword []byte, businessID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type AuthHandlers struct {
	Users UserRepository
}

func NewAuthHandlers(users UserRepository) *AuthHandlers {
	return &AuthHandlers{Users: users}
}

// Signup registers a business owner account.
func (h *AuthHandlers) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Invalid request body", ErrorDetail{Message: err.Error()})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", zap.Error(err))
		SendInternalError(c, "signup")
		return
	}

	user, err := h.Users.CreateUser(c.Request.Context(), req.Email, hashedPassword, req.BusinessID)
	if err != nil {
		if errors.Is(err, store.ErrUserExists) {
			SendError(c, http.StatusConflict, ErrorCodeConflict, "User with this email already exists")
			return
		}
		logger.Error("failed to create user", zap.Error(err))
		SendInternalError(c, "signup")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     "User registered successfully",
		"user_email":  user.Email,
		"business_id": user.BusinessID,
	})
}

// Login handles owner authentication and JWT token creation.
func (h *AuthHandlers) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Invalid request body", ErrorDetail{Message: err.Error()})
		return
	}

	user, err := h.Users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, store.ErrUserNotFound) {
			logger.Error("failed to load user", zap.Error(err))
		}
		SendError(c, http.StatusUnauthorized, ErrorCodeUnauthorized, "Invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(req.Password)); err != nil {
		SendError(c, http.StatusUnauthorized, ErrorCodeUnauthorized, "Invalid credentials")
		return
	}

	tokenString, err := utils.GenerateJWT(user)
	if err != nil {
		logger.Error("failed to generate JWT", zap.Int("user_id", user.ID), zap.Error(err))
		SendInternalError(c, "login")
		return
	}

	c.SetCookie(
		"jwt_token",
		tokenString,
		int(utils.TokenTTL.Seconds()),
		"/",
		"",
		false,
		true,
	)

	logger.Info("user logged in", zap.Int("user_id", user.ID), zap.String("business_id", user.BusinessID))
	c.JSON(http.StatusOK, gin.H{
		"message":     "Login successful",
		"user_email":  user.Email,
		"business_id": user.BusinessID,
	})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	c.SetCookie("jwt_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Profile echoes the authenticated owner's identity.
func (h *AuthHandlers) Profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"user_id":     c.GetInt(middleware.ContextUserID),
		"user_email":  c.GetString(middleware.ContextUserEmail),
		"business_id": c.GetString(middleware.ContextBusinessID),
		"ip_address":  c.ClientIP(),
	})
}
