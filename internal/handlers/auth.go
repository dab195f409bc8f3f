package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kevinwiwaha/larabench/internal/auth"
	"github.com/kevinwiwaha/larabench/internal/hash"
	"github.com/kevinwiwaha/larabench/internal/logging"
	"github.com/kevinwiwaha/larabench/internal/models"
	"github.com/kevinwiwaha/larabench/internal/mykafka"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *auth.TokenService
	Producer *mykafka.Producer
}

func createCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" {
		return errorResponse(c, http.StatusBadRequest, "email and password are required")
	}

	var existing models.User
	err := h.DB.Where("email = ?", req.Email).First(&existing).Error
	if err == nil {
		return errorResponse(c, http.StatusConflict, "user already exists")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusBadGateway, "store unavailable")
	}

	passwordHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "could not hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return errorResponse(c, http.StatusBadGateway, "store unavailable")
	}

	h.publish(c, map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "invalid body")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return errorResponse(c, http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return errorResponse(c, http.StatusUnauthorized, "invalid credentials")
	}

	accessToken, accessExp, err := h.Tokens.SignAccessToken(user.ID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "could not create access token")
	}
	refreshToken, refreshExp, err := h.Tokens.SignRefreshToken(user.ID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, "could not create refresh token")
	}

	c.SetCookie(createCookie("accessToken", accessToken, "/", accessExp))
	c.SetCookie(createCookie("refreshToken", refreshToken, "/", refreshExp))

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
		"email":  user.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"access_token":  accessToken,
		"refresh_token": refreshToken,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	refreshCookie, err := c.Cookie("refreshToken")
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, "missing refresh token")
	}

	if err := h.Tokens.RevokeRefresh(refreshCookie.Value); err != nil {
		return errorResponse(c, http.StatusBadGateway, "store unavailable")
	}

	expired := time.Now().Add(-1 * time.Hour)
	c.SetCookie(createCookie("accessToken", "", "/", expired))
	c.SetCookie(createCookie("refreshToken", "", "/", expired))
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicUserEvents, fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish error", "error", err)
	}
}
