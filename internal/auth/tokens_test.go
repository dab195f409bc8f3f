package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kevinwiwaha/larabench/internal/models"
)

func newTokenService(t *testing.T) *TokenService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))

	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestRequireLoginWithBearerToken(t *testing.T) {
	svc := newTokenService(t)

	token, _, err := svc.SignAccessToken(7)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotUserID uint
	h := svc.RequireLogin(func(c echo.Context) error {
		gotUserID = c.Get("user_id").(uint)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	require.Equal(t, uint(7), gotUserID)
}

func TestRequireLoginMissingToken(t *testing.T) {
	svc := newTokenService(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	h := svc.RequireLogin(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err := h(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequireLoginRejectsWrongSecret(t *testing.T) {
	svc := newTokenService(t)
	other := &TokenService{JWTSecret: []byte("other-secret")}

	token, _, err := other.SignAccessToken(7)
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	c := e.NewContext(req, httptest.NewRecorder())

	h := svc.RequireLogin(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	err = h(c)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestSignRefreshTokenPersists(t *testing.T) {
	svc := newTokenService(t)

	token, exp, err := svc.SignRefreshToken(3)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	var stored models.RefreshToken
	require.NoError(t, svc.DB.Where("token = ?", token).First(&stored).Error)
	require.Equal(t, uint(3), stored.UserID)
	require.False(t, stored.Revoked)
	require.WithinDuration(t, exp, stored.ExpiresAt, time.Second)

	require.NoError(t, svc.RevokeRefresh(token))
	require.NoError(t, svc.DB.Where("token = ?", token).First(&stored).Error)
	require.True(t, stored.Revoked)
}
