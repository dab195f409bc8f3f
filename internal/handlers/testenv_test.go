package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kevinwiwaha/larabench/internal/auth"
	"github.com/kevinwiwaha/larabench/internal/models"
	"github.com/kevinwiwaha/larabench/internal/service"
)

type testEnv struct {
	T  *testing.T
	E  *echo.Echo
	DB *gorm.DB
	O  *OrderHandler
	P  *ProductHandler
	A  *AuthHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Product{},
		&models.Order{},
	))

	tokens := &auth.TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}

	return &testEnv{
		T:  t,
		E:  echo.New(),
		DB: db,
		O:  &OrderHandler{Svc: &service.OrderService{DB: db}},
		P:  &ProductHandler{Svc: &service.CatalogService{DB: db}},
		A:  &AuthHandler{DB: db, Tokens: tokens},
	}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, cookies ...*http.Cookie) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	return rec, c
}

func (env *testEnv) seedUser() models.User {
	user := models.User{Name: "Test User", Email: "test@example.com", PasswordHash: "x"}
	require.NoError(env.T, env.DB.Create(&user).Error)
	return user
}

func (env *testEnv) seedProduct(price float64, stock int) models.Product {
	product := models.Product{
		SKU:         "sku-" + env.T.Name(),
		Name:        "test_product",
		Description: "test_description",
		Price:       price,
		Stock:       stock,
	}
	require.NoError(env.T, env.DB.Create(&product).Error)
	return product
}
