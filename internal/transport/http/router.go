package httpserver

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kevinwiwaha/larabench/internal/auth"
	"github.com/kevinwiwaha/larabench/internal/handlers"
)

type Deps struct {
	DB             *gorm.DB
	OrderHandler   *handlers.OrderHandler
	ProductHandler *handlers.ProductHandler
	AuthHandler    *handlers.AuthHandler
	SearchHandler  *handlers.SearchHandler
	Tokens         *auth.TokenService
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			return c.NoContent(503)
		}
		return c.NoContent(200)
	})

	v1 := e.Group("/api/v1")

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)

	v1.POST("/orders", d.OrderHandler.PlaceOrder)

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	admin := v1.Group("/admin", d.Tokens.RequireLogin)
	admin.POST("/products", d.ProductHandler.CreateProduct)
	admin.PATCH("/products/:id", d.ProductHandler.PatchProduct)
	admin.DELETE("/products/:id", d.ProductHandler.DeleteProduct)
}
