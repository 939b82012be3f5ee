package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/sweet_shop/internal/middleware/auth"
)

type Deps struct {
	AuthHandler   *AuthHTTP
	SweetsHandler *SweetsHTTP
	Gate          *authmw.Gate
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"message": "Sweet Shop API is running"})
	})
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	auth := e.Group("/api/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)

	sweets := e.Group("/api/sweets", d.Gate.RequireAuth)
	sweets.GET("", d.SweetsHandler.ListSweets)
	sweets.GET("/search", d.SweetsHandler.SearchSweets)
	sweets.POST("/:id/purchase", d.SweetsHandler.PurchaseSweet)

	admin := sweets.Group("", d.Gate.RequireAdmin)
	admin.POST("", d.SweetsHandler.CreateSweet)
	admin.PATCH("/:id", d.SweetsHandler.PatchSweet)
	admin.DELETE("/:id", d.SweetsHandler.DeleteSweet)
	admin.POST("/:id/restock", d.SweetsHandler.RestockSweet)
}
