package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/tokens"
)

const userContextKey = "current_user"

// Gate authenticates bearer tokens and re-resolves the subject to a live
// user row on every request, so a token for a deleted user stops working.
type Gate struct {
	Repo      *repo.GormRepo
	JWTSecret []byte
}

func NewGate(r *repo.GormRepo, secret []byte) *Gate {
	return &Gate{Repo: r, JWTSecret: secret}
}

func unauthenticated(c echo.Context, detail string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, detail)
}

func (g *Gate) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return unauthenticated(c, "Not authenticated")
		}

		claims, err := tokens.AccessClaimsFromToken(token, g.JWTSecret)
		if err != nil {
			return unauthenticated(c, "Invalid or expired token")
		}

		user, err := g.Repo.FindUserByUsername(c.Request().Context(), claims.Subject)
		if err != nil {
			return unauthenticated(c, "Invalid or expired token")
		}

		c.Set(userContextKey, user)
		return next(c)
	}
}

// RequireAdmin assumes RequireAuth already ran on the group. The 403 carries
// no detail about what was missing.
func (g *Gate) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := CurrentUser(c)
		if user == nil || user.Role != "admin" {
			return echo.NewHTTPError(http.StatusForbidden, "Admins only")
		}
		return next(c)
	}
}

func CurrentUser(c echo.Context) *models.User {
	if u, ok := c.Get(userContextKey).(*models.User); ok {
		return u
	}
	return nil
}
