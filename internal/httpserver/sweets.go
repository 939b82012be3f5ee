package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/internal/logging"
	authmw "github.com/Skotchmaster/sweet_shop/internal/middleware/auth"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
	"github.com/Skotchmaster/sweet_shop/internal/service"
	"github.com/Skotchmaster/sweet_shop/internal/transport"
	"github.com/Skotchmaster/sweet_shop/internal/util"
)

type SweetsHTTP struct {
	Svc *service.CatalogService
}

func sweetID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id is not a positive integer")
	}
	return uint(id), nil
}

func (h *SweetsHTTP) ListSweets(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.list")

	skip := util.ParseIntDefault(c.QueryParam("skip"), 0)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit)
	skip, limit = util.SkipLimit(skip, limit)

	items, err := h.Svc.ListSweets(ctx, skip, limit)
	if err != nil {
		l.Error("list_sweets_error", "status", 500, "reason", "cannot list sweets", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot list sweets")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *SweetsHTTP) SearchSweets(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.search")

	filter := repo.SweetFilter{
		Name:     c.QueryParam("name"),
		Category: c.QueryParam("category"),
	}
	if raw := c.QueryParam("min_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			l.Warn("search_sweets_error", "status", 400, "reason", "bad min_price", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "min_price is not a number")
		}
		filter.MinPrice = &v
	}
	if raw := c.QueryParam("max_price"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			l.Warn("search_sweets_error", "status", 400, "reason", "bad max_price", "error", err)
			return echo.NewHTTPError(http.StatusBadRequest, "max_price is not a number")
		}
		filter.MaxPrice = &v
	}

	skip := util.ParseIntDefault(c.QueryParam("skip"), 0)
	limit := util.ParseIntDefault(c.QueryParam("limit"), util.DefaultLimit)
	skip, limit = util.SkipLimit(skip, limit)

	items, err := h.Svc.SearchSweets(ctx, filter, skip, limit)
	if err != nil {
		l.Error("search_sweets_error", "status", 500, "reason", "cannot search sweets", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot search sweets")
	}

	return c.JSON(http.StatusOK, items)
}

func (h *SweetsHTTP) CreateSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.create")

	var req transport.CreateSweetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_sweet_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("create_sweet_error", "status", 400, "reason", "validation failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sweet, err := h.Svc.CreateSweet(ctx, req)
	if err != nil {
		if errors.Is(err, repo.ErrSweetExists) {
			l.Warn("create_sweet_error", "status", 400, "reason", "sweet already exists")
			return echo.NewHTTPError(http.StatusBadRequest, "Sweet already exists")
		}
		l.Error("create_sweet_error", "status", 500, "reason", "cannot add sweet to db", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot add sweet to db")
	}

	l.Info("create_sweet_success")
	return c.JSON(http.StatusCreated, sweet)
}

func (h *SweetsHTTP) PatchSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.patch")

	id, err := sweetID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateSweetRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("patch_sweet_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		l.Warn("patch_sweet_error", "status", 400, "reason", "validation failed", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sweet, err := h.Svc.PatchSweet(ctx, id, req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("patch_sweet_error", "status", 404, "reason", "sweet not found")
			return echo.NewHTTPError(http.StatusNotFound, "Sweet not found")
		}
		l.Error("patch_sweet_error", "status", 500, "reason", "cannot update sweet", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot update sweet")
	}

	l.Info("patch_sweet_success")
	return c.JSON(http.StatusOK, sweet)
}

func (h *SweetsHTTP) DeleteSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.delete")

	id, err := sweetID(c)
	if err != nil {
		return err
	}

	if err := h.Svc.DeleteSweet(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("delete_sweet_error", "status", 404, "reason", "sweet not found")
			return echo.NewHTTPError(http.StatusNotFound, "Sweet not found")
		}
		l.Error("delete_sweet_error", "status", 500, "reason", "cannot delete sweet", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot delete sweet")
	}

	l.Info("delete_sweet_success")
	return c.NoContent(http.StatusNoContent)
}

func (h *SweetsHTTP) PurchaseSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.purchase")

	id, err := sweetID(c)
	if err != nil {
		return err
	}

	username := ""
	if user := authmw.CurrentUser(c); user != nil {
		username = user.Username
	}

	sweet, err := h.Svc.PurchaseSweet(ctx, id, username)
	if err != nil {
		if errors.Is(err, repo.ErrUnavailable) {
			l.Warn("purchase_sweet_error", "status", 400, "reason", "sweet not available")
			return echo.NewHTTPError(http.StatusBadRequest, "Sweet not available")
		}
		l.Error("purchase_sweet_error", "status", 500, "reason", "cannot purchase sweet", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot purchase sweet")
	}

	l.Info("purchase_sweet_success", "sweet_id", id)
	return c.JSON(http.StatusOK, sweet)
}

func (h *SweetsHTTP) RestockSweet(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "sweets.restock")

	id, err := sweetID(c)
	if err != nil {
		return err
	}

	// A missing or malformed amount falls through as zero so the positivity
	// check answers before any existence lookup.
	amount := util.ParseIntDefault(c.QueryParam("amount"), 0)

	sweet, err := h.Svc.RestockSweet(ctx, id, amount)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			l.Warn("restock_sweet_error", "status", 400, "reason", "amount must be positive")
			return echo.NewHTTPError(http.StatusBadRequest, "Restock amount must be positive")
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("restock_sweet_error", "status", 404, "reason", "sweet not found")
			return echo.NewHTTPError(http.StatusNotFound, "Sweet not found")
		}
		l.Error("restock_sweet_error", "status", 500, "reason", "cannot restock sweet", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "cannot restock sweet")
	}

	l.Info("restock_sweet_success", "sweet_id", id, "amount", amount)
	return c.JSON(http.StatusOK, sweet)
}
