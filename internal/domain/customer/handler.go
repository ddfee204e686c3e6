package customer

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/bookd/internal/platform/auth"
	"github.com/medbook/bookd/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/customers/me", h.GetOwn)
	api.POST("/customers/me", h.CreateOwn)
	api.PUT("/customers/me", h.UpdateOwn)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.GET("/customers", h.List)
	admin.GET("/customers/:id", h.Get)
}

func (h *Handler) CreateOwn(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	var cust Customer
	if err := c.Bind(&cust); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cust.UserID = userID
	if err := h.svc.Create(c.Request().Context(), &cust); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, cust)
}

func (h *Handler) GetOwn(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	cust, err := h.svc.GetByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cust)
}

func (h *Handler) UpdateOwn(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	var upd Customer
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	cust, err := h.svc.UpdateOwn(c.Request().Context(), userID, &upd)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cust)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	cust, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cust)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	if kw := c.QueryParam("keyword"); kw != "" {
		params["keyword"] = kw
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
