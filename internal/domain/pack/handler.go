package pack

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
	api.GET("/packs", h.List)
	api.GET("/packs/:id", h.Get)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/packs", h.Create)
	admin.PUT("/packs/:id", h.Update)
	admin.POST("/packs/:id/activate", h.Activate)
	admin.POST("/packs/:id/deactivate", h.Deactivate)
}

func (h *Handler) Create(c echo.Context) error {
	var p Pack
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"hospital_id", "keyword", "active"} {
		if v := c.QueryParam(key); v != "" {
			params[key] = v
		}
	}
	items, total, err := h.svc.Search(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Pack
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.Update(c.Request().Context(), &p); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Activate(c echo.Context) error   { return h.setActive(c, true) }
func (h *Handler) Deactivate(c echo.Context) error { return h.setActive(c, false) }

func (h *Handler) setActive(c echo.Context, active bool) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.SetActive(c.Request().Context(), id, active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
