package doctor

import (
	"context"
	"net/http"
	"strconv"

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
	api.GET("/doctors", h.List)
	api.GET("/doctors/:id", h.Get)
	api.GET("/doctors/most-booked", h.MostBooked)
	api.GET("/doctors/most-starred", h.MostStarred)
	api.PUT("/doctors/:id/rate", h.Rate)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/doctors", h.Create)
	admin.PUT("/doctors/:id", h.Update)
	admin.POST("/doctors/:id/activate", h.Activate)
	admin.POST("/doctors/:id/deactivate", h.Deactivate)
}

func (h *Handler) Create(c echo.Context) error {
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	for _, key := range []string{"hospital_id", "department_id", "keyword", "active"} {
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
	var d Doctor
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.Update(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
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

func (h *Handler) Rate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Star float64 `json:"star"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Rate(c.Request().Context(), id, body.Star); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MostBooked(c echo.Context) error {
	return h.topList(c, h.svc.MostBooked)
}

func (h *Handler) MostStarred(c echo.Context) error {
	return h.topList(c, h.svc.MostStarred)
}

func (h *Handler) topList(c echo.Context, list func(ctx context.Context, limit int) ([]*Doctor, error)) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > pagination.MaxLimit {
		limit = 6
	}
	items, err := list(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
