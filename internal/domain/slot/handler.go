package slot

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/bookd/internal/domain/grid"
	"github.com/medbook/bookd/internal/platform/auth"
)

const dateLayout = "2006-01-02"

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/time-slots/marks", h.ListMarks)
	api.GET("/time-slots/:id", h.Get)
	api.GET("/doctors/:id/time-slots", h.ListForDoctor)
	api.GET("/doctors/:id/free-slots", h.FreeForDoctor)
	api.GET("/packs/:id/time-slots", h.ListForPack)
	api.GET("/packs/:id/free-slots", h.FreeForPack)

	manage := api.Group("", auth.RequireRole("admin", "manager"))
	manage.POST("/time-slots", h.Create)
	manage.PUT("/time-slots/:id", h.Update)
	manage.PUT("/time-slots/:id/activate", h.Activate)
	manage.DELETE("/time-slots/:id", h.Deactivate)
	manage.GET("/doctors/:id/time-slots/all", h.AllForDoctor)
	manage.GET("/packs/:id/time-slots/all", h.AllForPack)
}

// ListMarks returns the fixed half-hour grid clients build pickers from.
func (h *Handler) ListMarks(c echo.Context) error {
	return c.JSON(http.StatusOK, grid.Marks())
}

func (h *Handler) Create(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sl, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, sl)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sl, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sl)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sl, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sl)
}

func (h *Handler) Activate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Activate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Deactivate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Deactivate(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Public listings show only bookable slots; the /all variants include
// soft-deleted ones for management screens.

func (h *Handler) ListForDoctor(c echo.Context) error {
	return h.list(c, OwnerDoctor, true)
}

func (h *Handler) ListForPack(c echo.Context) error {
	return h.list(c, OwnerPack, true)
}

func (h *Handler) AllForDoctor(c echo.Context) error {
	return h.list(c, OwnerDoctor, false)
}

func (h *Handler) AllForPack(c echo.Context) error {
	return h.list(c, OwnerPack, false)
}

func (h *Handler) list(c echo.Context, kind OwnerKind, activeOnly bool) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	items, err := h.svc.List(c.Request().Context(), Owner{Kind: kind, ID: id}, activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) FreeForDoctor(c echo.Context) error {
	return h.free(c, OwnerDoctor)
}

func (h *Handler) FreeForPack(c echo.Context) error {
	return h.free(c, OwnerPack)
}

func (h *Handler) free(c echo.Context, kind OwnerKind) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	date, err := time.Parse(dateLayout, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
	}
	items, err := h.svc.FreeSlots(c.Request().Context(), Owner{Kind: kind, ID: id}, date)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}
