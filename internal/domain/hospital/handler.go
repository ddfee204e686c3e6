package hospital

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
	api.GET("/hospitals", h.List)
	api.GET("/hospitals/:id", h.Get)
	api.GET("/hospitals/:id/departments", h.ListDepartments)
	api.GET("/departments/:id", h.GetDepartment)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/hospitals", h.Create)
	admin.PUT("/hospitals/:id", h.Update)
	admin.POST("/hospitals/:id/activate", h.Activate)
	admin.POST("/hospitals/:id/deactivate", h.Deactivate)
	admin.POST("/hospitals/:id/departments", h.CreateDepartment)
	admin.PUT("/departments/:id", h.UpdateDepartment)
	admin.POST("/departments/:id/activate", h.ActivateDepartment)
	admin.POST("/departments/:id/deactivate", h.DeactivateDepartment)
}

func (h *Handler) Create(c echo.Context) error {
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), &hosp); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, hosp)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hosp, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{}
	if kw := c.QueryParam("keyword"); kw != "" {
		params["keyword"] = kw
	}
	if active := c.QueryParam("active"); active != "" {
		params["active"] = active
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
	var hosp Hospital
	if err := c.Bind(&hosp); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hosp.ID = id
	if err := h.svc.Update(c.Request().Context(), &hosp); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hosp)
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

// -- Department Handlers --

func (h *Handler) CreateDepartment(c echo.Context) error {
	hospID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Department
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.HospitalID = hospID
	if err := h.svc.CreateDepartment(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDepartment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDepartment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDepartments(c echo.Context) error {
	hospID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDepartments(c.Request().Context(), hospID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var d Department
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDepartment(c.Request().Context(), &d); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ActivateDepartment(c echo.Context) error   { return h.setDepartmentActive(c, true) }
func (h *Handler) DeactivateDepartment(c echo.Context) error { return h.setDepartmentActive(c, false) }

func (h *Handler) setDepartmentActive(c echo.Context, active bool) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.SetDepartmentActive(c.Request().Context(), id, active); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
