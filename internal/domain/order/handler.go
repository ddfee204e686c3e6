package order

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/bookd/internal/domain/slot"
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
	api.POST("/doctors/:id/orders", h.CreateForDoctor)
	api.POST("/packs/:id/orders", h.CreateForPack)
	api.GET("/orders/personal", h.ListOwn)
	api.PUT("/orders/:id", h.UpdateOwn)
	api.PUT("/orders/:id/cancel", h.CancelOwn)
	api.GET("/orders/:id/diagnose", h.GetDiagnosis)

	manage := api.Group("", auth.RequireRole("admin", "manager"))
	manage.GET("/orders/:id", h.Get)
	manage.GET("/doctors/:id/orders", h.ListForDoctor)
	manage.GET("/packs/:id/orders", h.ListForPack)
	manage.PUT("/orders/:id/approve", h.Approve)
	manage.PUT("/orders/:id/reject", h.Reject)
	manage.PUT("/orders/:id/complete", h.Complete)
	manage.POST("/orders/:id/diagnose", h.Diagnose)
}

func (h *Handler) CreateForDoctor(c echo.Context) error {
	return h.create(c, slot.OwnerDoctor)
}

func (h *Handler) CreateForPack(c echo.Context) error {
	return h.create(c, slot.OwnerPack)
}

func (h *Handler) create(c echo.Context, kind slot.OwnerKind) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	ownerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.CreateFor(c.Request().Context(), userID, slot.Owner{Kind: kind, ID: ownerID}, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	o, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) ListOwn(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListOwn(c.Request().Context(), userID, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdateOwn(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o, err := h.svc.UpdateOwn(c.Request().Context(), userID, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *Handler) CancelOwn(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.CancelOwn(c.Request().Context(), userID, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Diagnose(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var in DiagnoseInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.Diagnose(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDiagnosis(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetDiagnosisFor(c.Request().Context(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) Approve(c echo.Context) error  { return h.statusAction(c, h.svc.Approve) }
func (h *Handler) Reject(c echo.Context) error   { return h.statusAction(c, h.svc.Reject) }
func (h *Handler) Complete(c echo.Context) error { return h.statusAction(c, h.svc.Complete) }

func (h *Handler) statusAction(c echo.Context, action func(ctx context.Context, id uuid.UUID) error) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := action(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListForDoctor(c echo.Context) error {
	return h.listForOwner(c, slot.OwnerDoctor)
}

func (h *Handler) ListForPack(c echo.Context) error {
	return h.listForOwner(c, slot.OwnerPack)
}

func (h *Handler) listForOwner(c echo.Context, kind slot.OwnerKind) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	pg := pagination.FromContext(c)
	status := Status(c.QueryParam("status"))
	items, total, err := h.svc.ListForOwner(c.Request().Context(), slot.Owner{Kind: kind, ID: id}, status, pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
