package image

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medbook/bookd/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/images", h.ListByOwner)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/images", h.Upload)
	admin.DELETE("/images/:id", h.Delete)
}

func (h *Handler) Upload(c echo.Context) error {
	ownerID, err := uuid.Parse(c.FormValue("owner_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner_id")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer file.Close()

	img, err := h.svc.Upload(c.Request().Context(), UploadInput{
		OwnerType:   c.FormValue("owner_type"),
		OwnerID:     ownerID,
		Kind:        c.FormValue("kind"),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Body:        file,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, img)
}

func (h *Handler) ListByOwner(c echo.Context) error {
	ownerID, err := uuid.Parse(c.QueryParam("owner_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner_id")
	}
	items, err := h.svc.ListByOwner(c.Request().Context(), c.QueryParam("owner_type"), ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
