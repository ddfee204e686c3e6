package account

import (
	"net/http"

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
	api.POST("/register", h.Register)
	api.GET("/activate", h.Activate)
	api.POST("/authenticate", h.Authenticate)
	api.GET("/account", h.GetOwn)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, u)
}

func (h *Handler) Activate(c echo.Context) error {
	if err := h.svc.Activate(c.Request().Context(), c.QueryParam("key")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Authenticate(c echo.Context) error {
	var in struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	token, err := h.svc.Authenticate(c.Request().Context(), in.Login, in.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"id_token": token})
}

func (h *Handler) GetOwn(c echo.Context) error {
	userID, err := auth.UserUUIDFromContext(c.Request().Context())
	if err != nil {
		return err
	}
	u, err := h.svc.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
