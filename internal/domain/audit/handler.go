package audit

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/triagexai/triage/internal/platform/auth"
	"github.com/triagexai/triage/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/audit-logs/:resource_type/:resource_id", h.History)
}

func (h *Handler) History(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, err := h.svc.History(c.Request().Context(), c.Param("resource_type"), c.Param("resource_id"), pg.Limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if items == nil {
		items = []*Entry{}
	}
	return c.JSON(http.StatusOK, items)
}
