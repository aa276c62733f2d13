package registration

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	regsvc "github.com/Zedts/backend-digital-library/service/registration"
)

type Controller struct {
	Svc regsvc.Service
	Log *slog.Logger
}

func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, regsvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "registration not found"})
	case errors.Is(err, regsvc.ErrNotPending):
		return c.JSON(http.StatusConflict, echo.Map{"message": "registration already decided"})
	case errors.Is(err, regsvc.ErrEmailTaken):
		return c.JSON(http.StatusConflict, echo.Map{"message": "email already registered"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

// GET /api/registrations/pending
func (h *Controller) ListPending(c echo.Context) error {
	regs, err := h.Svc.ListPending(c.Request().Context())
	if err != nil {
		h.Log.Error("registration list", "err", err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": regs})
}

// PUT /api/registrations/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Approve(c.Request().Context(), id); err != nil {
		h.Log.Error("registration approve", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "approved"})
}

// PUT /api/registrations/:id/reject
func (h *Controller) Reject(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Reject(c.Request().Context(), id); err != nil {
		h.Log.Error("registration reject", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "rejected"})
}
