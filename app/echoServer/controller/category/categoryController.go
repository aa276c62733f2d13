package category

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	csvc "github.com/Zedts/backend-digital-library/service/category"
)

type Controller struct {
	Svc csvc.Service
	Log *slog.Logger
}

// GET /api/categories
func (h *Controller) List(c echo.Context) error {
	var (
		out   interface{}
		total int64
		err   error
	)
	if c.QueryParam("with_count") == "true" {
		out, total, err = h.Svc.ListWithBookCount(c.Request().Context())
	} else {
		out, total, err = h.Svc.List(c.Request().Context())
	}
	if err != nil {
		h.Log.Error("category list", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out, "total": total})
}
