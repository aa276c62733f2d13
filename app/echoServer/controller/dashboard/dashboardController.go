package dashboard

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	dsvc "github.com/Zedts/backend-digital-library/service/dashboard"
)

type Controller struct {
	Svc dsvc.Service
	Log *slog.Logger
}

// GET /api/dashboard/admin
func (h *Controller) Admin(c echo.Context) error {
	d, err := h.Svc.AdminDashboard(c.Request().Context())
	if err != nil {
		h.Log.Error("admin dashboard", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": d})
}

// GET /api/dashboard/user/:userId
func (h *Controller) User(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid user id"})
	}

	// users may only read their own dashboard
	uid, _ := c.Get("user_id").(int64)
	role, _ := c.Get("role").(string)
	if role != "admin" && uid != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"message": "forbidden"})
	}

	d, err := h.Svc.UserDashboard(c.Request().Context(), userID)
	if err != nil {
		h.Log.Error("user dashboard", "err", err, "user_id", userID)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": d})
}

// GET /api/borrowings/stats
func (h *Controller) BorrowingStats(c echo.Context) error {
	stats, err := h.Svc.BorrowingStats(c.Request().Context())
	if err != nil {
		h.Log.Error("borrowing stats", "err", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": stats})
}
