package borrowing

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	bs "github.com/Zedts/backend-digital-library/service/borrowing"
)

type Controller struct {
	Svc bs.Service
	V   *validator.Validate
	Log *slog.Logger
}

func fail(c echo.Context, err error) error {
	switch bs.Code(err) {
	case bs.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
	case bs.ErrInvalidQuantity:
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case bs.ErrUnavailable, bs.ErrInsufficientStock, bs.ErrInvalidTransition:
		return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
	case bs.ErrTransient:
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "temporarily unavailable, retry later"})
	case bs.ErrInvariantViolation:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "inventory conflict"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

// POST /api/borrowings
func (h *Controller) Create(c echo.Context) error {
	var req CreateBorrowingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	b, err := h.Svc.Request(c.Request().Context(), uid, req.BookID, req.Quantity, req.Notes)
	if err != nil {
		h.Log.Error("borrowing create", "err", err)
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"data": b})
}

// GET /api/borrowings
func (h *Controller) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	rows, pg, err := h.Svc.List(c.Request().Context(), bs.ListFilter{
		Page:   page,
		Limit:  limit,
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Now:    time.Now(),
	})
	if err != nil {
		h.Log.Error("borrowing list", "err", err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows, "pagination": pg})
}

// GET /api/borrowings/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := pathID(c)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// PUT /api/borrowings/:id/approve
func (h *Controller) Approve(c echo.Context) error {
	id, err := pathID(c)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	uid, _ := c.Get("user_id").(int64)

	b, err := h.Svc.Approve(c.Request().Context(), id, uid)
	if err != nil {
		h.Log.Error("borrowing approve", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// PUT /api/borrowings/:id/extend
func (h *Controller) Extend(c echo.Context) error {
	id, err := pathID(c)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ExtendReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	b, err := h.Svc.Extend(c.Request().Context(), id, req.Days, uid, req.Notes)
	if err != nil {
		h.Log.Error("borrowing extend", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// PUT /api/borrowings/:id/return-request
func (h *Controller) RequestReturn(c echo.Context) error {
	id, err := pathID(c)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ReturnRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}

	b, err := h.Svc.RequestReturn(c.Request().Context(), id, req.Notes)
	if err != nil {
		h.Log.Error("return request", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// PUT /api/borrowings/:id/return
func (h *Controller) ApproveReturn(c echo.Context) error {
	id, err := pathID(c)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req ApproveReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	if err := h.V.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "validation error", "errors": err.Error()})
	}
	uid, _ := c.Get("user_id").(int64)

	b, err := h.Svc.ApproveReturn(c.Request().Context(), id, uid, req.Fine, req.Notes)
	if err != nil {
		h.Log.Error("return approve", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// PUT /api/borrowings/:id/reject-return
func (h *Controller) RejectReturn(c echo.Context) error {
	id, err := pathID(c)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	var req RejectReturnReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid JSON"})
	}
	uid, _ := c.Get("user_id").(int64)

	b, err := h.Svc.RejectReturn(c.Request().Context(), id, uid, req.Notes)
	if err != nil {
		h.Log.Error("return reject", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// DELETE /api/borrowings/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("borrowing delete", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
