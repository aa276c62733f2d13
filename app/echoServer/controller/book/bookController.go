package book

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Zedts/backend-digital-library/model"
	bsvc "github.com/Zedts/backend-digital-library/service/book"
)

type Controller struct {
	Svc bsvc.Service
	V   *validator.Validate
	Log *slog.Logger
}

func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, bsvc.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": "book not found"})
	case errors.Is(err, bsvc.ErrBadInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid payload"})
	case errors.Is(err, bsvc.ErrBookInUse):
		return c.JSON(http.StatusConflict, echo.Map{"message": "book has open borrowings"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}

func (h *Controller) bind(c echo.Context) (*model.Book, error) {
	var req BookReq
	if err := c.Bind(&req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON")
	}
	if err := h.V.Struct(req); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return &model.Book{
		Title:       req.Title,
		Author:      req.Author,
		Publisher:   req.Publisher,
		PublishYear: req.PublishYear,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}, nil
}

// GET /api/books
func (h *Controller) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	f := bsvc.ListFilter{Page: page, Limit: limit, Search: c.QueryParam("search")}
	if raw := c.QueryParam("category"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid category"})
		}
		f.CategoryID = id
	}

	books, pg, err := h.Svc.List(c.Request().Context(), f)
	if err != nil {
		h.Log.Error("book list", "err", err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": books, "pagination": pg})
}

// GET /api/books/available
func (h *Controller) Available(c echo.Context) error {
	books, err := h.Svc.Available(c.Request().Context())
	if err != nil {
		h.Log.Error("book available", "err", err)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": books})
}

// GET /api/books/:id
func (h *Controller) Detail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.Svc.Detail(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": b})
}

// POST /api/books
func (h *Controller) Create(c echo.Context) error {
	b, err := h.bind(c)
	if err != nil {
		return err
	}
	id, err := h.Svc.Create(c.Request().Context(), b)
	if err != nil {
		h.Log.Error("book create", "err", err)
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"book_id": id})
}

// PUT /api/books/:id
func (h *Controller) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	b, err := h.bind(c)
	if err != nil {
		return err
	}
	b.ID = id
	if err := h.Svc.Update(c.Request().Context(), b); err != nil {
		h.Log.Error("book update", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "updated"})
}

// DELETE /api/books/:id
func (h *Controller) Delete(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
	}
	if err := h.Svc.Delete(c.Request().Context(), id); err != nil {
		h.Log.Error("book delete", "err", err, "id", id)
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "deleted"})
}
