package echoServer

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Zedts/backend-digital-library/app/echoServer/controller/auth"
	"github.com/Zedts/backend-digital-library/app/echoServer/controller/book"
	"github.com/Zedts/backend-digital-library/app/echoServer/controller/borrowing"
	"github.com/Zedts/backend-digital-library/app/echoServer/controller/category"
	"github.com/Zedts/backend-digital-library/app/echoServer/controller/dashboard"
	"github.com/Zedts/backend-digital-library/app/echoServer/controller/registration"
)

type C struct {
	Auth         *auth.Controller
	Book         *book.Controller
	Borrowing    *borrowing.Controller
	Category     *category.Controller
	Dashboard    *dashboard.Controller
	Registration *registration.Controller
	JWTSecret    string
}

func Register(e *echo.Echo, c C) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public
	pub := e.Group("/api")
	pub.POST("/auth/login", c.Auth.Login)
	pub.POST("/auth/register", c.Auth.Register)

	// Auth
	api := e.Group("/api")
	api.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(c echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	api.Use(ExtractIdentity())

	admin := AdminOnly()

	// Books
	api.GET("/books", c.Book.List)
	api.GET("/books/available", c.Book.Available)
	api.GET("/books/:id", c.Book.Detail)
	api.POST("/books", c.Book.Create, admin)
	api.PUT("/books/:id", c.Book.Update, admin)
	api.DELETE("/books/:id", c.Book.Delete, admin)

	// Categories
	api.GET("/categories", c.Category.List)

	// Borrowings
	api.GET("/borrowings", c.Borrowing.List)
	api.GET("/borrowings/stats", c.Dashboard.BorrowingStats, admin)
	api.GET("/borrowings/:id", c.Borrowing.Detail)
	api.POST("/borrowings", c.Borrowing.Create)
	api.PUT("/borrowings/:id/approve", c.Borrowing.Approve, admin)
	api.PUT("/borrowings/:id/extend", c.Borrowing.Extend, admin)
	api.PUT("/borrowings/:id/return-request", c.Borrowing.RequestReturn)
	api.PUT("/borrowings/:id/return", c.Borrowing.ApproveReturn, admin)
	api.PUT("/borrowings/:id/reject-return", c.Borrowing.RejectReturn, admin)
	api.DELETE("/borrowings/:id", c.Borrowing.Delete, admin)

	// Registrations
	api.GET("/registrations/pending", c.Registration.ListPending, admin)
	api.PUT("/registrations/:id/approve", c.Registration.Approve, admin)
	api.PUT("/registrations/:id/reject", c.Registration.Reject, admin)

	// Dashboards
	api.GET("/dashboard/admin", c.Dashboard.Admin, admin)
	api.GET("/dashboard/user/:userId", c.Dashboard.User)
}
