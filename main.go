// Package main digital library API.
//
// @title           Digital Library API
// @version         1.0
// @description     Library backend (books, borrowings, registrations, dashboards).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Zedts/backend-digital-library/app/echoServer"
	authctrl "github.com/Zedts/backend-digital-library/app/echoServer/controller/auth"
	bookctrl "github.com/Zedts/backend-digital-library/app/echoServer/controller/book"
	borrowctrl "github.com/Zedts/backend-digital-library/app/echoServer/controller/borrowing"
	categoryctrl "github.com/Zedts/backend-digital-library/app/echoServer/controller/category"
	dashctrl "github.com/Zedts/backend-digital-library/app/echoServer/controller/dashboard"
	regctrl "github.com/Zedts/backend-digital-library/app/echoServer/controller/registration"
	"github.com/Zedts/backend-digital-library/app/echoServer/validation"
	"github.com/Zedts/backend-digital-library/config"
	bookrepo "github.com/Zedts/backend-digital-library/repository/book"
	borrowingrepo "github.com/Zedts/backend-digital-library/repository/borrowing"
	categoryrepo "github.com/Zedts/backend-digital-library/repository/category"
	ratingrepo "github.com/Zedts/backend-digital-library/repository/rating"
	registrationrepo "github.com/Zedts/backend-digital-library/repository/registration"
	userrepo "github.com/Zedts/backend-digital-library/repository/user"
	authsvc "github.com/Zedts/backend-digital-library/service/auth"
	booksvc "github.com/Zedts/backend-digital-library/service/book"
	borrowingsvc "github.com/Zedts/backend-digital-library/service/borrowing"
	categorysvc "github.com/Zedts/backend-digital-library/service/category"
	dashboardsvc "github.com/Zedts/backend-digital-library/service/dashboard"
	registrationsvc "github.com/Zedts/backend-digital-library/service/registration"
	"github.com/Zedts/backend-digital-library/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// repos
	br := bookrepo.New(db)
	rr := borrowingrepo.New(db)
	ur := userrepo.New(db)
	cr := categoryrepo.New(db)
	gr := registrationrepo.New(db)
	rtr := ratingrepo.New(db)

	// services
	as := authsvc.New(ur)
	bs := booksvc.New(br)
	ls := borrowingsvc.New(db, rr, br, borrowingsvc.Policy{
		LoanPeriodDays:       cfg.LoanPeriodDays,
		DefaultExtensionDays: cfg.DefaultExtensionDays,
		OpTimeout:            cfg.OpTimeout,
		RetryAttempts:        cfg.RetryAttempts,
	}, log)
	cs := categorysvc.New(cr)
	ds := dashboardsvc.New(rr, br, ur, rtr)
	gs := registrationsvc.New(db, gr, ur)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Auth: as, Regs: gs, Secret: cfg.JWTSecret, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	borrowC := &borrowctrl.Controller{Svc: ls, V: v, Log: log}
	categoryC := &categoryctrl.Controller{Svc: cs, Log: log}
	dashC := &dashctrl.Controller{Svc: ds, Log: log}
	regC := &regctrl.Controller{Svc: gs, Log: log}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	echoServer.Register(e, echoServer.C{
		Auth:         authC,
		Book:         bookC,
		Borrowing:    borrowC,
		Category:     categoryC,
		Dashboard:    dashC,
		Registration: regC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
