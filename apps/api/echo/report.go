package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core/report"
	"github.com/lazoapp/lazo/core/user"
)

type reportApi struct {
	svc    report.Service
	usrSvc user.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service, usrSvc user.Service) {
	api := reportApi{svc: svc, usrSvc: usrSvc}

	rg := g.Group("/reports", jwt)
	rg.GET("/impact", api.impact)
	rg.GET("/summary", api.summary)
	rg.GET("/export", api.export)
}

// Handlers

func (api *reportApi) impact(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter report.Filter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []report.Impact{})
	}

	impacts, err := api.svc.Impact(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying impact")
	}
	if impacts == nil {
		impacts = []report.Impact{}
	}
	return ctx.JSON(http.StatusOK, impacts)
}

func (api *reportApi) summary(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter report.Filter
	if err := ctx.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
	}

	summary, err := api.svc.Summary(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "querying summary")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *reportApi) export(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var filter report.Filter
	if err := ctx.Bind(&filter); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid filter")
	}

	buff, filename, err := api.svc.Export(ctx.Request().Context(), ctxUsr, filter)
	if err != nil {
		return errors.Wrap(err, "exporting report")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buff.Bytes())
}
