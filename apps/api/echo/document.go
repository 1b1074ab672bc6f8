package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core/document"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
)

type documentApi struct {
	svc    document.Service
	relSvc relationship.Service
	usrSvc user.Service
}

func registerDocumentAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc document.Service,
	relSvc relationship.Service,
	usrSvc user.Service,
) {
	api := documentApi{svc: svc, relSvc: relSvc, usrSvc: usrSvc}

	g.POST("/relationships/:id/documents", api.upload, jwt)
	g.GET("/relationships/:id/documents", api.query, jwt)

	dg := g.Group("/documents", jwt)
	dg.GET("/:id/download", api.download)
	dg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *documentApi) upload(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "a `file` form field is required")
	}
	f, err := fileHeader.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer func() { _ = f.Close() }()

	doc, err := api.svc.Upload(ctx.Request().Context(), ctxUsr, ctx.Param("id"), document.Upload{
		Name:        fileHeader.Filename,
		ContentType: fileHeader.Header.Get(echo.HeaderContentType),
		Size:        fileHeader.Size,
		Content:     f,
	})
	if err != nil {
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusCreated, doc)
}

func (api *documentApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rel, err := api.relSvc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding relationship by ID")
	}
	if !canViewRelationship(ctxUsr, rel) {
		return errHttpNotFound
	}

	filter := new(document.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []document.Document{})
	}
	filter.RelationshipID = rel.ID
	ordering := new(Ordering)
	ordering.Bind(ctx)

	docs, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying documents")
	}
	if docs == nil {
		docs = []document.Document{}
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *documentApi) download(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	doc, rdr, err := api.svc.Open(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "opening document")
	}
	defer func() { _ = rdr.Close() }()

	rel, err := api.relSvc.GetByID(ctx.Request().Context(), doc.RelationshipID)
	if err != nil {
		return errors.Wrap(err, "finding relationship by ID")
	}
	if !canViewRelationship(ctxUsr, rel) {
		return errHttpNotFound
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+doc.Name+`"`)
	return ctx.Stream(http.StatusOK, doc.ContentType, rdr)
}

func (api *documentApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting document")
	}
	return ctx.NoContent(http.StatusNoContent)
}
