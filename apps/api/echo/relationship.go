package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
)

type relationshipApi struct {
	svc      relationship.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerRelationshipAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc relationship.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := relationshipApi{svc: svc, usrSvc: usrSvc, validate: validate}

	rg := g.Group("/relationships", jwt)
	rg.POST("", api.create, adminMiddleware())
	rg.GET("", api.query)
	rg.PUT("/hours/:entryId/confirm", api.confirmHours)

	dg := rg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.POST("/activate", api.activate, adminMiddleware())
	dg.POST("/pause", api.pause, adminMiddleware())
	dg.POST("/end", api.end, adminMiddleware())
	dg.POST("/hours", api.logHours)
	dg.GET("/hours", api.queryHours)
}

// canViewRelationship reports whether the user may see the relationship:
// participants, the sponsoring client and admins.
func canViewRelationship(usr user.User, rel relationship.Relationship) bool {
	return usr.IsAdmin() || rel.IsParticipant(usr.ID) || (usr.IsClient() && rel.ClientID == usr.ID)
}

// Handlers

func (api *relationshipApi) create(ctx echo.Context) error {
	var data relationship.NewRelationship
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRelationship")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rel, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating relationship")
	}
	return ctx.JSON(http.StatusCreated, rel)
}

func (api *relationshipApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(relationship.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []relationship.Relationship{})
	}
	// non-admins only see their own relationships
	switch {
	case ctxUsr.IsAdmin():
	case ctxUsr.IsClient():
		filter.ClientID = ctxUsr.ID
	default:
		filter.ParticipantID = ctxUsr.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rels, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying relationships")
	}
	if rels == nil {
		rels = []relationship.Relationship{}
	}
	return ctx.JSON(http.StatusOK, rels)
}

func (api *relationshipApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rel, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding relationship by ID")
	}
	if !canViewRelationship(ctxUsr, rel) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, rel)
}

func (api *relationshipApi) activate(ctx echo.Context) error {
	rel, err := api.svc.Activate(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "activating relationship")
	}
	return ctx.JSON(http.StatusOK, rel)
}

func (api *relationshipApi) pause(ctx echo.Context) error {
	rel, err := api.svc.Pause(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "pausing relationship")
	}
	return ctx.JSON(http.StatusOK, rel)
}

func (api *relationshipApi) end(ctx echo.Context) error {
	rel, err := api.svc.End(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "ending relationship")
	}
	return ctx.JSON(http.StatusOK, rel)
}

func (api *relationshipApi) logHours(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data relationship.NewHourEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewHourEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.LogHours(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "logging hours")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *relationshipApi) confirmHours(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	entry, err := api.svc.ConfirmHours(ctx.Request().Context(), ctxUsr, ctx.Param("entryId"))
	if err != nil {
		return errors.Wrap(err, "confirming hours")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *relationshipApi) queryHours(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	rel, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding relationship by ID")
	}
	if !canViewRelationship(ctxUsr, rel) {
		return errHttpNotFound
	}

	filter := new(relationship.HoursFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []relationship.HourEntry{})
	}
	filter.RelationshipID = rel.ID
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.QueryHours(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying hours")
	}
	if entries == nil {
		entries = []relationship.HourEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
