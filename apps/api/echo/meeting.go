package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core/meeting"
	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/user"
)

type meetingApi struct {
	svc      meeting.Service
	relSvc   relationship.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerMeetingAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc meeting.Service,
	relSvc relationship.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := meetingApi{svc: svc, relSvc: relSvc, usrSvc: usrSvc, validate: validate}

	g.POST("/relationships/:id/meetings", api.propose, jwt)

	mg := g.Group("/meetings", jwt)
	mg.GET("", api.query)
	mg.GET("/:id", api.retrieve)
	mg.POST("/:id/confirm", api.confirm)
	mg.PUT("/:id/reschedule", api.reschedule)
	mg.POST("/:id/cancel", api.cancel)
	mg.POST("/:id/complete", api.complete)
}

// Handlers

func (api *meetingApi) propose(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data meeting.NewMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeeting")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Propose(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "proposing meeting")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *meetingApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(meeting.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []meeting.Meeting{})
	}
	// non-admins only see meetings of their own relationships
	if !ctxUsr.IsAdmin() {
		filter.ParticipantID = ctxUsr.ID
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	meetings, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying meetings")
	}
	if meetings == nil {
		meetings = []meeting.Meeting{}
	}
	return ctx.JSON(http.StatusOK, meetings)
}

func (api *meetingApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding meeting by ID")
	}
	rel, err := api.relSvc.GetByID(ctx.Request().Context(), m.RelationshipID)
	if err != nil {
		return errors.Wrap(err, "finding relationship by ID")
	}
	if !canViewRelationship(ctxUsr, rel) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *meetingApi) confirm(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.Confirm(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "confirming meeting")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *meetingApi) reschedule(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data meeting.RescheduleMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RescheduleMeeting")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	m, err := api.svc.Reschedule(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "rescheduling meeting")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *meetingApi) cancel(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.Cancel(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "canceling meeting")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *meetingApi) complete(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	m, err := api.svc.Complete(ctx.Request().Context(), ctxUsr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing meeting")
	}
	return ctx.JSON(http.StatusOK, m)
}
