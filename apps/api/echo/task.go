package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/lazoapp/lazo/core/relationship"
	"github.com/lazoapp/lazo/core/task"
	"github.com/lazoapp/lazo/core/user"
)

type taskApi struct {
	svc      task.Service
	relSvc   relationship.Service
	usrSvc   user.Service
	validate *validator.Validate
}

func registerTaskAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc task.Service,
	relSvc relationship.Service,
	usrSvc user.Service,
	validate *validator.Validate,
) {
	api := taskApi{svc: svc, relSvc: relSvc, usrSvc: usrSvc, validate: validate}

	g.POST("/relationships/:id/tasks", api.create, jwt)

	tg := g.Group("/tasks", jwt)
	tg.GET("", api.query)
	tg.GET("/:id", api.retrieve)
	tg.PUT("/:id", api.update)
	tg.PUT("/:id/status", api.setStatus)
	tg.DELETE("/:id", api.destroy)
}

// taskOut decorates a Task with its derived overdue flag.
type taskOut struct {
	task.Task
	IsOverdue bool `json:"is_overdue"`
}

func newTaskOut(t task.Task, now time.Time) taskOut {
	return taskOut{Task: t, IsOverdue: t.IsOverdue(now)}
}

// Handlers

func (api *taskApi) create(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.Create(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, newTaskOut(t, time.Now().UTC()))
}

func (api *taskApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	filter := new(task.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []taskOut{})
	}
	// non-admins see their own assignments, or a relationship they may view
	if !ctxUsr.IsAdmin() {
		if filter.RelationshipID == "" {
			filter.AssigneeID = ctxUsr.ID
		} else {
			rel, err := api.relSvc.GetByID(ctx.Request().Context(), filter.RelationshipID)
			if err != nil {
				return errors.Wrap(err, "finding relationship by ID")
			}
			if !canViewRelationship(ctxUsr, rel) {
				return errHttpNotFound
			}
		}
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	tasks, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}

	now := time.Now().UTC()
	out := make([]taskOut, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskOut(t, now))
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *taskApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding task by ID")
	}
	rel, err := api.relSvc.GetByID(ctx.Request().Context(), t.RelationshipID)
	if err != nil {
		return errors.Wrap(err, "finding relationship by ID")
	}
	if !canViewRelationship(ctxUsr, rel) {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, newTaskOut(t, time.Now().UTC()))
}

func (api *taskApi) update(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	orig, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding task by ID")
	}

	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	t, err := api.svc.Update(ctx.Request().Context(), ctxUsr, orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, newTaskOut(t, time.Now().UTC()))
}

func (api *taskApi) setStatus(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data task.SetTaskStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetTaskStatus")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.svc.SetStatus(ctx.Request().Context(), ctxUsr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "setting task status")
	}
	return ctx.JSON(http.StatusOK, newTaskOut(t, time.Now().UTC()))
}

func (api *taskApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctxUsr, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
