package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/staff"
)

type staffApi struct {
	svc      staff.Service
	validate *validator.Validate
}

func registerStaffAPI(g *echo.Group, svc staff.Service, validate *validator.Validate) {
	api := staffApi{svc: svc, validate: validate}

	sg := g.Group("/staff")
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.DELETE("", api.destroyMultiple)
	sg.GET("/roles", api.queryRoles)

	// detail endpoints
	dg := sg.Group("/:id", objectMiddleware(svc.GetByID))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

// Handlers

func (api *staffApi) create(ctx echo.Context) error {
	var data staff.NewStaff
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStaff")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	member, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating staff member")
	}
	return ctx.JSON(http.StatusCreated, member)
}

func (api *staffApi) query(ctx echo.Context) error {
	filter := new(staff.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []staff.Staff{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	members, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying staff")
	}
	if members == nil {
		members = []staff.Staff{}
	}
	return ctx.JSON(http.StatusOK, members)
}

func (api *staffApi) retrieve(ctx echo.Context) error {
	member, err := contextObject[staff.Staff](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, member)
}

func (api *staffApi) update(ctx echo.Context) error {
	member, err := contextObject[staff.Staff](ctx)
	if err != nil {
		return err
	}

	var data staff.UpdateStaff
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStaff")
	}
	if err = data.Validate(member, api.validate, api.svc); err != nil {
		return err
	}

	member, err = api.svc.Update(ctx.Request().Context(), member.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating staff member")
	}
	return ctx.JSON(http.StatusOK, member)
}

func (api *staffApi) destroy(ctx echo.Context) error {
	member, err := contextObject[staff.Staff](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), member.ID); err != nil {
		return errors.Wrap(err, "deleting staff member")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting staff members")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *staffApi) queryRoles(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, staff.Roles)
}
