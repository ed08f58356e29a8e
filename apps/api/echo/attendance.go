package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/attendance"
)

type attendanceApi struct {
	svc      attendance.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, svc attendance.Service, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	ag := g.Group("/attendance")
	ag.POST("", api.log)
	ag.GET("", api.query)
	ag.DELETE("", api.destroyMultiple)
	ag.GET("/summary", api.summary)

	dg := ag.Group("/:id", objectMiddleware(svc.GetByID))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
}

func (api *attendanceApi) log(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	record, err := api.svc.Log(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging attendance")
	}
	return ctx.JSON(http.StatusCreated, record)
}

func (api *attendanceApi) bindFilter(ctx echo.Context) (attendance.QueryFilter, bool) {
	var filter attendance.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return filter, false
	}
	filter.Clean()
	return filter, true
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter, ok := api.bindFilter(ctx)
	if !ok {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	records, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	filter, ok := api.bindFilter(ctx)
	if !ok {
		return ctx.JSON(http.StatusOK, []attendance.Summary{})
	}

	summaries, err := api.svc.Summarize(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	if summaries == nil {
		summaries = []attendance.Summary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	record, err := contextObject[attendance.Record](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, record)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	record, err := contextObject[attendance.Record](ctx)
	if err != nil {
		return err
	}

	var data attendance.UpdateRecord
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err = data.Validate(record, api.validate); err != nil {
		return err
	}

	record, err = api.svc.Update(ctx.Request().Context(), record.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating attendance record")
	}
	return ctx.JSON(http.StatusOK, record)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	record, err := contextObject[attendance.Record](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), record.ID); err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *attendanceApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting attendance records")
	}
	return ctx.NoContent(http.StatusNoContent)
}
