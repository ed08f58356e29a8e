package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
)

const (
	icsContentType = "text/calendar; charset=utf-8"

	// default export window when `to` is omitted
	defaultExportWeeks = 16
)

type scheduleApi struct {
	svc      schedule.Service
	validate *validator.Validate
}

func registerScheduleAPI(g *echo.Group, svc schedule.Service, validate *validator.Validate) {
	api := scheduleApi{svc: svc, validate: validate}

	sg := g.Group("/schedule")

	// calendar views
	sg.GET("/day", api.day)
	sg.GET("/week", api.week)
	sg.GET("/conflicts", api.conflicts)
	sg.GET("/export.ics", api.exportICS)

	eg := sg.Group("/entries")
	eg.POST("", api.createEntry)
	eg.GET("", api.queryEntries)
	eg.DELETE("", api.destroyEntries)

	dg := eg.Group("/:id", objectMiddleware(svc.GetEntry))
	dg.GET("", api.retrieveEntry)
	dg.PUT("", api.updateEntry)
	dg.DELETE("", api.destroyEntry)
	dg.POST("/move", api.moveEntry)
	dg.GET("/sessions", api.sessions)

	og := sg.Group("/overrides")
	og.POST("", api.createOverride)
	og.GET("", api.queryOverrides)
	og.DELETE("/:id", api.destroyOverride)
}

// Views

func (api *scheduleApi) bindView(ctx echo.Context) (time.Time, schedule.QueryFilter, error) {
	var filter schedule.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return time.Time{}, filter, errors.Wrap(err, "binding to QueryFilter")
	}
	var date DateParam
	if err := date.Bind(ctx, "date", api.svc.Location()); err != nil {
		return time.Time{}, filter, err
	}
	return date.Date, filter, nil
}

func (api *scheduleApi) day(ctx echo.Context) error {
	date, filter, err := api.bindView(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Day(date, filter))
}

func (api *scheduleApi) week(ctx echo.Context) error {
	date, filter, err := api.bindView(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Week(date, filter))
}

func (api *scheduleApi) conflicts(ctx echo.Context) error {
	var date DateParam
	if err := date.Bind(ctx, "date", api.svc.Location()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, api.svc.Conflicts(date.Date))
}

// bindRange binds the `from` & `to` query params; `from` defaults to today.
func (api *scheduleApi) bindRange(ctx echo.Context) (from, to time.Time, err error) {
	var fromParam, toParam DateParam
	if err = fromParam.Bind(ctx, "from", api.svc.Location()); err != nil {
		return
	}
	from = fromParam.Date
	if ctx.QueryParam("to") == "" {
		to = from.AddDate(0, 0, 7*defaultExportWeeks)
	} else {
		if err = toParam.Bind(ctx, "to", api.svc.Location()); err != nil {
			return
		}
		// inclusive
		to = toParam.Date.AddDate(0, 0, 1).Add(-time.Second)
	}
	if to.Before(from) {
		err = core.NewValidationError(nil, core.FieldError{Field: "to", Error: "to must not be before from"})
	}
	return
}

func (api *scheduleApi) exportICS(ctx echo.Context) error {
	var filter schedule.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	from, to, err := api.bindRange(ctx)
	if err != nil {
		return err
	}

	cal, err := api.svc.ExportICS(filter, from, to)
	if err != nil {
		return errors.Wrap(err, "exporting calendar")
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="timetable.ics"`)
	return ctx.Blob(http.StatusOK, icsContentType, []byte(cal))
}

// Entries

func (api *scheduleApi) createEntry(ctx echo.Context) error {
	var data schedule.NewEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	entry, err := api.svc.CreateEntry(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating entry")
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *scheduleApi) queryEntries(ctx echo.Context) error {
	filter := new(schedule.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Entry{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.QueryEntries(ctx.Request().Context(), *filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying entries")
	}
	if entries == nil {
		entries = []schedule.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *scheduleApi) retrieveEntry(ctx echo.Context) error {
	entry, err := contextObject[schedule.Entry](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *scheduleApi) updateEntry(ctx echo.Context) error {
	entry, err := contextObject[schedule.Entry](ctx)
	if err != nil {
		return err
	}

	var data schedule.UpdateEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEntry")
	}
	if err = data.Validate(entry, api.validate); err != nil {
		return err
	}

	entry, err = api.svc.UpdateEntry(ctx.Request().Context(), entry.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *scheduleApi) moveEntry(ctx echo.Context) error {
	entry, err := contextObject[schedule.Entry](ctx)
	if err != nil {
		return err
	}

	var data schedule.MoveEntry
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveEntry")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	entry, err = api.svc.MoveEntry(ctx.Request().Context(), entry.ID, data)
	if err != nil {
		return errors.Wrap(err, "moving entry")
	}
	return ctx.JSON(http.StatusOK, entry)
}

func (api *scheduleApi) sessions(ctx echo.Context) error {
	entry, err := contextObject[schedule.Entry](ctx)
	if err != nil {
		return err
	}
	from, to, err := api.bindRange(ctx)
	if err != nil {
		return err
	}

	sessions, err := api.svc.Sessions(entry.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "listing sessions")
	}
	if sessions == nil {
		sessions = []schedule.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *scheduleApi) destroyEntry(ctx echo.Context) error {
	entry, err := contextObject[schedule.Entry](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteEntries(ctx.Request().Context(), entry.ID); err != nil {
		return errors.Wrap(err, "deleting entry")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *scheduleApi) destroyEntries(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteEntries(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting entries")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Overrides

func (api *scheduleApi) createOverride(ctx echo.Context) error {
	var data schedule.NewOverride
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOverride")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	override, err := api.svc.CreateOverride(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating override")
	}
	return ctx.JSON(http.StatusCreated, override)
}

func (api *scheduleApi) queryOverrides(ctx echo.Context) error {
	filter := new(schedule.OverrideFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Override{})
	}
	// `date` is a shortcut for a single-day range
	if date := core.CleanString(ctx.QueryParam("date")); date != "" {
		filter.DateFrom, filter.DateTo = date, date
	}

	overrides, err := api.svc.QueryOverrides(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying overrides")
	}
	if overrides == nil {
		overrides = []schedule.Override{}
	}
	return ctx.JSON(http.StatusOK, overrides)
}

func (api *scheduleApi) destroyOverride(ctx echo.Context) error {
	if err := api.svc.DeleteOverride(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting override")
	}
	return ctx.NoContent(http.StatusNoContent)
}
