package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core/schedule"
)

type roomApi struct {
	svc      schedule.Service
	validate *validator.Validate
}

func registerRoomAPI(g *echo.Group, svc schedule.Service, validate *validator.Validate) {
	api := roomApi{svc: svc, validate: validate}

	rg := g.Group("/rooms")
	rg.POST("", api.create)
	rg.GET("", api.query)
	rg.DELETE("", api.destroyMultiple)

	dg := rg.Group("/:id", objectMiddleware(svc.GetRoom))
	dg.GET("", api.retrieve)
	dg.DELETE("", api.destroy)
}

func (api *roomApi) create(ctx echo.Context) error {
	var data schedule.NewRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	room, err := api.svc.CreateRoom(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating room")
	}
	return ctx.JSON(http.StatusCreated, room)
}

func (api *roomApi) query(ctx echo.Context) error {
	filter := new(schedule.RoomFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []schedule.Room{})
	}
	filter.Clean()

	rooms, err := api.svc.QueryRooms(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying rooms")
	}
	if rooms == nil {
		rooms = []schedule.Room{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *roomApi) retrieve(ctx echo.Context) error {
	room, err := contextObject[schedule.Room](ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, room)
}

func (api *roomApi) destroy(ctx echo.Context) error {
	room, err := contextObject[schedule.Room](ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteRooms(ctx.Request().Context(), room.ID); err != nil {
		return errors.Wrap(err, "deleting room")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *roomApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.DeleteRooms(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting rooms")
	}
	return ctx.NoContent(http.StatusNoContent)
}
