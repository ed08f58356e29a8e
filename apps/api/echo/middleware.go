package echoapi

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
)

const ctxObjectKey = "object"

// objectMiddleware loads the object identified by the `:id` path param and stores it in the context.
func objectMiddleware[T any](get func(ctx context.Context, id string) (T, error)) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			obj, err := get(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if core.IsNotFound(err) {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding object by ID")
			}
			ctx.Set(ctxObjectKey, obj)
			return next(ctx)
		}
	}
}

func contextObject[T any](ctx echo.Context) (T, error) {
	obj, ok := ctx.Get(ctxObjectKey).(T)
	if !ok {
		return obj, errors.Wrap(errObjNotFoundCtx, "retrieving object from context")
	}
	return obj, nil
}
