package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/ratiba/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// DateParam is a YYYY-MM-DD query parameter, defaulting to today.
type DateParam struct {
	Date time.Time
}

func (dp *DateParam) Bind(ctx echo.Context, param string, loc *time.Location) error {
	val := ctx.QueryParam(param)
	if val == "" {
		dp.Date = time.Now().In(loc)
		return nil
	}
	date, err := core.ParseDate(val, loc)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: param, Error: param + " must be a valid date (YYYY-MM-DD)"})
	}
	dp.Date = date
	return nil
}

type (
	DestroyMultipleRequest struct {
		IDs []string `query:"id"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}
)
