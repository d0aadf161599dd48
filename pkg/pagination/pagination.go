package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit int
}

// FromContext reads ?limit= with DefaultLimit as the fallback.
func FromContext(c echo.Context) Params {
	return FromContextWithDefault(c, DefaultLimit)
}

// FromContextWithDefault reads ?limit=, using def when the parameter is
// missing, malformed or not positive. The result never exceeds MaxLimit.
func FromContextWithDefault(c echo.Context, def int) Params {
	if def <= 0 {
		def = DefaultLimit
	}
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Params{Limit: limit}
}
