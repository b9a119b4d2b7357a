package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// pathID parses a positive int32 path parameter
func pathID(c echo.Context, name string) (int32, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 32)
	if err != nil || value < 1 {
		return 0, false
	}
	return int32(value), true
}

// queryID parses a positive int32 query parameter
func queryID(c echo.Context, name string) (int32, bool) {
	value, err := strconv.ParseInt(c.QueryParam(name), 10, 32)
	if err != nil || value < 1 {
		return 0, false
	}
	return int32(value), true
}

// queryInt parses an optional integer query parameter, returning 0 when absent
func queryInt(c echo.Context, name string) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
