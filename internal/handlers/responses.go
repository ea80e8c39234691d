package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, map[string]string{"error": message})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
}

func forbidden(c echo.Context, message string) error {
	return c.JSON(http.StatusForbidden, map[string]string{"error": message})
}

func notFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, map[string]string{"error": message})
}

func conflict(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, map[string]string{"error": message})
}

func serverError(c echo.Context) error {
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// resolveSplitRatio возвращает действующую долю автора в процентах:
// личный расход целиком его, общий — по запрошенной доле, по умолчанию
// пополам.
func resolveSplitRatio(isShared bool, requested *int) (int, bool) {
	if !isShared {
		return 100, true
	}

	ratio := 50
	if requested != nil {
		ratio = *requested
	}
	if ratio < 1 || ratio > 99 {
		return 0, false
	}
	return ratio, true
}

// monthYearParams читает ?month=&year= с дефолтом на текущий месяц.
func monthYearParams(c echo.Context) (int, int, error) {
	now := time.Now()
	month, year := int(now.Month()), now.Year()

	if raw := c.QueryParam("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid month")
		}
		month = parsed
	}

	if raw := c.QueryParam("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 2000 || parsed > 2200 {
			return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "invalid year")
		}
		year = parsed
	}

	return month, year, nil
}
