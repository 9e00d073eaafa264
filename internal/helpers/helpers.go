package helpers

import (
	"github.com/labstack/echo/v4"
)

func InputError(e echo.Context, custom *string) error {
	msg := "InvalidRequest"
	if custom != nil {
		msg = *custom
	}
	return genericError(e, 400, msg)
}

func UnauthorizedError(e echo.Context, custom *string) error {
	msg := "Unauthorized"
	if custom != nil {
		msg = *custom
	}
	return genericError(e, 401, msg)
}

func NotFoundError(e echo.Context, custom *string) error {
	msg := "NotFound"
	if custom != nil {
		msg = *custom
	}
	return genericError(e, 404, msg)
}

func ServerError(e echo.Context, suffix *string) error {
	msg := "Internal server error"
	if suffix != nil {
		msg += ". " + *suffix
	}
	return genericError(e, 500, msg)
}

func genericError(e echo.Context, code int, msg string) error {
	return e.JSON(code, map[string]string{
		"error": msg,
	})
}
