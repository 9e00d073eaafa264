package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		fn   func(echo.Context) error
		code int
		body string
	}{
		{"input default", func(e echo.Context) error { return InputError(e, nil) }, 400, `{"error":"InvalidRequest"}`},
		{"input custom", func(e echo.Context) error { return InputError(e, to.StringPtr("InvalidDid")) }, 400, `{"error":"InvalidDid"}`},
		{"unauthorized", func(e echo.Context) error { return UnauthorizedError(e, nil) }, 401, `{"error":"Unauthorized"}`},
		{"not found", func(e echo.Context) error { return NotFoundError(e, to.StringPtr("DraftNotFound")) }, 404, `{"error":"DraftNotFound"}`},
		{"server", func(e echo.Context) error { return ServerError(e, to.StringPtr("db down")) }, 500, `{"error":"Internal server error. db down"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, tt.fn(c))
			assert.Equal(t, tt.code, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
