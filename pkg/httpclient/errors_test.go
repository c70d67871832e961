package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	apperrors "github.com/linkwise/linkwise/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeResponse creates an *http.Response with the given status code and body string.
func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_Unauthorized(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusUnauthorized, `{"detail":"Token expired"}`))

	assert.True(t, errors.Is(err, apperrors.ErrAuthExpired))
	assert.Equal(t, http.StatusUnauthorized, apperrors.HTTPStatus(err))
}

func TestParseResponseError_StringDetailVerbatim(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadRequest, `{"detail":"Invalid OTP"}`))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Equal(t, "Invalid OTP", appErr.Message)
	assert.Equal(t, http.StatusBadRequest, appErr.Status)
}

func TestParseResponseError_ListDetailUsesFirstMessage(t *testing.T) {
	body := `{"detail":[{"loc":["body","age"],"msg":"age must be at least 13"},{"msg":"second"}]}`
	err := ParseResponseError(makeResponse(http.StatusUnprocessableEntity, body))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "age must be at least 13", appErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestParseResponseError_EnvelopeMessage(t *testing.T) {
	body := `{"error":{"code":"ALREADY_USED","message":"verification already used"}}`
	err := ParseResponseError(makeResponse(http.StatusConflict, body))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "verification already used", appErr.Message)
	assert.Equal(t, http.StatusConflict, appErr.Status)
}

func TestParseResponseError_NoDetailIsGeneric(t *testing.T) {
	for _, body := range []string{"", "<html>bad</html>", `{"error":null}`, `{"detail":null}`} {
		err := ParseResponseError(makeResponse(http.StatusBadRequest, body))

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr), "body %q", body)
		assert.Equal(t, "the request could not be processed", appErr.Message, "body %q", body)
	}
}

func TestParseResponseError_ServerErrorIsNetwork(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadGateway, "upstream down"))

	assert.True(t, errors.Is(err, apperrors.ErrNetwork))
	var srvErr *ServerError
	require.True(t, errors.As(err, &srvErr))
	assert.Equal(t, http.StatusBadGateway, srvErr.StatusCode)
}

func TestTransportError(t *testing.T) {
	assert.Nil(t, TransportError(nil))
	assert.ErrorIs(t, TransportError(context.Canceled), context.Canceled)
	assert.False(t, errors.Is(TransportError(context.Canceled), apperrors.ErrNetwork))

	dial := fmt.Errorf("dial tcp 10.0.0.1:443: connect: connection refused")
	assert.True(t, errors.Is(TransportError(dial), apperrors.ErrNetwork))
	assert.True(t, errors.Is(TransportError(ErrCircuitOpen), apperrors.ErrNetwork))

	already := apperrors.AuthExpired()
	assert.Same(t, already, TransportError(already))
}

func TestBearerHeader(t *testing.T) {
	assert.Equal(t, "Bearer abc", BearerHeader(" abc "))
}
