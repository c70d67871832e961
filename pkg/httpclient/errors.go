package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/linkwise/linkwise/pkg/errors"
)

// errorBody covers the two error shapes the backends speak: a top-level
// "detail" (string or list of {msg}) and the nested {"error":{code,message}}
// envelope produced by pkg/httputil.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into the error taxonomy:
//
//   - 401 → AuthExpired
//   - other 4xx → Validation, carrying the server detail verbatim when present
//   - 5xx → Network
//
// The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response) error {
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperrors.AuthExpired()
	}
	if resp.StatusCode >= 500 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperrors.Network(&ServerError{StatusCode: resp.StatusCode})
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Validation(resp.StatusCode, "")
	}

	return apperrors.Validation(resp.StatusCode, detailFromBody(bodyBytes))
}

// detailFromBody extracts a human-readable message, or "" when the body does
// not carry one.
func detailFromBody(body []byte) string {
	var parsed errorBody
	if json.Unmarshal(body, &parsed) != nil {
		return ""
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return parsed.Error.Message
	}
	if len(parsed.Detail) == 0 {
		return ""
	}

	var detail string
	if json.Unmarshal(parsed.Detail, &detail) == nil {
		return detail
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(parsed.Detail, &items) == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		if len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

// TransportError normalizes an error returned before any response was read
// (dial failure, timeout, open breaker, 5xx converted by the breaker) into a
// Network error. Context cancellation is passed through untouched.
func TransportError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Network(err)
}

// BearerHeader formats a bearer Authorization header value.
func BearerHeader(token string) string {
	return "Bearer " + strings.TrimSpace(token)
}
