package core

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// DefaultErrorMessage is used when a failed response carries no detail.
const DefaultErrorMessage = "Request failed"

// DecodeErrorResponse converts a non-2xx response into an *Error. It
// understands FastAPI-style {"detail": ...} bodies (string or validation
// list) and {"error": {...}} envelopes. The body is consumed but not closed.
func DecodeErrorResponse(resp *http.Response) *Error {
	requestID := RequestIDFromHeader(resp.Header)
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	e := &Error{
		Type:       TypeForStatus(resp.StatusCode),
		Message:    DefaultErrorMessage,
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		RetryAfter: parseRetryAfterHeader(resp.Header.Get("Retry-After")),
	}

	var env struct {
		Detail json.RawMessage `json:"detail"`
		Error  *Error          `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return e
	}

	if env.Error != nil {
		if env.Error.Type != "" {
			e.Type = env.Error.Type
		}
		if strings.TrimSpace(env.Error.Message) != "" {
			e.Message = env.Error.Message
		}
		e.Code = env.Error.Code
		if env.Error.RequestID != "" {
			e.RequestID = env.Error.RequestID
		}
		if env.Error.RetryAfter != nil {
			e.RetryAfter = env.Error.RetryAfter
		}
		return e
	}

	if msg := detailMessage(env.Detail); msg != "" {
		e.Message = msg
	}
	return e
}

func detailMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(raw, &items); err == nil && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for _, item := range items {
			if len(item.Loc) > 0 {
				loc := make([]string, 0, len(item.Loc))
				for _, l := range item.Loc {
					loc = append(loc, fmt.Sprint(l))
				}
				parts = append(parts, strings.Join(loc, ".")+": "+item.Msg)
				continue
			}
			parts = append(parts, item.Msg)
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// RequestIDFromHeader returns the X-Request-Id header value.
func RequestIDFromHeader(h http.Header) string {
	if h == nil {
		return ""
	}
	return strings.TrimSpace(h.Get("X-Request-Id"))
}

func parseRetryAfterHeader(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &seconds
}
