package speak

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// TransportError reports a gateway call that never got an HTTP response:
// DNS, refused connection, TLS or an expired deadline. A response with an
// error status is a *core.Error instead.
type TransportError struct {
	// Operation is the gateway call, e.g. "generate_sentence".
	Operation string
	URL       string
	Err       error
}

func (e *TransportError) Error() string {
	if e == nil {
		return ""
	}
	if e.URL == "" {
		return fmt.Sprintf("%s: gateway unreachable: %v", e.Operation, e.Err)
	}
	return fmt.Sprintf("%s: gateway unreachable at %s: %v", e.Operation, redactURLUserInfo(e.URL), e.Err)
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Timeout reports whether the call ran out of time rather than being
// refused.
func (e *TransportError) Timeout() bool {
	if e == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

func redactURLUserInfo(raw string) string {
	if raw == "" {
		return raw
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}
	parsed.User = nil
	return parsed.String()
}
