package alexa

import "fmt"

// UpstreamError reports any failure talking to the vendor state API: a bad
// status, a vendor-reported error, an unexpected payload or a transport
// failure. StatusCode is zero when no response was received.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func upstreamErrorf(status int, format string, args ...any) *UpstreamError {
	return &UpstreamError{StatusCode: status, Message: fmt.Sprintf(format, args...)}
}
