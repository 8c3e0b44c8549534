package openweather

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ServerError is a structural error envelope found in a response body:
// an object carrying a status-code field and a message field. The server
// emits these with arbitrary content types, so detection is structural
// and ignores any declared type.
type ServerError struct {
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s: %s", e.Code, e.Message)
}

// MalformedError reports a body that parsed syntactically but is missing
// a field the normalized schema requires. It is never silently defaulted
// over; the orchestrator uses it to trigger the one-shot format fallback.
type MalformedError struct {
	Field string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed response: missing %s", e.Field)
}

type envelopeProbe struct {
	Cod     json.RawMessage `json:"cod"`
	Message json.RawMessage `json:"message"`
}

// DetectEnvelope reports whether body is a server error envelope and, if
// so, returns it as a ServerError.
func DetectEnvelope(body []byte) (*ServerError, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, false
	}

	var probe envelopeProbe
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, false
	}
	if len(probe.Cod) == 0 || len(probe.Message) == 0 {
		return nil, false
	}

	// Healthy alternate-format bodies also carry cod/message fields,
	// with a 200 status; only a non-200 code marks an envelope.
	code := rawToString(probe.Cod)
	if code == "200" {
		return nil, false
	}

	return &ServerError{
		Code:    code,
		Message: rawToString(probe.Message),
	}, true
}

// rawToString renders a raw JSON scalar as text; the status code field
// is sometimes a number and sometimes a string.
func rawToString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return string(raw)
}
