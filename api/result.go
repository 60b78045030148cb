package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/goliatone/go-connect-contacts/core"
)

const noResponseMessage = "ERROR: No response found from API call"

// diagnosticFields lists the payload keys copied into an error diagnostic,
// in output order.
var diagnosticFields = []string{
	"status",
	"error",
	"type",
	"title",
	"message",
	"errorMessage",
	"errorCode",
}

// ParseResult renders a diagnostic for a decoded API payload. Successful
// responses render as "OK"; failures as "ERROR:" followed by " - value" for
// each diagnostic field present in the payload, null values included.
func ParseResult(payload any, statusCode int) string {
	if payload == nil {
		return noResponseMessage
	}
	if isSuccess(statusCode) {
		return "OK"
	}
	var out strings.Builder
	out.WriteString("ERROR:")
	fields, ok := payload.(map[string]any)
	if !ok {
		return out.String()
	}
	for _, key := range diagnosticFields {
		value, present := fields[key]
		if !present {
			continue
		}
		out.WriteString(" - ")
		out.WriteString(diagnosticValue(value))
	}
	return out.String()
}

// diagnosticValue renders a JSON null as "null" so the segment stays visible.
func diagnosticValue(value any) string {
	if value == nil {
		return "null"
	}
	return core.FormatValue(value)
}

// Normalize maps a status code and decoded payload to an Outcome.
func Normalize(statusCode int, payload any) core.Outcome {
	if isSuccess(statusCode) {
		return core.Outcome{Status: core.OutcomeOK, Result: payload, StatusCode: statusCode}
	}
	return core.Outcome{
		Status:     core.OutcomeError,
		Result:     ParseResult(payload, statusCode),
		StatusCode: statusCode,
	}
}

// DecodePayload turns a response body into the payload handed to Normalize.
// 204 yields an empty list, an empty body yields nil and a body that is not
// JSON is kept as raw text.
func DecodePayload(statusCode int, body []byte) any {
	if statusCode == http.StatusNoContent {
		return []any{}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return string(body)
	}
	return payload
}

func isSuccess(statusCode int) bool {
	return statusCode == http.StatusOK || statusCode == http.StatusNoContent
}
