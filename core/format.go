package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FormatValue renders a decoded JSON value as report text. Strings are
// returned verbatim, numbers without trailing zeros and composite values as
// compact JSON.
func FormatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case json.Number:
		return typed.String()
	case bool:
		return strconv.FormatBool(typed)
	case int, int32, int64:
		return fmt.Sprint(typed)
	case fmt.Stringer:
		return typed.String()
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprint(value)
	}
	return string(raw)
}
