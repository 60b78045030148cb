package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorConfigInvalid      = "CONTACTS_CONFIG_INVALID"
	ErrorTokenSigningFailed = "CONTACTS_TOKEN_SIGNING_FAILED"
	ErrorTransportFailed    = "CONTACTS_TRANSPORT_FAILED"
	ErrorBadInput           = "CONTACTS_BAD_INPUT"
	ErrorStorageFailed      = "CONTACTS_STORAGE_FAILED"
	ErrorInternal           = "CONTACTS_INTERNAL_ERROR"
)

func ConfigError(message string, metadata map[string]any) *goerrors.Error {
	return newError(message, goerrors.CategoryValidation, ErrorConfigInvalid, metadata)
}

func WrapConfigError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapError(source, goerrors.CategoryValidation, message, ErrorConfigInvalid, metadata)
}

func BadInputError(message string, metadata map[string]any) *goerrors.Error {
	return newError(message, goerrors.CategoryBadInput, ErrorBadInput, metadata)
}

func SigningError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapError(source, goerrors.CategoryInternal, message, ErrorTokenSigningFailed, metadata)
}

func TransportError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapError(source, goerrors.CategoryExternal, message, ErrorTransportFailed, metadata)
}

func StorageError(source error, message string, metadata map[string]any) *goerrors.Error {
	return wrapError(source, goerrors.CategoryInternal, message, ErrorStorageFailed, metadata)
}

// HasTextCode reports whether err carries a go-errors envelope with code.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(richErr.TextCode), strings.TrimSpace(code))
}

func newError(message string, category goerrors.Category, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).
		WithCode(httpStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func wrapError(source error, category goerrors.Category, message string, textCode string, metadata map[string]any) *goerrors.Error {
	if source == nil {
		return newError(message, category, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).
		WithCode(httpStatus(category)).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
