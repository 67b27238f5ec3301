// Package errs описывает ошибки, которые API отдаёт клиенту.
package errs

import (
	"net/http"
	"strings"
)

// FieldError - ошибка конкретного поля запроса.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// HTTPError - ошибка с HTTP статусом, сериализуется в тело ответа как есть.
type HTTPError struct {
	Code     string       `json:"code"`
	Message  string       `json:"message"`
	Status   int          `json:"status"`
	Override bool         `json:"override"`
	Errors   []FieldError `json:"errors,omitempty"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// codeFor: 400 -> "BAD_REQUEST"
func codeFor(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}
