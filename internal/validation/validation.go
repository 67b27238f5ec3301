// Package validation разбирает тело запроса и проверяет его по тегам validate.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"marketplace/internal/errs"
)

// Ограничение размера тела, чтобы избежать DoS
const maxBodyBytes = 1048576

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator возвращает общий экземпляр validator с именами полей из json тегов.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validatable реализуют DTO запросов.
type Validatable interface {
	Validate() error
}

// CustomValidationError - ошибка, которую нельзя выразить тегом.
type CustomValidationError struct {
	Field   string
	Message string
}

// CustomValidationErrors - набор ошибок полей, сам является error.
type CustomValidationErrors []CustomValidationError

func (c CustomValidationErrors) Error() string {
	if len(c) == 0 {
		return "Validation failed"
	}
	parts := make([]string, 0, len(c))
	for _, e := range c {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

// Decode читает JSON тело запроса в payload.
func Decode(w http.ResponseWriter, r *http.Request, payload any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		if errors.Is(err, io.EOF) {
			return errs.NewBadRequestError("Request body is empty", false, nil, nil)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			msg := fmt.Sprintf("must be of type %s", typeErr.Type.String())
			return errs.NewBadRequestError("Invalid JSON format", true, nil,
				[]errs.FieldError{{Field: typeErr.Field, Error: msg}})
		}
		return errs.NewBadRequestError("Invalid JSON format: "+err.Error(), false, nil, nil)
	}
	return nil
}

// Check валидирует payload и возвращает 400 с ошибками полей.
func Check(payload Validatable) error {
	if err := payload.Validate(); err != nil {
		var httpErr *errs.HTTPError
		if errors.As(err, &httpErr) {
			return err
		}
		msg, fieldErrors := extractValidationError(err)
		return errs.NewBadRequestError(msg, true, nil, fieldErrors)
	}
	return nil
}

// Struct запускает проверку тегов для v.
func Struct(v any) error {
	return Validator().Struct(v)
}

func extractValidationError(err error) (string, []errs.FieldError) {
	var fieldErrors []errs.FieldError

	var custom CustomValidationErrors
	if errors.As(err, &custom) {
		for _, e := range custom {
			fieldErrors = append(fieldErrors, errs.FieldError{Field: e.Field, Error: e.Message})
		}
		return custom.Error(), fieldErrors
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error(), nil
	}

	for _, fe := range validationErrors {
		var msg string
		switch fe.Tag() {
		case "required":
			msg = "This field is required."
		case "min", "gte":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("must be at least %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must be at least %s", fe.Param())
			}
		case "max", "lte":
			if fe.Kind() == reflect.String {
				msg = fmt.Sprintf("must not exceed %s characters", fe.Param())
			} else {
				msg = fmt.Sprintf("must not exceed %s", fe.Param())
			}
		case "oneof":
			msg = fmt.Sprintf("must be one of: %s", fe.Param())
		case "email":
			msg = "must be a valid email address"
		case "eqfield":
			msg = fmt.Sprintf("must match %s", fe.Param())
		default:
			if fe.Param() != "" {
				msg = fmt.Sprintf("%s: %s", fe.Tag(), fe.Param())
			} else {
				msg = fe.Tag()
			}
		}
		fieldErrors = append(fieldErrors, errs.FieldError{Field: fieldPath(fe), Error: msg})
	}

	return "Validation failed", fieldErrors
}

// fieldPath отбрасывает имя корневой структуры: "CreateOfferRequest.details[0].title" -> "details[0].title"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}
