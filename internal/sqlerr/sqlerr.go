// Package sqlerr переводит ошибки драйвера Postgres в ошибки API.
package sqlerr

import "github.com/lib/pq"

// Code - категория ошибки базы данных.
type Code string

const (
	Other               Code = "other"
	NotNullViolation    Code = "not_null_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	UniqueViolation     Code = "unique_violation"
	CheckViolation      Code = "check_violation"
)

// SQLSTATE коды, см. https://www.postgresql.org/docs/current/errcodes-appendix.html
var sqlStateCodes = map[pq.ErrorCode]Code{
	"23502": NotNullViolation,
	"23503": ForeignKeyViolation,
	"23505": UniqueViolation,
	"23514": CheckViolation,
}

// Error - разобранная ошибка Postgres.
type Error struct {
	Code           Code
	DatabaseCode   string
	Message        string
	TableName      string
	ColumnName     string
	ConstraintName string

	driverErr error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.driverErr
}

// MapCode сопоставляет SQLSTATE с Code.
func MapCode(code pq.ErrorCode) Code {
	if c, ok := sqlStateCodes[code]; ok {
		return c
	}
	return Other
}

// ConvertPqError строит Error из *pq.Error.
func ConvertPqError(src *pq.Error) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		DatabaseCode:   string(src.Code),
		Message:        src.Message,
		TableName:      src.Table,
		ColumnName:     src.Column,
		ConstraintName: src.Constraint,
		driverErr:      src,
	}
}
