package sqlerr_test

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"marketplace/internal/errs"
	"marketplace/internal/sqlerr"
)

func asHTTP(t *testing.T, err error) *errs.HTTPError {
	t.Helper()
	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "got %T", err)
	return httpErr
}

func TestHandleErrorUniqueViolation(t *testing.T) {
	err := fmt.Errorf("create account: %w", &pq.Error{
		Code: "23505", Table: "auth_user", Constraint: "auth_user_username_key",
	})

	require.True(t, sqlerr.IsUniqueViolation(err))
	require.Equal(t, "auth_user_username_key", sqlerr.ConstraintName(err))

	httpErr := asHTTP(t, sqlerr.HandleError(err))
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Equal(t, "AUTH_USER_ALREADY_EXISTS", httpErr.Code)
	require.Equal(t, "A Auth User with this Username already exists", httpErr.Message)
}

func TestHandleErrorForeignKeyViolation(t *testing.T) {
	httpErr := asHTTP(t, sqlerr.HandleError(&pq.Error{
		Code: "23503", Table: "orders", Constraint: "orders_offer_detail_id_fkey",
	}))
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Equal(t, "ORDER_NOT_FOUND", httpErr.Code)
	require.Equal(t, "The referenced Order does not exist", httpErr.Message)
}

func TestHandleErrorNotNullAndCheck(t *testing.T) {
	httpErr := asHTTP(t, sqlerr.HandleError(&pq.Error{Code: "23502", Table: "offer", Column: "title"}))
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Equal(t, []errs.FieldError{{Field: "title", Error: "is required"}}, httpErr.Errors)

	httpErr = asHTTP(t, sqlerr.HandleError(&pq.Error{Code: "23514", Table: "review", Column: "rating"}))
	require.Equal(t, http.StatusBadRequest, httpErr.Status)
	require.Equal(t, "REVIEW_INVALID", httpErr.Code)
	require.Contains(t, httpErr.Message, "Rating")
}

func TestHandleErrorNoRowsAndUnknown(t *testing.T) {
	httpErr := asHTTP(t, sqlerr.HandleError(fmt.Errorf("get offer: %w", sql.ErrNoRows)))
	require.Equal(t, http.StatusNotFound, httpErr.Status)

	httpErr = asHTTP(t, sqlerr.HandleError(errors.New("connection refused")))
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
	require.NotContains(t, httpErr.Message, "connection refused")

	httpErr = asHTTP(t, sqlerr.HandleError(&pq.Error{Code: "40001"}))
	require.Equal(t, http.StatusInternalServerError, httpErr.Status)
}

func TestHandleErrorKeepsHTTPError(t *testing.T) {
	original := errs.NewForbiddenError("nope", true)
	require.Same(t, original, sqlerr.HandleError(original))
}

func TestConvertPqError(t *testing.T) {
	src := &pq.Error{Code: "23505", Message: "duplicate key", Table: "review", Constraint: "review_business_user_reviewer_key"}
	converted := sqlerr.ConvertPqError(src)

	require.Equal(t, sqlerr.UniqueViolation, converted.Code)
	require.Equal(t, "23505", converted.DatabaseCode)
	require.Equal(t, "review", converted.TableName)
	require.ErrorIs(t, converted, src)
	require.Equal(t, sqlerr.UniqueViolation, sqlerr.ErrCode(converted))
	require.Equal(t, sqlerr.Other, sqlerr.MapCode("42P01"))
}
