package service_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"marketplace/internal/service"
	"marketplace/models"
)

func TestRegisterSplitsNameAndCreatesProfile(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, service.RegistrationInput{
		Username:         "Jane Doe",
		Email:            "jane@example.com",
		Password:         "pw",
		RepeatedPassword: "pw",
		Type:             "business",
	})
	require.NoError(t, err)
	require.Len(t, res.Token, 32)
	require.Equal(t, "Jane Doe", res.Username)

	profile, err := store.GetProfile(ctx, res.UserID)
	require.NoError(t, err)
	require.Equal(t, "Jane", profile.FirstName)
	require.Equal(t, "Doe", profile.LastName)
	require.Equal(t, models.RoleBusiness, profile.Type)
	require.Equal(t, models.ProfilePlaceholder, profile.WorkingHours)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, service.RegistrationInput{
		Username: "a", Email: "a@example.com", Password: "x", RepeatedPassword: "y", Type: "customer",
	})
	httpErr := requireStatus(t, err, http.StatusBadRequest)
	require.Equal(t, "password", httpErr.Errors[0].Field)

	_, err = svc.Register(ctx, service.RegistrationInput{
		Username: "a", Email: "a@example.com", Password: "x", RepeatedPassword: "x", Type: "admin",
	})
	httpErr = requireStatus(t, err, http.StatusBadRequest)
	require.Equal(t, "type", httpErr.Errors[0].Field)
}

func TestRegisterDuplicateUsernameAndEmail(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	register(t, svc, "anna", models.RoleCustomer)

	_, err := svc.Register(ctx, service.RegistrationInput{
		Username: "anna", Email: "other@example.com", Password: "x", RepeatedPassword: "x", Type: "customer",
	})
	httpErr := requireStatus(t, err, http.StatusBadRequest)
	require.Equal(t, "username", httpErr.Errors[0].Field)

	_, err = svc.Register(ctx, service.RegistrationInput{
		Username: "bert", Email: "anna@example.com", Password: "x", RepeatedPassword: "x", Type: "customer",
	})
	httpErr = requireStatus(t, err, http.StatusBadRequest)
	require.Equal(t, "email", httpErr.Errors[0].Field)
}

func TestLoginReusesToken(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, service.RegistrationInput{
		Username: "carl", Email: "carl@example.com", Password: "pw", RepeatedPassword: "pw", Type: "customer",
	})
	require.NoError(t, err)

	res, err := svc.Login(ctx, service.LoginInput{Username: "carl", Password: "pw"})
	require.NoError(t, err)
	require.Equal(t, reg.Token, res.Token)
	require.Equal(t, reg.UserID, res.UserID)

	_, err = svc.Login(ctx, service.LoginInput{Username: "carl", Password: "wrong"})
	requireStatus(t, err, http.StatusBadRequest)

	_, err = svc.Login(ctx, service.LoginInput{Username: "nobody", Password: "pw"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, store := newService(t)
	p := register(t, svc, "dora", models.RoleCustomer)
	store.SetActive(p.UserID, false)

	_, err := svc.Login(context.Background(), service.LoginInput{Username: "dora", Password: "secret123"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestAuthenticateUnknownToken(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Authenticate(context.Background(), "deadbeef")
	requireStatus(t, err, http.StatusUnauthorized)
}
