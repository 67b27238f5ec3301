package service

import (
	"context"
	"strings"

	"marketplace/internal/auth"
	"marketplace/internal/errs"
	"marketplace/internal/sqlerr"
	"marketplace/internal/validation"
	"marketplace/models"
)

// RegistrationInput - тело POST /registration/
type RegistrationInput struct {
	Username         string `json:"username" validate:"required,max=100"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required"`
	RepeatedPassword string `json:"repeated_password" validate:"required"`
	Type             string `json:"type" validate:"required,oneof=customer business"`
}

func (in *RegistrationInput) Validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.Password != in.RepeatedPassword {
		return validation.CustomValidationErrors{{Field: "password", Message: "passwords don't match"}}
	}
	return nil
}

// LoginInput - тело POST /login/
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (in *LoginInput) Validate() error {
	return validation.Struct(in)
}

// AuthResult - ответ регистрации и входа
type AuthResult struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Email    string `json:"email"`
	UserID   int64  `json:"user_id"`
}

// Register создаёт пользователя, профиль выбранного типа и токен.
func (s *Service) Register(ctx context.Context, in RegistrationInput) (*AuthResult, error) {
	if err := validation.Check(&in); err != nil {
		return nil, err
	}

	taken, err := s.store.IsUsernameTaken(ctx, in.Username)
	if err != nil {
		return nil, s.storeError(ctx, "register", err)
	}
	if taken {
		return nil, errs.NewFieldError("username", "A user with that username already exists.")
	}
	taken, err = s.store.IsEmailTaken(ctx, in.Email)
	if err != nil {
		return nil, s.storeError(ctx, "register", err)
	}
	if taken {
		return nil, errs.NewFieldError("email", "A user with that email already exists.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("hash password")
		return nil, errs.NewInternalServerError()
	}

	// "Jane Doe" -> first_name Jane, last_name Doe
	firstName, lastName, _ := strings.Cut(in.Username, " ")
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    firstName,
		LastName:     lastName,
		IsActive:     true,
	}
	profile := &models.Profile{
		Type:         models.Role(in.Type),
		Location:     models.ProfilePlaceholder,
		Tel:          models.ProfilePlaceholder,
		Description:  models.ProfilePlaceholder,
		WorkingHours: models.ProfilePlaceholder,
	}
	token := &models.Token{Key: auth.NewTokenKey()}

	if err := s.store.CreateAccount(ctx, user, profile, token); err != nil {
		// гонка двух регистраций с одинаковым логином
		if sqlerr.IsUniqueViolation(err) {
			field := "username"
			if strings.Contains(sqlerr.ConstraintName(err), "email") {
				field = "email"
			}
			return nil, errs.NewFieldError(field, "A user with that "+field+" already exists.")
		}
		return nil, s.storeError(ctx, "register", err)
	}

	s.logger(ctx).Info().Int64("user_id", user.ID).Str("type", in.Type).Msg("user registered")

	return &AuthResult{
		Token:    token.Key,
		Username: user.Username,
		Email:    user.Email,
		UserID:   user.ID,
	}, nil
}

// Login проверяет пароль и возвращает существующий либо новый токен.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	if err := validation.Check(&in); err != nil {
		return nil, err
	}

	invalid := errs.NewBadRequestError("Unable to log in with provided credentials.", true, nil,
		[]errs.FieldError{{Field: "non_field_errors", Error: "Unable to log in with provided credentials."}})

	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if err != nil {
		if sqlerr.IsNotFound(err) {
			return nil, invalid
		}
		return nil, s.storeError(ctx, "login", err)
	}
	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, invalid
	}

	token := &models.Token{Key: auth.NewTokenKey(), UserID: user.ID}
	if err := s.store.GetOrCreateToken(ctx, token); err != nil {
		return nil, s.storeError(ctx, "login", err)
	}

	return &AuthResult{
		Token:    token.Key,
		Username: user.Username,
		Email:    user.Email,
		UserID:   user.ID,
	}, nil
}

// Authenticate находит пользователя по ключу токена.
func (s *Service) Authenticate(ctx context.Context, key string) (auth.Principal, error) {
	account, err := s.store.GetAccountByToken(ctx, key)
	if err != nil {
		if sqlerr.IsNotFound(err) {
			return auth.Anonymous, errs.NewUnauthorizedError("Invalid token.", false)
		}
		return auth.Anonymous, s.storeError(ctx, "authenticate", err)
	}
	if !account.IsActive {
		return auth.Anonymous, errs.NewUnauthorizedError("User inactive or deleted.", false)
	}
	return auth.Principal{
		UserID:   account.ID,
		Username: account.Username,
		Role:     account.Type,
		IsStaff:  account.IsStaff,
	}, nil
}
