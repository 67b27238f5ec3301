package service

import (
	"context"

	"marketplace/internal/auth"
	"marketplace/internal/errs"
	"marketplace/internal/validation"
	"marketplace/models"
)

// ProfilePatch - PATCH /profile/{user_id}/. user, username, type и created_at
// только для чтения и в запросе игнорируются.
type ProfilePatch struct {
	FirstName    *string `json:"first_name" validate:"omitnil,max=150"`
	LastName     *string `json:"last_name" validate:"omitnil,max=150"`
	Email        *string `json:"email" validate:"omitnil,email"`
	File         *string `json:"file" validate:"omitnil,max=255"`
	Location     *string `json:"location" validate:"omitnil,max=255"`
	Tel          *string `json:"tel" validate:"omitnil,max=20"`
	Description  *string `json:"description"`
	WorkingHours *string `json:"working_hours" validate:"omitnil,max=50"`
}

func (in *ProfilePatch) Validate() error {
	return validation.Struct(in)
}

func (s *Service) GetProfile(ctx context.Context, p auth.Principal, userID int64) (*models.ProfileWithUser, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, s.notFound(ctx, "get profile", err, "Profile not found.")
	}
	return profile, nil
}

// UpdateProfile - владелец профиля или администратор.
func (s *Service) UpdateProfile(ctx context.Context, p auth.Principal, userID int64, in ProfilePatch) (*models.ProfileWithUser, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, s.notFound(ctx, "update profile", err, "Profile not found.")
	}
	if err := auth.RequireOwnerOrAdmin(p, profile.UserID); err != nil {
		return nil, err
	}
	if err := validation.Check(&in); err != nil {
		return nil, err
	}
	if in.WorkingHours != nil && profile.Type != models.RoleBusiness {
		return nil, errs.NewFieldError("working_hours", "Working hours can only be set on business profiles.")
	}

	if in.FirstName != nil {
		profile.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		profile.LastName = *in.LastName
	}
	if in.Email != nil {
		profile.Email = *in.Email
	}
	if in.File != nil {
		profile.File = in.File
	}
	if in.Location != nil {
		profile.Location = *in.Location
	}
	if in.Tel != nil {
		profile.Tel = *in.Tel
	}
	if in.Description != nil {
		profile.Description = *in.Description
	}
	if in.WorkingHours != nil {
		profile.WorkingHours = *in.WorkingHours
	}

	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return nil, s.storeError(ctx, "update profile", err)
	}
	return profile, nil
}

// ListProfiles - профили одного типа, type только business или customer.
func (s *Service) ListProfiles(ctx context.Context, p auth.Principal, profileType string) ([]models.ProfileWithUser, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	role := models.Role(profileType)
	if !role.Valid() {
		return nil, errs.NewFieldError("type", "Profile type must be 'business' or 'customer'.")
	}
	profiles, err := s.store.ListProfiles(ctx, role)
	if err != nil {
		return nil, s.storeError(ctx, "list profiles", err)
	}
	return profiles, nil
}
