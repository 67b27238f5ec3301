package service

import (
	"context"

	"marketplace/internal/auth"
	"marketplace/internal/errs"
	"marketplace/internal/sqlerr"
	"marketplace/internal/validation"
	"marketplace/models"
)

const duplicateReviewMessage = "You can only review a business user once."

// CreateReviewInput - тело POST /reviews/. reviewer всегда вызывающий.
type CreateReviewInput struct {
	BusinessUser *int64 `json:"business_user" validate:"required"`
	Rating       *int   `json:"rating" validate:"required,min=1,max=5"`
	Description  string `json:"description" validate:"required"`
}

func (in *CreateReviewInput) Validate() error {
	return validation.Struct(in)
}

// UpdateReviewInput - тело PATCH /reviews/{id}/
type UpdateReviewInput struct {
	Rating      *int    `json:"rating" validate:"omitnil,min=1,max=5"`
	Description *string `json:"description" validate:"omitnil,min=1"`
}

func (in *UpdateReviewInput) Validate() error {
	return validation.Struct(in)
}

// CreateReview - один отзыв покупателя на business пользователя.
func (s *Service) CreateReview(ctx context.Context, p auth.Principal, in CreateReviewInput) (*models.Review, error) {
	if err := auth.RequireRole(p, models.RoleCustomer); err != nil {
		return nil, err
	}
	if err := validation.Check(&in); err != nil {
		return nil, err
	}

	isBusiness, err := s.store.IsBusinessUser(ctx, *in.BusinessUser)
	if err != nil {
		return nil, s.storeError(ctx, "create review", err)
	}
	if !isBusiness {
		return nil, errs.NewFieldError("business_user", "business_user must reference an existing business user.")
	}

	exists, err := s.store.ReviewExists(ctx, *in.BusinessUser, p.UserID)
	if err != nil {
		return nil, s.storeError(ctx, "create review", err)
	}
	if exists {
		return nil, errs.NewFieldError("non_field_errors", duplicateReviewMessage)
	}

	review := &models.Review{
		BusinessUserID: *in.BusinessUser,
		ReviewerID:     p.UserID,
		Rating:         *in.Rating,
		Description:    in.Description,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		// параллельный запрос успел раньше, сработал уникальный индекс
		if sqlerr.IsUniqueViolation(err) {
			return nil, errs.NewFieldError("non_field_errors", duplicateReviewMessage)
		}
		return nil, s.storeError(ctx, "create review", err)
	}
	return review, nil
}

// ListReviews - аутентифицированным, по умолчанию сначала недавно изменённые.
func (s *Service) ListReviews(ctx context.Context, p auth.Principal, filter models.ReviewFilter) ([]models.Review, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if !models.ReviewOrderings[filter.Ordering] {
		filter.Ordering = "-updated_at"
	}
	reviews, err := s.store.ListReviews(ctx, filter)
	if err != nil {
		return nil, s.storeError(ctx, "list reviews", err)
	}
	return reviews, nil
}

func (s *Service) GetReview(ctx context.Context, p auth.Principal, reviewID int64) (*models.Review, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, s.notFound(ctx, "get review", err, "Review not found.")
	}
	return review, nil
}

// UpdateReview - только автор отзыва.
func (s *Service) UpdateReview(ctx context.Context, p auth.Principal, reviewID int64, in UpdateReviewInput) (*models.Review, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, s.notFound(ctx, "update review", err, "Review not found.")
	}
	if err := auth.RequireOwner(p, review.ReviewerID); err != nil {
		return nil, err
	}
	if err := validation.Check(&in); err != nil {
		return nil, err
	}

	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if in.Description != nil {
		review.Description = *in.Description
	}
	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, s.notFound(ctx, "update review", err, "Review not found.")
	}
	return review, nil
}

// DeleteReview - только автор отзыва.
func (s *Service) DeleteReview(ctx context.Context, p auth.Principal, reviewID int64) error {
	if err := auth.RequireAuthenticated(p); err != nil {
		return err
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return s.notFound(ctx, "delete review", err, "Review not found.")
	}
	if err := auth.RequireOwner(p, review.ReviewerID); err != nil {
		return err
	}
	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return s.notFound(ctx, "delete review", err, "Review not found.")
	}
	return nil
}
