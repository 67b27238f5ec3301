package db

import (
	"context"
	"fmt"
	"strings"

	"marketplace/models"
)

// Review (Отзыв)

const reviewColumns = `id, business_user_id, reviewer_id, rating, description, created_at, updated_at`

var reviewOrderBy = map[string]string{
	"updated_at":  "updated_at ASC, id ASC",
	"-updated_at": "updated_at DESC, id DESC",
	"rating":      "rating ASC, id ASC",
	"-rating":     "rating DESC, id DESC",
}

// CreateReview полагается на уникальный индекс (business_user_id, reviewer_id):
// второй параллельный отзыв получит unique_violation
func (s *Storage) CreateReview(ctx context.Context, r *models.Review) error {
	query := `
        INSERT INTO review (business_user_id, reviewer_id, rating, description)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, r.BusinessUserID, r.ReviewerID, r.Rating, r.Description).
		Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (s *Storage) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	r := &models.Review{}
	query := `SELECT ` + reviewColumns + ` FROM review WHERE id = $1`
	if err := s.db.GetContext(ctx, r, query, id); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Storage) ReviewExists(ctx context.Context, businessUserID, reviewerID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM review WHERE business_user_id = $1 AND reviewer_id = $2)`
	err := s.db.GetContext(ctx, &exists, query, businessUserID, reviewerID)
	return exists, err
}

func (s *Storage) ListReviews(ctx context.Context, f models.ReviewFilter) ([]models.Review, error) {
	var conds []string
	var args []interface{}
	if f.BusinessUserID != nil {
		args = append(args, *f.BusinessUserID)
		conds = append(conds, fmt.Sprintf("business_user_id = $%d", len(args)))
	}
	if f.ReviewerID != nil {
		args = append(args, *f.ReviewerID)
		conds = append(conds, fmt.Sprintf("reviewer_id = $%d", len(args)))
	}

	query := `SELECT ` + reviewColumns + ` FROM review`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	orderBy, ok := reviewOrderBy[f.Ordering]
	if !ok {
		orderBy = reviewOrderBy["-updated_at"]
	}
	query += " ORDER BY " + orderBy

	reviews := []models.Review{}
	if err := s.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (s *Storage) UpdateReview(ctx context.Context, r *models.Review) error {
	query := `
        UPDATE review
        SET rating = $1, description = $2, updated_at = NOW()
        WHERE id = $3
        RETURNING updated_at`
	return s.db.QueryRowContext(ctx, query, r.Rating, r.Description, r.ID).Scan(&r.UpdatedAt)
}

func (s *Storage) DeleteReview(ctx context.Context, id int64) error {
	query := `DELETE FROM review WHERE id = $1`
	return mustAffect(s.db.ExecContext(ctx, query, id))
}

// GetBaseInfo - агрегаты для статистики платформы
func (s *Storage) GetBaseInfo(ctx context.Context) (*models.BaseInfo, error) {
	info := &models.BaseInfo{}
	query := `
        SELECT
            (SELECT COUNT(1) FROM review) AS review_count,
            COALESCE((SELECT AVG(rating)::float8 FROM review), 0) AS average_rating,
            (SELECT COUNT(1) FROM user_profile WHERE type = 'business') AS business_profile_count,
            (SELECT COUNT(1) FROM offer) AS offer_count`
	if err := s.db.GetContext(ctx, info, query); err != nil {
		return nil, err
	}
	return info, nil
}
