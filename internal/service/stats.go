package service

import (
	"context"
	"math"

	"marketplace/internal/errs"
	"marketplace/models"
)

// BaseInfo - статистика платформы, доступна всем. Любая ошибка отдаётся как 500
// без подробностей.
func (s *Service) BaseInfo(ctx context.Context) (*models.BaseInfo, error) {
	info, err := s.store.GetBaseInfo(ctx)
	if err != nil {
		s.logger(ctx).Error().Err(err).Msg("base info")
		return nil, errs.NewInternalServerError()
	}
	if info.ReviewCount == 0 || math.IsNaN(info.AverageRating) {
		info.AverageRating = 0
	}
	info.AverageRating = math.Round(info.AverageRating*10) / 10
	return info, nil
}
