// Package service содержит правила маркетплейса: кто что может делать
// и какие данные допустимы. HTTP слой только разбирает запрос и сериализует ответ.
package service

import (
	"context"

	"github.com/rs/zerolog"

	"marketplace/internal/errs"
	"marketplace/internal/sqlerr"
)

type Service struct {
	store Storage
	log   zerolog.Logger
}

func New(store Storage, log zerolog.Logger) *Service {
	return &Service{store: store, log: log}
}

// storeError логирует неожиданные ошибки хранилища и переводит их в ошибку API.
func (s *Service) storeError(ctx context.Context, op string, err error) error {
	mapped := sqlerr.HandleError(err)
	if httpErr, ok := mapped.(*errs.HTTPError); ok && httpErr.Status >= 500 {
		s.logger(ctx).Error().Err(err).Str("op", op).Msg("storage failure")
	}
	return mapped
}

// notFound: sql.ErrNoRows -> 404 с сообщением, прочее через storeError.
func (s *Service) notFound(ctx context.Context, op string, err error, message string) error {
	if sqlerr.IsNotFound(err) {
		return errs.NewNotFoundError(message, true, nil)
	}
	return s.storeError(ctx, op, err)
}

// logger берёт логгер запроса из контекста, если он есть.
func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.log
}
