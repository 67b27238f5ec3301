package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"marketplace/internal/auth"
	"marketplace/internal/errs"
	"marketplace/internal/validation"
	"marketplace/models"
)

// Размер страницы списка предложений
const (
	DefaultOfferPageSize = 6
	MaxOfferPageSize     = 10000
)

// OfferDetailInput - один тариф в POST /offers/
type OfferDetailInput struct {
	Title              string           `json:"title" validate:"required,max=255"`
	Revisions          *int             `json:"revisions" validate:"required,min=0"`
	DeliveryTimeInDays *int             `json:"delivery_time_in_days" validate:"required,min=0"`
	Price              *decimal.Decimal `json:"price" validate:"required"`
	Features           []string         `json:"features" validate:"required,dive,required"`
	OfferType          string           `json:"offer_type" validate:"required,oneof=basic standard premium"`
}

// CreateOfferInput - тело POST /offers/
type CreateOfferInput struct {
	Title       string             `json:"title" validate:"required,max=255"`
	Description string             `json:"description" validate:"required"`
	Image       *string            `json:"image"`
	Details     []OfferDetailInput `json:"details" validate:"dive"`
}

// Validate: сначала состав тарифов (непустой, не меньше трёх, ровно basic/standard/premium),
// затем поля.
func (in *CreateOfferInput) Validate() error {
	if len(in.Details) == 0 {
		return validation.CustomValidationErrors{{Field: "details", Message: "At least one offer detail is required."}}
	}
	if len(in.Details) < len(models.RequiredOfferTypes) {
		return validation.CustomValidationErrors{{Field: "details",
			Message: fmt.Sprintf("An offer must contain at least %d details.", len(models.RequiredOfferTypes))}}
	}
	if msg := checkOfferTypeSet(in.Details); msg != "" {
		return validation.CustomValidationErrors{{Field: "details", Message: msg}}
	}

	if err := validation.Struct(in); err != nil {
		return err
	}
	var priceErrs validation.CustomValidationErrors
	for i, d := range in.Details {
		if msg := checkPrice(*d.Price); msg != "" {
			priceErrs = append(priceErrs, validation.CustomValidationError{
				Field: fmt.Sprintf("details[%d].price", i), Message: msg})
		}
	}
	if len(priceErrs) > 0 {
		return priceErrs
	}
	return nil
}

// maxPrice - предел колонки price NUMERIC(12, 2)
var maxPrice = decimal.RequireFromString("9999999999.99")

// checkPrice: цена от 0 до maxPrice, не больше двух знаков после запятой.
func checkPrice(price decimal.Decimal) string {
	switch {
	case price.IsNegative():
		return "must be at least 0"
	case price.GreaterThan(maxPrice):
		return "must not exceed " + maxPrice.String()
	case !price.Equal(price.Truncate(2)):
		return "must have at most 2 decimal places"
	}
	return ""
}

// checkOfferTypeSet возвращает текст ошибки, если набор offer_type не равен
// ровно {basic, standard, premium}.
func checkOfferTypeSet(details []OfferDetailInput) string {
	seen := map[string]int{}
	var invalid, duplicated, missing []string
	for _, d := range details {
		seen[d.OfferType]++
		if !models.OfferType(d.OfferType).Valid() {
			invalid = append(invalid, fmt.Sprintf("%q", d.OfferType))
		} else if seen[d.OfferType] == 2 {
			duplicated = append(duplicated, d.OfferType)
		}
	}
	for _, t := range models.RequiredOfferTypes {
		if seen[string(t)] == 0 {
			missing = append(missing, string(t))
		}
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing offer types: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid offer types: "+strings.Join(invalid, ", "))
	}
	if len(duplicated) > 0 {
		parts = append(parts, "duplicate offer types: "+strings.Join(duplicated, ", "))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Offer details must contain exactly one basic, standard and premium tier (" + strings.Join(parts, "; ") + ")."
}

// OfferDetailPatch - изменение существующего тарифа, ищется по id.
type OfferDetailPatch struct {
	ID                 *int64           `json:"id"`
	Title              *string          `json:"title" validate:"omitnil,min=1,max=255"`
	Revisions          *int             `json:"revisions" validate:"omitnil,min=0"`
	DeliveryTimeInDays *int             `json:"delivery_time_in_days" validate:"omitnil,min=0"`
	Price              *decimal.Decimal `json:"price"`
	Features           *[]string        `json:"features" validate:"omitnil,dive,required"`
	OfferType          *string          `json:"offer_type"`
}

// UpdateOfferInput - тело PATCH /offers/{id}/
type UpdateOfferInput struct {
	Title       *string            `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string            `json:"description" validate:"omitnil,min=1"`
	Image       *string            `json:"image"`
	Details     []OfferDetailPatch `json:"details" validate:"dive"`
}

func (in *UpdateOfferInput) Validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	var priceErrs validation.CustomValidationErrors
	for i, d := range in.Details {
		if d.Price == nil {
			continue
		}
		if msg := checkPrice(*d.Price); msg != "" {
			priceErrs = append(priceErrs, validation.CustomValidationError{
				Field: fmt.Sprintf("details[%d].price", i), Message: msg})
		}
	}
	if len(priceErrs) > 0 {
		return priceErrs
	}
	return nil
}

// CreateOffer - только для business пользователей, владелец - вызывающий.
func (s *Service) CreateOffer(ctx context.Context, p auth.Principal, in CreateOfferInput) (*models.Offer, error) {
	if err := auth.RequireRole(p, models.RoleBusiness); err != nil {
		return nil, err
	}
	if err := validation.Check(&in); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		UserID:      p.UserID,
		Title:       in.Title,
		Image:       in.Image,
		Description: in.Description,
	}
	for _, d := range in.Details {
		offer.Details = append(offer.Details, models.OfferDetail{
			Title:              d.Title,
			Revisions:          *d.Revisions,
			DeliveryTimeInDays: *d.DeliveryTimeInDays,
			Price:              *d.Price,
			Features:           d.Features,
			OfferType:          models.OfferType(d.OfferType),
		})
	}

	if err := s.store.CreateOffer(ctx, offer); err != nil {
		return nil, s.storeError(ctx, "create offer", err)
	}
	s.logger(ctx).Info().Int64("offer_id", offer.ID).Int64("user_id", p.UserID).Msg("offer created")
	return offer, nil
}

// UpdateOffer - частичное изменение предложения владельцем. Тарифы только
// обновляются: id и offer_type неизменяемы, новые тарифы не добавляются.
func (s *Service) UpdateOffer(ctx context.Context, p auth.Principal, offerID int64, in UpdateOfferInput) (*models.Offer, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, s.notFound(ctx, "update offer", err, "Offer not found.")
	}
	if err := auth.RequireOwner(p, offer.UserID); err != nil {
		return nil, err
	}

	// неизменяемость проверяется раньше остальных полей
	targets, err := matchDetails(offer, in.Details)
	if err != nil {
		return nil, err
	}
	if err := validation.Check(&in); err != nil {
		return nil, err
	}

	if in.Title != nil {
		offer.Title = *in.Title
	}
	if in.Description != nil {
		offer.Description = *in.Description
	}
	if in.Image != nil {
		offer.Image = in.Image
	}
	for i, patch := range in.Details {
		d := &offer.Details[targets[i]]
		if patch.Title != nil {
			d.Title = *patch.Title
		}
		if patch.Revisions != nil {
			d.Revisions = *patch.Revisions
		}
		if patch.DeliveryTimeInDays != nil {
			d.DeliveryTimeInDays = *patch.DeliveryTimeInDays
		}
		if patch.Price != nil {
			d.Price = *patch.Price
		}
		if patch.Features != nil {
			d.Features = *patch.Features
		}
	}

	if err := s.store.UpdateOffer(ctx, offer); err != nil {
		return nil, s.storeError(ctx, "update offer", err)
	}
	return offer, nil
}

// matchDetails сопоставляет каждый тариф из запроса с тарифом предложения по id
// и возвращает индексы в offer.Details.
func matchDetails(offer *models.Offer, patches []OfferDetailPatch) ([]int, error) {
	byID := make(map[int64]int, len(offer.Details))
	for i, d := range offer.Details {
		byID[d.ID] = i
	}

	targets := make([]int, len(patches))
	used := map[int64]bool{}
	for i, patch := range patches {
		field := fmt.Sprintf("details[%d]", i)
		if patch.ID == nil {
			return nil, errs.NewFieldError(field+".id", "Offer detail not found for this offer: each detail must include its 'id'.")
		}
		idx, ok := byID[*patch.ID]
		if !ok {
			return nil, errs.NewFieldError(field+".id",
				fmt.Sprintf("Offer detail with id %d not found for this offer; detail ids cannot be changed.", *patch.ID))
		}
		if used[*patch.ID] {
			return nil, errs.NewFieldError(field+".id", fmt.Sprintf("Offer detail with id %d is listed more than once.", *patch.ID))
		}
		used[*patch.ID] = true

		if patch.OfferType == nil {
			return nil, errs.NewFieldError(field+".offer_type", "Each detail must include 'offer_type'.")
		}
		if models.OfferType(*patch.OfferType) != offer.Details[idx].OfferType {
			return nil, errs.NewFieldError(field+".offer_type",
				fmt.Sprintf("offer_type cannot be changed (detail %d is '%s').", *patch.ID, offer.Details[idx].OfferType))
		}
		targets[i] = idx
	}
	return targets, nil
}

// DeleteOffer - только владелец; тарифы и заказы на них удаляются каскадно.
func (s *Service) DeleteOffer(ctx context.Context, p auth.Principal, offerID int64) error {
	if err := auth.RequireAuthenticated(p); err != nil {
		return err
	}
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return s.notFound(ctx, "delete offer", err, "Offer not found.")
	}
	if err := auth.RequireOwner(p, offer.UserID); err != nil {
		return err
	}
	if err := s.store.DeleteOffer(ctx, offerID); err != nil {
		return s.notFound(ctx, "delete offer", err, "Offer not found.")
	}
	s.logger(ctx).Info().Int64("offer_id", offerID).Msg("offer deleted")
	return nil
}

// GetOffer доступен без аутентификации.
func (s *Service) GetOffer(ctx context.Context, offerID int64) (*models.Offer, error) {
	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, s.notFound(ctx, "get offer", err, "Offer not found.")
	}
	return offer, nil
}

// ListOffers доступен без аутентификации. Неизвестный ordering игнорируется.
func (s *Service) ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.OfferSummary, int, error) {
	if !models.OfferOrderings[filter.Ordering] {
		filter.Ordering = ""
	}
	if filter.Limit <= 0 {
		filter.Limit = DefaultOfferPageSize
	}
	if filter.Limit > MaxOfferPageSize {
		filter.Limit = MaxOfferPageSize
	}
	offers, total, err := s.store.ListOffers(ctx, filter)
	if err != nil {
		return nil, 0, s.storeError(ctx, "list offers", err)
	}
	for i := range offers {
		sortDetails(offers[i].Details)
	}
	return offers, total, nil
}

// GetOfferDetail - один тариф целиком, только для аутентифицированных.
func (s *Service) GetOfferDetail(ctx context.Context, p auth.Principal, detailID int64) (*models.OfferDetail, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	detail, err := s.store.GetOfferDetail(ctx, detailID)
	if err != nil {
		return nil, s.notFound(ctx, "get offer detail", err, "Offer detail not found.")
	}
	return detail, nil
}

func sortDetails(details []models.OfferDetail) {
	sort.Slice(details, func(i, j int) bool { return details[i].ID < details[j].ID })
}
