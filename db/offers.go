package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"marketplace/models"
)

// Offer + OfferDetail (Предложение и тарифы)

const detailColumns = `id, offer_id, title, revisions, delivery_time_in_days, price, features, offer_type`

const minPriceExpr = `(SELECT MIN(md.price) FROM offer_detail md WHERE md.offer_id = o.id)`

var offerOrderBy = map[string]string{
	"":            minPriceExpr + " ASC NULLS LAST, o.id ASC",
	"min_price":   minPriceExpr + " ASC NULLS LAST, o.id ASC",
	"-min_price":  minPriceExpr + " DESC NULLS LAST, o.id DESC",
	"updated_at":  "o.updated_at ASC, o.id ASC",
	"-updated_at": "o.updated_at DESC, o.id DESC",
}

// CreateOffer сохраняет предложение со всеми тарифами в одной транзакции
func (s *Storage) CreateOffer(ctx context.Context, o *models.Offer) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
        INSERT INTO offer (user_id, title, image, description)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
		err := tx.QueryRowContext(ctx, query, o.UserID, o.Title, o.Image, o.Description).
			Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return err
		}

		query = `
        INSERT INTO offer_detail
            (offer_id, title, revisions, delivery_time_in_days, price, features, offer_type)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`
		for i := range o.Details {
			d := &o.Details[i]
			d.OfferID = o.ID
			if d.Features == nil {
				d.Features = pq.StringArray{}
			}
			err := tx.QueryRowContext(ctx, query,
				d.OfferID, d.Title, d.Revisions, d.DeliveryTimeInDays, d.Price, d.Features, d.OfferType).
				Scan(&d.ID)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	o := &models.Offer{}
	query := `SELECT id, user_id, title, image, description, created_at, updated_at FROM offer WHERE id = $1`
	if err := s.db.GetContext(ctx, o, query, id); err != nil {
		return nil, err
	}

	query = `SELECT ` + detailColumns + ` FROM offer_detail WHERE offer_id = $1 ORDER BY id`
	if err := s.db.SelectContext(ctx, &o.Details, query, id); err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateOffer сохраняет поля предложения и его тарифов, updated_at обновляется всегда
func (s *Storage) UpdateOffer(ctx context.Context, o *models.Offer) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
        UPDATE offer
        SET title = $1, description = $2, image = $3, updated_at = NOW()
        WHERE id = $4
        RETURNING updated_at`
		err := tx.QueryRowContext(ctx, query, o.Title, o.Description, o.Image, o.ID).Scan(&o.UpdatedAt)
		if err != nil {
			return err
		}

		// offer_type не обновляется
		query = `
        UPDATE offer_detail
        SET title = $1, revisions = $2, delivery_time_in_days = $3, price = $4, features = $5
        WHERE id = $6 AND offer_id = $7`
		for _, d := range o.Details {
			err := mustAffect(tx.ExecContext(ctx, query,
				d.Title, d.Revisions, d.DeliveryTimeInDays, d.Price, d.Features, d.ID, o.ID))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Storage) DeleteOffer(ctx context.Context, id int64) error {
	query := `DELETE FROM offer WHERE id = $1`
	return mustAffect(s.db.ExecContext(ctx, query, id))
}

// ListOffers возвращает страницу предложений и общее количество подходящих под фильтр
func (s *Storage) ListOffers(ctx context.Context, f models.OfferFilter) ([]models.OfferSummary, int, error) {
	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.CreatorID != nil {
		conds = append(conds, "o.user_id = "+arg(*f.CreatorID))
	}
	// предложение подходит, если подходит хотя бы один тариф
	if f.MinPrice != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM offer_detail fd WHERE fd.offer_id = o.id AND fd.price >= "+arg(*f.MinPrice)+")")
	}
	if f.MaxDeliveryTime != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM offer_detail fd WHERE fd.offer_id = o.id AND fd.delivery_time_in_days <= "+arg(*f.MaxDeliveryTime)+")")
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		p := arg("%" + escapeLike(search) + "%")
		conds = append(conds, "(o.title ILIKE "+p+" OR o.description ILIKE "+p+")")
	}

	filter := ""
	if len(conds) > 0 {
		filter = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM offer o"+filter, args...); err != nil {
		return nil, 0, err
	}

	orderBy, ok := offerOrderBy[f.Ordering]
	if !ok {
		orderBy = offerOrderBy[""]
	}
	query := `
        SELECT o.id, o.user_id, o.title, o.image, o.description, o.created_at, o.updated_at,
               u.username AS owner_username, u.first_name AS owner_first_name, u.last_name AS owner_last_name
        FROM offer o
        JOIN auth_user u ON u.id = o.user_id` + filter +
		" ORDER BY " + orderBy +
		fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)

	offers := []models.OfferSummary{}
	if err := s.db.SelectContext(ctx, &offers, query, args...); err != nil {
		return nil, 0, err
	}
	if len(offers) == 0 {
		return offers, total, nil
	}

	ids := make([]int64, len(offers))
	index := make(map[int64]int, len(offers))
	for i, o := range offers {
		ids[i] = o.ID
		index[o.ID] = i
	}
	var details []models.OfferDetail
	query = `SELECT ` + detailColumns + ` FROM offer_detail WHERE offer_id = ANY($1) ORDER BY id`
	if err := s.db.SelectContext(ctx, &details, query, pq.Array(ids)); err != nil {
		return nil, 0, err
	}
	for _, d := range details {
		i := index[d.OfferID]
		offers[i].Details = append(offers[i].Details, d)
	}
	return offers, total, nil
}

func (s *Storage) GetOfferDetail(ctx context.Context, id int64) (*models.OfferDetail, error) {
	d := &models.OfferDetail{}
	query := `SELECT ` + detailColumns + ` FROM offer_detail WHERE id = $1`
	if err := s.db.GetContext(ctx, d, query, id); err != nil {
		return nil, err
	}
	return d, nil
}

// escapeLike экранирует спецсимволы LIKE
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
