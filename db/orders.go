package db

import (
	"context"

	"marketplace/models"
)

// Order (Заказ)

const orderSelect = `
        SELECT o.id, o.customer_user_id, o.business_user_id, o.offer_detail_id, o.status,
               o.created_at, o.updated_at,
               d.title, d.revisions, d.delivery_time_in_days, d.price, d.features, d.offer_type
        FROM orders o
        JOIN offer_detail d ON d.id = o.offer_detail_id`

func (s *Storage) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `
        INSERT INTO orders (customer_user_id, business_user_id, offer_detail_id, status)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query,
		o.CustomerUserID, o.BusinessUserID, o.OfferDetailID, o.Status).
		Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
}

func (s *Storage) GetOrder(ctx context.Context, id int64) (*models.OrderWithDetail, error) {
	o := &models.OrderWithDetail{}
	if err := s.db.GetContext(ctx, o, orderSelect+` WHERE o.id = $1`, id); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrdersForUser - заказы, где пользователь покупатель или исполнитель
func (s *Storage) ListOrdersForUser(ctx context.Context, userID int64) ([]models.OrderWithDetail, error) {
	orders := []models.OrderWithDetail{}
	query := orderSelect + `
        WHERE o.customer_user_id = $1 OR o.business_user_id = $1
        ORDER BY o.created_at DESC, o.id DESC`
	if err := s.db.SelectContext(ctx, &orders, query, userID); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderStatus меняет только статус, остальные поля заказа неизменяемы
func (s *Storage) UpdateOrderStatus(ctx context.Context, o *models.Order) error {
	query := `
        UPDATE orders
        SET status = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING updated_at`
	return s.db.QueryRowContext(ctx, query, o.Status, o.ID).Scan(&o.UpdatedAt)
}

func (s *Storage) DeleteOrder(ctx context.Context, id int64) error {
	query := `DELETE FROM orders WHERE id = $1`
	return mustAffect(s.db.ExecContext(ctx, query, id))
}

func (s *Storage) CountOrders(ctx context.Context, businessUserID int64, status models.OrderStatus) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM orders WHERE business_user_id = $1 AND status = $2`
	err := s.db.GetContext(ctx, &count, query, businessUserID, status)
	return count, err
}
