package service

import (
	"context"

	"marketplace/internal/auth"
	"marketplace/internal/errs"
	"marketplace/models"
)

// CreateOrderInput - тело POST /orders/
type CreateOrderInput struct {
	OfferDetailID *int64 `json:"offer_detail_id"`
}

// UpdateOrderInput - тело PATCH /orders/{id}/. Остальные поля заказа неизменяемы.
type UpdateOrderInput struct {
	Status *string `json:"status"`
}

// CreateOrder - заказ тарифа покупателем. business_user берётся из владельца предложения.
func (s *Service) CreateOrder(ctx context.Context, p auth.Principal, in CreateOrderInput) (*models.OrderWithDetail, error) {
	if err := auth.RequireRole(p, models.RoleCustomer); err != nil {
		return nil, err
	}
	if in.OfferDetailID == nil {
		return nil, errs.NewFieldError("offer_detail_id", "This field is required.")
	}

	detail, err := s.store.GetOfferDetail(ctx, *in.OfferDetailID)
	if err != nil {
		return nil, s.notFound(ctx, "create order", err, "The specified offer detail does not exist.")
	}
	offer, err := s.store.GetOffer(ctx, detail.OfferID)
	if err != nil {
		return nil, s.notFound(ctx, "create order", err, "The specified offer detail does not exist.")
	}

	order := &models.Order{
		CustomerUserID: p.UserID,
		BusinessUserID: offer.UserID,
		OfferDetailID:  detail.ID,
		Status:         models.OrderStatusInProgress,
	}
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, s.storeError(ctx, "create order", err)
	}
	s.logger(ctx).Info().Int64("order_id", order.ID).Int64("offer_detail_id", detail.ID).Msg("order created")

	return &models.OrderWithDetail{
		Order:              *order,
		Title:              detail.Title,
		Revisions:          detail.Revisions,
		DeliveryTimeInDays: detail.DeliveryTimeInDays,
		Price:              detail.Price,
		Features:           detail.Features,
		OfferType:          detail.OfferType,
	}, nil
}

// ListOrders - только заказы, где вызывающий покупатель или исполнитель.
func (s *Service) ListOrders(ctx context.Context, p auth.Principal) ([]models.OrderWithDetail, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	orders, err := s.store.ListOrdersForUser(ctx, p.UserID)
	if err != nil {
		return nil, s.storeError(ctx, "list orders", err)
	}
	return orders, nil
}

// GetOrder - участники заказа и администратор.
func (s *Service) GetOrder(ctx context.Context, p auth.Principal, orderID int64) (*models.OrderWithDetail, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.notFound(ctx, "get order", err, "Order not found.")
	}
	if p.UserID != order.CustomerUserID && p.UserID != order.BusinessUserID && !p.IsStaff {
		return nil, errs.NewForbiddenError("You do not have permission to perform this action.", false)
	}
	return order, nil
}

// UpdateOrderStatus - менять статус может только исполнитель заказа.
func (s *Service) UpdateOrderStatus(ctx context.Context, p auth.Principal, orderID int64, in UpdateOrderInput) (*models.OrderWithDetail, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, s.notFound(ctx, "update order", err, "Order not found.")
	}
	if err := auth.RequireOwner(p, order.BusinessUserID); err != nil {
		return nil, err
	}

	if in.Status == nil {
		return nil, errs.NewFieldError("status", "This field is required.")
	}
	status := models.OrderStatus(*in.Status)
	if !status.Valid() {
		return nil, errs.NewFieldError("status",
			"\""+*in.Status+"\" is not a valid choice. Allowed: in_progress, completed, cancelled.")
	}

	order.Status = status
	if err := s.store.UpdateOrderStatus(ctx, &order.Order); err != nil {
		return nil, s.notFound(ctx, "update order", err, "Order not found.")
	}
	s.logger(ctx).Info().Int64("order_id", orderID).Str("status", string(status)).Msg("order status changed")
	return order, nil
}

// DeleteOrder - только администратор.
func (s *Service) DeleteOrder(ctx context.Context, p auth.Principal, orderID int64) error {
	if err := auth.RequireAdmin(p); err != nil {
		return err
	}
	if err := s.store.DeleteOrder(ctx, orderID); err != nil {
		return s.notFound(ctx, "delete order", err, "Order not found.")
	}
	return nil
}

// OrderCount считает заказы business пользователя в статусе status.
// 404, если id не принадлежит business пользователю, даже когда заказов нет.
func (s *Service) OrderCount(ctx context.Context, p auth.Principal, businessUserID int64, status models.OrderStatus) (int, error) {
	if err := auth.RequireAuthenticated(p); err != nil {
		return 0, err
	}
	ok, err := s.store.IsBusinessUser(ctx, businessUserID)
	if err != nil {
		return 0, s.storeError(ctx, "order count", err)
	}
	if !ok {
		return 0, errs.NewNotFoundError("Business user not found.", true, nil)
	}
	count, err := s.store.CountOrders(ctx, businessUserID, status)
	if err != nil {
		return 0, s.storeError(ctx, "order count", err)
	}
	return count, nil
}
